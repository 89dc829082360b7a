package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/MZhann/AI-Legal-Assistant/internal/config"
	"github.com/MZhann/AI-Legal-Assistant/internal/core/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newConversationService(s *fakeStore) *ConversationService {
	return NewConversationService(
		testLogger(),
		&fakeConvRepo{s: s},
		&fakeMsgRepo{s: s},
		&fakeUserRepo{s: s},
		fakeTx{},
		config.ChatConfig{MaxMessageLength: 5000, PreviewLength: 100},
	)
}

func TestAppendPersistsAndAccounts(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	user := store.addUser(domain.RoleUser)
	lawyer := store.addUser(domain.RoleLawyer)
	conv := store.addConversation(user.ID, lawyer.ID)
	svc := newConversationService(store)

	msg, update, err := svc.Append(ctx, conv.ID, user.ID, user.Role, "  hello there  ", nil)
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if msg.Content != "hello there" {
		t.Errorf("content not trimmed: %q", msg.Content)
	}
	if msg.SenderID != user.ID || msg.ConversationID != conv.ID {
		t.Error("message attribution wrong")
	}
	if update.RecipientID != lawyer.ID {
		t.Errorf("update addressed to %v, want counterpart %v", update.RecipientID, lawyer.ID)
	}
	if update.UnreadCount != 1 {
		t.Errorf("unread count = %d, want 1", update.UnreadCount)
	}
	if update.LastMessage != "hello there" {
		t.Errorf("preview = %q", update.LastMessage)
	}

	got := store.conversation(conv.ID)
	if got.UnreadByLawyer != 1 || got.UnreadByUser != 0 {
		t.Errorf("counters = user %d lawyer %d, want 0/1", got.UnreadByUser, got.UnreadByLawyer)
	}
	if store.messageCount(conv.ID) != 1 {
		t.Errorf("message count = %d, want 1", store.messageCount(conv.ID))
	}
}

func TestAppendTruncatesPreview(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	user := store.addUser(domain.RoleUser)
	lawyer := store.addUser(domain.RoleLawyer)
	conv := store.addConversation(user.ID, lawyer.ID)
	svc := newConversationService(store)

	content := strings.Repeat("я", 250)
	msg, update, err := svc.Append(ctx, conv.ID, user.ID, user.Role, content, nil)
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if msg.Content != content {
		t.Error("stored message must keep full content")
	}
	if n := len([]rune(update.LastMessage)); n != 100 {
		t.Errorf("preview rune length = %d, want 100", n)
	}
}

func TestAppendValidation(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	user := store.addUser(domain.RoleUser)
	lawyer := store.addUser(domain.RoleLawyer)
	conv := store.addConversation(user.ID, lawyer.ID)
	svc := newConversationService(store)

	cases := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"whitespace only", "   \n\t "},
		{"over limit", strings.Repeat("a", 6000)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.Append(ctx, conv.ID, user.ID, user.Role, tc.content, nil)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
		})
	}

	// Rejected sends leave no trace.
	if store.messageCount(conv.ID) != 0 {
		t.Errorf("message count = %d, want 0", store.messageCount(conv.ID))
	}
	if got := store.conversation(conv.ID); got.UnreadByLawyer != 0 {
		t.Errorf("unread counter moved to %d on rejected sends", got.UnreadByLawyer)
	}
}

func TestAppendRejectsOutsider(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	user := store.addUser(domain.RoleUser)
	lawyer := store.addUser(domain.RoleLawyer)
	outsider := store.addUser(domain.RoleUser)
	conv := store.addConversation(user.ID, lawyer.ID)
	svc := newConversationService(store)

	_, _, err := svc.Append(ctx, conv.ID, outsider.ID, outsider.Role, "hi", nil)
	if !errors.Is(err, domain.ErrAuthorization) {
		t.Fatalf("err = %v, want ErrAuthorization", err)
	}
	if store.messageCount(conv.ID) != 0 {
		t.Error("outsider message must not persist")
	}
}

func TestAppendUnknownConversation(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	user := store.addUser(domain.RoleUser)
	svc := newConversationService(store)

	_, _, err := svc.Append(ctx, uuid.New(), user.ID, user.Role, "hi", nil)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestAppendConcurrentNoLostUpdates(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	user := store.addUser(domain.RoleUser)
	lawyer := store.addUser(domain.RoleLawyer)
	conv := store.addConversation(user.ID, lawyer.ID)
	svc := newConversationService(store)

	const perSide = 25
	var wg sync.WaitGroup
	wg.Add(2 * perSide)
	for i := 0; i < perSide; i++ {
		go func() {
			defer wg.Done()
			if _, _, err := svc.Append(ctx, conv.ID, user.ID, user.Role, "from user", nil); err != nil {
				t.Errorf("user append failed: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			if _, _, err := svc.Append(ctx, conv.ID, lawyer.ID, lawyer.Role, "from lawyer", nil); err != nil {
				t.Errorf("lawyer append failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if n := store.messageCount(conv.ID); n != 2*perSide {
		t.Errorf("message count = %d, want %d", n, 2*perSide)
	}
	got := store.conversation(conv.ID)
	if got.UnreadByLawyer != perSide || got.UnreadByUser != perSide {
		t.Errorf("counters = user %d lawyer %d, want %d/%d",
			got.UnreadByUser, got.UnreadByLawyer, perSide, perSide)
	}
}

func TestAppendPublishOrderMatchesPersistence(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	user := store.addUser(domain.RoleUser)
	lawyer := store.addUser(domain.RoleLawyer)
	conv := store.addConversation(user.ID, lawyer.ID)
	svc := newConversationService(store)

	// Concurrent senders on one conversation: the publish callbacks run
	// under the conversation's lock, so the order they fire in must be the
	// order the store accepted the messages in.
	var (
		mu        sync.Mutex
		published []uuid.UUID
	)
	record := func(msg *domain.Message, update *ConversationUpdate) {
		mu.Lock()
		published = append(published, msg.ID)
		mu.Unlock()
	}

	const perSide = 25
	var wg sync.WaitGroup
	wg.Add(2 * perSide)
	for i := 0; i < perSide; i++ {
		go func() {
			defer wg.Done()
			if _, _, err := svc.Append(ctx, conv.ID, user.ID, user.Role, "from user", record); err != nil {
				t.Errorf("user append failed: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			if _, _, err := svc.Append(ctx, conv.ID, lawyer.ID, lawyer.Role, "from lawyer", record); err != nil {
				t.Errorf("lawyer append failed: %v", err)
			}
		}()
	}
	wg.Wait()

	persisted, err := svc.History(ctx, conv.ID, user.ID)
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(persisted) != len(published) {
		t.Fatalf("persisted %d messages, published %d", len(persisted), len(published))
	}
	for i, m := range persisted {
		if published[i] != m.ID {
			t.Fatalf("publish order diverges from persistence order at %d: %v vs %v", i, published[i], m.ID)
		}
	}
}

func TestMarkReadIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	user := store.addUser(domain.RoleUser)
	lawyer := store.addUser(domain.RoleLawyer)
	conv := store.addConversation(user.ID, lawyer.ID)
	svc := newConversationService(store)

	for i := 0; i < 3; i++ {
		if _, _, err := svc.Append(ctx, conv.ID, user.ID, user.Role, "msg", nil); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	changed, counterpart, err := svc.MarkRead(ctx, conv.ID, lawyer.ID)
	if err != nil {
		t.Fatalf("mark read failed: %v", err)
	}
	if !changed {
		t.Error("first mark read should report a change")
	}
	if counterpart != user.ID {
		t.Errorf("counterpart = %v, want %v", counterpart, user.ID)
	}
	if got := store.conversation(conv.ID); got.UnreadByLawyer != 0 {
		t.Errorf("unread = %d after mark read, want 0", got.UnreadByLawyer)
	}

	// Second pass finds nothing unread.
	changed, _, err = svc.MarkRead(ctx, conv.ID, lawyer.ID)
	if err != nil {
		t.Fatalf("second mark read failed: %v", err)
	}
	if changed {
		t.Error("repeat mark read must report no change")
	}

	// The reader's own messages stay untouched for the other side.
	msgs, err := svc.History(ctx, conv.ID, user.ID)
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	for _, m := range msgs {
		if !m.IsRead {
			t.Error("lawyer-read message should be flagged read")
		}
	}
}

func TestMarkReadRejectsOutsider(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	user := store.addUser(domain.RoleUser)
	lawyer := store.addUser(domain.RoleLawyer)
	outsider := store.addUser(domain.RoleUser)
	conv := store.addConversation(user.ID, lawyer.ID)
	svc := newConversationService(store)

	_, _, err := svc.MarkRead(ctx, conv.ID, outsider.ID)
	if !errors.Is(err, domain.ErrAuthorization) {
		t.Fatalf("err = %v, want ErrAuthorization", err)
	}
}

func TestGetOrCreate(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	user := store.addUser(domain.RoleUser)
	lawyer := store.addUser(domain.RoleLawyer)
	notALawyer := store.addUser(domain.RoleUser)
	svc := newConversationService(store)

	conv, err := svc.GetOrCreate(ctx, user.ID, lawyer.ID)
	if err != nil {
		t.Fatalf("get or create failed: %v", err)
	}
	again, err := svc.GetOrCreate(ctx, user.ID, lawyer.ID)
	if err != nil {
		t.Fatalf("second get or create failed: %v", err)
	}
	if conv.ID != again.ID {
		t.Error("repeat call must return the same conversation")
	}

	if _, err := svc.GetOrCreate(ctx, user.ID, notALawyer.ID); !errors.Is(err, domain.ErrNotALawyer) {
		t.Errorf("err = %v, want ErrNotALawyer", err)
	}
	if _, err := svc.GetOrCreate(ctx, user.ID, uuid.New()); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestGetOrCreateConcurrentFirstContact(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	user := store.addUser(domain.RoleUser)
	lawyer := store.addUser(domain.RoleLawyer)
	svc := newConversationService(store)

	const racers = 10
	ids := make(chan uuid.UUID, racers)
	var wg sync.WaitGroup
	wg.Add(racers)
	for i := 0; i < racers; i++ {
		go func() {
			defer wg.Done()
			conv, err := svc.GetOrCreate(ctx, user.ID, lawyer.ID)
			if err != nil {
				t.Errorf("get or create failed: %v", err)
				return
			}
			ids <- conv.ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[uuid.UUID]struct{})
	for id := range ids {
		seen[id] = struct{}{}
	}
	if len(seen) != 1 {
		t.Errorf("racers observed %d distinct conversations, want 1", len(seen))
	}
}

func TestHistoryAuthorization(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	user := store.addUser(domain.RoleUser)
	lawyer := store.addUser(domain.RoleLawyer)
	outsider := store.addUser(domain.RoleUser)
	conv := store.addConversation(user.ID, lawyer.ID)
	svc := newConversationService(store)

	if _, _, err := svc.Append(ctx, conv.ID, user.ID, user.Role, "hello", nil); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	msgs, err := svc.History(ctx, conv.ID, lawyer.ID)
	if err != nil {
		t.Fatalf("participant history failed: %v", err)
	}
	if len(msgs) != 1 {
		t.Errorf("history length = %d, want 1", len(msgs))
	}

	if _, err := svc.History(ctx, conv.ID, outsider.ID); !errors.Is(err, domain.ErrAuthorization) {
		t.Errorf("err = %v, want ErrAuthorization", err)
	}
}
