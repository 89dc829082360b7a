package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MZhann/AI-Legal-Assistant/internal/core/domain"
)

// In-memory repositories backing the service tests. The conversation and
// message fakes share one mutex so a transaction body sees a consistent view,
// matching what the store gives the real repositories.

type fakeStore struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*domain.User
	convs    map[uuid.UUID]*domain.Conversation
	messages []domain.Message
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users: make(map[uuid.UUID]*domain.User),
		convs: make(map[uuid.UUID]*domain.Conversation),
	}
}

func (s *fakeStore) addUser(role domain.Role) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &domain.User{
		ID:    uuid.New(),
		Email: uuid.NewString() + "@example.com",
		Role:  role,
	}
	s.users[u.ID] = u
	return u
}

func (s *fakeStore) addConversation(userID, lawyerID uuid.UUID) *domain.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &domain.Conversation{
		ID:       uuid.New(),
		UserID:   userID,
		LawyerID: lawyerID,
		Status:   domain.ConversationActive,
	}
	s.convs[c.ID] = c
	return c
}

func (s *fakeStore) conversation(id uuid.UUID) domain.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.convs[id]
}

func (s *fakeStore) messageCount(convID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.messages {
		if m.ConversationID == convID {
			n++
		}
	}
	return n
}

var (
	_ domain.UserRepository         = (*fakeUserRepo)(nil)
	_ domain.ConversationRepository = (*fakeConvRepo)(nil)
	_ domain.MessageRepository      = (*fakeMsgRepo)(nil)
)

type fakeUserRepo struct{ s *fakeStore }

func (r *fakeUserRepo) CreateUser(ctx context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return domain.ErrEmailTaken
		}
	}
	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeUserRepo) ListLawyers(ctx context.Context) ([]domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.User
	for _, u := range r.s.users {
		if u.Role == domain.RoleLawyer {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) UpsertPresence(ctx context.Context, rec domain.PresenceRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.users[rec.UserID]; ok {
		u.IsOnline = rec.Online
		u.LastSeenAt = rec.LastSeenAt
	}
	return nil
}

type fakeConvRepo struct{ s *fakeStore }

func (r *fakeConvRepo) GetConversationByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.convs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeConvRepo) FindByPair(ctx context.Context, userID, lawyerID uuid.UUID) (*domain.Conversation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.convs {
		if c.UserID == userID && c.LawyerID == lawyerID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeConvRepo) CreateConversation(ctx context.Context, c *domain.Conversation) (*domain.Conversation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	// The unique pair index resolves concurrent first contact.
	for _, existing := range r.s.convs {
		if existing.UserID == c.UserID && existing.LawyerID == c.LawyerID {
			cp := *existing
			return &cp, nil
		}
	}
	cp := *c
	cp.CreatedAt = time.Now().UTC()
	r.s.convs[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *fakeConvRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Conversation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Conversation
	for _, c := range r.s.convs {
		if c.UserID == userID || c.LawyerID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *fakeConvRepo) RecordActivity(ctx context.Context, id uuid.UUID, preview string, recipientIsLawyer bool) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.convs[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	c.LastMessage = preview
	c.LastMessageAt = time.Now().UTC()
	if recipientIsLawyer {
		c.UnreadByLawyer++
		return c.UnreadByLawyer, nil
	}
	c.UnreadByUser++
	return c.UnreadByUser, nil
}

func (r *fakeConvRepo) ResetUnread(ctx context.Context, id uuid.UUID, readerIsLawyer bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.convs[id]
	if !ok {
		return domain.ErrNotFound
	}
	if readerIsLawyer {
		c.UnreadByLawyer = 0
	} else {
		c.UnreadByUser = 0
	}
	return nil
}

func (r *fakeConvRepo) CounterpartIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []uuid.UUID
	for _, c := range r.s.convs {
		switch userID {
		case c.UserID:
			out = append(out, c.LawyerID)
		case c.LawyerID:
			out = append(out, c.UserID)
		}
	}
	return out, nil
}

type fakeMsgRepo struct{ s *fakeStore }

func (r *fakeMsgRepo) AppendMessage(ctx context.Context, m *domain.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.messages = append(r.s.messages, *m)
	return nil
}

func (r *fakeMsgRepo) MarkAllReadExceptAuthor(ctx context.Context, convID, readerID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for i := range r.s.messages {
		m := &r.s.messages[i]
		if m.ConversationID == convID && m.SenderID != readerID && !m.IsRead {
			m.IsRead = true
			n++
		}
	}
	return n, nil
}

func (r *fakeMsgRepo) ListByConversation(ctx context.Context, convID uuid.UUID) ([]domain.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Message
	for _, m := range r.s.messages {
		if m.ConversationID == convID {
			out = append(out, m)
		}
	}
	return out, nil
}

// fakeTx runs the body directly; the fakes are individually consistent.
type fakeTx struct{}

func (fakeTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
