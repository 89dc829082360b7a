package domain

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository is the durable account store.
type UserRepository interface {
	CreateUser(ctx context.Context, u *User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	// ListLawyers returns lawyer accounts, online first, then most recently seen.
	ListLawyers(ctx context.Context) ([]User, error)
	// UpsertPresence flips the durable online flag and refreshes last_seen_at.
	UpsertPresence(ctx context.Context, rec PresenceRecord) error
}

// ConversationRepository owns conversation rows and their counters.
type ConversationRepository interface {
	GetConversationByID(ctx context.Context, id uuid.UUID) (*Conversation, error)
	FindByPair(ctx context.Context, userID, lawyerID uuid.UUID) (*Conversation, error)
	// CreateConversation inserts the pair's conversation. The unique
	// (user_id, lawyer_id) index resolves concurrent first contact: the
	// loser gets the winner's row back, never an error.
	CreateConversation(ctx context.Context, c *Conversation) (*Conversation, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]Conversation, error)
	// RecordActivity updates preview, activity timestamp and increments the
	// recipient-side unread counter, returning the new counter value.
	RecordActivity(ctx context.Context, id uuid.UUID, preview string, recipientIsLawyer bool) (int, error)
	// ResetUnread zeroes the reader-side counter.
	ResetUnread(ctx context.Context, id uuid.UUID, readerIsLawyer bool) error
	// CounterpartIDs returns the other side of every conversation the user is in.
	CounterpartIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

// MessageRepository owns the append-only message log.
type MessageRepository interface {
	AppendMessage(ctx context.Context, m *Message) error
	// MarkAllReadExceptAuthor flips the read flag on every message the reader
	// did not author. Returns how many rows changed.
	MarkAllReadExceptAuthor(ctx context.Context, convID, readerID uuid.UUID) (int64, error)
	ListByConversation(ctx context.Context, convID uuid.UUID) ([]Message, error)
}
