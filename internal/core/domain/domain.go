package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser   Role = "user"
	RoleLawyer Role = "lawyer"
	RoleAdmin  Role = "admin"
)

// User is a registered account, either an ordinary user or a staff lawyer.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	FatherName   string
	Role         Role
	IsOnline     bool
	LastSeenAt   time.Time
	CreatedAt    time.Time
}

// Principal is the verified identity a credential resolves to.
type Principal struct {
	UserID uuid.UUID
	Role   Role
}

type ConversationStatus string

const (
	ConversationActive ConversationStatus = "active"
	ConversationClosed ConversationStatus = "closed"
)

// Conversation is the single chat thread between one ordinary user and one lawyer.
// The (UserID, LawyerID) pair is unique.
type Conversation struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	LawyerID       uuid.UUID
	LastMessage    string
	LastMessageAt  time.Time
	UnreadByUser   int
	UnreadByLawyer int
	Status         ConversationStatus
	CreatedAt      time.Time
}

// ParticipantIDs returns both sides of the conversation.
func (c *Conversation) ParticipantIDs() (uuid.UUID, uuid.UUID) {
	return c.UserID, c.LawyerID
}

// HasParticipant reports whether id is one of the two parties.
func (c *Conversation) HasParticipant(id uuid.UUID) bool {
	return c.UserID == id || c.LawyerID == id
}

// Counterpart returns the other participant. The caller must already be a participant.
func (c *Conversation) Counterpart(id uuid.UUID) uuid.UUID {
	if c.UserID == id {
		return c.LawyerID
	}
	return c.UserID
}

// UnreadFor returns the unread counter belonging to the given participant.
func (c *Conversation) UnreadFor(id uuid.UUID) int {
	if c.UserID == id {
		return c.UnreadByUser
	}
	return c.UnreadByLawyer
}

// Message is one chat utterance. Immutable once created except for the
// read flag, which only ever transitions false to true.
type Message struct {
	ID             uuid.UUID
	ConversationID uuid.UUID
	SenderID       uuid.UUID
	SenderRole     Role
	Content        string
	IsRead         bool
	CreatedAt      time.Time
}

// PresenceRecord is the derived per-user online summary kept in the durable store.
type PresenceRecord struct {
	UserID     uuid.UUID
	Online     bool
	LastSeenAt time.Time
}
