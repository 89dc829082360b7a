package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	TypeJoin     = "join"
	TypeLeave    = "leave"
	TypeSend     = "send"
	TypeMarkRead = "mark_read"
	TypeTyping   = "typing"

	TypeMessage    = "message"
	TypeChatUpdate = "chat_update"
	TypePresence   = "presence"
	TypeRead       = "read"
	TypeAck        = "ack"
	TypeError      = "error"
)

// InboundFrame is everything a client may send after admission.
type InboundFrame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id,omitempty"`
	Content        string `json:"content,omitempty"`
	IsTyping       bool   `json:"is_typing,omitempty"`
}

// MessageEvent is broadcast to every room member after a durable append.
type MessageEvent struct {
	Type           string      `json:"type"` // "message"
	ConversationID uuid.UUID   `json:"conversation_id"`
	Message        MessageBody `json:"message"`
}

type MessageBody struct {
	ID         uuid.UUID `json:"id"`
	SenderID   uuid.UUID `json:"sender_id"`
	SenderRole Role      `json:"sender_role"`
	Content    string    `json:"content"`
	IsRead     bool      `json:"is_read"`
	CreatedAt  time.Time `json:"created_at"`
}

// TypingEvent goes to room members other than the typist. Never persisted.
type TypingEvent struct {
	Type           string    `json:"type"` // "typing"
	ConversationID uuid.UUID `json:"conversation_id"`
	UserID         uuid.UUID `json:"user_id"`
	IsTyping       bool      `json:"is_typing"`
}

// ChatUpdateEvent goes to the recipient's personal channel so conversation
// lists stay current even when the recipient never joined the room.
type ChatUpdateEvent struct {
	Type           string    `json:"type"` // "chat_update"
	ConversationID uuid.UUID `json:"conversation_id"`
	LastMessage    string    `json:"last_message"`
	LastMessageAt  time.Time `json:"last_message_at"`
	UnreadCount    int       `json:"unread_count"`
}

// PresenceEvent announces an online/offline transition on personal channels.
type PresenceEvent struct {
	Type   string    `json:"type"` // "presence"
	UserID uuid.UUID `json:"user_id"`
	Online bool      `json:"online"`
}

// ReadEvent tells the authoring side its messages were read.
type ReadEvent struct {
	Type           string    `json:"type"` // "read"
	ConversationID uuid.UUID `json:"conversation_id"`
	ReaderID       uuid.UUID `json:"reader_id"`
}

// AckEvent is sent only to the sender once its message is durable.
type AckEvent struct {
	Type           string    `json:"type"` // "ack"
	ConversationID uuid.UUID `json:"conversation_id"`
	MessageID      uuid.UUID `json:"message_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// ErrorEvent is a WS-safe error, delivered only to the offending connection.
type ErrorEvent struct {
	Type    string `json:"type"` // "error"
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorCode maps the domain error taxonomy onto stable wire codes.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrAuthorization):
		return "forbidden"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "internal"
	}
}
