package contracts

import (
	"context"

	"github.com/google/uuid"

	"github.com/MZhann/AI-Legal-Assistant/internal/core/domain"
)

// Hub is the process-wide connection registry, room multiplexer and fanout
// surface. All operations are in-memory and never block on I/O.
type Hub interface {
	// Admit registers an authenticated connection. The registry reports a
	// user-online transition only for the user's first live connection.
	Admit(c Client)
	// Remove is idempotent and cascades: room membership is purged
	// synchronously, and a user-offline transition fires only when the
	// user's last connection goes away.
	Remove(connID uuid.UUID)
	// Join subscribes the connection to a conversation room. A connection
	// holds at most one room; joining implicitly leaves the previous one.
	Join(connID, convID uuid.UUID)
	// Leave unsubscribes the connection from its current room, if any.
	Leave(connID uuid.UUID)
	IsOnline(userID uuid.UUID) bool

	// BroadcastRoom delivers an event to every room member, skipping except
	// when it is uuid.Nil. Delivery is best-effort fire-and-forget.
	BroadcastRoom(ctx context.Context, convID uuid.UUID, except uuid.UUID, event any)
	// SendUser delivers an event to every connection of one user.
	SendUser(ctx context.Context, userID uuid.UUID, event any)
	// SendConn delivers an event to a single connection.
	SendConn(ctx context.Context, connID uuid.UUID, event any)
}

// Client is the minimal surface the hub needs to talk to one live connection.
type Client interface {
	ConnID() uuid.UUID
	UserID() uuid.UUID
	Role() domain.Role
	// Send must not block; stale clients are skipped or dropped.
	Send(ctx context.Context, data []byte) error
	Close()
}

// PresenceNotifier receives the registry's edge transitions. Implementations
// may block on I/O; the hub invokes them off its lock.
type PresenceNotifier interface {
	UserOnline(ctx context.Context, userID uuid.UUID)
	UserOffline(ctx context.Context, userID uuid.UUID)
}
