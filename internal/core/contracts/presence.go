package contracts

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PresenceCache is the volatile online marker, kept with a TTL so a crashed
// node's users decay to offline without explicit cleanup.
type PresenceCache interface {
	// SetOnline writes or refreshes the marker.
	SetOnline(ctx context.Context, userID uuid.UUID, ttl time.Duration) error
	SetOffline(ctx context.Context, userID uuid.UUID) error
	IsOnline(ctx context.Context, userID uuid.UUID) (bool, error)
}
