package hub

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

// BroadcastRoom delivers one event to every connection in the conversation's
// room, skipping except when set. Delivery is best-effort: a client whose
// buffer is full or that closed since the snapshot is simply skipped.
func (h *Hub) BroadcastRoom(ctx context.Context, convID uuid.UUID, except uuid.UUID, event any) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.ErrorContext(ctx, "hub - broadcast room - marshal failed", "conv_id", convID, "err", err)
		return
	}
	for _, c := range h.membersOf(convID) {
		if except != uuid.Nil && c.ConnID() == except {
			continue
		}
		_ = c.Send(ctx, data)
	}
}

// SendUser delivers one event to all of the user's devices.
func (h *Hub) SendUser(ctx context.Context, userID uuid.UUID, event any) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.ErrorContext(ctx, "hub - send user - marshal failed", "user_id", userID, "err", err)
		return
	}
	for _, c := range h.connectionsOf(userID) {
		_ = c.Send(ctx, data)
	}
}

// SendConn delivers one event to a single connection, if it is still live.
func (h *Hub) SendConn(ctx context.Context, connID uuid.UUID, event any) {
	h.mu.RLock()
	c := h.conns[connID]
	h.mu.RUnlock()
	if c == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		h.log.ErrorContext(ctx, "hub - send conn - marshal failed", "conn_id", connID, "err", err)
		return
	}
	_ = c.Send(ctx, data)
}
