package hub

import (
	"github.com/google/uuid"

	"github.com/MZhann/AI-Legal-Assistant/internal/core/contracts"
)

// Join subscribes the connection to a conversation room. A connection views
// one conversation at a time, so joining a new room implicitly leaves the
// previous one. Re-joining the same room is a no-op.
func (h *Hub) Join(connID, convID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[connID]; !ok {
		return
	}
	if prev, ok := h.connRoom[connID]; ok {
		if prev == convID {
			return
		}
		h.removeFromRoomLocked(connID, prev)
	}
	room := h.rooms[convID]
	if room == nil {
		room = make(map[uuid.UUID]struct{})
		h.rooms[convID] = room
	}
	room[connID] = struct{}{}
	h.connRoom[connID] = convID
}

// RoomOf returns the conversation the connection is currently joined to.
func (h *Hub) RoomOf(connID uuid.UUID) (uuid.UUID, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	convID, ok := h.connRoom[connID]
	return convID, ok
}

// Leave is idempotent.
func (h *Hub) Leave(connID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(connID)
}

func (h *Hub) leaveLocked(connID uuid.UUID) {
	convID, ok := h.connRoom[connID]
	if !ok {
		return
	}
	h.removeFromRoomLocked(connID, convID)
}

func (h *Hub) removeFromRoomLocked(connID, convID uuid.UUID) {
	if room := h.rooms[convID]; room != nil {
		delete(room, connID)
		if len(room) == 0 {
			delete(h.rooms, convID)
		}
	}
	delete(h.connRoom, connID)
}

// membersOf snapshots the room so fanout never delivers to a connection
// that unsubscribed mid-iteration.
func (h *Hub) membersOf(convID uuid.UUID) []contracts.Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]contracts.Client, 0, len(h.rooms[convID]))
	for id := range h.rooms[convID] {
		if c, ok := h.conns[id]; ok {
			out = append(out, c)
		}
	}
	return out
}
