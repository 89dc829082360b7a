package hub

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/MZhann/AI-Legal-Assistant/internal/core/contracts"
	"github.com/MZhann/AI-Legal-Assistant/internal/platform/metrics"
)

// Hub tracks every live connection, the per-user connection sets and the
// per-conversation rooms. It is the single source of truth for liveness.
// All state is guarded by one RWMutex; no operation here touches I/O.
type Hub struct {
	mu        sync.RWMutex
	conns     map[uuid.UUID]contracts.Client
	userConns map[uuid.UUID]map[uuid.UUID]struct{}
	rooms     map[uuid.UUID]map[uuid.UUID]struct{}
	connRoom  map[uuid.UUID]uuid.UUID
	// edges holds pending presence transitions per user. A key being
	// present means a drainer goroutine owns that user's queue.
	edges map[uuid.UUID][]bool

	notifier contracts.PresenceNotifier
	log      *slog.Logger
}

func New(log *slog.Logger) *Hub {
	return &Hub{
		conns:     make(map[uuid.UUID]contracts.Client),
		userConns: make(map[uuid.UUID]map[uuid.UUID]struct{}),
		rooms:     make(map[uuid.UUID]map[uuid.UUID]struct{}),
		connRoom:  make(map[uuid.UUID]uuid.UUID),
		edges:     make(map[uuid.UUID][]bool),
		log:       log,
	}
}

// SetPresenceNotifier wires the presence tracker in after construction;
// the tracker itself needs the hub for fanout.
func (h *Hub) SetPresenceNotifier(n contracts.PresenceNotifier) {
	h.mu.Lock()
	h.notifier = n
	h.mu.Unlock()
}

func (h *Hub) Admit(c contracts.Client) {
	userID := c.UserID()
	h.mu.Lock()
	h.conns[c.ConnID()] = c
	set := h.userConns[userID]
	first := len(set) == 0
	if set == nil {
		set = make(map[uuid.UUID]struct{})
		h.userConns[userID] = set
	}
	set[c.ConnID()] = struct{}{}
	// Only the user's first connection flips them online; presence must not
	// flicker while other devices stay connected.
	if first {
		h.queueEdgeLocked(userID, true)
	}
	h.mu.Unlock()

	metrics.WsConnections.Inc()
	h.log.Info("hub - admit - connection registered", "conn_id", c.ConnID(), "user_id", userID, "first", first)
}

func (h *Hub) Remove(connID uuid.UUID) {
	h.mu.Lock()
	c, ok := h.conns[connID]
	if !ok {
		// Duplicate removes are tolerated; a transport close and an explicit
		// disconnect may race.
		h.mu.Unlock()
		return
	}
	delete(h.conns, connID)
	h.leaveLocked(connID)
	userID := c.UserID()
	set := h.userConns[userID]
	delete(set, connID)
	last := len(set) == 0
	if last {
		delete(h.userConns, userID)
		h.queueEdgeLocked(userID, false)
	}
	h.mu.Unlock()

	c.Close()
	metrics.WsConnections.Dec()
	h.log.Info("hub - remove - connection purged", "conn_id", connID, "user_id", userID, "last", last)
}

// queueEdgeLocked appends a presence transition to the user's edge queue.
// Queueing happens under the registry lock, so the queue order is the order
// the registry observed the transitions in; the drainer hands them to the
// notifier one at a time, which keeps a fast connect/disconnect from
// applying offline before online. The notifier may hit the store, so it
// never runs under the lock.
func (h *Hub) queueEdgeLocked(userID uuid.UUID, online bool) {
	if h.notifier == nil {
		return
	}
	pending, active := h.edges[userID]
	h.edges[userID] = append(pending, online)
	if !active {
		go h.drainEdges(userID)
	}
}

func (h *Hub) drainEdges(userID uuid.UUID) {
	for {
		h.mu.Lock()
		pending := h.edges[userID]
		if len(pending) == 0 {
			delete(h.edges, userID)
			h.mu.Unlock()
			return
		}
		online := pending[0]
		h.edges[userID] = pending[1:]
		notifier := h.notifier
		h.mu.Unlock()

		if online {
			notifier.UserOnline(context.Background(), userID)
		} else {
			notifier.UserOffline(context.Background(), userID)
		}
	}
}

// IsOnline reports whether the user has at least one live connection.
func (h *Hub) IsOnline(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.userConns[userID]) > 0
}

// connectionsOf snapshots the user's clients so delivery never iterates a
// map that a concurrent disconnect is mutating.
func (h *Hub) connectionsOf(userID uuid.UUID) []contracts.Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]contracts.Client, 0, len(h.userConns[userID]))
	for id := range h.userConns[userID] {
		if c, ok := h.conns[id]; ok {
			out = append(out, c)
		}
	}
	return out
}
