package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MZhann/AI-Legal-Assistant/internal/config"
	"github.com/MZhann/AI-Legal-Assistant/internal/core/contracts"
	"github.com/MZhann/AI-Legal-Assistant/internal/core/domain"
)

// PresenceService derives online/offline state from registry transitions.
// It is the only writer of presence records: message handling code never
// touches them. Durable state lives in the store, a TTL marker in the cache
// covers crashed-node decay, and counterparts get notified on each edge.
type PresenceService struct {
	log   *slog.Logger
	users domain.UserRepository
	conv  domain.ConversationRepository
	cache contracts.PresenceCache
	hub   contracts.Hub
	ttl   time.Duration
}

func NewPresenceService(
	log *slog.Logger,
	users domain.UserRepository,
	conv domain.ConversationRepository,
	cache contracts.PresenceCache,
	hub contracts.Hub,
	cfg config.ChatConfig,
) *PresenceService {
	return &PresenceService{
		log:   log,
		users: users,
		conv:  conv,
		cache: cache,
		hub:   hub,
		ttl:   cfg.PresenceTTL,
	}
}

func (s *PresenceService) UserOnline(ctx context.Context, userID uuid.UUID) {
	s.transition(ctx, userID, true)
}

func (s *PresenceService) UserOffline(ctx context.Context, userID uuid.UUID) {
	s.transition(ctx, userID, false)
}

// Heartbeat refreshes the volatile marker while the connection stays healthy.
func (s *PresenceService) Heartbeat(ctx context.Context, userID uuid.UUID) {
	if err := s.cache.SetOnline(ctx, userID, s.ttl); err != nil {
		s.log.ErrorContext(ctx, "presence - heartbeat - cache refresh failed", "user_id", userID, "err", err)
	}
}

func (s *PresenceService) transition(ctx context.Context, userID uuid.UUID, online bool) {
	if online {
		if err := s.cache.SetOnline(ctx, userID, s.ttl); err != nil {
			s.log.ErrorContext(ctx, "presence - transition - cache set failed", "user_id", userID, "err", err)
		}
	} else {
		if err := s.cache.SetOffline(ctx, userID); err != nil {
			s.log.ErrorContext(ctx, "presence - transition - cache clear failed", "user_id", userID, "err", err)
		}
	}
	rec := domain.PresenceRecord{UserID: userID, Online: online, LastSeenAt: time.Now().UTC()}
	if err := s.users.UpsertPresence(ctx, rec); err != nil {
		// The durable flag lags; the registry remains the liveness source of truth.
		s.log.ErrorContext(ctx, "presence - transition - store upsert failed", "user_id", userID, "online", online, "err", err)
	}
	s.notifyCounterparts(ctx, userID, online)
}

// notifyCounterparts pushes the presence edge to everyone conversing with
// this user, on their personal channels.
func (s *PresenceService) notifyCounterparts(ctx context.Context, userID uuid.UUID, online bool) {
	others, err := s.conv.CounterpartIDs(ctx, userID)
	if err != nil {
		s.log.ErrorContext(ctx, "presence - notify - counterpart lookup failed", "user_id", userID, "err", err)
		return
	}
	event := domain.PresenceEvent{Type: domain.TypePresence, UserID: userID, Online: online}
	for _, other := range others {
		if s.hub.IsOnline(other) {
			s.hub.SendUser(ctx, other, event)
		}
	}
}
