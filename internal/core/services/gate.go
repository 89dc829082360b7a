package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/MZhann/AI-Legal-Assistant/internal/core/domain"
)

// SessionGate authenticates a connection attempt before it touches any other
// component. A failed handshake is terminal; the client reconnects with a
// fresh credential.
type SessionGate struct {
	tokens *TokenService
	users  domain.UserRepository
	log    *slog.Logger
}

func NewSessionGate(log *slog.Logger, tokens *TokenService, users domain.UserRepository) *SessionGate {
	return &SessionGate{log: log, tokens: tokens, users: users}
}

// Authenticate resolves a raw credential to a verified principal. The role
// comes from the account record, not the token, so a stale claim cannot
// outlive a role change.
func (g *SessionGate) Authenticate(ctx context.Context, credential string) (domain.Principal, error) {
	if credential == "" {
		return domain.Principal{}, domain.ErrAuthentication
	}
	userID, _, err := g.tokens.ValidateToken(credential)
	if err != nil {
		g.log.WarnContext(ctx, "gate - authenticate - token rejected", "err", err)
		return domain.Principal{}, fmt.Errorf("%w: %v", domain.ErrAuthentication, err)
	}
	user, err := g.users.GetUserByID(ctx, userID)
	if err != nil {
		g.log.WarnContext(ctx, "gate - authenticate - unknown user", "user_id", userID, "err", err)
		return domain.Principal{}, domain.ErrAuthentication
	}
	return domain.Principal{UserID: user.ID, Role: user.Role}, nil
}
