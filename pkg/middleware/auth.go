package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/MZhann/AI-Legal-Assistant/internal/core/domain"
	"github.com/MZhann/AI-Legal-Assistant/internal/core/services"
)

type principalKeyType struct{}

var PrincipalKey = principalKeyType{}

// PrincipalFrom returns the verified identity injected by AuthMiddleware.
func PrincipalFrom(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(PrincipalKey).(domain.Principal)
	return p, ok
}

func AuthMiddleware(tokenSvc *services.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				http.Error(w, "authorization required", http.StatusUnauthorized)
				return
			}
			userID, role, err := tokenSvc.ValidateToken(token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), PrincipalKey, domain.Principal{UserID: userID, Role: role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken pulls the credential from the Authorization header, or from
// the token query parameter, which browser WebSocket clients must use
// because they cannot set headers on the upgrade request.
func BearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
		return ""
	}
	return r.URL.Query().Get("token")
}
