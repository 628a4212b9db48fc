package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/festivalhq/admin-service/internal/entity"
	"github.com/festivalhq/admin-service/internal/usecase"
	"go.uber.org/zap"
)

// SessionAuth validates the Bearer token of every request and injects the
// authenticated Actor into the request context.
func SessionAuth(authUC *usecase.AuthUseCase, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				http.Error(w, "Missing or malformed Authorization header", http.StatusUnauthorized)
				return
			}
			tokenString := strings.TrimPrefix(header, "Bearer ")

			actor, err := authUC.ValidateSession(r.Context(), tokenString)
			if err != nil {
				logger.Warn("Rejected request with invalid session token", zap.String("path", r.URL.Path), zap.Error(err))
				http.Error(w, "Invalid or expired session token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ActorCtxKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ActorFromContext extracts the authenticated Actor set by SessionAuth.
func ActorFromContext(ctx context.Context) (entity.Actor, bool) {
	actor, ok := ctx.Value(ActorCtxKey).(entity.Actor)
	return actor, ok
}
