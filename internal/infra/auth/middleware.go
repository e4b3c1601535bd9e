package auth

import (
	"context"
	"net/http"

	"github.com/xela07ax/erp-approval-engine/internal/domain"
	"go.uber.org/zap"
)

// TokenValidator — интерфейс слоя аутентификации. Движок не кэширует
// security-контекст за пределами запроса: Actor собирается заново
// на каждом вызове из проверенного токена.
type TokenValidator interface {
	VerifyToken(tokenStr string) (*domain.ActorClaims, error)
}

// Тип для ключа в контексте (избегаем коллизий)
type ctxKey string

const actorKey ctxKey = "actor"

// NewMiddleware проверяет Authorization заголовок и кладет Actor в контекст.
func NewMiddleware(v TokenValidator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := v.VerifyToken(authHeader)
			if err != nil {
				logger.Warn("auth failure", zap.Error(err))
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), actorKey, claims.Actor())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ActorFromContext безопасно достает Actor в любом месте пайплайна.
func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(domain.Actor)
	return actor, ok
}
