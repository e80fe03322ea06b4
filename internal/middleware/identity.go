package middleware

import (
	"context"
	"net/http"
	"strings"
	"workTracker/internal/models/permission"

	"github.com/google/uuid"
)

const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"

	actorKey contextKey = "actor"
)

// Identity читает пользователя, уже аутентифицированного на шлюзе
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get(HeaderUserID))
		userID, err := uuid.Parse(raw)
		if err != nil || userID == uuid.Nil {
			writeJSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED",
				"Не указан или неверен идентификатор пользователя", nil)
			return
		}

		actor := permission.Actor{
			UserID: userID,
			Role:   permission.Role(strings.ToLower(strings.TrimSpace(r.Header.Get(HeaderUserRole)))),
		}
		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

func WithActor(ctx context.Context, actor permission.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

func ActorFrom(ctx context.Context) (permission.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(permission.Actor)
	return actor, ok
}
