package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledgerly/internal/access"
	"github.com/MrJamesThe3rd/ledgerly/internal/apperror"
	"github.com/MrJamesThe3rd/ledgerly/internal/http/respond"
)

type ActorResolver interface {
	ResolveActor(ctx context.Context, userID uuid.UUID) (access.Actor, error)
}

// Middleware authenticates the bearer token and stores the caller's actor
// in the request context.
func Middleware(issuer *Issuer, actors ActorResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				respond.Unauthorized(w, "Missing bearer token")
				return
			}

			userID, err := issuer.Parse(strings.TrimSpace(token))
			if err != nil {
				slog.DebugContext(r.Context(), "rejected token", "error", err)
				respond.Unauthorized(w, "Invalid token")

				return
			}

			actor, err := actors.ResolveActor(r.Context(), userID)
			if err != nil {
				if apperror.Is(err, apperror.KindForbidden) {
					respond.Unauthorized(w, err.Error())
					return
				}

				respond.Error(w, r, err)

				return
			}

			next.ServeHTTP(w, r.WithContext(access.WithActor(r.Context(), actor)))
		})
	}
}
