package rbac

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/kreasi-nusantara/compro/internal/platform/httpx"
	"github.com/kreasi-nusantara/compro/internal/shared"
)

// Middleware wires RBAC authorization helpers for HTTP handlers.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// Authenticate resolves the session user into a shared.Actor. Requests without
// a signed-in admin are rejected with 401.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := m.currentUserID(r)
		if !ok {
			httpx.RespondError(w, shared.ErrInvalidCredentials)
			return
		}
		actor, err := m.Service.Actor(r.Context(), userID)
		if err != nil {
			if errors.Is(err, shared.ErrInvalidCredentials) {
				m.logWarn("rbac actor rejected", err, userID)
				httpx.RespondError(w, shared.ErrInvalidCredentials)
				return
			}
			m.logError("rbac load actor", err)
			httpx.RespondError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithActor(r.Context(), actor)))
	})
}

// RequireMenu ensures the actor's roles grant the menu at url.
func (m Middleware) RequireMenu(url string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := shared.ActorFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, shared.ErrInvalidCredentials)
				return
			}
			granted, err := m.Service.CanAccess(r.Context(), actor.RoleIDs, url)
			if err != nil {
				m.logError("rbac require menu", err)
				httpx.RespondError(w, err)
				return
			}
			if !granted {
				httpx.RespondError(w, forbidden(url))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func forbidden(url string) error {
	return &menuDenied{url: url}
}

type menuDenied struct{ url string }

func (e *menuDenied) Error() string { return "akses ke menu " + e.url + " ditolak" }

func (e *menuDenied) Unwrap() error { return shared.ErrForbidden }

func (m Middleware) currentUserID(r *http.Request) (int64, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return 0, false
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Error("rbac parse user id", slog.String("value", raw))
		}
		return 0, false
	}
	return id, true
}

func (m Middleware) logWarn(msg string, err error, userID int64) {
	if m.Logger != nil {
		m.Logger.Warn(msg, slog.Any("error", err), slog.Int64("user_id", userID))
	}
}

func (m Middleware) logError(msg string, err error) {
	if m.Logger != nil {
		m.Logger.Error(msg, slog.Any("error", err))
	}
}
