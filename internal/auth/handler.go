package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/kreasi-nusantara/compro/internal/platform/httpx"
	"github.com/kreasi-nusantara/compro/internal/rbac"
	"github.com/kreasi-nusantara/compro/internal/shared"
)

// MenuResolver computes the menus visible to a role set.
type MenuResolver interface {
	ResolveMenusForRoles(ctx context.Context, roleIDs []int64) ([]rbac.Menu, error)
}

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	menus          MenuResolver
	rbac           rbac.Middleware
	loginRate      int
}

// NewHandler constructs a Handler instance. loginRate caps login attempts per
// IP per minute; zero disables the limit.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager, csrf *shared.CSRFManager, menus MenuResolver, rbac rbac.Middleware, loginRate int) *Handler {
	return &Handler{
		logger:         logger,
		service:        service,
		sessionManager: sessions,
		csrfManager:    csrf,
		menus:          menus,
		rbac:           rbac,
		loginRate:      loginRate,
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h.loginRate > 0 {
		r.With(httprate.LimitByIP(h.loginRate, time.Minute)).Post("/login", h.handleLogin)
	} else {
		r.Post("/login", h.handleLogin)
	}
	r.Post("/logout", h.handleLogout)
	r.With(h.rbac.Authenticate).Get("/me", h.handleMe)
}

type loginResponse struct {
	Identity
	CSRFToken string `json:"csrf_token"`
}

type meResponse struct {
	Identity
	Menus []rbac.Menu `json:"menus"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	identity, err := h.service.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			h.logger.Warn("login rejected", slog.String("username", req.Username), slog.String("reason", err.Error()))
			httpx.RespondError(w, shared.ErrInvalidCredentials)
			return
		}
		httpx.Fail(h.logger, w, r, "login", err)
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		httpx.RespondError(w, errors.New("session missing"))
		return
	}
	h.sessionManager.Renew(sess)
	sess.SetUser(strconv.FormatInt(identity.User.ID, 10))
	sess.Delete(shared.CSRFSessionKey)
	token, err := h.csrfManager.EnsureToken(r.Context(), sess)
	if err != nil {
		httpx.Fail(h.logger, w, r, "issue csrf token", err)
		return
	}
	h.logger.Info("login", slog.Int64("user_id", identity.User.ID), slog.String("username", identity.User.Username))
	httpx.JSON(w, http.StatusOK, loginResponse{Identity: identity, CSRFToken: token})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		h.sessionManager.Destroy(sess)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"logged_out": true})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrInvalidCredentials)
		return
	}
	identity, err := h.service.Identity(r.Context(), actor.UserID)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			httpx.RespondError(w, shared.ErrInvalidCredentials)
			return
		}
		httpx.Fail(h.logger, w, r, "load identity", err)
		return
	}
	menus, err := h.menus.ResolveMenusForRoles(r.Context(), identity.RoleIDs())
	if err != nil {
		httpx.Fail(h.logger, w, r, "resolve menus", err)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	token, _ := h.csrfManager.EnsureToken(r.Context(), sess)
	w.Header().Set(shared.CSRFHeader, token)
	httpx.JSON(w, http.StatusOK, meResponse{Identity: identity, Menus: menus})
}
