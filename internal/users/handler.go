package users

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kreasi-nusantara/compro/internal/platform/httpx"
	"github.com/kreasi-nusantara/compro/internal/rbac"
	"github.com/kreasi-nusantara/compro/internal/shared"
)

// Handler manages admin account endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers /admin routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireMenu(shared.MenuAdmins))
		r.Get("/", h.listAdmins)
		r.Post("/", h.createAdmin)
		r.Get("/{id}", h.getAdmin)
		r.Put("/{id}", h.updateAdmin)
		r.Delete("/{id}", h.deleteAdmin)
	})
}

func (h *Handler) listAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := h.service.ListAdmins(r.Context())
	if err != nil {
		httpx.Fail(h.logger, w, r, "list admins", err)
		return
	}
	if admins == nil {
		admins = []AdminSummary{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": admins})
}

func (h *Handler) getAdmin(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	admin, err := h.service.GetAdmin(r.Context(), id)
	if err != nil {
		httpx.Fail(h.logger, w, r, "get admin", err)
		return
	}
	httpx.JSON(w, http.StatusOK, admin)
}

func (h *Handler) createAdmin(w http.ResponseWriter, r *http.Request) {
	var in CreateAdminInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	admin, err := h.service.CreateAdmin(r.Context(), in, shared.ActorID(r.Context()))
	if err != nil {
		httpx.Fail(h.logger, w, r, "create admin", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, admin)
}

func (h *Handler) updateAdmin(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in UpdateAdminInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	admin, err := h.service.UpdateAdmin(r.Context(), id, in, shared.ActorID(r.Context()))
	if err != nil {
		httpx.Fail(h.logger, w, r, "update admin", err)
		return
	}
	httpx.JSON(w, http.StatusOK, admin)
}

func (h *Handler) deleteAdmin(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteAdmin(r.Context(), id, shared.ActorID(r.Context())); err != nil {
		httpx.Fail(h.logger, w, r, "delete admin", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"id": shared.ID(id)})
}
