package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kreasi-nusantara/compro/internal/platform/httpx"
	"github.com/kreasi-nusantara/compro/internal/shared"
)

// PermissionsHandler serves menu permission and menu management endpoints.
type PermissionsHandler struct {
	logger  *slog.Logger
	service *Service
	rbac    Middleware
}

// NewPermissionsHandler builds PermissionsHandler instance.
func NewPermissionsHandler(logger *slog.Logger, service *Service, rbac Middleware) *PermissionsHandler {
	return &PermissionsHandler{logger: logger, service: service, rbac: rbac}
}

// MountPermissionRoutes registers /roles/permissions routes.
func (h *PermissionsHandler) MountPermissionRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireMenu(shared.MenuPermissions))
		r.Get("/", h.resolvePermissions)
		r.Post("/", h.syncPermissions)
	})
}

// MountMenuRoutes registers /menus routes.
func (h *PermissionsHandler) MountMenuRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireMenu(shared.MenuMenus))
		r.Get("/", h.listMenus)
		r.Post("/", h.createMenu)
	})
}

func (h *PermissionsHandler) resolvePermissions(w http.ResponseWriter, r *http.Request) {
	roleIDs, err := shared.ParseIDList(r.URL.Query().Get("role_ids"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	menus, err := h.service.ResolveMenusForRoles(r.Context(), roleIDs)
	if err != nil {
		httpx.Fail(h.logger, w, r, "resolve permissions", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": menus})
}

func (h *PermissionsHandler) syncPermissions(w http.ResponseWriter, r *http.Request) {
	var in SyncInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.SyncRolePermissions(r.Context(), int64(in.RoleID), in.MenuIDs.Int64s(), shared.ActorID(r.Context())); err != nil {
		httpx.Fail(h.logger, w, r, "sync permissions", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"role_id": in.RoleID, "menu_ids": shared.ToIDList(in.MenuIDs.Int64s())})
}

func (h *PermissionsHandler) listMenus(w http.ResponseWriter, r *http.Request) {
	menus, err := h.service.ListMenus(r.Context())
	if err != nil {
		httpx.Fail(h.logger, w, r, "list menus", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": menus})
}

func (h *PermissionsHandler) createMenu(w http.ResponseWriter, r *http.Request) {
	var in MenuInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	menu, err := h.service.CreateMenu(r.Context(), in, shared.ActorID(r.Context()))
	if err != nil {
		httpx.Fail(h.logger, w, r, "create menu", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, menu)
}
