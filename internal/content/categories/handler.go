package categories

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kreasi-nusantara/compro/internal/content"
	"github.com/kreasi-nusantara/compro/internal/platform/httpx"
	"github.com/kreasi-nusantara/compro/internal/rbac"
	"github.com/kreasi-nusantara/compro/internal/shared"
)

// Handler serves category endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	cache   content.Cache
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, cache content.Cache, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, cache: cache, rbac: rbac}
}

// MountRoutes registers public reads and guarded writes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Authenticate, h.rbac.RequireMenu(shared.MenuCategories))
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	f := content.FiltersFromQuery(r.URL.Query())
	res, err := content.Cached(r.Context(), h.cache, func(ctx context.Context) (content.ListResult[Category], error) {
		return h.service.ListCategories(ctx, f)
	}, "categories", "list", content.QueryKey(r.URL.Query()))
	if err != nil {
		httpx.Fail(h.logger, w, r, "list categories", err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := content.Cached(r.Context(), h.cache, func(ctx context.Context) (Category, error) {
		return h.service.GetCategory(ctx, id)
	}, "categories", strconv.FormatInt(id, 10))
	if err != nil {
		httpx.Fail(h.logger, w, r, "get category", err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in CategoryInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.CreateCategory(r.Context(), in, shared.ActorID(r.Context()))
	if err != nil {
		httpx.Fail(h.logger, w, r, "create category", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in CategoryInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.UpdateCategory(r.Context(), id, in, shared.ActorID(r.Context()))
	if err != nil {
		httpx.Fail(h.logger, w, r, "update category", err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteCategory(r.Context(), id, shared.ActorID(r.Context())); err != nil {
		httpx.Fail(h.logger, w, r, "delete category", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"id": shared.ID(id)})
}
