package projects

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

// Handler serves project endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	cache     content.Cache
	rbac      rbac.Middleware
	maxUpload int64
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, cache content.Cache, rbac rbac.Middleware, maxUpload int64) *Handler {
	return &Handler{logger: logger, service: service, cache: cache, rbac: rbac, maxUpload: maxUpload}
}

// MountRoutes registers public reads and guarded writes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Authenticate, h.rbac.RequireMenu(shared.MenuProjects))
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	f, err := filtersFromRequest(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	res, err := content.Cached(r.Context(), h.cache, func(ctx context.Context) (content.ListResult[Project], error) {
		return h.service.ListProjects(ctx, f)
	}, "projects", "list", content.QueryKey(r.URL.Query()))
	if err != nil {
		httpx.Fail(h.logger, w, r, "list projects", err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func filtersFromRequest(r *http.Request) (Filters, error) {
	q := r.URL.Query()
	f := Filters{ListFilters: content.FiltersFromQuery(q)}
	verr := &shared.ValidationError{}
	if raw := q.Get("client_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			verr.Add("client_id", "tidak valid")
		}
		f.ClientID = id
	}
	if raw := q.Get("category_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			verr.Add("category_id", "tidak valid")
		}
		f.CategoryID = id
	}
	return f, verr.OrNil()
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := content.Cached(r.Context(), h.cache, func(ctx context.Context) (Project, error) {
		return h.service.GetProject(ctx, id)
	}, "projects", strconv.FormatInt(id, 10))
	if err != nil {
		httpx.Fail(h.logger, w, r, "get project", err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in ProjectInput
	form, err := content.DecodeForm(w, r, h.maxUpload, &in)
	defer form.Close()
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.CreateProject(r.Context(), in, form.File("image"), shared.ActorID(r.Context()))
	if err != nil {
		httpx.Fail(h.logger, w, r, "create project", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in ProjectInput
	form, err := content.DecodeForm(w, r, h.maxUpload, &in)
	defer form.Close()
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.UpdateProject(r.Context(), id, in, form.File("image"), shared.ActorID(r.Context()))
	if err != nil {
		httpx.Fail(h.logger, w, r, "update project", err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteProject(r.Context(), id, shared.ActorID(r.Context())); err != nil {
		httpx.Fail(h.logger, w, r, "delete project", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"id": shared.ID(id)})
}
