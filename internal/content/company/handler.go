package company

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kreasi-nusantara/compro/internal/content"
	"github.com/kreasi-nusantara/compro/internal/platform/httpx"
	"github.com/kreasi-nusantara/compro/internal/rbac"
	"github.com/kreasi-nusantara/compro/internal/shared"
)

// Handler serves the company profile endpoints.
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

// MountRoutes registers the public read and guarded writes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.get)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Authenticate, h.rbac.RequireMenu(shared.MenuCompany))
		r.Put("/", h.save)
		r.Delete("/", h.delete)
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	p, err := content.Cached(r.Context(), h.cache, func(ctx context.Context) (Profile, error) {
		return h.service.GetProfile(ctx)
	}, "company")
	if err != nil {
		httpx.Fail(h.logger, w, r, "get company profile", err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request) {
	var in ProfileInput
	form, err := content.DecodeForm(w, r, h.maxUpload, &in)
	defer form.Close()
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	files := Files{Logo: form.File("logo"), ProfilePDF: form.File("profile_pdf")}
	p, created, err := h.service.SaveProfile(r.Context(), in, files, shared.ActorID(r.Context()))
	if err != nil {
		httpx.Fail(h.logger, w, r, "save company profile", err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	httpx.JSON(w, status, p)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := h.service.DeleteProfile(r.Context(), shared.ActorID(r.Context()))
	if err != nil {
		httpx.Fail(h.logger, w, r, "delete company profile", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"id": shared.ID(id)})
}
