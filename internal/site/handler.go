package site

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kreasi-nusantara/compro/internal/content"
	"github.com/kreasi-nusantara/compro/internal/platform/httpx"
)

// Handler serves the public landing page.
type Handler struct {
	logger  *slog.Logger
	service *Service
	cache   content.Cache
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, cache content.Cache) *Handler {
	return &Handler{logger: logger, service: service, cache: cache}
}

// MountRoutes registers the landing page route.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/home", h.home)
}

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	home, err := content.Cached(r.Context(), h.cache, h.service.Home, "home")
	if err != nil {
		httpx.Fail(h.logger, w, r, "load home", err)
		return
	}
	httpx.JSON(w, http.StatusOK, home)
}
