package upload

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kreasi-nusantara/compro/internal/platform/httpx"
	"github.com/kreasi-nusantara/compro/internal/shared"
)

const defaultKind = "misc"

// Handler serves direct uploads from the admin editor.
type Handler struct {
	logger   *slog.Logger
	uploader Uploader
	maxBytes int64
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, uploader Uploader, maxBytes int64) *Handler {
	return &Handler{logger: logger, uploader: uploader, maxBytes: maxBytes}
}

// MountRoutes registers upload routes under an authenticated router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.handleUpload)
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := ParseForm(w, r, h.maxBytes); err != nil {
		httpx.RespondError(w, err)
		return
	}
	file, closeFile, err := FromMultipart(r, "file")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	defer closeFile()
	if file == nil {
		httpx.RespondError(w, shared.NewValidationError("file", "wajib diisi"))
		return
	}
	kind := strings.TrimSpace(r.FormValue("kind"))
	if kind == "" {
		kind = defaultKind
	}
	url, err := h.uploader.Upload(r.Context(), kind, *file)
	if err != nil {
		httpx.Fail(h.logger, w, r, "upload file", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]string{"url": url})
}

// ParseForm parses a multipart body capped at maxBytes plus form overhead.
func ParseForm(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1<<20)
	}
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return shared.NewValidationError("file", "ukuran berkas terlalu besar")
		}
		return shared.NewValidationError("body", "form multipart tidak valid")
	}
	return nil
}
