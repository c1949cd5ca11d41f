package audithttp

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kreasi-nusantara/compro/internal/audit"
	"github.com/kreasi-nusantara/compro/internal/platform/httpx"
	"github.com/kreasi-nusantara/compro/internal/rbac"
	"github.com/kreasi-nusantara/compro/internal/shared"
)

const maxDateRange = 366 * 24 * time.Hour

// TimelineService defines the business contract for timeline data.
type TimelineService interface {
	Timeline(ctx context.Context, filters audit.TimelineFilters) (audit.Result, error)
	Export(ctx context.Context, filters audit.TimelineFilters) ([]shared.ActivityLog, error)
}

// Handler menangani permintaan activity log.
type Handler struct {
	logger  *slog.Logger
	service TimelineService
	rbac    rbac.Middleware
}

// NewHandler membuat handler audit baru.
func NewHandler(logger *slog.Logger, service TimelineService, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, rbac: rbac}
}

func (h *Handler) handleTimeline(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.Timeline(r.Context(), filters)
	if err != nil {
		httpx.Fail(h.logger, w, r, "load activity logs", err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	rows, err := h.service.Export(r.Context(), filters)
	if err != nil {
		httpx.Fail(h.logger, w, r, "export activity logs", err)
		return
	}
	body, err := audit.WriteCSV(rows)
	if err != nil {
		httpx.Fail(h.logger, w, r, "encode csv", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="activity-logs.csv"`)
	if _, err := w.Write(body); err != nil {
		h.logger.Warn("write csv", slog.Any("error", err))
	}
}

func parseFilters(r *http.Request) (audit.TimelineFilters, error) {
	q := r.URL.Query()
	verr := &shared.ValidationError{}
	var filters audit.TimelineFilters

	if v := strings.TrimSpace(q.Get("from")); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			verr.Add("from", "format tanggal YYYY-MM-DD")
		}
		filters.From = t
	}
	if v := strings.TrimSpace(q.Get("to")); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			verr.Add("to", "format tanggal YYYY-MM-DD")
		}
		// Inclusive of the whole "to" day.
		filters.To = t.Add(24 * time.Hour)
	}
	if !filters.From.IsZero() && !filters.To.IsZero() {
		if !filters.From.Before(filters.To) {
			verr.Add("range", "tanggal awal harus sebelum tanggal akhir")
		} else if filters.To.Sub(filters.From) > maxDateRange {
			verr.Add("range", "maksimal satu tahun")
		}
	}
	if v := strings.TrimSpace(q.Get("user_id")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			verr.Add("user_id", "tidak valid")
		}
		filters.UserID = id
	}
	if v := strings.TrimSpace(q.Get("page")); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page <= 0 {
			verr.Add("page", "tidak valid")
		}
		filters.Page = page
	}
	if v := strings.TrimSpace(q.Get("page_size")); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil || size <= 0 {
			verr.Add("page_size", "tidak valid")
		}
		filters.PageSize = size
	}
	filters.Action = strings.TrimSpace(q.Get("action"))
	if err := verr.OrNil(); err != nil {
		return audit.TimelineFilters{}, err
	}
	return filters, nil
}
