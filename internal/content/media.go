package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kreasi-nusantara/compro/internal/shared"
	"github.com/kreasi-nusantara/compro/internal/upload"
)

// Media couples the upload and purge collaborators used by resource services.
type Media struct {
	uploader upload.Uploader
	purger   upload.Purger
	logger   *slog.Logger
}

// NewMedia constructs Media. A nil purger leaves released files in place.
func NewMedia(uploader upload.Uploader, purger upload.Purger, logger *slog.Logger) *Media {
	if logger == nil {
		logger = slog.Default()
	}
	return &Media{uploader: uploader, purger: purger, logger: logger}
}

// Attachment is the outcome of Attach.
type Attachment struct {
	URL   string
	Fresh bool
}

// Attach uploads file when present, otherwise keeps current. It runs before
// any transaction so a failed upload aborts the mutation without a write.
func (m *Media) Attach(ctx context.Context, kind string, file *upload.File, current string) (Attachment, error) {
	if file == nil {
		return Attachment{URL: current}, nil
	}
	if m == nil || m.uploader == nil {
		return Attachment{}, fmt.Errorf("%w: uploader not configured", shared.ErrUpload)
	}
	url, err := m.uploader.Upload(ctx, kind, *file)
	if err != nil {
		if errors.Is(err, shared.ErrValidation) || errors.Is(err, shared.ErrUpload) {
			return Attachment{}, err
		}
		return Attachment{}, fmt.Errorf("%w: %v", shared.ErrUpload, err)
	}
	return Attachment{URL: url, Fresh: true}, nil
}

// Release schedules removal of urls. Failures are logged; the mutation that
// released them has already committed.
func (m *Media) Release(ctx context.Context, urls ...string) {
	if m == nil || m.purger == nil {
		return
	}
	var keep []string
	for _, u := range urls {
		if u != "" {
			keep = append(keep, u)
		}
	}
	if len(keep) == 0 {
		return
	}
	if err := m.purger.Purge(context.WithoutCancel(ctx), keep...); err != nil {
		m.logger.Warn("enqueue upload purge", slog.Any("urls", keep), slog.Any("error", err))
	}
}

// Settle releases fresh uploads when err is non-nil and, when it is nil, the
// previous URLs that attachments replaced. replaced[i] pairs with attachments[i].
// It returns err unchanged.
func (m *Media) Settle(ctx context.Context, err error, attachments []Attachment, replaced ...string) error {
	if err != nil {
		var fresh []string
		for _, a := range attachments {
			if a.Fresh {
				fresh = append(fresh, a.URL)
			}
		}
		m.Release(ctx, fresh...)
		return err
	}
	var stale []string
	for i, a := range attachments {
		if i < len(replaced) && replaced[i] != "" && replaced[i] != a.URL {
			stale = append(stale, replaced[i])
		}
	}
	m.Release(ctx, stale...)
	return nil
}
