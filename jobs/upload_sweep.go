package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/kreasi-nusantara/compro/internal/jobs"
)

const defaultSweepAge = 24 * time.Hour

// StoredFiles lists and deletes stored files.
type StoredFiles interface {
	FileRemover
	URLs(cutoff time.Time) ([]string, error)
}

// ReferenceSource reports every media URL still referenced by content.
type ReferenceSource interface {
	ReferencedURLs(ctx context.Context) (map[string]struct{}, error)
}

// UploadSweepJob removes files uploaded but never attached, or released by a
// purge that exhausted its retries.
type UploadSweepJob struct {
	Store   StoredFiles
	Refs    ReferenceSource
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewUploadSweepJob wires dependencies for the sweep handler.
func NewUploadSweepJob(store StoredFiles, refs ReferenceSource, logger *slog.Logger, metrics *jobmetrics.Metrics) *UploadSweepJob {
	return &UploadSweepJob{Store: store, Refs: refs, Logger: logger, Metrics: metrics, clock: time.Now}
}

// Handle processes sweep tasks.
func (j *UploadSweepJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Store == nil || j.Refs == nil {
		return errors.New("upload sweep: handler not configured")
	}
	var payload UploadSweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("upload sweep: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.MinAge <= 0 {
		payload.MinAge = defaultSweepAge
	}

	tracker := metricsOrDefault(j.Metrics).Track(TaskUploadSweep)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	// Referenced URLs are read after listing so a file attached mid-sweep is kept.
	candidates, err := j.Store.URLs(j.clock().Add(-payload.MinAge))
	if err != nil {
		return fmt.Errorf("upload sweep: list files: %w", err)
	}
	if len(candidates) == 0 {
		return nil
	}
	referenced, err := j.Refs.ReferencedURLs(ctx)
	if err != nil {
		return fmt.Errorf("upload sweep: load references: %w", err)
	}

	removed := 0
	var failed []error
	for _, url := range candidates {
		if _, ok := referenced[url]; ok {
			continue
		}
		if err := j.Store.Remove(ctx, url); err != nil {
			failed = append(failed, err)
			continue
		}
		removed++
	}
	metricsOrDefault(j.Metrics).AddRemovedFiles(TaskUploadSweep, removed)
	loggerOrDefault(j.Logger).Info("upload sweep", slog.Int("candidates", len(candidates)), slog.Int("removed", removed))
	return errors.Join(failed...)
}

// PGReferences reads media columns from PostgreSQL.
type PGReferences struct {
	pool *pgxpool.Pool
}

// NewPGReferences constructs PGReferences.
func NewPGReferences(pool *pgxpool.Pool) *PGReferences {
	return &PGReferences{pool: pool}
}

// ReferencedURLs implements ReferenceSource.
func (r *PGReferences) ReferencedURLs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT logo_url FROM clients
		UNION SELECT image_url FROM projects
		UNION SELECT image_url FROM products
		UNION SELECT icon_url FROM services
		UNION SELECT image_url FROM photos
		UNION SELECT logo_url FROM company_profiles
		UNION SELECT profile_pdf_url FROM company_profiles`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, err
		}
		if url != "" {
			out[url] = struct{}{}
		}
	}
	return out, rows.Err()
}
