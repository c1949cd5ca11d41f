package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/kreasi-nusantara/compro/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// FileRemover deletes a stored file by URL. Unknown URLs are not an error.
type FileRemover interface {
	Remove(ctx context.Context, url string) error
}

// UploadPurgeJob deletes files released by content mutations.
type UploadPurgeJob struct {
	Store   FileRemover
	Refs    ReferenceSource
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewUploadPurgeJob wires dependencies for the purge handler.
// A nil refs removes every URL unconditionally.
func NewUploadPurgeJob(store FileRemover, refs ReferenceSource, logger *slog.Logger, metrics *jobmetrics.Metrics) *UploadPurgeJob {
	return &UploadPurgeJob{Store: store, Refs: refs, Logger: logger, Metrics: metrics}
}

// Handle processes upload purge tasks.
func (j *UploadPurgeJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Store == nil {
		return errors.New("upload purge: handler not configured")
	}
	var payload UploadPurgePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("upload purge: decode payload: %v: %w", err, asynq.SkipRetry)
	}

	tracker := metricsOrDefault(j.Metrics).Track(TaskUploadPurge)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	// A URL attached again since it was released stays.
	var referenced map[string]struct{}
	if j.Refs != nil {
		refs, err := j.Refs.ReferencedURLs(ctx)
		if err != nil {
			return fmt.Errorf("upload purge: load references: %w", err)
		}
		referenced = refs
	}

	removed := 0
	var failed []error
	for _, url := range payload.URLs {
		if _, ok := referenced[url]; ok {
			continue
		}
		if err := j.Store.Remove(ctx, url); err != nil {
			failed = append(failed, fmt.Errorf("%s: %w", url, err))
			continue
		}
		removed++
	}
	metricsOrDefault(j.Metrics).AddRemovedFiles(TaskUploadPurge, removed)
	loggerOrDefault(j.Logger).Info("upload purge", slog.Int("removed", removed), slog.Int("failed", len(failed)))
	return errors.Join(failed...)
}

func metricsOrDefault(m *jobmetrics.Metrics) *jobmetrics.Metrics {
	if m != nil {
		return m
	}
	return defaultJobMetrics
}

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default()
}
