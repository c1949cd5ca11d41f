package jobs

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskUploadPurge removes stored files no longer referenced by content.
	TaskUploadPurge = "upload:purge"
	// TaskUploadSweep removes aged files that no content row references.
	TaskUploadSweep = "upload:sweep"
)

var errNoURLs = errors.New("upload purge: no urls")

// UploadPurgePayload lists the URLs to remove.
type UploadPurgePayload struct {
	URLs []string `json:"urls"`
}

// UploadSweepPayload bounds a sweep to files older than MinAge.
type UploadSweepPayload struct {
	MinAge time.Duration `json:"min_age"`
}

// NewUploadPurgeTask constructs an Asynq task.
func NewUploadPurgeTask(urls []string) (*asynq.Task, error) {
	clean := make([]string, 0, len(urls))
	for _, u := range urls {
		if u != "" {
			clean = append(clean, u)
		}
	}
	if len(clean) == 0 {
		return nil, errNoURLs
	}
	data, err := json.Marshal(UploadPurgePayload{URLs: clean})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskUploadPurge, data, asynq.MaxRetry(5), asynq.Queue(QueueDefault)), nil
}

// NewUploadSweepTask constructs the scheduled sweep task.
func NewUploadSweepTask(minAge time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(UploadSweepPayload{MinAge: minAge})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskUploadSweep, data), nil
}
