package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/kreasi-nusantara/compro/jobs"
)

type taskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type queueInspector interface {
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
}

// jobsCLI wraps manual management helpers for upload jobs.
type jobsCLI struct {
	client    taskEnqueuer
	inspector queueInspector
}

// trigger enqueues a job by task type. Purges need at least one URL.
func (c *jobsCLI) trigger(ctx context.Context, name string, minAge time.Duration, urls []string) (*asynq.TaskInfo, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	var task *asynq.Task
	var err error
	switch name {
	case jobs.TaskUploadSweep, "sweep":
		task, err = jobs.NewUploadSweepTask(minAge)
	case jobs.TaskUploadPurge, "purge":
		task, err = jobs.NewUploadPurgeTask(urls)
	default:
		return nil, fmt.Errorf("jobs cli: unsupported job %s", name)
	}
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.Queue(jobs.QueueDefault), asynq.MaxRetry(3))
}

// queueStats summarises the current queue state.
type queueStats struct {
	Queue     string
	Pending   int
	Active    int
	Scheduled int
	Retry     int
	Archived  int
}

func (c *jobsCLI) stats() (queueStats, error) {
	if c == nil || c.inspector == nil {
		return queueStats{}, errors.New("jobs cli: inspector not configured")
	}
	stats := queueStats{Queue: jobs.QueueDefault}
	info, err := c.inspector.GetQueueInfo(jobs.QueueDefault)
	if err != nil {
		if errors.Is(err, asynq.ErrQueueNotFound) {
			return stats, nil
		}
		return queueStats{}, err
	}
	if info != nil {
		stats.Pending = info.Pending
		stats.Active = info.Active
		stats.Scheduled = info.Scheduled
		stats.Retry = info.Retry
		stats.Archived = info.Archived
	}
	return stats, nil
}

var sweepMinAge time.Duration

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect and trigger background jobs",
}

var jobsTriggerCmd = &cobra.Command{
	Use:   "trigger <sweep|purge> [url...]",
	Short: "Enqueue an upload job",
	Long: `Enqueue an upload job on the default queue.

Examples:
  comproctl jobs trigger sweep --min-age 1h
  comproctl jobs trigger purge /media/photos/12-banner.png`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := asynq.NewClient(cfg.queueRedis())
		defer client.Close()
		c := &jobsCLI{client: client}
		info, err := c.trigger(cmd.Context(), args[0], sweepMinAge, args[1:])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s (%s)\n", info.Type, info.ID)
		return nil
	},
}

var jobsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show default queue counters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		inspector := asynq.NewInspector(cfg.queueRedis())
		defer inspector.Close()
		stats, err := (&jobsCLI{inspector: inspector}).stats()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "queue=%s pending=%d active=%d scheduled=%d retry=%d archived=%d\n",
			stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry, stats.Archived)
		return nil
	},
}

func init() {
	jobsTriggerCmd.Flags().DurationVar(&sweepMinAge, "min-age", 24*time.Hour, "Only sweep files older than this")
	jobsCmd.AddCommand(jobsTriggerCmd, jobsStatsCmd)
	rootCmd.AddCommand(jobsCmd)
}
