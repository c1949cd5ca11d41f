package commands

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kreasi-nusantara/compro/jobs"
)

type recordingEnqueuer struct {
	tasks []*asynq.Task
}

func (r *recordingEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	r.tasks = append(r.tasks, task)
	return &asynq.TaskInfo{ID: "t1", Type: task.Type(), Queue: jobs.QueueDefault}, nil
}

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	return s.info, s.err
}

func TestTriggerSweepCarriesMinAge(t *testing.T) {
	rec := &recordingEnqueuer{}
	c := &jobsCLI{client: rec}

	info, err := c.trigger(context.Background(), "sweep", time.Hour, nil)
	require.NoError(t, err)
	assert.Equal(t, jobs.TaskUploadSweep, info.Type)

	require.Len(t, rec.tasks, 1)
	var payload jobs.UploadSweepPayload
	require.NoError(t, json.Unmarshal(rec.tasks[0].Payload(), &payload))
	assert.Equal(t, time.Hour, payload.MinAge)
}

func TestTriggerPurgeNeedsURLs(t *testing.T) {
	rec := &recordingEnqueuer{}
	c := &jobsCLI{client: rec}

	_, err := c.trigger(context.Background(), jobs.TaskUploadPurge, 0, nil)
	require.Error(t, err)

	info, err := c.trigger(context.Background(), "purge", 0, []string{"/media/photos/1-a.png"})
	require.NoError(t, err)
	assert.Equal(t, jobs.TaskUploadPurge, info.Type)
}

func TestTriggerRejectsUnknownJob(t *testing.T) {
	c := &jobsCLI{client: &recordingEnqueuer{}}
	_, err := c.trigger(context.Background(), "reindex", 0, nil)
	assert.EqualError(t, err, "jobs cli: unsupported job reindex")

	var nilCLI *jobsCLI
	_, err = nilCLI.trigger(context.Background(), "sweep", 0, nil)
	assert.Error(t, err)
}

func TestStats(t *testing.T) {
	c := &jobsCLI{inspector: stubInspector{info: &asynq.QueueInfo{Queue: "default", Pending: 3, Retry: 1, Archived: 2}}}
	stats, err := c.stats()
	require.NoError(t, err)
	assert.Equal(t, queueStats{Queue: "default", Pending: 3, Retry: 1, Archived: 2}, stats)

	c = &jobsCLI{inspector: stubInspector{err: asynq.ErrQueueNotFound}}
	stats, err = c.stats()
	require.NoError(t, err)
	assert.Equal(t, queueStats{Queue: "default"}, stats)

	c = &jobsCLI{inspector: stubInspector{err: errors.New("redis down")}}
	_, err = c.stats()
	assert.EqualError(t, err, "redis down")
}

func TestLoadSeedPasswordPrecedence(t *testing.T) {
	t.Cleanup(func() { seedFile, adminPassword = "", "" })

	t.Setenv("COMPRO_ADMIN_PASSWORD", "from-env-123")
	file, err := loadSeed()
	require.NoError(t, err)
	assert.Equal(t, "from-env-123", file.Admin.Password)

	adminPassword = "from-flag-123"
	file, err = loadSeed()
	require.NoError(t, err)
	assert.Equal(t, "from-flag-123", file.Admin.Password)

	seedFile = "testdata/missing.yaml"
	_, err = loadSeed()
	assert.Error(t, err)
}

func TestAdminInputRequiresPassword(t *testing.T) {
	t.Cleanup(func() { adminUsername, adminPassword, adminRoleIDs = "", "", nil })
	t.Setenv("COMPRO_ADMIN_PASSWORD", "")

	adminUsername = "budi"
	adminRoleIDs = []int64{1, 2}
	_, err := adminInput()
	require.Error(t, err)

	adminPassword = "rahasia123"
	in, err := adminInput()
	require.NoError(t, err)
	assert.Equal(t, "budi", in.Username)
	assert.Equal(t, []int64{1, 2}, in.RoleIDs.Int64s())
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"migrate", "up"},
		{"migrate", "down"},
		{"migrate", "status"},
		{"migrate", "reset"},
		{"seed"},
		{"admin", "create"},
		{"jobs", "trigger"},
		{"jobs", "stats"},
	} {
		cmd, rest, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Empty(t, rest, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}
