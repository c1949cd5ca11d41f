package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/kreasi-nusantara/compro/internal/jobs"
)

type fakeFiles struct {
	files   map[string]bool
	removed []string
	failOn  string
}

func (f *fakeFiles) Remove(ctx context.Context, url string) error {
	if url == f.failOn {
		return errors.New("disk busy")
	}
	delete(f.files, url)
	f.removed = append(f.removed, url)
	return nil
}

func (f *fakeFiles) URLs(cutoff time.Time) ([]string, error) {
	var out []string
	for url := range f.files {
		out = append(out, url)
	}
	return out, nil
}

type fakeRefs map[string]struct{}

func (r fakeRefs) ReferencedURLs(ctx context.Context) (map[string]struct{}, error) {
	return r, nil
}

func TestNewUploadPurgeTaskSkipsBlankURLs(t *testing.T) {
	task, err := NewUploadPurgeTask([]string{"", "/uploads/a/1.png"})
	require.NoError(t, err)
	assert.Equal(t, TaskUploadPurge, task.Type())
	var payload UploadPurgePayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, []string{"/uploads/a/1.png"}, payload.URLs)

	_, err = NewUploadPurgeTask([]string{""})
	assert.ErrorIs(t, err, errNoURLs)
}

func TestUploadPurgeJobRemovesEveryURL(t *testing.T) {
	files := &fakeFiles{files: map[string]bool{"/uploads/a/1.png": true, "/uploads/a/2.png": true}}
	job := NewUploadPurgeJob(files, nil, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	task, err := NewUploadPurgeTask([]string{"/uploads/a/1.png", "/uploads/a/2.png"})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	assert.ElementsMatch(t, []string{"/uploads/a/1.png", "/uploads/a/2.png"}, files.removed)
}

func TestUploadPurgeJobReportsPartialFailure(t *testing.T) {
	files := &fakeFiles{failOn: "/uploads/a/1.png"}
	job := NewUploadPurgeJob(files, nil, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	task, err := NewUploadPurgeTask([]string{"/uploads/a/1.png", "/uploads/a/2.png"})
	require.NoError(t, err)

	err = job.Handle(context.Background(), task)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/uploads/a/1.png")
	assert.Equal(t, []string{"/uploads/a/2.png"}, files.removed)
}

func TestUploadPurgeJobSkipsRetryOnBadPayload(t *testing.T) {
	job := NewUploadPurgeJob(&fakeFiles{}, nil, nil, nil)
	err := job.Handle(context.Background(), asynq.NewTask(TaskUploadPurge, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestUploadPurgeJobKeepsReattachedURL(t *testing.T) {
	files := &fakeFiles{}
	refs := fakeRefs{"/uploads/a/1.png": {}}
	job := NewUploadPurgeJob(files, refs, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	task, err := NewUploadPurgeTask([]string{"/uploads/a/1.png", "/uploads/a/2.png"})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, []string{"/uploads/a/2.png"}, files.removed)
}

func TestUploadSweepJobKeepsReferencedFiles(t *testing.T) {
	files := &fakeFiles{files: map[string]bool{
		"/uploads/clients/used.png":   true,
		"/uploads/clients/orphan.png": true,
	}}
	refs := fakeRefs{"/uploads/clients/used.png": {}}
	job := NewUploadSweepJob(files, refs, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	task, err := NewUploadSweepTask(time.Hour)
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, []string{"/uploads/clients/orphan.png"}, files.removed)
	assert.True(t, files.files["/uploads/clients/used.png"])
}

type fakeInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (f fakeInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	return f.info, f.err
}

func TestHealthReportsQueueDepth(t *testing.T) {
	router := chi.NewRouter()
	NewHandler(fakeInspector{info: &asynq.QueueInfo{Queue: QueueDefault, Pending: 3, Retry: 1}}, nil).MountRoutes(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"queue":"default","pending":3,"retry":1,"archived":0}`, rec.Body.String())
}

func TestHealthUnavailable(t *testing.T) {
	router := chi.NewRouter()
	NewHandler(fakeInspector{err: errors.New("redis down")}, nil).MountRoutes(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
