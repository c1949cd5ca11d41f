package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kreasi-nusantara/compro/internal/shared"
)

type countingBumper struct {
	bumps int
}

func (c *countingBumper) Bump(ctx context.Context) error {
	c.bumps++
	return nil
}

func newStackRouter(t *testing.T, bumper *countingBumper) http.Handler {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	csrf := shared.NewCSRFManager("csrf-secret")
	r := chi.NewRouter()
	r.Use(MiddlewareStack(MiddlewareConfig{
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config:         &Config{AppEnv: "test", AppRequestTimeout: 5 * time.Second},
		SessionManager: shared.NewSessionManager(client, "compro_session", time.Hour, false),
		CSRFManager:    csrf,
		Cache:          bumper,
	})...)
	r.Get("/auth/csrf", func(w http.ResponseWriter, r *http.Request) {
		token, err := csrf.EnsureToken(r.Context(), shared.SessionFromContext(r.Context()))
		require.NoError(t, err)
		_, _ = io.WriteString(w, token)
	})
	r.Post("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Post("/services", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	r.Post("/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	return r
}

func issueToken(t *testing.T, h http.Handler) (string, []*http.Cookie) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/csrf", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return rec.Body.String(), cookies
}

func post(h http.Handler, path, token string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	if token != "" {
		req.Header.Set(shared.CSRFHeader, token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCSRFRejectsMutationWithoutToken(t *testing.T) {
	bumper := &countingBumper{}
	h := newStackRouter(t, bumper)

	rec := post(h, "/services", "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Token CSRF tidak valid")

	_, cookies := issueToken(t, h)
	rec = post(h, "/services", "forged", cookies)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Zero(t, bumper.bumps)
}

func TestCSRFExemptsLogin(t *testing.T) {
	bumper := &countingBumper{}
	h := newStackRouter(t, bumper)

	rec := post(h, "/auth/login", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, bumper.bumps, "auth routes never touch the public cache")
}

func TestCacheBumpedOnlyAfterSuccessfulMutation(t *testing.T) {
	bumper := &countingBumper{}
	h := newStackRouter(t, bumper)
	token, cookies := issueToken(t, h)

	rec := post(h, "/services", token, cookies)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, bumper.bumps)

	rec = post(h, "/broken", token, cookies)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 1, bumper.bumps)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/csrf", nil))
	assert.Equal(t, 1, bumper.bumps)
}

func TestSecureHeaders(t *testing.T) {
	h := newStackRouter(t, &countingBumper{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/csrf", nil))

	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}
