package upload

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartBody(t *testing.T, kind string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if kind != "" {
		require.NoError(t, mw.WriteField("kind", kind))
	}
	if payload != nil {
		fw, err := mw.CreateFormFile("file", "logo.png")
		require.NoError(t, err)
		_, err = fw.Write(payload)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHandleUploadReturnsURL(t *testing.T) {
	store := NewLocalStore(t.TempDir(), "/uploads", 1<<20)
	router := chi.NewRouter()
	NewHandler(nil, store, 1<<20).MountRoutes(router)

	body, contentType := multipartBody(t, "clients", pngHeader)
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, strings.HasPrefix(resp["url"], "/uploads/clients/"))
}

func TestHandleUploadRequiresFile(t *testing.T) {
	store := NewLocalStore(t.TempDir(), "/uploads", 1<<20)
	router := chi.NewRouter()
	NewHandler(nil, store, 1<<20).MountRoutes(router)

	body, contentType := multipartBody(t, "clients", nil)
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"file"`)
}

func TestHandleUploadRejectsNonMultipart(t *testing.T) {
	store := NewLocalStore(t.TempDir(), "/uploads", 1<<20)
	router := chi.NewRouter()
	NewHandler(nil, store, 1<<20).MountRoutes(router)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"file":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
