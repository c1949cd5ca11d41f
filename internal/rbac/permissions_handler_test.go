package rbac

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSyncPermissionsRejectsNonPositiveMenuIDs(t *testing.T) {
	repo := newMemoryMenuRepo()
	repo.roles[3] = "Editor"
	m1 := repo.addMenu("Produk", "/admin/products", nil, 1)
	repo.grants[3] = []int64{m1.ID}
	svc := NewService(repo)
	h := NewPermissionsHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc, Middleware{Service: svc})

	for _, body := range []string{
		`{"role_id":"3","menu_ids":["0"]}`,
		`{"role_id":"3","menu_ids":[-5]}`,
	} {
		rec := httptest.NewRecorder()
		h.syncPermissions(rec, httptest.NewRequest(http.MethodPost, "/roles/permissions", strings.NewReader(body)))
		require.Equal(t, http.StatusBadRequest, rec.Code, body)
		require.Contains(t, rec.Body.String(), "menu_ids[0]", body)
		require.Equal(t, []int64{m1.ID}, repo.grants[3], "grants stay untouched")
	}

	rec := httptest.NewRecorder()
	h.syncPermissions(rec, httptest.NewRequest(http.MethodPost, "/roles/permissions", strings.NewReader(`{"role_id":"3","menu_ids":[]}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, repo.grants[3])
}
