//go:build integration

package categories_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kreasi-nusantara/compro/internal/content/categories"
	"github.com/kreasi-nusantara/compro/internal/platform/db"
	"github.com/kreasi-nusantara/compro/internal/platform/db/dbtest"
	"github.com/kreasi-nusantara/compro/internal/shared"
)

func TestCategoryWriteNeedsLoggableActor(t *testing.T) {
	pool := dbtest.Start(t)
	ctx := context.Background()
	svc := categories.NewService(categories.NewRepository(db.NewGateway(pool), shared.NewAuditLogger()))

	ghost := int64(9999)
	_, err := svc.CreateCategory(ctx, categories.CategoryInput{Name: "Konstruksi"}, &ghost)
	require.ErrorIs(t, err, shared.ErrTransaction)
	assert.Zero(t, dbtest.Count(t, pool, `SELECT COUNT(*) FROM categories`))
	assert.Zero(t, dbtest.Count(t, pool, `SELECT COUNT(*) FROM activity_logs`))

	actor := dbtest.Insert(t, pool, `INSERT INTO users (username, password_hash) VALUES ('hana', 'x') RETURNING id`)
	created, err := svc.CreateCategory(ctx, categories.CategoryInput{Name: "Konstruksi"}, &actor)
	require.NoError(t, err)
	assert.Equal(t, 1, dbtest.Count(t, pool, `SELECT COUNT(*) FROM categories WHERE id = $1`, created.ID))
	assert.Equal(t, 1, dbtest.Count(t, pool,
		`SELECT COUNT(*) FROM activity_logs WHERE user_id = $1 AND action = 'Tambah Kategori'`, actor))

	_, err = pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, actor)
	require.NoError(t, err)
	assert.Equal(t, 1, dbtest.Count(t, pool, `SELECT COUNT(*) FROM activity_logs WHERE user_id = $1`, actor),
		"logs outlive their actor")
}
