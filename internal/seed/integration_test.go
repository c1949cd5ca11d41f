//go:build integration

package seed_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kreasi-nusantara/compro/internal/platform/db"
	"github.com/kreasi-nusantara/compro/internal/platform/db/dbtest"
	"github.com/kreasi-nusantara/compro/internal/seed"
	"github.com/kreasi-nusantara/compro/internal/shared"
)

type plainHasher struct{}

func (plainHasher) HashPassword(password string) (string, error) {
	return "hashed:" + password, nil
}

var count = dbtest.Count

func TestApplyIsIdempotent(t *testing.T) {
	pool := dbtest.Start(t)
	ctx := context.Background()
	gw := db.NewGateway(pool)

	file, err := seed.Default()
	require.NoError(t, err)
	file.Admin.Password = "rahasia123"

	res, err := seed.Apply(ctx, gw, plainHasher{}, file)
	require.NoError(t, err)
	assert.True(t, res.AdminCreated)
	assert.Equal(t, len(file.MenuURLs()), res.Menus)
	assert.Equal(t, 2, res.Roles)

	file.Admin.Password = "ignored-on-rerun"
	res, err = seed.Apply(ctx, gw, plainHasher{}, file)
	require.NoError(t, err)
	assert.False(t, res.AdminCreated)

	assert.Equal(t, len(file.MenuURLs()), count(t, pool, `SELECT COUNT(*) FROM menus`))
	assert.Equal(t, 2, count(t, pool, `SELECT COUNT(*) FROM roles`))
	assert.Equal(t, 1, count(t, pool, `SELECT COUNT(*) FROM users WHERE password_hash = 'hashed:rahasia123'`))
	assert.Equal(t, len(file.MenuURLs()), count(t, pool,
		`SELECT COUNT(*) FROM menu_roles mr JOIN roles r ON r.id = mr.role_id WHERE r.name = 'Super Admin'`))
	assert.Equal(t, 1, count(t, pool, `SELECT COUNT(*) FROM menus WHERE url = $1 AND parent_id IS NOT NULL`, shared.MenuServices))
}

func TestApplyReplacesGrants(t *testing.T) {
	pool := dbtest.Start(t)
	ctx := context.Background()
	gw := db.NewGateway(pool)

	file, err := seed.Default()
	require.NoError(t, err)
	file.Admin = nil
	_, err = seed.Apply(ctx, gw, plainHasher{}, file)
	require.NoError(t, err)

	file.Roles[1].Menus = []string{shared.MenuDashboard}
	_, err = seed.Apply(ctx, gw, plainHasher{}, file)
	require.NoError(t, err)

	assert.Equal(t, 1, count(t, pool,
		`SELECT COUNT(*) FROM menu_roles mr JOIN roles r ON r.id = mr.role_id WHERE LOWER(r.name) = 'editor konten'`))
}

func TestApplyNeedsAdminPassword(t *testing.T) {
	pool := dbtest.Start(t)

	file, err := seed.Default()
	require.NoError(t, err)

	_, err = seed.Apply(context.Background(), db.NewGateway(pool), plainHasher{}, file)
	require.ErrorIs(t, err, seed.ErrAdminPassword)
	assert.Zero(t, count(t, pool, `SELECT COUNT(*) FROM menus`), "failed seed rolls back")
}

func TestCompanyProfileIsSingleton(t *testing.T) {
	pool := dbtest.Start(t)
	ctx := context.Background()

	_, err := pool.Exec(ctx, `INSERT INTO company_profiles (name) VALUES ('Kreasi Nusantara')`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO company_profiles (name) VALUES ('Duplikat')`)
	require.Error(t, err)
	assert.True(t, errors.Is(db.MapError("profil perusahaan", err), shared.ErrConflict))
}
