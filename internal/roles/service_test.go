package roles

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kreasi-nusantara/compro/internal/shared"
)

type memoryRoleRepo struct {
	roles   map[int64]Role
	refs    map[int64]References
	logs    []shared.ActivityLog
	nextID  int64
	failLog bool
}

type memoryRoleTx struct {
	repo  *memoryRoleRepo
	roles map[int64]Role
	logs  []shared.ActivityLog
}

func newMemoryRoleRepo() *memoryRoleRepo {
	return &memoryRoleRepo{roles: make(map[int64]Role), refs: make(map[int64]References)}
}

func (r *memoryRoleRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx := &memoryRoleTx{repo: r, roles: make(map[int64]Role, len(r.roles))}
	for id, role := range r.roles {
		tx.roles[id] = role
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	r.roles = tx.roles
	r.logs = append(r.logs, tx.logs...)
	return nil
}

func (r *memoryRoleRepo) ListRoles(ctx context.Context) ([]Role, error) {
	out := make([]Role, 0, len(r.roles))
	for _, role := range r.roles {
		out = append(out, role)
	}
	return out, nil
}

func (r *memoryRoleRepo) GetRole(ctx context.Context, id int64) (Role, error) {
	role, ok := r.roles[id]
	if !ok {
		return Role{}, shared.NotFound("role")
	}
	return role, nil
}

func (tx *memoryRoleTx) ListRoles(ctx context.Context) ([]Role, error) {
	out := make([]Role, 0, len(tx.roles))
	for _, role := range tx.roles {
		out = append(out, role)
	}
	return out, nil
}

func (tx *memoryRoleTx) GetRoleForUpdate(ctx context.Context, id int64) (Role, error) {
	role, ok := tx.roles[id]
	if !ok {
		return Role{}, shared.NotFound("role")
	}
	return role, nil
}

func (tx *memoryRoleTx) InsertRole(ctx context.Context, name string) (Role, error) {
	tx.repo.nextID++
	role := Role{ID: tx.repo.nextID, Name: name, CreatedAt: time.Now()}
	tx.roles[role.ID] = role
	return role, nil
}

func (tx *memoryRoleTx) UpdateRole(ctx context.Context, id int64, name string) (Role, error) {
	role := tx.roles[id]
	role.Name = name
	tx.roles[id] = role
	return role, nil
}

func (tx *memoryRoleTx) DeleteRole(ctx context.Context, id int64) error {
	delete(tx.roles, id)
	return nil
}

func (tx *memoryRoleTx) CountReferences(ctx context.Context, id int64) (References, error) {
	return tx.repo.refs[id], nil
}

func (tx *memoryRoleTx) AppendActivity(ctx context.Context, entry shared.ActivityLog) error {
	if tx.repo.failLog {
		return errors.New("log write failed")
	}
	tx.logs = append(tx.logs, entry)
	return nil
}

func actor(id int64) *int64 { return &id }

func TestCreateRoleLogsActivity(t *testing.T) {
	repo := newMemoryRoleRepo()
	svc := NewService(repo)

	role, err := svc.CreateRole(context.Background(), RoleInput{Name: "  Editor "}, actor(1))
	require.NoError(t, err)
	require.Equal(t, "Editor", role.Name)
	require.Len(t, repo.logs, 1)
	require.Equal(t, "Tambah Role", repo.logs[0].Action)
	require.Equal(t, int64(1), *repo.logs[0].UserID)
}

func TestCreateRoleRejectsCaseInsensitiveDuplicate(t *testing.T) {
	repo := newMemoryRoleRepo()
	svc := NewService(repo)
	_, err := svc.CreateRole(context.Background(), RoleInput{Name: "Editor"}, actor(1))
	require.NoError(t, err)

	_, err = svc.CreateRole(context.Background(), RoleInput{Name: "EDITOR"}, actor(1))
	require.ErrorIs(t, err, shared.ErrConflict)
	require.Len(t, repo.roles, 1)
	require.Len(t, repo.logs, 1)
}

func TestCreateRoleValidation(t *testing.T) {
	repo := newMemoryRoleRepo()
	svc := NewService(repo)

	_, err := svc.CreateRole(context.Background(), RoleInput{Name: "   "}, actor(1))
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "name")
	require.Empty(t, repo.roles)
	require.Empty(t, repo.logs)
}

func TestCreateRoleRollsBackWhenLogFails(t *testing.T) {
	repo := newMemoryRoleRepo()
	repo.failLog = true
	svc := NewService(repo)

	_, err := svc.CreateRole(context.Background(), RoleInput{Name: "Editor"}, actor(1))
	require.Error(t, err)
	require.Empty(t, repo.roles)
}

func TestUpdateRoleKeepsOwnName(t *testing.T) {
	repo := newMemoryRoleRepo()
	svc := NewService(repo)
	role, err := svc.CreateRole(context.Background(), RoleInput{Name: "Editor"}, actor(1))
	require.NoError(t, err)

	updated, err := svc.UpdateRole(context.Background(), role.ID, RoleInput{Name: "editor"}, actor(1))
	require.NoError(t, err)
	require.Equal(t, "editor", updated.Name)
	require.Equal(t, "Ubah Role", repo.logs[1].Action)
}

func TestDeleteRoleInUse(t *testing.T) {
	repo := newMemoryRoleRepo()
	svc := NewService(repo)
	role, err := svc.CreateRole(context.Background(), RoleInput{Name: "Editor"}, actor(1))
	require.NoError(t, err)
	repo.refs[role.ID] = References{Employees: 2}

	err = svc.DeleteRole(context.Background(), role.ID, actor(1))
	require.ErrorIs(t, err, shared.ErrConflict)
	require.Contains(t, repo.roles, role.ID)

	repo.refs[role.ID] = References{}
	require.NoError(t, svc.DeleteRole(context.Background(), role.ID, actor(1)))
	require.NotContains(t, repo.roles, role.ID)
	require.Equal(t, "Hapus Role", repo.logs[len(repo.logs)-1].Action)
}

func TestDeleteRoleNotFound(t *testing.T) {
	svc := NewService(newMemoryRoleRepo())
	err := svc.DeleteRole(context.Background(), 99, actor(1))
	require.ErrorIs(t, err, shared.ErrNotFound)
}
