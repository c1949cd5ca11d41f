package rbac

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kreasi-nusantara/compro/internal/shared"
)

type memoryMenuRepo struct {
	menus       map[int64]Menu
	roles       map[int64]string
	grants      map[int64][]int64
	actors      map[int64]shared.Actor
	logs        []shared.ActivityLog
	nextID      int64
	failReplace bool
}

type memoryMenuTx struct {
	repo   *memoryMenuRepo
	menus  map[int64]Menu
	grants map[int64][]int64
	logs   []shared.ActivityLog
}

func newMemoryMenuRepo() *memoryMenuRepo {
	return &memoryMenuRepo{
		menus:  make(map[int64]Menu),
		roles:  make(map[int64]string),
		grants: make(map[int64][]int64),
		actors: make(map[int64]shared.Actor),
		nextID: 100,
	}
}

func (r *memoryMenuRepo) addMenu(label, url string, parent *int64, order int) Menu {
	r.nextID++
	m := Menu{ID: r.nextID, Label: label, URL: url, ParentID: parent, SortOrder: order}
	r.menus[m.ID] = m
	return m
}

func (r *memoryMenuRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx := &memoryMenuTx{repo: r, menus: make(map[int64]Menu), grants: make(map[int64][]int64)}
	for id, m := range r.menus {
		tx.menus[id] = m
	}
	for id, g := range r.grants {
		tx.grants[id] = append([]int64(nil), g...)
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	r.menus = tx.menus
	r.grants = tx.grants
	r.logs = append(r.logs, tx.logs...)
	return nil
}

func (r *memoryMenuRepo) ListMenus(ctx context.Context) ([]Menu, error) {
	out := make([]Menu, 0, len(r.menus))
	for _, m := range r.menus {
		out = append(out, m)
	}
	return out, nil
}

func (r *memoryMenuRepo) MenusForRoles(ctx context.Context, roleIDs []int64) ([]Menu, error) {
	var out []Menu
	for _, roleID := range roleIDs {
		for _, menuID := range r.grants[roleID] {
			out = append(out, r.menus[menuID])
		}
	}
	return out, nil
}

func (r *memoryMenuRepo) MenusByIDs(ctx context.Context, ids []int64) ([]Menu, error) {
	return menusByIDs(r.menus, ids), nil
}

func (r *memoryMenuRepo) ActorForUser(ctx context.Context, userID int64) (shared.Actor, error) {
	actor, ok := r.actors[userID]
	if !ok {
		return shared.Actor{}, shared.NotFound("admin")
	}
	return actor, nil
}

func (r *memoryMenuRepo) HasMenuAccess(ctx context.Context, roleIDs []int64, url string) (bool, error) {
	for _, roleID := range roleIDs {
		for _, menuID := range r.grants[roleID] {
			if r.menus[menuID].URL == url {
				return true, nil
			}
		}
	}
	return false, nil
}

func (tx *memoryMenuTx) RoleName(ctx context.Context, roleID int64) (string, error) {
	name, ok := tx.repo.roles[roleID]
	if !ok {
		return "", shared.NotFound("role")
	}
	return name, nil
}

func (tx *memoryMenuTx) MenusByIDs(ctx context.Context, ids []int64) ([]Menu, error) {
	return menusByIDs(tx.menus, ids), nil
}

func (tx *memoryMenuTx) ReplaceRoleMenus(ctx context.Context, roleID int64, menuIDs []int64) error {
	delete(tx.grants, roleID)
	if tx.repo.failReplace {
		return errors.New("insert failed")
	}
	tx.grants[roleID] = append([]int64(nil), menuIDs...)
	return nil
}

func (tx *memoryMenuTx) GetMenu(ctx context.Context, id int64) (Menu, error) {
	m, ok := tx.menus[id]
	if !ok {
		return Menu{}, shared.NotFound("menu")
	}
	return m, nil
}

func (tx *memoryMenuTx) InsertMenu(ctx context.Context, menu Menu) (Menu, error) {
	for _, m := range tx.menus {
		if m.URL == menu.URL {
			return Menu{}, shared.Conflict("menu sudah ada")
		}
	}
	tx.repo.nextID++
	menu.ID = tx.repo.nextID
	tx.menus[menu.ID] = menu
	return menu, nil
}

func (tx *memoryMenuTx) AppendActivity(ctx context.Context, entry shared.ActivityLog) error {
	tx.logs = append(tx.logs, entry)
	return nil
}

func menusByIDs(menus map[int64]Menu, ids []int64) []Menu {
	var out []Menu
	for _, id := range ids {
		if m, ok := menus[id]; ok {
			out = append(out, m)
		}
	}
	return out
}

func flatIDs(tree []Menu) []int64 {
	var ids []int64
	for _, m := range flattenMenus(tree) {
		ids = append(ids, m.ID)
	}
	return ids
}

func sortedGrants(repo *memoryMenuRepo, roleID int64) []int64 {
	out := append([]int64(nil), repo.grants[roleID]...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func actorID(id int64) *int64 { return &id }

func TestSyncThenResolveReturnsGrantedMenusOnce(t *testing.T) {
	repo := newMemoryMenuRepo()
	repo.roles[1] = "Editor"
	m1 := repo.addMenu("Produk", "/admin/products", nil, 1)
	m2 := repo.addMenu("Layanan", "/admin/services", nil, 2)
	svc := NewService(repo)
	ctx := context.Background()

	require.NoError(t, svc.SyncRolePermissions(ctx, 1, []int64{m1.ID, m2.ID}, actorID(9)))
	tree, err := svc.ResolveMenusForRoles(ctx, []int64{1})
	require.NoError(t, err)
	require.Equal(t, []int64{m1.ID, m2.ID}, flatIDs(tree))
	require.Len(t, repo.logs, 1)
	require.Equal(t, "Ubah Hak Akses", repo.logs[0].Action)
}

func TestSyncReplacesPreviousSet(t *testing.T) {
	repo := newMemoryMenuRepo()
	repo.roles[1] = "Editor"
	m1 := repo.addMenu("Produk", "/admin/products", nil, 1)
	m2 := repo.addMenu("Layanan", "/admin/services", nil, 2)
	svc := NewService(repo)
	ctx := context.Background()

	require.NoError(t, svc.SyncRolePermissions(ctx, 1, []int64{m1.ID, m2.ID}, nil))
	require.NoError(t, svc.SyncRolePermissions(ctx, 1, []int64{m2.ID}, nil))

	tree, err := svc.ResolveMenusForRoles(ctx, []int64{1})
	require.NoError(t, err)
	require.Equal(t, []int64{m2.ID}, flatIDs(tree))
	require.Empty(t, repo.logs)
}

func TestSyncIsIdempotentAndEmptyRevokes(t *testing.T) {
	repo := newMemoryMenuRepo()
	repo.roles[1] = "Editor"
	m1 := repo.addMenu("Produk", "/admin/products", nil, 1)
	m2 := repo.addMenu("Layanan", "/admin/services", nil, 2)
	svc := NewService(repo)
	ctx := context.Background()

	target := []int64{m2.ID, m1.ID, m2.ID}
	require.NoError(t, svc.SyncRolePermissions(ctx, 1, target, nil))
	once := sortedGrants(repo, 1)
	require.NoError(t, svc.SyncRolePermissions(ctx, 1, target, nil))
	require.Equal(t, once, sortedGrants(repo, 1))
	require.Len(t, once, 2)

	require.NoError(t, svc.SyncRolePermissions(ctx, 1, nil, nil))
	require.Empty(t, repo.grants[1])
	require.Contains(t, repo.roles, int64(1))
}

func TestSyncFailureKeepsPreviousSet(t *testing.T) {
	repo := newMemoryMenuRepo()
	repo.roles[1] = "Editor"
	m1 := repo.addMenu("Produk", "/admin/products", nil, 1)
	m2 := repo.addMenu("Layanan", "/admin/services", nil, 2)
	svc := NewService(repo)
	ctx := context.Background()
	require.NoError(t, svc.SyncRolePermissions(ctx, 1, []int64{m1.ID}, nil))

	repo.failReplace = true
	require.Error(t, svc.SyncRolePermissions(ctx, 1, []int64{m2.ID}, actorID(9)))
	require.Equal(t, []int64{m1.ID}, repo.grants[1])
	require.Empty(t, repo.logs)
}

func TestSyncRejectsUnknownRoleAndMenu(t *testing.T) {
	repo := newMemoryMenuRepo()
	repo.roles[1] = "Editor"
	svc := NewService(repo)
	ctx := context.Background()

	require.ErrorIs(t, svc.SyncRolePermissions(ctx, 2, nil, nil), shared.ErrNotFound)
	err := svc.SyncRolePermissions(ctx, 1, []int64{999}, nil)
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "menu_ids")
}

func TestResolveDeduplicatesOverlappingRoles(t *testing.T) {
	repo := newMemoryMenuRepo()
	shared1 := repo.addMenu("Dashboard", "/admin/dashboard", nil, 0)
	only2 := repo.addMenu("Admin", "/admin/users", nil, 5)
	repo.grants[1] = []int64{shared1.ID}
	repo.grants[2] = []int64{shared1.ID, only2.ID}
	svc := NewService(repo)

	tree, err := svc.ResolveMenusForRoles(context.Background(), []int64{1, 2, 2})
	require.NoError(t, err)
	ids := flatIDs(tree)
	require.Equal(t, []int64{shared1.ID, only2.ID}, ids)
}

func TestResolveNestsChildrenAndIncludesParentContainer(t *testing.T) {
	repo := newMemoryMenuRepo()
	content := repo.addMenu("Konten", "/admin/content", nil, 1)
	parentID := content.ID
	products := repo.addMenu("Produk", "/admin/products", &parentID, 2)
	services := repo.addMenu("Layanan", "/admin/services", &parentID, 1)
	settings := repo.addMenu("Pengaturan", "/admin/settings", nil, 9)
	repo.grants[1] = []int64{products.ID, services.ID}
	repo.grants[2] = []int64{settings.ID}
	svc := NewService(repo)

	tree, err := svc.ResolveMenusForRoles(context.Background(), []int64{1, 2})
	require.NoError(t, err)
	require.Len(t, tree, 2)
	require.Equal(t, content.ID, tree[0].ID)
	require.Equal(t, []int64{services.ID, products.ID}, []int64{tree[0].Children[0].ID, tree[0].Children[1].ID})
	require.Equal(t, settings.ID, tree[1].ID)
	require.Empty(t, tree[1].Children)
}

func TestResolveWithoutRoles(t *testing.T) {
	svc := NewService(newMemoryMenuRepo())
	tree, err := svc.ResolveMenusForRoles(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, tree)
}

func TestCreateMenuEnforcesTwoLevels(t *testing.T) {
	repo := newMemoryMenuRepo()
	top := repo.addMenu("Konten", "/admin/content", nil, 1)
	topID := top.ID
	child := repo.addMenu("Produk", "/admin/products", &topID, 1)
	svc := NewService(repo)
	ctx := context.Background()

	grandParent := shared.ID(child.ID)
	_, err := svc.CreateMenu(ctx, MenuInput{Label: "Varian", URL: "/admin/products/variants", ParentID: &grandParent}, actorID(1))
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "parent_id")

	parent := shared.ID(top.ID)
	created, err := svc.CreateMenu(ctx, MenuInput{Label: "Foto", URL: "/admin/photos", ParentID: &parent}, actorID(1))
	require.NoError(t, err)
	require.Equal(t, top.ID, *created.ParentID)
	require.Equal(t, "Tambah Menu", repo.logs[0].Action)
}

func TestCreateMenuValidation(t *testing.T) {
	svc := NewService(newMemoryMenuRepo())
	_, err := svc.CreateMenu(context.Background(), MenuInput{Label: "", URL: "admin"}, nil)
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "label")
	require.Contains(t, verr.Fields, "url")
}

func TestActorRequiresRoles(t *testing.T) {
	repo := newMemoryMenuRepo()
	repo.actors[1] = shared.Actor{UserID: 1, Username: "bob"}
	repo.actors[2] = shared.Actor{UserID: 2, Username: "alice", RoleIDs: []int64{3}}
	svc := NewService(repo)

	_, err := svc.Actor(context.Background(), 1)
	require.ErrorIs(t, err, shared.ErrNoRoleAssigned)
	_, err = svc.Actor(context.Background(), 5)
	require.ErrorIs(t, err, shared.ErrNotAnEmployee)
	actor, err := svc.Actor(context.Background(), 2)
	require.NoError(t, err)
	require.Equal(t, "alice", actor.Username)
}

func TestSyncRejectsNonPositiveMenuIDs(t *testing.T) {
	repo := newMemoryMenuRepo()
	repo.roles[1] = "Editor"
	m1 := repo.addMenu("Produk", "/admin/products", nil, 1)
	svc := NewService(repo)
	ctx := context.Background()
	require.NoError(t, svc.SyncRolePermissions(ctx, 1, []int64{m1.ID}, nil))

	err := svc.SyncRolePermissions(ctx, 1, []int64{0}, nil)
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "tidak valid", verr.Fields["menu_ids"])
	require.Equal(t, []int64{m1.ID}, repo.grants[1])
}
