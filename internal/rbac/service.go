package rbac

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/kreasi-nusantara/compro/internal/shared"
)

// Service resolves menu permissions and maintains role grants.
type Service struct {
	repo Repository
}

// NewService constructs a Service backed by repo.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListMenus returns every menu as a two-level tree.
func (s *Service) ListMenus(ctx context.Context) ([]Menu, error) {
	menus, err := s.repo.ListMenus(ctx)
	if err != nil {
		return nil, err
	}
	return BuildMenuTree(menus), nil
}

// ResolveMenusForRoles returns the de-duplicated menus granted to roleIDs as a
// two-level tree. A granted sub-menu brings its parent along as a container.
func (s *Service) ResolveMenusForRoles(ctx context.Context, roleIDs []int64) ([]Menu, error) {
	roleIDs = shared.UniqueIDs(roleIDs)
	if len(roleIDs) == 0 {
		return []Menu{}, nil
	}
	granted, err := s.repo.MenusForRoles(ctx, roleIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve menus: %w", err)
	}
	present := make(map[int64]struct{}, len(granted))
	for _, m := range granted {
		present[m.ID] = struct{}{}
	}
	var missing []int64
	for _, m := range granted {
		if m.ParentID == nil {
			continue
		}
		if _, ok := present[*m.ParentID]; !ok {
			missing = append(missing, *m.ParentID)
			present[*m.ParentID] = struct{}{}
		}
	}
	if len(missing) > 0 {
		parents, err := s.repo.MenusByIDs(ctx, missing)
		if err != nil {
			return nil, fmt.Errorf("resolve parent menus: %w", err)
		}
		granted = append(granted, parents...)
	}
	return BuildMenuTree(granted), nil
}

// CanAccess reports whether roleIDs grant the menu at url.
func (s *Service) CanAccess(ctx context.Context, roleIDs []int64, url string) (bool, error) {
	return s.repo.HasMenuAccess(ctx, shared.UniqueIDs(roleIDs), url)
}

// Actor loads the admin identity used to authorise a request.
func (s *Service) Actor(ctx context.Context, userID int64) (shared.Actor, error) {
	actor, err := s.repo.ActorForUser(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.Actor{}, shared.ErrNotAnEmployee
		}
		return shared.Actor{}, err
	}
	if len(actor.RoleIDs) == 0 {
		return shared.Actor{}, shared.ErrNoRoleAssigned
	}
	return actor, nil
}

// SyncRolePermissions replaces the role's menu grants with menuIDs. An empty
// set revokes all access. Concurrent syncs of one role resolve last-commit-wins.
func (s *Service) SyncRolePermissions(ctx context.Context, roleID int64, menuIDs []int64, actorID *int64) error {
	if roleID <= 0 {
		return shared.NewValidationError("role_id", "wajib diisi")
	}
	for _, id := range menuIDs {
		if id <= 0 {
			return shared.NewValidationError("menu_ids", "tidak valid")
		}
	}
	menuIDs = shared.UniqueIDs(menuIDs)
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		roleName, err := tx.RoleName(ctx, roleID)
		if err != nil {
			return err
		}
		if len(menuIDs) > 0 {
			found, err := tx.MenusByIDs(ctx, menuIDs)
			if err != nil {
				return err
			}
			if len(found) != len(menuIDs) {
				return shared.NewValidationError("menu_ids", "berisi menu yang tidak ditemukan")
			}
		}
		if err := tx.ReplaceRoleMenus(ctx, roleID, menuIDs); err != nil {
			return err
		}
		return shared.LogActivity(ctx, tx, actorID, "Ubah Hak Akses",
			fmt.Sprintf("Memperbarui hak akses role %s (%d menu)", roleName, len(menuIDs)))
	})
}

// CreateMenu inserts a menu. A sub-menu's parent must be a top-level menu.
func (s *Service) CreateMenu(ctx context.Context, in MenuInput, actorID *int64) (Menu, error) {
	in.Label = strings.TrimSpace(in.Label)
	in.URL = strings.TrimSpace(in.URL)
	if err := shared.ValidateStruct(in); err != nil {
		return Menu{}, err
	}
	menu := Menu{Label: in.Label, URL: in.URL, SortOrder: in.SortOrder}
	if in.ParentID != nil && *in.ParentID > 0 {
		parentID := int64(*in.ParentID)
		menu.ParentID = &parentID
	}
	var created Menu
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if menu.ParentID != nil {
			parent, err := tx.GetMenu(ctx, *menu.ParentID)
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewValidationError("parent_id", "menu induk tidak ditemukan")
			}
			if err != nil {
				return err
			}
			if !parent.IsTopLevel() {
				return shared.NewValidationError("parent_id", "harus menu tingkat atas")
			}
		}
		inserted, err := tx.InsertMenu(ctx, menu)
		if err != nil {
			return err
		}
		created = inserted
		return shared.LogActivity(ctx, tx, actorID, "Tambah Menu", fmt.Sprintf("Menambahkan menu %s (%s)", inserted.Label, inserted.URL))
	})
	if err != nil {
		return Menu{}, err
	}
	return created, nil
}

// BuildMenuTree de-duplicates menus by id and nests sub-menus under their
// parents, ordered by sort order then id. Sub-menus whose parent is absent
// are dropped.
func BuildMenuTree(menus []Menu) []Menu {
	byID := make(map[int64]Menu, len(menus))
	for _, m := range menus {
		if _, ok := byID[m.ID]; ok {
			continue
		}
		m.Children = nil
		byID[m.ID] = m
	}

	children := make(map[int64][]Menu)
	var roots []Menu
	for _, m := range byID {
		if m.ParentID == nil {
			roots = append(roots, m)
			continue
		}
		if _, ok := byID[*m.ParentID]; ok {
			children[*m.ParentID] = append(children[*m.ParentID], m)
		}
	}

	sortMenus(roots)
	tree := make([]Menu, 0, len(roots))
	for _, root := range roots {
		kids := children[root.ID]
		sortMenus(kids)
		root.Children = kids
		tree = append(tree, root)
	}
	return tree
}

// flattenMenus returns the tree's menus parent-first.
func flattenMenus(tree []Menu) []Menu {
	var out []Menu
	for _, m := range tree {
		kids := m.Children
		m.Children = nil
		out = append(out, m)
		out = append(out, kids...)
	}
	return out
}

func sortMenus(menus []Menu) {
	sort.SliceStable(menus, func(i, j int) bool {
		if menus[i].SortOrder != menus[j].SortOrder {
			return menus[i].SortOrder < menus[j].SortOrder
		}
		return menus[i].ID < menus[j].ID
	})
}
