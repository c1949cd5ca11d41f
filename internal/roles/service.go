package roles

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/kreasi-nusantara/compro/internal/shared"
)

// Service handles role business logic.
type Service struct {
	repo Repository
}

// NewService builds Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListRoles returns all roles.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// GetRole returns a role by id.
func (s *Service) GetRole(ctx context.Context, id int64) (Role, error) {
	return s.repo.GetRole(ctx, id)
}

// CreateRole inserts a role whose name is unique ignoring case.
func (s *Service) CreateRole(ctx context.Context, in RoleInput, actorID *int64) (Role, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := shared.ValidateStruct(in); err != nil {
		return Role{}, err
	}
	var created Role
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := ensureNameFree(ctx, tx, in.Name, 0); err != nil {
			return err
		}
		role, err := tx.InsertRole(ctx, in.Name)
		if err != nil {
			return err
		}
		created = role
		return shared.LogActivity(ctx, tx, actorID, "Tambah Role", fmt.Sprintf("Menambahkan role %s", role.Name))
	})
	if err != nil {
		return Role{}, err
	}
	return created, nil
}

// UpdateRole renames a role, keeping names unique ignoring case.
func (s *Service) UpdateRole(ctx context.Context, id int64, in RoleInput, actorID *int64) (Role, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := shared.ValidateStruct(in); err != nil {
		return Role{}, err
	}
	var updated Role
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetRoleForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := ensureNameFree(ctx, tx, in.Name, id); err != nil {
			return err
		}
		role, err := tx.UpdateRole(ctx, id, in.Name)
		if err != nil {
			return err
		}
		updated = role
		return shared.LogActivity(ctx, tx, actorID, "Ubah Role", fmt.Sprintf("Mengubah role %s menjadi %s", current.Name, role.Name))
	})
	if err != nil {
		return Role{}, err
	}
	return updated, nil
}

// DeleteRole removes a role that no employee or menu grant references.
func (s *Service) DeleteRole(ctx context.Context, id int64, actorID *int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		role, err := tx.GetRoleForUpdate(ctx, id)
		if err != nil {
			return err
		}
		refs, err := tx.CountReferences(ctx, id)
		if err != nil {
			return err
		}
		if refs.InUse() {
			return shared.Conflict("role %s masih digunakan oleh %d admin dan %d menu", role.Name, refs.Employees, refs.Menus)
		}
		if err := tx.DeleteRole(ctx, id); err != nil {
			return err
		}
		return shared.LogActivity(ctx, tx, actorID, "Hapus Role", fmt.Sprintf("Menghapus role %s", role.Name))
	})
}

var folder = cases.Fold()

// SameName compares role names ignoring case and surrounding space.
func SameName(a, b string) bool {
	return folder.String(strings.TrimSpace(a)) == folder.String(strings.TrimSpace(b))
}

func ensureNameFree(ctx context.Context, tx TxRepository, name string, exceptID int64) error {
	existing, err := tx.ListRoles(ctx)
	if err != nil {
		return err
	}
	for _, role := range existing {
		if role.ID != exceptID && SameName(role.Name, name) {
			return shared.Conflict("role %q sudah ada", role.Name)
		}
	}
	return nil
}
