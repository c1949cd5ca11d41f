package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/kreasi-nusantara/compro/internal/shared"
)

// Service manages users, employees and admin accounts.
type Service struct {
	repo     Repository
	hashCost int
}

// NewService builds Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, hashCost: bcrypt.DefaultCost}
}

// SetHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func (s *Service) SetHashCost(cost int) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return
	}
	s.hashCost = cost
}

// maxPasswordBytes is bcrypt's input limit. Validator tags count runes, so
// multibyte passwords are checked here.
const maxPasswordBytes = 72

// HashPassword returns the bcrypt hash of password.
func (s *Service) HashPassword(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", shared.NewValidationError("password", "maksimal 72 byte")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// ListAdmins returns every admin account.
func (s *Service) ListAdmins(ctx context.Context) ([]AdminSummary, error) {
	return s.repo.ListAdmins(ctx)
}

// GetAdmin returns the admin account of userID.
func (s *Service) GetAdmin(ctx context.Context, userID int64) (AdminSummary, error) {
	return s.repo.GetAdmin(ctx, userID)
}

// CreateUser stores a user with a hashed password. Usernames are unique and
// case-sensitive.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput, actorID *int64) (User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := shared.ValidateStruct(in); err != nil {
		return User{}, err
	}
	hash, err := s.HashPassword(in.Password)
	if err != nil {
		return User{}, err
	}
	var created User
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		user, err := insertUser(ctx, tx, in.Username, hash)
		if err != nil {
			return err
		}
		created = user
		return shared.LogActivity(ctx, tx, actorID, "Tambah Pengguna", fmt.Sprintf("Menambahkan pengguna %s", user.Username))
	})
	if err != nil {
		return User{}, err
	}
	return created, nil
}

// CreateEmployee grants admin capability to userID with roleIDs. A user owns
// at most one employee and an employee needs at least one role.
func (s *Service) CreateEmployee(ctx context.Context, userID int64, roleIDs []int64, actorID *int64) (Employee, error) {
	roleIDs = shared.UniqueIDs(roleIDs)
	if len(roleIDs) == 0 {
		return Employee{}, shared.NewValidationError("role_ids", "wajib diisi")
	}
	var created Employee
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		user, err := tx.GetUserForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		employee, err := insertEmployee(ctx, tx, user.ID, roleIDs)
		if err != nil {
			return err
		}
		created = employee
		return shared.LogActivity(ctx, tx, actorID, "Tambah Karyawan", fmt.Sprintf("Menjadikan %s sebagai admin", user.Username))
	})
	if err != nil {
		return Employee{}, err
	}
	return created, nil
}

// UpdateEmployeeRoles replaces the employee's role set with roleIDs.
func (s *Service) UpdateEmployeeRoles(ctx context.Context, employeeID int64, roleIDs []int64, actorID *int64) (Employee, error) {
	roleIDs = shared.UniqueIDs(roleIDs)
	if len(roleIDs) == 0 {
		return Employee{}, shared.NewValidationError("role_ids", "wajib diisi")
	}
	var updated Employee
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		employee, err := tx.GetEmployeeForUpdate(ctx, employeeID)
		if err != nil {
			return err
		}
		roles, err := replaceRoles(ctx, tx, employee.ID, roleIDs)
		if err != nil {
			return err
		}
		employee.Roles = roles
		updated = employee
		return shared.LogActivity(ctx, tx, actorID, "Ubah Role Admin", fmt.Sprintf("Mengubah role karyawan %d menjadi %s", employee.ID, roleNames(roles)))
	})
	if err != nil {
		return Employee{}, err
	}
	return updated, nil
}

// DeleteUser removes the user's employee record, then the user.
func (s *Service) DeleteUser(ctx context.Context, userID int64, actorID *int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		user, err := tx.GetUserForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if err := deleteUser(ctx, tx, user.ID); err != nil {
			return err
		}
		return shared.LogActivity(ctx, tx, actorID, "Hapus Pengguna", fmt.Sprintf("Menghapus pengguna %s", user.Username))
	})
}

// CreateAdmin creates a user and its employee record in one transaction.
func (s *Service) CreateAdmin(ctx context.Context, in CreateAdminInput, actorID *int64) (AdminSummary, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := shared.ValidateStruct(in); err != nil {
		return AdminSummary{}, err
	}
	roleIDs := in.RoleIDs.Int64s()
	if len(roleIDs) == 0 {
		return AdminSummary{}, shared.NewValidationError("role_ids", "wajib diisi")
	}
	hash, err := s.HashPassword(in.Password)
	if err != nil {
		return AdminSummary{}, err
	}
	var created AdminSummary
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		user, err := insertUser(ctx, tx, in.Username, hash)
		if err != nil {
			return err
		}
		employee, err := insertEmployee(ctx, tx, user.ID, roleIDs)
		if err != nil {
			return err
		}
		created = summarize(user, employee)
		return shared.LogActivity(ctx, tx, actorID, "Tambah Admin",
			fmt.Sprintf("Menambahkan admin %s dengan role %s", user.Username, roleNames(employee.Roles)))
	})
	if err != nil {
		return AdminSummary{}, err
	}
	return created, nil
}

// UpdateAdmin changes the username, optionally the password, and replaces the roles.
func (s *Service) UpdateAdmin(ctx context.Context, userID int64, in UpdateAdminInput, actorID *int64) (AdminSummary, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := shared.ValidateStruct(in); err != nil {
		return AdminSummary{}, err
	}
	roleIDs := in.RoleIDs.Int64s()
	if len(roleIDs) == 0 {
		return AdminSummary{}, shared.NewValidationError("role_ids", "wajib diisi")
	}
	var hash *string
	if in.Password != "" {
		h, err := s.HashPassword(in.Password)
		if err != nil {
			return AdminSummary{}, err
		}
		hash = &h
	}
	var updated AdminSummary
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetUserForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		employee, err := tx.EmployeeByUser(ctx, userID)
		if err != nil {
			return err
		}
		if current.Username != in.Username {
			if err := ensureUsernameFree(ctx, tx, in.Username, userID); err != nil {
				return err
			}
		}
		user, err := tx.UpdateUser(ctx, userID, in.Username, hash)
		if err != nil {
			return err
		}
		roles, err := replaceRoles(ctx, tx, employee.ID, roleIDs)
		if err != nil {
			return err
		}
		employee.Roles = roles
		updated = summarize(user, employee)
		return shared.LogActivity(ctx, tx, actorID, "Ubah Admin",
			fmt.Sprintf("Mengubah admin %s menjadi %s dengan role %s", current.Username, user.Username, roleNames(roles)))
	})
	if err != nil {
		return AdminSummary{}, err
	}
	return updated, nil
}

// DeleteAdmin removes an admin's employee and user records. Admins cannot
// delete their own account.
func (s *Service) DeleteAdmin(ctx context.Context, userID int64, actorID *int64) error {
	if actorID != nil && *actorID == userID {
		return shared.Conflict("tidak dapat menghapus akun sendiri")
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		user, err := tx.GetUserForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if _, err := tx.EmployeeByUser(ctx, userID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NotFound("admin")
			}
			return err
		}
		if err := deleteUser(ctx, tx, user.ID); err != nil {
			return err
		}
		return shared.LogActivity(ctx, tx, actorID, "Hapus Admin", fmt.Sprintf("Menghapus admin %s", user.Username))
	})
}

func ensureUsernameFree(ctx context.Context, tx TxRepository, username string, exceptID int64) error {
	taken, err := tx.UsernameTaken(ctx, username, exceptID)
	if err != nil {
		return err
	}
	if taken {
		return shared.Conflict("username %q sudah digunakan", username)
	}
	return nil
}

func insertUser(ctx context.Context, tx TxRepository, username, hash string) (User, error) {
	if err := ensureUsernameFree(ctx, tx, username, 0); err != nil {
		return User{}, err
	}
	return tx.InsertUser(ctx, username, hash)
}

func insertEmployee(ctx context.Context, tx TxRepository, userID int64, roleIDs []int64) (Employee, error) {
	if _, err := tx.EmployeeByUser(ctx, userID); err == nil {
		return Employee{}, shared.Conflict("pengguna %d sudah terdaftar sebagai admin", userID)
	} else if !errors.Is(err, shared.ErrNotFound) {
		return Employee{}, err
	}
	employee, err := tx.InsertEmployee(ctx, userID)
	if err != nil {
		return Employee{}, err
	}
	roles, err := replaceRoles(ctx, tx, employee.ID, roleIDs)
	if err != nil {
		return Employee{}, err
	}
	employee.Roles = roles
	return employee, nil
}

func replaceRoles(ctx context.Context, tx TxRepository, employeeID int64, roleIDs []int64) ([]RoleRef, error) {
	roles, err := tx.RolesByIDs(ctx, roleIDs)
	if err != nil {
		return nil, err
	}
	if len(roles) != len(roleIDs) {
		return nil, shared.NewValidationError("role_ids", "berisi role yang tidak ditemukan")
	}
	if err := tx.ReplaceEmployeeRoles(ctx, employeeID, roleIDs); err != nil {
		return nil, err
	}
	return roles, nil
}

func deleteUser(ctx context.Context, tx TxRepository, userID int64) error {
	if err := tx.DeleteEmployeeByUser(ctx, userID); err != nil {
		return err
	}
	return tx.DeleteUser(ctx, userID)
}

func summarize(user User, employee Employee) AdminSummary {
	return AdminSummary{
		ID:         user.ID,
		EmployeeID: employee.ID,
		Username:   user.Username,
		Roles:      employee.Roles,
		CreatedAt:  employee.CreatedAt,
	}
}

func roleNames(roles []RoleRef) string {
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.Name)
	}
	return strings.Join(names, ", ")
}
