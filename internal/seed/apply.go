package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/kreasi-nusantara/compro/internal/platform/db"
)

// PasswordHasher hashes the admin password before it is stored.
type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

// Result summarises what Apply touched.
type Result struct {
	Menus        int
	Roles        int
	AdminCreated bool
}

// ErrAdminPassword is returned when a new admin has no password.
var ErrAdminPassword = errors.New("seed: admin password required")

// Apply writes file inside one transaction. Menus are upserted by URL and roles
// by case-insensitive name; each role's grants are replaced by the file's list.
// An existing admin is left untouched so reseeding never resets a password.
func Apply(ctx context.Context, gw *db.Gateway, hasher PasswordHasher, file File) (Result, error) {
	var res Result
	err := gw.WithTx(ctx, func(tx pgx.Tx) error {
		menuIDs := make(map[string]int64)
		for i, m := range file.Menus {
			id, err := upsertMenu(ctx, tx, m, nil, i+1)
			if err != nil {
				return err
			}
			menuIDs[m.URL] = id
			for j, c := range m.Children {
				childID, err := upsertMenu(ctx, tx, c, &id, j+1)
				if err != nil {
					return err
				}
				menuIDs[c.URL] = childID
			}
		}
		res.Menus = len(menuIDs)

		roleIDs := make(map[string]int64)
		for _, r := range file.Roles {
			id, err := ensureRole(ctx, tx, strings.TrimSpace(r.Name))
			if err != nil {
				return err
			}
			roleIDs[strings.ToLower(strings.TrimSpace(r.Name))] = id
			granted := make([]int64, 0, len(r.Menus))
			for _, u := range file.GrantedURLs(r) {
				granted = append(granted, menuIDs[u])
			}
			if err := db.ReplaceEdges(ctx, tx, db.MenuRoles, id, granted); err != nil {
				return err
			}
		}
		res.Roles = len(roleIDs)

		if file.Admin == nil {
			return nil
		}
		created, err := ensureAdmin(ctx, tx, hasher, *file.Admin, roleIDs)
		res.AdminCreated = created
		return err
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

func upsertMenu(ctx context.Context, tx pgx.Tx, m Menu, parentID *int64, order int) (int64, error) {
	var id int64
	err := tx.QueryRow(ctx, `INSERT INTO menus (label, url, parent_id, sort_order)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (url) DO UPDATE SET label = EXCLUDED.label, parent_id = EXCLUDED.parent_id, sort_order = EXCLUDED.sort_order
		RETURNING id`, strings.TrimSpace(m.Label), m.URL, parentID, order).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("seed menu %s: %w", m.URL, err)
	}
	return id, nil
}

func ensureRole(ctx context.Context, tx pgx.Tx, name string) (int64, error) {
	var id int64
	err := tx.QueryRow(ctx, `SELECT id FROM roles WHERE LOWER(name) = LOWER($1)`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("seed role %s: %w", name, err)
	}
	if err := tx.QueryRow(ctx, `INSERT INTO roles (name) VALUES ($1) RETURNING id`, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("seed role %s: %w", name, err)
	}
	return id, nil
}

func ensureAdmin(ctx context.Context, tx pgx.Tx, hasher PasswordHasher, admin Admin, roleIDs map[string]int64) (bool, error) {
	username := strings.TrimSpace(admin.Username)
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists); err != nil {
		return false, fmt.Errorf("seed admin: %w", err)
	}
	if exists {
		return false, nil
	}
	if admin.Password == "" {
		return false, ErrAdminPassword
	}
	hash, err := hasher.HashPassword(admin.Password)
	if err != nil {
		return false, err
	}
	var userID, employeeID int64
	if err := tx.QueryRow(ctx, `INSERT INTO users (username, password_hash) VALUES ($1, $2) RETURNING id`, username, hash).Scan(&userID); err != nil {
		return false, fmt.Errorf("seed admin: %w", err)
	}
	if err := tx.QueryRow(ctx, `INSERT INTO employees (user_id) VALUES ($1) RETURNING id`, userID).Scan(&employeeID); err != nil {
		return false, fmt.Errorf("seed admin employee: %w", err)
	}
	roles := make([]int64, 0, len(admin.Roles))
	for _, name := range admin.Roles {
		roles = append(roles, roleIDs[strings.ToLower(strings.TrimSpace(name))])
	}
	if err := db.ReplaceEdges(ctx, tx, db.EmployeeRoles, employeeID, roles); err != nil {
		return false, err
	}
	return true, nil
}
