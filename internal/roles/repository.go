package roles

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/kreasi-nusantara/compro/internal/platform/db"
	"github.com/kreasi-nusantara/compro/internal/shared"
)

// Repository defines read access plus the transactional entry point.
type Repository interface {
	ListRoles(ctx context.Context) ([]Role, error)
	GetRole(ctx context.Context, id int64) (Role, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes writes that run inside one transaction.
type TxRepository interface {
	shared.ActivityWriter
	ListRoles(ctx context.Context) ([]Role, error)
	GetRoleForUpdate(ctx context.Context, id int64) (Role, error)
	InsertRole(ctx context.Context, name string) (Role, error)
	UpdateRole(ctx context.Context, id int64, name string) (Role, error)
	DeleteRole(ctx context.Context, id int64) error
	CountReferences(ctx context.Context, id int64) (References, error)
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	gw    *db.Gateway
	db    db.DBTX
	audit *shared.AuditLogger
}

// NewRepository constructs a repository.
func NewRepository(gw *db.Gateway, audit *shared.AuditLogger) *PGRepository {
	return &PGRepository{gw: gw, db: gw.DB(), audit: audit}
}

// WithTx runs fn with a repository bound to a single transaction.
func (r *PGRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return r.gw.WithTx(ctx, func(tx pgx.Tx) error {
		return fn(ctx, &PGRepository{gw: r.gw, db: tx, audit: r.audit})
	})
}

// ListRoles returns all roles.
func (r *PGRepository) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, created_at FROM roles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.CreatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// GetRole fetches a role by id.
func (r *PGRepository) GetRole(ctx context.Context, id int64) (Role, error) {
	var role Role
	err := r.db.QueryRow(ctx, `SELECT id, name, created_at FROM roles WHERE id = $1`, id).
		Scan(&role.ID, &role.Name, &role.CreatedAt)
	return role, db.MapError("role", err)
}

// GetRoleForUpdate fetches and locks a role row.
func (r *PGRepository) GetRoleForUpdate(ctx context.Context, id int64) (Role, error) {
	var role Role
	err := r.db.QueryRow(ctx, `SELECT id, name, created_at FROM roles WHERE id = $1 FOR UPDATE`, id).
		Scan(&role.ID, &role.Name, &role.CreatedAt)
	return role, db.MapError("role", err)
}

// InsertRole inserts a new role.
func (r *PGRepository) InsertRole(ctx context.Context, name string) (Role, error) {
	var role Role
	err := r.db.QueryRow(ctx, `INSERT INTO roles (name) VALUES ($1) RETURNING id, name, created_at`, name).
		Scan(&role.ID, &role.Name, &role.CreatedAt)
	return role, db.MapError("role", err)
}

// UpdateRole renames a role.
func (r *PGRepository) UpdateRole(ctx context.Context, id int64, name string) (Role, error) {
	var role Role
	err := r.db.QueryRow(ctx, `UPDATE roles SET name = $2 WHERE id = $1 RETURNING id, name, created_at`, id, name).
		Scan(&role.ID, &role.Name, &role.CreatedAt)
	return role, db.MapError("role", err)
}

// DeleteRole removes a role row.
func (r *PGRepository) DeleteRole(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return db.MapError("role", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("role")
	}
	return nil
}

// CountReferences counts employees and menu grants pointing at the role.
func (r *PGRepository) CountReferences(ctx context.Context, id int64) (References, error) {
	var refs References
	err := r.db.QueryRow(ctx, `SELECT
		(SELECT COUNT(*) FROM employee_roles WHERE role_id = $1),
		(SELECT COUNT(*) FROM menu_roles WHERE role_id = $1)`, id).Scan(&refs.Employees, &refs.Menus)
	return refs, err
}

// AppendActivity writes the activity row on the same handle.
func (r *PGRepository) AppendActivity(ctx context.Context, entry shared.ActivityLog) error {
	return r.audit.Record(ctx, r.db, entry)
}

var (
	_ Repository   = (*PGRepository)(nil)
	_ TxRepository = (*PGRepository)(nil)
)
