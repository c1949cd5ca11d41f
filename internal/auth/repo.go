package auth

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kreasi-nusantara/compro/internal/platform/db"
)

// Repository defines persistence operations for auth module.
type Repository interface {
	FindByUsername(ctx context.Context, username string) (Credential, error)
	FindByID(ctx context.Context, userID int64) (Credential, error)
	// EmployeeRoles returns the roles of the user's employee record, or
	// shared.ErrNotFound when the user is not an employee.
	EmployeeRoles(ctx context.Context, userID int64) ([]Role, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByUsername fetches a credential by exact username.
func (r *PGRepository) FindByUsername(ctx context.Context, username string) (Credential, error) {
	var c Credential
	err := r.pool.QueryRow(ctx, `SELECT id, username, password_hash, created_at FROM users WHERE username = $1`, username).
		Scan(&c.UserID, &c.Username, &c.PasswordHash, &c.CreatedAt)
	return c, db.MapError("user", err)
}

// FindByID fetches a credential by user id.
func (r *PGRepository) FindByID(ctx context.Context, userID int64) (Credential, error) {
	var c Credential
	err := r.pool.QueryRow(ctx, `SELECT id, username, password_hash, created_at FROM users WHERE id = $1`, userID).
		Scan(&c.UserID, &c.Username, &c.PasswordHash, &c.CreatedAt)
	return c, db.MapError("user", err)
}

// EmployeeRoles lists the roles of userID's employee record in id order.
func (r *PGRepository) EmployeeRoles(ctx context.Context, userID int64) ([]Role, error) {
	var (
		ids   []int64
		names []string
	)
	err := r.pool.QueryRow(ctx, `SELECT
		COALESCE(array_agg(ro.id ORDER BY ro.id) FILTER (WHERE ro.id IS NOT NULL), '{}'),
		COALESCE(array_agg(ro.name ORDER BY ro.id) FILTER (WHERE ro.id IS NOT NULL), '{}')
		FROM employees e
		LEFT JOIN employee_roles er ON er.employee_id = e.id
		LEFT JOIN roles ro ON ro.id = er.role_id
		WHERE e.user_id = $1
		GROUP BY e.id`, userID).Scan(&ids, &names)
	if err != nil {
		return nil, db.MapError("employee", err)
	}
	roles := make([]Role, 0, len(ids))
	for i, id := range ids {
		roles = append(roles, Role{ID: id, Name: names[i]})
	}
	return roles, nil
}

var _ Repository = (*PGRepository)(nil)
