package users

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/kreasi-nusantara/compro/internal/platform/db"
	"github.com/kreasi-nusantara/compro/internal/shared"
)

// Repository exposes admin reads and the transactional entry point.
type Repository interface {
	ListAdmins(ctx context.Context) ([]AdminSummary, error)
	GetAdmin(ctx context.Context, userID int64) (AdminSummary, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes writes that share one transaction.
type TxRepository interface {
	shared.ActivityWriter
	UsernameTaken(ctx context.Context, username string, exceptID int64) (bool, error)
	InsertUser(ctx context.Context, username, passwordHash string) (User, error)
	GetUserForUpdate(ctx context.Context, id int64) (User, error)
	UpdateUser(ctx context.Context, id int64, username string, passwordHash *string) (User, error)
	DeleteUser(ctx context.Context, id int64) error
	EmployeeByUser(ctx context.Context, userID int64) (Employee, error)
	GetEmployeeForUpdate(ctx context.Context, id int64) (Employee, error)
	InsertEmployee(ctx context.Context, userID int64) (Employee, error)
	DeleteEmployeeByUser(ctx context.Context, userID int64) error
	RolesByIDs(ctx context.Context, ids []int64) ([]RoleRef, error)
	ReplaceEmployeeRoles(ctx context.Context, employeeID int64, roleIDs []int64) error
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	gw    *db.Gateway
	db    db.DBTX
	tx    pgx.Tx
	audit *shared.AuditLogger
}

// NewRepository constructs a repository.
func NewRepository(gw *db.Gateway, audit *shared.AuditLogger) *PGRepository {
	return &PGRepository{gw: gw, db: gw.DB(), audit: audit}
}

// WithTx runs fn inside a transaction.
func (r *PGRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return r.gw.WithTx(ctx, func(tx pgx.Tx) error {
		return fn(ctx, &PGRepository{gw: r.gw, db: tx, tx: tx, audit: r.audit})
	})
}

const adminSelect = `SELECT u.id, e.id, u.username, e.created_at,
	COALESCE(array_agg(r.id ORDER BY r.id) FILTER (WHERE r.id IS NOT NULL), '{}'),
	COALESCE(array_agg(r.name ORDER BY r.id) FILTER (WHERE r.id IS NOT NULL), '{}')
	FROM users u
	JOIN employees e ON e.user_id = u.id
	LEFT JOIN employee_roles er ON er.employee_id = e.id
	LEFT JOIN roles r ON r.id = er.role_id`

func scanAdmin(row pgx.Row) (AdminSummary, error) {
	var (
		a     AdminSummary
		ids   []int64
		names []string
	)
	if err := row.Scan(&a.ID, &a.EmployeeID, &a.Username, &a.CreatedAt, &ids, &names); err != nil {
		return AdminSummary{}, err
	}
	a.Roles = zipRoles(ids, names)
	return a, nil
}

func zipRoles(ids []int64, names []string) []RoleRef {
	roles := make([]RoleRef, 0, len(ids))
	for i, id := range ids {
		ref := RoleRef{ID: id}
		if i < len(names) {
			ref.Name = names[i]
		}
		roles = append(roles, ref)
	}
	return roles
}

// ListAdmins returns every employee user, newest first.
func (r *PGRepository) ListAdmins(ctx context.Context) ([]AdminSummary, error) {
	rows, err := r.db.Query(ctx, adminSelect+`
		GROUP BY u.id, e.id, u.username, e.created_at
		ORDER BY e.created_at DESC, u.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var admins []AdminSummary
	for rows.Next() {
		a, err := scanAdmin(rows)
		if err != nil {
			return nil, err
		}
		admins = append(admins, a)
	}
	return admins, rows.Err()
}

// GetAdmin returns one admin by user id.
func (r *PGRepository) GetAdmin(ctx context.Context, userID int64) (AdminSummary, error) {
	a, err := scanAdmin(r.db.QueryRow(ctx, adminSelect+`
		WHERE u.id = $1
		GROUP BY u.id, e.id, u.username, e.created_at`, userID))
	return a, db.MapError("admin", err)
}

// UsernameTaken reports whether another user already owns username.
func (r *PGRepository) UsernameTaken(ctx context.Context, username string, exceptID int64) (bool, error) {
	var taken bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 AND id <> $2)`, username, exceptID).Scan(&taken)
	return taken, err
}

// InsertUser stores a new user.
func (r *PGRepository) InsertUser(ctx context.Context, username, passwordHash string) (User, error) {
	u := User{Username: username, PasswordHash: passwordHash}
	err := r.db.QueryRow(ctx, `INSERT INTO users (username, password_hash) VALUES ($1, $2)
		RETURNING id, created_at, updated_at`, username, passwordHash).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	return u, db.MapError("user", err)
}

// GetUserForUpdate fetches and locks a user row.
func (r *PGRepository) GetUserForUpdate(ctx context.Context, id int64) (User, error) {
	var u User
	err := r.db.QueryRow(ctx, `SELECT id, username, password_hash, created_at, updated_at
		FROM users WHERE id = $1 FOR UPDATE`, id).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	return u, db.MapError("user", err)
}

// UpdateUser changes the username and, when passwordHash is set, the password.
func (r *PGRepository) UpdateUser(ctx context.Context, id int64, username string, passwordHash *string) (User, error) {
	var u User
	err := r.db.QueryRow(ctx, `UPDATE users
		SET username = $2, password_hash = COALESCE($3, password_hash), updated_at = NOW()
		WHERE id = $1
		RETURNING id, username, password_hash, created_at, updated_at`, id, username, passwordHash).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	return u, db.MapError("user", err)
}

// DeleteUser removes a user row.
func (r *PGRepository) DeleteUser(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return db.MapError("user", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("user")
	}
	return nil
}

func (r *PGRepository) scanEmployee(ctx context.Context, where string, arg int64) (Employee, error) {
	var (
		e     Employee
		ids   []int64
		names []string
	)
	err := r.db.QueryRow(ctx, `SELECT e.id, e.user_id, e.created_at,
		COALESCE(array_agg(r.id ORDER BY r.id) FILTER (WHERE r.id IS NOT NULL), '{}'),
		COALESCE(array_agg(r.name ORDER BY r.id) FILTER (WHERE r.id IS NOT NULL), '{}')
		FROM employees e
		LEFT JOIN employee_roles er ON er.employee_id = e.id
		LEFT JOIN roles r ON r.id = er.role_id
		WHERE `+where+`
		GROUP BY e.id, e.user_id, e.created_at`, arg).Scan(&e.ID, &e.UserID, &e.CreatedAt, &ids, &names)
	if err != nil {
		return Employee{}, db.MapError("employee", err)
	}
	e.Roles = zipRoles(ids, names)
	return e, nil
}

// EmployeeByUser returns the employee owned by userID.
func (r *PGRepository) EmployeeByUser(ctx context.Context, userID int64) (Employee, error) {
	return r.scanEmployee(ctx, "e.user_id = $1", userID)
}

// GetEmployeeForUpdate fetches an employee and locks its row.
func (r *PGRepository) GetEmployeeForUpdate(ctx context.Context, id int64) (Employee, error) {
	if _, err := r.db.Exec(ctx, `SELECT 1 FROM employees WHERE id = $1 FOR UPDATE`, id); err != nil {
		return Employee{}, err
	}
	return r.scanEmployee(ctx, "e.id = $1", id)
}

// InsertEmployee grants admin capability to userID.
func (r *PGRepository) InsertEmployee(ctx context.Context, userID int64) (Employee, error) {
	e := Employee{UserID: userID}
	err := r.db.QueryRow(ctx, `INSERT INTO employees (user_id) VALUES ($1) RETURNING id, created_at`, userID).
		Scan(&e.ID, &e.CreatedAt)
	return e, db.MapError("employee", err)
}

// DeleteEmployeeByUser removes the employee row of userID, if any.
func (r *PGRepository) DeleteEmployeeByUser(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM employees WHERE user_id = $1`, userID)
	return db.MapError("employee", err)
}

// RolesByIDs returns the roles that exist among ids.
func (r *PGRepository) RolesByIDs(ctx context.Context, ids []int64) ([]RoleRef, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, `SELECT id, name FROM roles WHERE id = ANY($1::bigint[]) ORDER BY id`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []RoleRef
	for rows.Next() {
		var ref RoleRef
		if err := rows.Scan(&ref.ID, &ref.Name); err != nil {
			return nil, err
		}
		roles = append(roles, ref)
	}
	return roles, rows.Err()
}

// ReplaceEmployeeRoles swaps the employee's roles for roleIDs.
func (r *PGRepository) ReplaceEmployeeRoles(ctx context.Context, employeeID int64, roleIDs []int64) error {
	return db.ReplaceEdges(ctx, r.tx, db.EmployeeRoles, employeeID, roleIDs)
}

// AppendActivity writes the activity row on the same handle.
func (r *PGRepository) AppendActivity(ctx context.Context, entry shared.ActivityLog) error {
	return r.audit.Record(ctx, r.db, entry)
}

var (
	_ Repository   = (*PGRepository)(nil)
	_ TxRepository = (*PGRepository)(nil)
)
