package rbac

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/kreasi-nusantara/compro/internal/platform/db"
	"github.com/kreasi-nusantara/compro/internal/shared"
)

// Repository exposes menu and grant lookups.
type Repository interface {
	ListMenus(ctx context.Context) ([]Menu, error)
	MenusForRoles(ctx context.Context, roleIDs []int64) ([]Menu, error)
	MenusByIDs(ctx context.Context, ids []int64) ([]Menu, error)
	ActorForUser(ctx context.Context, userID int64) (shared.Actor, error)
	HasMenuAccess(ctx context.Context, roleIDs []int64, url string) (bool, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes writes that share one transaction.
type TxRepository interface {
	shared.ActivityWriter
	RoleName(ctx context.Context, roleID int64) (string, error)
	MenusByIDs(ctx context.Context, ids []int64) ([]Menu, error)
	ReplaceRoleMenus(ctx context.Context, roleID int64, menuIDs []int64) error
	GetMenu(ctx context.Context, id int64) (Menu, error)
	InsertMenu(ctx context.Context, menu Menu) (Menu, error)
}

// PGRepository is the PostgreSQL implementation.
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

const menuColumns = `m.id, m.label, m.url, m.parent_id, m.sort_order, m.created_at`

func scanMenus(rows pgx.Rows) ([]Menu, error) {
	defer rows.Close()
	var menus []Menu
	for rows.Next() {
		var m Menu
		if err := rows.Scan(&m.ID, &m.Label, &m.URL, &m.ParentID, &m.SortOrder, &m.CreatedAt); err != nil {
			return nil, err
		}
		menus = append(menus, m)
	}
	return menus, rows.Err()
}

// ListMenus returns every menu row.
func (r *PGRepository) ListMenus(ctx context.Context) ([]Menu, error) {
	rows, err := r.db.Query(ctx, `SELECT `+menuColumns+` FROM menus m ORDER BY m.sort_order, m.id`)
	if err != nil {
		return nil, err
	}
	return scanMenus(rows)
}

// MenusForRoles returns the flattened grants of roleIDs. A menu granted by
// several roles appears once per grant.
func (r *PGRepository) MenusForRoles(ctx context.Context, roleIDs []int64) ([]Menu, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, `SELECT `+menuColumns+`
		FROM menu_roles mr
		JOIN menus m ON m.id = mr.menu_id
		WHERE mr.role_id = ANY($1::bigint[])
		ORDER BY m.sort_order, m.id`, roleIDs)
	if err != nil {
		return nil, err
	}
	return scanMenus(rows)
}

// MenusByIDs returns the menus that exist among ids.
func (r *PGRepository) MenusByIDs(ctx context.Context, ids []int64) ([]Menu, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, `SELECT `+menuColumns+` FROM menus m WHERE m.id = ANY($1::bigint[]) ORDER BY m.sort_order, m.id`, ids)
	if err != nil {
		return nil, err
	}
	return scanMenus(rows)
}

// ActorForUser loads the username and role ids of an employee user.
func (r *PGRepository) ActorForUser(ctx context.Context, userID int64) (shared.Actor, error) {
	actor := shared.Actor{UserID: userID}
	err := r.db.QueryRow(ctx, `SELECT u.username,
		COALESCE(array_agg(er.role_id ORDER BY er.role_id) FILTER (WHERE er.role_id IS NOT NULL), '{}')
		FROM users u
		JOIN employees e ON e.user_id = u.id
		LEFT JOIN employee_roles er ON er.employee_id = e.id
		WHERE u.id = $1
		GROUP BY u.username`, userID).Scan(&actor.Username, &actor.RoleIDs)
	if err != nil {
		return shared.Actor{}, db.MapError("admin", err)
	}
	return actor, nil
}

// HasMenuAccess reports whether any of roleIDs grants the menu at url.
func (r *PGRepository) HasMenuAccess(ctx context.Context, roleIDs []int64, url string) (bool, error) {
	if len(roleIDs) == 0 {
		return false, nil
	}
	var ok bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (
		SELECT 1 FROM menu_roles mr JOIN menus m ON m.id = mr.menu_id
		WHERE mr.role_id = ANY($1::bigint[]) AND m.url = $2)`, roleIDs, url).Scan(&ok)
	return ok, err
}

// RoleName returns the role name, locking the row for the rest of the transaction.
func (r *PGRepository) RoleName(ctx context.Context, roleID int64) (string, error) {
	var name string
	err := r.db.QueryRow(ctx, `SELECT name FROM roles WHERE id = $1 FOR UPDATE`, roleID).Scan(&name)
	return name, db.MapError("role", err)
}

// ReplaceRoleMenus swaps the role's menu grants for menuIDs.
func (r *PGRepository) ReplaceRoleMenus(ctx context.Context, roleID int64, menuIDs []int64) error {
	return db.ReplaceEdges(ctx, r.tx, db.MenuRoles, roleID, menuIDs)
}

// GetMenu fetches one menu.
func (r *PGRepository) GetMenu(ctx context.Context, id int64) (Menu, error) {
	var m Menu
	err := r.db.QueryRow(ctx, `SELECT `+menuColumns+` FROM menus m WHERE m.id = $1`, id).
		Scan(&m.ID, &m.Label, &m.URL, &m.ParentID, &m.SortOrder, &m.CreatedAt)
	return m, db.MapError("menu", err)
}

// InsertMenu creates a menu row.
func (r *PGRepository) InsertMenu(ctx context.Context, menu Menu) (Menu, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO menus (label, url, parent_id, sort_order)
		VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		menu.Label, menu.URL, menu.ParentID, menu.SortOrder).Scan(&menu.ID, &menu.CreatedAt)
	return menu, db.MapError("menu", err)
}

// AppendActivity writes the activity row on the same handle.
func (r *PGRepository) AppendActivity(ctx context.Context, entry shared.ActivityLog) error {
	return r.audit.Record(ctx, r.db, entry)
}

var (
	_ Repository   = (*PGRepository)(nil)
	_ TxRepository = (*PGRepository)(nil)
)
