package categories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/kreasi-nusantara/compro/internal/content"
	"github.com/kreasi-nusantara/compro/internal/platform/db"
	"github.com/kreasi-nusantara/compro/internal/shared"
)

// Repository defines read access plus the transactional entry point.
type Repository interface {
	ListCategories(ctx context.Context, f content.ListFilters) ([]Category, int, error)
	GetCategory(ctx context.Context, id int64) (Category, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes writes that run inside one transaction.
type TxRepository interface {
	shared.ActivityWriter
	GetCategoryForUpdate(ctx context.Context, id int64) (Category, error)
	InsertCategory(ctx context.Context, in CategoryInput) (Category, error)
	UpdateCategory(ctx context.Context, id int64, in CategoryInput) (Category, error)
	DeleteCategory(ctx context.Context, id int64) error
	CountProjects(ctx context.Context, id int64) (int, error)
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

const categoryColumns = `id, name, description, created_at, updated_at`

var sortSpec = content.SortSpec{Columns: map[string]string{"name": "name", "created_at": "created_at", "updated_at": "updated_at"}}

func scanCategory(row pgx.Row) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// ListCategories returns one page of categories and the total match count.
func (r *PGRepository) ListCategories(ctx context.Context, f content.ListFilters) ([]Category, int, error) {
	where := `WHERE ($1 = '' OR name ILIKE $1 OR description ILIKE $1)`
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM categories `+where, f.Pattern()).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := fmt.Sprintf(`SELECT %s FROM categories %s ORDER BY %s LIMIT $2 OFFSET $3`, categoryColumns, where, f.OrderBy(sortSpec))
	rows, err := r.db.Query(ctx, query, f.Pattern(), f.PageSize(), f.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

// GetCategory fetches a category by id.
func (r *PGRepository) GetCategory(ctx context.Context, id int64) (Category, error) {
	c, err := scanCategory(r.db.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
	return c, db.MapError("kategori", err)
}

// GetCategoryForUpdate fetches and locks a category row.
func (r *PGRepository) GetCategoryForUpdate(ctx context.Context, id int64) (Category, error) {
	c, err := scanCategory(r.db.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1 FOR UPDATE`, id))
	return c, db.MapError("kategori", err)
}

// InsertCategory inserts a category.
func (r *PGRepository) InsertCategory(ctx context.Context, in CategoryInput) (Category, error) {
	c, err := scanCategory(r.db.QueryRow(ctx, `INSERT INTO categories (name, description) VALUES ($1, $2)
		RETURNING `+categoryColumns, in.Name, in.Description))
	return c, db.MapError("kategori", err)
}

// UpdateCategory overwrites a category.
func (r *PGRepository) UpdateCategory(ctx context.Context, id int64, in CategoryInput) (Category, error) {
	c, err := scanCategory(r.db.QueryRow(ctx, `UPDATE categories SET name = $2, description = $3, updated_at = NOW()
		WHERE id = $1 RETURNING `+categoryColumns, id, in.Name, in.Description))
	return c, db.MapError("kategori", err)
}

// DeleteCategory removes a category row.
func (r *PGRepository) DeleteCategory(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return db.MapError("kategori", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("kategori")
	}
	return nil
}

// CountProjects counts projects filed under the category.
func (r *PGRepository) CountProjects(ctx context.Context, id int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM projects WHERE category_id = $1`, id).Scan(&n)
	return n, err
}

// AppendActivity writes the activity row on the same handle.
func (r *PGRepository) AppendActivity(ctx context.Context, entry shared.ActivityLog) error {
	return r.audit.Record(ctx, r.db, entry)
}

var (
	_ Repository   = (*PGRepository)(nil)
	_ TxRepository = (*PGRepository)(nil)
)
