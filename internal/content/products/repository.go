package products

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
	ListProducts(ctx context.Context, f content.ListFilters) ([]Product, int, error)
	GetProduct(ctx context.Context, id int64) (Product, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes writes that run inside one transaction.
type TxRepository interface {
	shared.ActivityWriter
	GetProductForUpdate(ctx context.Context, id int64) (Product, error)
	InsertProduct(ctx context.Context, in ProductInput) (Product, error)
	UpdateProduct(ctx context.Context, id int64, in ProductInput) (Product, error)
	DeleteProduct(ctx context.Context, id int64) error
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

const productColumns = `id, name, description, image_url, link_url, created_at, updated_at`

var sortSpec = content.SortSpec{Columns: map[string]string{"name": "name", "created_at": "created_at", "updated_at": "updated_at"}}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.ImageURL, &p.LinkURL, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// ListProducts returns one page of products and the total match count.
func (r *PGRepository) ListProducts(ctx context.Context, f content.ListFilters) ([]Product, int, error) {
	where := `WHERE ($1 = '' OR name ILIKE $1 OR description ILIKE $1)`
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products `+where, f.Pattern()).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := fmt.Sprintf(`SELECT %s FROM products %s ORDER BY %s LIMIT $2 OFFSET $3`, productColumns, where, f.OrderBy(sortSpec))
	rows, err := r.db.Query(ctx, query, f.Pattern(), f.PageSize(), f.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// GetProduct fetches a product by id.
func (r *PGRepository) GetProduct(ctx context.Context, id int64) (Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	return p, db.MapError("produk", err)
}

// GetProductForUpdate fetches and locks a product row.
func (r *PGRepository) GetProductForUpdate(ctx context.Context, id int64) (Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id))
	return p, db.MapError("produk", err)
}

// InsertProduct inserts a product.
func (r *PGRepository) InsertProduct(ctx context.Context, in ProductInput) (Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, `INSERT INTO products (name, description, image_url, link_url)
		VALUES ($1, $2, $3, $4) RETURNING `+productColumns, in.Name, in.Description, in.ImageURL, in.LinkURL))
	return p, db.MapError("produk", err)
}

// UpdateProduct overwrites a product.
func (r *PGRepository) UpdateProduct(ctx context.Context, id int64, in ProductInput) (Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, `UPDATE products SET name = $2, description = $3, image_url = $4,
		link_url = $5, updated_at = NOW() WHERE id = $1 RETURNING `+productColumns,
		id, in.Name, in.Description, in.ImageURL, in.LinkURL))
	return p, db.MapError("produk", err)
}

// DeleteProduct removes a product row.
func (r *PGRepository) DeleteProduct(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return db.MapError("produk", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("produk")
	}
	return nil
}

// AppendActivity writes the activity row on the same handle.
func (r *PGRepository) AppendActivity(ctx context.Context, entry shared.ActivityLog) error {
	return r.audit.Record(ctx, r.db, entry)
}

var (
	_ Repository   = (*PGRepository)(nil)
	_ TxRepository = (*PGRepository)(nil)
)
