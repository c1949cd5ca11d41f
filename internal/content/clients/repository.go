package clients

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
	ListClients(ctx context.Context, f content.ListFilters) ([]Client, int, error)
	GetClient(ctx context.Context, id int64) (Client, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes writes that run inside one transaction.
type TxRepository interface {
	shared.ActivityWriter
	GetClientForUpdate(ctx context.Context, id int64) (Client, error)
	InsertClient(ctx context.Context, in ClientInput) (Client, error)
	UpdateClient(ctx context.Context, id int64, in ClientInput) (Client, error)
	DeleteClient(ctx context.Context, id int64) error
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

const clientColumns = `id, name, logo_url, website, created_at, updated_at`

var sortSpec = content.SortSpec{Columns: map[string]string{"name": "name", "created_at": "created_at"}}

func scanClient(row pgx.Row) (Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.Name, &c.LogoURL, &c.Website, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// ListClients returns one page of clients and the total match count.
func (r *PGRepository) ListClients(ctx context.Context, f content.ListFilters) ([]Client, int, error) {
	where := `WHERE ($1 = '' OR name ILIKE $1)`
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM clients `+where, f.Pattern()).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := fmt.Sprintf(`SELECT %s FROM clients %s ORDER BY %s LIMIT $2 OFFSET $3`, clientColumns, where, f.OrderBy(sortSpec))
	rows, err := r.db.Query(ctx, query, f.Pattern(), f.PageSize(), f.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

// GetClient fetches a client by id.
func (r *PGRepository) GetClient(ctx context.Context, id int64) (Client, error) {
	c, err := scanClient(r.db.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id))
	return c, db.MapError("klien", err)
}

// GetClientForUpdate fetches and locks a client row.
func (r *PGRepository) GetClientForUpdate(ctx context.Context, id int64) (Client, error) {
	c, err := scanClient(r.db.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1 FOR UPDATE`, id))
	return c, db.MapError("klien", err)
}

// InsertClient inserts a client.
func (r *PGRepository) InsertClient(ctx context.Context, in ClientInput) (Client, error) {
	c, err := scanClient(r.db.QueryRow(ctx, `INSERT INTO clients (name, logo_url, website) VALUES ($1, $2, $3)
		RETURNING `+clientColumns, in.Name, in.LogoURL, in.Website))
	return c, db.MapError("klien", err)
}

// UpdateClient overwrites a client.
func (r *PGRepository) UpdateClient(ctx context.Context, id int64, in ClientInput) (Client, error) {
	c, err := scanClient(r.db.QueryRow(ctx, `UPDATE clients SET name = $2, logo_url = $3, website = $4, updated_at = NOW()
		WHERE id = $1 RETURNING `+clientColumns, id, in.Name, in.LogoURL, in.Website))
	return c, db.MapError("klien", err)
}

// DeleteClient removes a client row.
func (r *PGRepository) DeleteClient(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return db.MapError("klien", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("klien")
	}
	return nil
}

// CountProjects counts projects delivered for the client.
func (r *PGRepository) CountProjects(ctx context.Context, id int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM projects WHERE client_id = $1`, id).Scan(&n)
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
