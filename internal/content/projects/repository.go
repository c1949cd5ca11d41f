package projects

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
	ListProjects(ctx context.Context, f Filters) ([]Project, int, error)
	GetProject(ctx context.Context, id int64) (Project, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes writes that run inside one transaction.
type TxRepository interface {
	shared.ActivityWriter
	GetProjectForUpdate(ctx context.Context, id int64) (Project, error)
	InsertProject(ctx context.Context, in ProjectInput) (Project, error)
	UpdateProject(ctx context.Context, id int64, in ProjectInput) (Project, error)
	DeleteProject(ctx context.Context, id int64) error
	ClientExists(ctx context.Context, id int64) (bool, error)
	CategoryExists(ctx context.Context, id int64) (bool, error)
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

const projectSelect = `SELECT p.id, p.title, p.description, p.year, p.client_id, COALESCE(c.name, ''),
	p.category_id, COALESCE(k.name, ''), p.image_url, p.created_at, p.updated_at
	FROM projects p
	LEFT JOIN clients c ON c.id = p.client_id
	LEFT JOIN categories k ON k.id = p.category_id`

var sortSpec = content.SortSpec{
	Columns: map[string]string{"title": "p.title", "year": "p.year", "created_at": "p.created_at"},
	Default: "p.created_at",
	ID:      "p.id",
}

func scanProject(row pgx.Row) (Project, error) {
	var p Project
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Year, &p.ClientID, &p.ClientName,
		&p.CategoryID, &p.CategoryName, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// ListProjects returns one page of projects and the total match count.
func (r *PGRepository) ListProjects(ctx context.Context, f Filters) ([]Project, int, error) {
	where := `WHERE ($1 = '' OR p.title ILIKE $1 OR p.description ILIKE $1)
		AND ($2::bigint = 0 OR p.client_id = $2)
		AND ($3::bigint = 0 OR p.category_id = $3)`
	args := []any{f.Pattern(), f.ClientID, f.CategoryID}
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM projects p `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := fmt.Sprintf(`%s %s ORDER BY %s LIMIT $4 OFFSET $5`, projectSelect, where, f.OrderBy(sortSpec))
	rows, err := r.db.Query(ctx, query, append(args, f.PageSize(), f.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// GetProject fetches a project by id.
func (r *PGRepository) GetProject(ctx context.Context, id int64) (Project, error) {
	p, err := scanProject(r.db.QueryRow(ctx, projectSelect+` WHERE p.id = $1`, id))
	return p, db.MapError("proyek", err)
}

// GetProjectForUpdate fetches and locks a project row.
func (r *PGRepository) GetProjectForUpdate(ctx context.Context, id int64) (Project, error) {
	p, err := scanProject(r.db.QueryRow(ctx, projectSelect+` WHERE p.id = $1 FOR UPDATE OF p`, id))
	return p, db.MapError("proyek", err)
}

// InsertProject inserts a project.
func (r *PGRepository) InsertProject(ctx context.Context, in ProjectInput) (Project, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO projects (title, description, year, client_id, category_id, image_url)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		in.Title, in.Description, in.Year, in.clientID(), in.categoryID(), in.ImageURL).Scan(&id)
	if err != nil {
		return Project{}, db.MapError("proyek", err)
	}
	return r.GetProject(ctx, id)
}

// UpdateProject overwrites a project.
func (r *PGRepository) UpdateProject(ctx context.Context, id int64, in ProjectInput) (Project, error) {
	tag, err := r.db.Exec(ctx, `UPDATE projects SET title = $2, description = $3, year = $4, client_id = $5,
		category_id = $6, image_url = $7, updated_at = NOW() WHERE id = $1`,
		id, in.Title, in.Description, in.Year, in.clientID(), in.categoryID(), in.ImageURL)
	if err != nil {
		return Project{}, db.MapError("proyek", err)
	}
	if tag.RowsAffected() == 0 {
		return Project{}, shared.NotFound("proyek")
	}
	return r.GetProject(ctx, id)
}

// DeleteProject removes a project row.
func (r *PGRepository) DeleteProject(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return db.MapError("proyek", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("proyek")
	}
	return nil
}

// ClientExists reports whether the client row exists.
func (r *PGRepository) ClientExists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM clients WHERE id = $1)`, id).Scan(&ok)
	return ok, err
}

// CategoryExists reports whether the category row exists.
func (r *PGRepository) CategoryExists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1)`, id).Scan(&ok)
	return ok, err
}

// AppendActivity writes the activity row on the same handle.
func (r *PGRepository) AppendActivity(ctx context.Context, entry shared.ActivityLog) error {
	return r.audit.Record(ctx, r.db, entry)
}

var (
	_ Repository   = (*PGRepository)(nil)
	_ TxRepository = (*PGRepository)(nil)
)
