package photos

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
	ListPhotos(ctx context.Context, f content.ListFilters) ([]Photo, int, error)
	GetPhoto(ctx context.Context, id int64) (Photo, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes writes that run inside one transaction.
type TxRepository interface {
	shared.ActivityWriter
	GetPhotoForUpdate(ctx context.Context, id int64) (Photo, error)
	InsertPhoto(ctx context.Context, in PhotoInput) (Photo, error)
	UpdatePhoto(ctx context.Context, id int64, in PhotoInput) (Photo, error)
	DeletePhoto(ctx context.Context, id int64) error
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

const photoColumns = `id, title, caption, image_url, created_at`

var sortSpec = content.SortSpec{Columns: map[string]string{"title": "title", "created_at": "created_at"}}

func scanPhoto(row pgx.Row) (Photo, error) {
	var p Photo
	err := row.Scan(&p.ID, &p.Title, &p.Caption, &p.ImageURL, &p.CreatedAt)
	return p, err
}

// ListPhotos returns one page of photos and the total match count.
func (r *PGRepository) ListPhotos(ctx context.Context, f content.ListFilters) ([]Photo, int, error) {
	where := `WHERE ($1 = '' OR title ILIKE $1 OR caption ILIKE $1)`
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM photos `+where, f.Pattern()).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := fmt.Sprintf(`SELECT %s FROM photos %s ORDER BY %s LIMIT $2 OFFSET $3`, photoColumns, where, f.OrderBy(sortSpec))
	rows, err := r.db.Query(ctx, query, f.Pattern(), f.PageSize(), f.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Photo
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// GetPhoto fetches a photo by id.
func (r *PGRepository) GetPhoto(ctx context.Context, id int64) (Photo, error) {
	p, err := scanPhoto(r.db.QueryRow(ctx, `SELECT `+photoColumns+` FROM photos WHERE id = $1`, id))
	return p, db.MapError("foto", err)
}

// GetPhotoForUpdate fetches and locks a photo row.
func (r *PGRepository) GetPhotoForUpdate(ctx context.Context, id int64) (Photo, error) {
	p, err := scanPhoto(r.db.QueryRow(ctx, `SELECT `+photoColumns+` FROM photos WHERE id = $1 FOR UPDATE`, id))
	return p, db.MapError("foto", err)
}

// InsertPhoto inserts a photo.
func (r *PGRepository) InsertPhoto(ctx context.Context, in PhotoInput) (Photo, error) {
	p, err := scanPhoto(r.db.QueryRow(ctx, `INSERT INTO photos (title, caption, image_url) VALUES ($1, $2, $3)
		RETURNING `+photoColumns, in.Title, in.Caption, in.ImageURL))
	return p, db.MapError("foto", err)
}

// UpdatePhoto overwrites a photo.
func (r *PGRepository) UpdatePhoto(ctx context.Context, id int64, in PhotoInput) (Photo, error) {
	p, err := scanPhoto(r.db.QueryRow(ctx, `UPDATE photos SET title = $2, caption = $3, image_url = $4
		WHERE id = $1 RETURNING `+photoColumns, id, in.Title, in.Caption, in.ImageURL))
	return p, db.MapError("foto", err)
}

// DeletePhoto removes a photo row.
func (r *PGRepository) DeletePhoto(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM photos WHERE id = $1`, id)
	if err != nil {
		return db.MapError("foto", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("foto")
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
