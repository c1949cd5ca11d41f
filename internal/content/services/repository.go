package services

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
	ListServices(ctx context.Context, f content.ListFilters) ([]Service, int, error)
	GetService(ctx context.Context, id int64) (Service, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes writes that run inside one transaction.
type TxRepository interface {
	shared.ActivityWriter
	GetServiceForUpdate(ctx context.Context, id int64) (Service, error)
	InsertService(ctx context.Context, in ServiceInput) (Service, error)
	UpdateService(ctx context.Context, id int64, in ServiceInput) (Service, error)
	DeleteService(ctx context.Context, id int64) error
	ApplyItems(ctx context.Context, serviceID int64, plan ItemPlan) ([]Item, error)
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

const serviceColumns = `id, title, description, icon_url, created_at, updated_at`

var sortSpec = content.SortSpec{Columns: map[string]string{"title": "title", "created_at": "created_at", "updated_at": "updated_at"}}

func scanService(row pgx.Row) (Service, error) {
	var s Service
	err := row.Scan(&s.ID, &s.Title, &s.Description, &s.IconURL, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// ListServices returns one page of services with their items.
func (r *PGRepository) ListServices(ctx context.Context, f content.ListFilters) ([]Service, int, error) {
	where := `WHERE ($1 = '' OR title ILIKE $1 OR description ILIKE $1
		OR EXISTS (SELECT 1 FROM service_items i WHERE i.service_id = services.id AND i.name ILIKE $1))`
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM services `+where, f.Pattern()).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := fmt.Sprintf(`SELECT %s FROM services %s ORDER BY %s LIMIT $2 OFFSET $3`, serviceColumns, where, f.OrderBy(sortSpec))
	rows, err := r.db.Query(ctx, query, f.Pattern(), f.PageSize(), f.Offset())
	if err != nil {
		return nil, 0, err
	}
	var out []Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			rows.Close()
			return nil, 0, err
		}
		out = append(out, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if err := r.attachItems(ctx, out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// GetService fetches a service with its items.
func (r *PGRepository) GetService(ctx context.Context, id int64) (Service, error) {
	return r.getService(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = $1`, id)
}

// GetServiceForUpdate fetches and locks a service row.
func (r *PGRepository) GetServiceForUpdate(ctx context.Context, id int64) (Service, error) {
	return r.getService(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = $1 FOR UPDATE`, id)
}

func (r *PGRepository) getService(ctx context.Context, query string, id int64) (Service, error) {
	s, err := scanService(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return Service{}, db.MapError("layanan", err)
	}
	list := []Service{s}
	if err := r.attachItems(ctx, list); err != nil {
		return Service{}, err
	}
	return list[0], nil
}

func (r *PGRepository) attachItems(ctx context.Context, list []Service) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]int64, len(list))
	index := make(map[int64]int, len(list))
	for i, s := range list {
		ids[i] = s.ID
		index[s.ID] = i
		list[i].Items = []Item{}
	}
	rows, err := r.db.Query(ctx, `SELECT service_id, id, name, sort_order FROM service_items
		WHERE service_id = ANY($1) ORDER BY service_id, sort_order, id`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var serviceID int64
		var it Item
		if err := rows.Scan(&serviceID, &it.ID, &it.Name, &it.SortOrder); err != nil {
			return err
		}
		i := index[serviceID]
		list[i].Items = append(list[i].Items, it)
	}
	return rows.Err()
}

// InsertService inserts the service row only.
func (r *PGRepository) InsertService(ctx context.Context, in ServiceInput) (Service, error) {
	s, err := scanService(r.db.QueryRow(ctx, `INSERT INTO services (title, description, icon_url)
		VALUES ($1, $2, $3) RETURNING `+serviceColumns, in.Title, in.Description, in.IconURL))
	s.Items = []Item{}
	return s, db.MapError("layanan", err)
}

// UpdateService overwrites the service row only.
func (r *PGRepository) UpdateService(ctx context.Context, id int64, in ServiceInput) (Service, error) {
	s, err := scanService(r.db.QueryRow(ctx, `UPDATE services SET title = $2, description = $3, icon_url = $4,
		updated_at = NOW() WHERE id = $1 RETURNING `+serviceColumns, id, in.Title, in.Description, in.IconURL))
	return s, db.MapError("layanan", err)
}

// DeleteService removes a service; its items go with it.
func (r *PGRepository) DeleteService(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		return db.MapError("layanan", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("layanan")
	}
	return nil
}

// ApplyItems executes plan and returns the resulting ordered item list.
func (r *PGRepository) ApplyItems(ctx context.Context, serviceID int64, plan ItemPlan) ([]Item, error) {
	if len(plan.Delete) > 0 {
		if _, err := r.db.Exec(ctx, `DELETE FROM service_items WHERE service_id = $1 AND id = ANY($2)`, serviceID, plan.Delete); err != nil {
			return nil, fmt.Errorf("delete service items: %w", err)
		}
	}
	for _, it := range plan.Update {
		if _, err := r.db.Exec(ctx, `UPDATE service_items SET name = $3, sort_order = $4 WHERE service_id = $1 AND id = $2`,
			serviceID, it.ID, it.Name, it.SortOrder); err != nil {
			return nil, fmt.Errorf("update service item %d: %w", it.ID, err)
		}
	}
	for _, it := range plan.Insert {
		if _, err := r.db.Exec(ctx, `INSERT INTO service_items (service_id, name, sort_order) VALUES ($1, $2, $3)`,
			serviceID, it.Name, it.SortOrder); err != nil {
			return nil, fmt.Errorf("insert service item: %w", err)
		}
	}
	list := []Service{{ID: serviceID}}
	if err := r.attachItems(ctx, list); err != nil {
		return nil, err
	}
	return list[0].Items, nil
}

// AppendActivity writes the activity row on the same handle.
func (r *PGRepository) AppendActivity(ctx context.Context, entry shared.ActivityLog) error {
	return r.audit.Record(ctx, r.db, entry)
}

var (
	_ Repository   = (*PGRepository)(nil)
	_ TxRepository = (*PGRepository)(nil)
)
