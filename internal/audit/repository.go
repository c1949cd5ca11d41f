package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kreasi-nusantara/compro/internal/shared"
)

// PGRepository membaca activity_logs dari PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository membuat repository audit.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// ListActivity mengembalikan log sesuai filter, terbaru lebih dulu. Username
// kosong bila pelaku sudah dihapus.
func (r *PGRepository) ListActivity(ctx context.Context, filters TimelineFilters, limit, offset int) ([]shared.ActivityLog, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if !filters.From.IsZero() {
		add("l.created_at >= $%d", filters.From)
	}
	if !filters.To.IsZero() {
		add("l.created_at < $%d", filters.To)
	}
	if filters.UserID > 0 {
		add("l.user_id = $%d", filters.UserID)
	}
	if action := strings.TrimSpace(filters.Action); action != "" {
		add("l.action = $%d", action)
	}

	query := `SELECT l.id, l.user_id, COALESCE(u.username, ''), l.action, l.details, l.created_at
		FROM activity_logs l
		LEFT JOIN users u ON u.id = l.user_id`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY l.created_at DESC, l.id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var logs []shared.ActivityLog
	for rows.Next() {
		var l shared.ActivityLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.Username, &l.Action, &l.Details, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

var _ Repository = (*PGRepository)(nil)
