package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kreasi-nusantara/compro/internal/shared"
)

// DBTX is satisfied by both the pool and a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Gateway is the explicit persistence handle injected into repositories.
type Gateway struct {
	pool *pgxpool.Pool
}

// NewGateway wraps pool.
func NewGateway(pool *pgxpool.Pool) *Gateway {
	return &Gateway{pool: pool}
}

// DB returns the non-transactional handle.
func (g *Gateway) DB() DBTX {
	return g.pool
}

// WithTx runs fn inside a read-committed transaction.
func (g *Gateway) WithTx(ctx context.Context, fn func(pgx.Tx) error) error {
	return WithTx(ctx, g.pool, fn)
}

// WithTx executes fn within a transaction. Any error from fn, or a panic, rolls the
// whole transaction back. Errors outside the shared taxonomy come back wrapped in
// ErrTransaction; the original stays reachable through errors.Is.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) (err error) {
	// A disconnecting caller must not abandon a transaction halfway.
	ctx = context.WithoutCancel(ctx)
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("%w: begin: %v", shared.ErrTransaction, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(tx); err != nil {
		return txError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %v", shared.ErrTransaction, err)
	}
	return nil
}

// taxonomy lists the errors callers already map onto responses.
var taxonomy = []error{
	shared.ErrValidation,
	shared.ErrNotFound,
	shared.ErrConflict,
	shared.ErrForbidden,
	shared.ErrInvalidCredentials,
	shared.ErrUpload,
	shared.ErrTransaction,
}

func txError(err error) error {
	for _, known := range taxonomy {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", shared.ErrTransaction, err)
}

// EdgeSet names a join table whose rows pair one parent with many children.
type EdgeSet struct {
	Table        string
	ParentColumn string
	ChildColumn  string
}

// Common join tables.
var (
	EmployeeRoles = EdgeSet{Table: "employee_roles", ParentColumn: "employee_id", ChildColumn: "role_id"}
	MenuRoles     = EdgeSet{Table: "menu_roles", ParentColumn: "role_id", ChildColumn: "menu_id"}
)

// ReplaceEdges deletes every edge of parentID and inserts exactly childIDs. It must be
// called with a transaction so a failure leaves the previous edge set intact.
// Duplicate child ids collapse into one edge.
func ReplaceEdges(ctx context.Context, tx pgx.Tx, set EdgeSet, parentID int64, childIDs []int64) error {
	table := pgx.Identifier{set.Table}.Sanitize()
	parent := pgx.Identifier{set.ParentColumn}.Sanitize()
	child := pgx.Identifier{set.ChildColumn}.Sanitize()

	if _, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, table, parent), parentID); err != nil {
		return fmt.Errorf("replace edges %s: delete: %w", set.Table, err)
	}
	if len(childIDs) == 0 {
		return nil
	}
	query := fmt.Sprintf(`INSERT INTO %s (%s, %s) SELECT DISTINCT $1::bigint, c FROM unnest($2::bigint[]) AS c`, table, parent, child)
	if _, err := tx.Exec(ctx, query, parentID, childIDs); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == codeForeignKeyViolation {
			return shared.NewValidationError(set.ChildColumn, "referensi tidak ditemukan")
		}
		return fmt.Errorf("replace edges %s: insert: %w", set.Table, err)
	}
	return nil
}
