package shared

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// ActivityLog represents a record stored in activity_logs.
type ActivityLog struct {
	ID        int64     `json:"id,string"`
	UserID    *int64    `json:"user_id,string,omitempty"`
	Username  string    `json:"username,omitempty"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"created_at"`
}

// ActivityWriter appends activity rows. Transactional repositories implement it
// so the log row shares the transaction of the mutation it documents.
type ActivityWriter interface {
	AppendActivity(ctx context.Context, entry ActivityLog) error
}

// LogActivity appends one row for actorID. A nil actor means the mutation is not logged.
func LogActivity(ctx context.Context, w ActivityWriter, actorID *int64, action, details string) error {
	if actorID == nil {
		return nil
	}
	if w == nil {
		return errors.New("activity writer not initialised")
	}
	id := *actorID
	return w.AppendActivity(ctx, ActivityLog{UserID: &id, Action: action, Details: details})
}

// Execer is satisfied by pgx.Tx, pgx.Conn and pgxpool.Pool.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// AuditLogger writes records into activity_logs.
type AuditLogger struct {
	now func() time.Time
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger() *AuditLogger {
	return &AuditLogger{now: time.Now}
}

// Record persists the log entry using db, normally the caller's transaction.
// The actor must exist at write time; logs outlive their actor afterwards.
func (l *AuditLogger) Record(ctx context.Context, db Execer, entry ActivityLog) error {
	if l == nil {
		return errors.New("audit logger not initialised")
	}
	if entry.UserID == nil {
		return nil
	}
	if strings.TrimSpace(entry.Action) == "" {
		return errors.New("activity log requires action")
	}
	at := entry.CreatedAt
	if at.IsZero() {
		at = l.now().UTC()
	}
	tag, err := db.Exec(ctx, `INSERT INTO activity_logs (user_id, action, details, created_at)
		SELECT $1, $2, $3, $4 WHERE EXISTS (SELECT 1 FROM users WHERE id = $1)`,
		*entry.UserID, entry.Action, entry.Details, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: activity actor %d does not exist", ErrTransaction, *entry.UserID)
	}
	return nil
}
