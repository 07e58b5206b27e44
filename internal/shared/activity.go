package shared

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ActivityEntry represents a record stored in activity_logs.
// The log is append-only; nothing in the ledgers reads it back.
type ActivityEntry struct {
	EmployeeID uuid.UUID
	Action     string
	Entity     string
	EntityID   *uuid.UUID
	At         time.Time
}

// ActivityLogger appends records into activity_logs.
type ActivityLogger struct {
	pool *pgxpool.Pool
}

// NewActivityLogger returns a new ActivityLogger.
func NewActivityLogger(pool *pgxpool.Pool) *ActivityLogger {
	return &ActivityLogger{pool: pool}
}

// Record persists the log entry.
func (l *ActivityLogger) Record(ctx context.Context, entry ActivityEntry) error {
	if l == nil {
		return errors.New("activity logger not initialised")
	}
	if entry.EmployeeID == uuid.Nil {
		return errors.New("activity log requires employee_id")
	}
	if entry.Action == "" || entry.Entity == "" {
		return errors.New("activity log requires action/entity")
	}
	_, err := l.pool.Exec(ctx, `INSERT INTO activity_logs (employee_id, action, entity_type, entity_id, created_at) VALUES ($1, $2, $3, $4, COALESCE($5, NOW()))`, entry.EmployeeID, entry.Action, entry.Entity, entry.EntityID, entry.At)
	return err
}

// Recorder is the write-only contract the ledgers depend on.
type Recorder interface {
	Record(ctx context.Context, entry ActivityEntry) error
}

var _ Recorder = (*ActivityLogger)(nil)
