package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLeaveReconcileBalances recomputes approved-leave totals against
	// balances and reports discrepancies.
	TaskLeaveReconcileBalances = "leave:reconcile_balances"
	// TaskAttendanceMarkAbsent backfills absent sessions for a date.
	TaskAttendanceMarkAbsent = "attendance:mark_absent"
)

// ReconcileBalancesPayload selects the year to reconcile. Zero means the
// current year at execution time.
type ReconcileBalancesPayload struct {
	Year int `json:"year"`
}

// MarkAbsentPayload selects the date to backfill. Empty means yesterday.
type MarkAbsentPayload struct {
	Date string `json:"date"`
}

// NewReconcileBalancesTask constructs an Asynq task.
func NewReconcileBalancesTask(year int) (*asynq.Task, error) {
	data, err := json.Marshal(ReconcileBalancesPayload{Year: year})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLeaveReconcileBalances, data), nil
}

// NewMarkAbsentTask constructs an Asynq task.
func NewMarkAbsentTask(date time.Time) (*asynq.Task, error) {
	payload := MarkAbsentPayload{}
	if !date.IsZero() {
		payload.Date = date.Format("2006-01-02")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAttendanceMarkAbsent, data), nil
}
