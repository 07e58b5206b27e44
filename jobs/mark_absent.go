package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/peoplehub-hr/peoplehub/internal/attendance"
)

// MarkAbsentJob backfills absent sessions for active employees who never
// checked in on a working day. Weekends are skipped.
type MarkAbsentJob struct {
	Attendance *attendance.Service
	Logger     *slog.Logger

	clock func() time.Time
}

// Handle processes a mark-absent task.
func (j *MarkAbsentJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("mark absent: handler not configured")
	}
	var payload MarkAbsentPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	day := j.now().AddDate(0, 0, -1)
	if payload.Date != "" {
		parsed, err := time.Parse("2006-01-02", payload.Date)
		if err != nil {
			return asynq.SkipRetry
		}
		day = parsed
	}

	switch day.Weekday() {
	case time.Saturday, time.Sunday:
		j.Logger.Info("mark absent skipped for weekend", slog.String("date", day.Format("2006-01-02")))
		return nil
	}

	marked, err := j.Attendance.MarkAbsentees(ctx, day)
	if err != nil {
		return fmt.Errorf("mark absent: %w", err)
	}
	j.Logger.Info("absent sessions backfilled",
		slog.String("date", day.Format("2006-01-02")),
		slog.Int("marked", marked))
	return nil
}

func (j *MarkAbsentJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
