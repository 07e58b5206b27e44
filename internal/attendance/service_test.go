package attendance

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/peoplehub-hr/peoplehub/internal/shared"
)

type memoryRepo struct {
	sessions map[string]Session
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{sessions: make(map[string]Session)}
}

func sessionKey(employeeID uuid.UUID, date time.Time) string {
	return employeeID.String() + ":" + date.Format("2006-01-02")
}

func (r *memoryRepo) Create(ctx context.Context, s Session) error {
	key := sessionKey(s.EmployeeID, s.Date)
	if _, ok := r.sessions[key]; ok {
		return ErrAlreadyCheckedIn
	}
	r.sessions[key] = s
	return nil
}

func (r *memoryRepo) GetForDate(ctx context.Context, employeeID uuid.UUID, date time.Time) (Session, error) {
	if s, ok := r.sessions[sessionKey(employeeID, date)]; ok {
		return s, nil
	}
	return Session{}, shared.ErrNotFound
}

func (r *memoryRepo) CloseSession(ctx context.Context, id uuid.UUID, checkOut time.Time, workHours float64, status Status) error {
	for key, s := range r.sessions {
		if s.ID != id {
			continue
		}
		if s.CheckOut != nil {
			return ErrAlreadyCheckedOut
		}
		s.CheckOut = &checkOut
		s.WorkHours = &workHours
		s.Status = status
		r.sessions[key] = s
		return nil
	}
	return shared.ErrNotFound
}

func (r *memoryRepo) List(ctx context.Context, filter ListFilter) ([]Session, error) {
	var result []Session
	for _, s := range r.sessions {
		if filter.EmployeeID != nil && s.EmployeeID != *filter.EmployeeID {
			continue
		}
		result = append(result, s)
	}
	return result, nil
}

func (r *memoryRepo) Summarize(ctx context.Context, employeeID uuid.UUID, from, to time.Time) (Summary, error) {
	var summary Summary
	for _, s := range r.sessions {
		if s.EmployeeID != employeeID || s.Date.Before(from) || s.Date.After(to) {
			continue
		}
		switch s.Status {
		case StatusAbsent:
			summary.AbsentDays++
		default:
			summary.PresentDays++
		}
		if s.WorkHours != nil {
			summary.TotalWorkHours += *s.WorkHours
		}
	}
	return summary, nil
}

func (r *memoryRepo) CountForDate(ctx context.Context, date time.Time) (int, error) {
	n := 0
	for _, s := range r.sessions {
		if s.Date.Equal(date) && (s.Status == StatusPresent || s.Status == StatusLate) {
			n++
		}
	}
	return n, nil
}

func (r *memoryRepo) MarkAbsentees(ctx context.Context, date time.Time) (int, error) {
	return 0, nil
}

type failingRecorder struct{}

func (failingRecorder) Record(ctx context.Context, entry shared.ActivityEntry) error {
	return errors.New("activity store down")
}

func newTestService(repo Repository, clock func() time.Time) *Service {
	svc := NewService(repo, nil, nil, Config{})
	if clock != nil {
		svc.now = clock
	}
	return svc
}

func TestCheckInTwiceSameDay(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, nil)
	ctx := context.Background()
	employeeID := uuid.New()

	sess, err := svc.CheckIn(ctx, employeeID)
	require.NoError(t, err)
	require.Equal(t, StatusPresent, sess.Status)
	require.NotNil(t, sess.CheckIn)
	require.Nil(t, sess.CheckOut)

	_, err = svc.CheckIn(ctx, employeeID)
	require.ErrorIs(t, err, ErrAlreadyCheckedIn)
}

func TestCheckOutWithoutCheckIn(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, nil)

	_, err := svc.CheckOut(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrNoOpenSession)
}

func TestCheckOutTwice(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, nil)
	ctx := context.Background()
	employeeID := uuid.New()

	_, err := svc.CheckIn(ctx, employeeID)
	require.NoError(t, err)

	sess, err := svc.CheckOut(ctx, employeeID)
	require.NoError(t, err)
	require.NotNil(t, sess.CheckOut)
	require.NotNil(t, sess.WorkHours)

	_, err = svc.CheckOut(ctx, employeeID)
	require.ErrorIs(t, err, ErrAlreadyCheckedOut)
}

func TestWorkHoursRounding(t *testing.T) {
	repo := newMemoryRepo()
	base := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	current := base
	svc := newTestService(repo, func() time.Time { return current })
	ctx := context.Background()
	employeeID := uuid.New()

	_, err := svc.CheckIn(ctx, employeeID)
	require.NoError(t, err)

	// 8h20m = 8.3333... hours, rounds to 8.33
	current = base.Add(8*time.Hour + 20*time.Minute)
	sess, err := svc.CheckOut(ctx, employeeID)
	require.NoError(t, err)
	require.NotNil(t, sess.WorkHours)
	require.InDelta(t, 8.33, *sess.WorkHours, 0.0001)
	require.Equal(t, StatusPresent, sess.Status)
}

func TestCheckOutShortSessionIsHalfDay(t *testing.T) {
	repo := newMemoryRepo()
	base := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	current := base
	svc := newTestService(repo, func() time.Time { return current })
	ctx := context.Background()
	employeeID := uuid.New()

	_, err := svc.CheckIn(ctx, employeeID)
	require.NoError(t, err)

	// 3.5 hours is under half of the default 8-hour work day.
	current = base.Add(3*time.Hour + 30*time.Minute)
	sess, err := svc.CheckOut(ctx, employeeID)
	require.NoError(t, err)
	require.Equal(t, StatusHalfDay, sess.Status)
	require.NotNil(t, sess.WorkHours)
	require.InDelta(t, 3.5, *sess.WorkHours, 0.0001)
}

func TestWorkHoursNeverNegative(t *testing.T) {
	repo := newMemoryRepo()
	base := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	current := base
	svc := newTestService(repo, func() time.Time { return current })
	ctx := context.Background()
	employeeID := uuid.New()

	_, err := svc.CheckIn(ctx, employeeID)
	require.NoError(t, err)

	// Clock skew backwards must not produce negative hours.
	current = base.Add(-30 * time.Minute)
	sess, err := svc.CheckOut(ctx, employeeID)
	require.NoError(t, err)
	require.NotNil(t, sess.WorkHours)
	require.Equal(t, 0.0, *sess.WorkHours)
}

func TestCheckInSucceedsWhenActivityLogFails(t *testing.T) {
	repo := newMemoryRepo()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(repo, failingRecorder{}, logger, Config{})

	sess, err := svc.CheckIn(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Equal(t, StatusPresent, sess.Status)
}

func TestTodayReturnsNilWhenNoSession(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, nil)

	sess, err := svc.Today(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Nil(t, sess)
}
