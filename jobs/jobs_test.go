package jobs

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/peoplehub-hr/peoplehub/internal/attendance"
	"github.com/peoplehub-hr/peoplehub/internal/leave"
	"github.com/peoplehub-hr/peoplehub/internal/shared"
	_ "github.com/peoplehub-hr/peoplehub/testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeAttendanceRepo struct {
	markedDates []time.Time
}

func (r *fakeAttendanceRepo) Create(ctx context.Context, s attendance.Session) error {
	return nil
}

func (r *fakeAttendanceRepo) GetForDate(ctx context.Context, employeeID uuid.UUID, date time.Time) (attendance.Session, error) {
	return attendance.Session{}, shared.ErrNotFound
}

func (r *fakeAttendanceRepo) CloseSession(ctx context.Context, id uuid.UUID, checkOut time.Time, workHours float64, status attendance.Status) error {
	return nil
}

func (r *fakeAttendanceRepo) List(ctx context.Context, filter attendance.ListFilter) ([]attendance.Session, error) {
	return nil, nil
}

func (r *fakeAttendanceRepo) Summarize(ctx context.Context, employeeID uuid.UUID, from, to time.Time) (attendance.Summary, error) {
	return attendance.Summary{}, nil
}

func (r *fakeAttendanceRepo) CountForDate(ctx context.Context, date time.Time) (int, error) {
	return 0, nil
}

func (r *fakeAttendanceRepo) MarkAbsentees(ctx context.Context, date time.Time) (int, error) {
	r.markedDates = append(r.markedDates, date)
	return 3, nil
}

func TestMarkAbsentSkipsWeekend(t *testing.T) {
	repo := &fakeAttendanceRepo{}
	job := &MarkAbsentJob{
		Attendance: attendance.NewService(repo, nil, testLogger(), attendance.Config{}),
		Logger:     testLogger(),
	}

	// 2024-03-09 is a Saturday.
	task, err := NewMarkAbsentTask(time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Empty(t, repo.markedDates)
}

func TestMarkAbsentMarksWorkday(t *testing.T) {
	repo := &fakeAttendanceRepo{}
	job := &MarkAbsentJob{
		Attendance: attendance.NewService(repo, nil, testLogger(), attendance.Config{}),
		Logger:     testLogger(),
	}

	// 2024-03-06 is a Wednesday.
	task, err := NewMarkAbsentTask(time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Len(t, repo.markedDates, 1)
	require.Equal(t, time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC), repo.markedDates[0])
}

func TestMarkAbsentDefaultsToYesterday(t *testing.T) {
	repo := &fakeAttendanceRepo{}
	job := &MarkAbsentJob{
		Attendance: attendance.NewService(repo, nil, testLogger(), attendance.Config{}),
		Logger:     testLogger(),
		// Friday, so yesterday is Thursday 2024-03-07.
		clock: func() time.Time { return time.Date(2024, 3, 8, 0, 30, 0, 0, time.UTC) },
	}

	task, err := NewMarkAbsentTask(time.Time{})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Len(t, repo.markedDates, 1)
	require.Equal(t, time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC), repo.markedDates[0])
}

type fakeLeaveRepo struct {
	totals   []leave.CategoryTotal
	balances map[uuid.UUID]*leave.Balance
}

func (r *fakeLeaveRepo) CreateRequest(ctx context.Context, req leave.Request) error { return nil }

func (r *fakeLeaveRepo) GetRequest(ctx context.Context, id uuid.UUID) (leave.Request, error) {
	return leave.Request{}, shared.ErrNotFound
}

func (r *fakeLeaveRepo) ListRequests(ctx context.Context, filter leave.ListFilter) ([]leave.Request, error) {
	return nil, nil
}

func (r *fakeLeaveRepo) MarkDecided(ctx context.Context, id uuid.UUID, status leave.RequestStatus, approverID uuid.UUID, decidedAt time.Time, rejectionReason *string) error {
	return nil
}

func (r *fakeLeaveRepo) CountPending(ctx context.Context) (int, error) { return 0, nil }

func (r *fakeLeaveRepo) GetBalance(ctx context.Context, employeeID uuid.UUID, year int) (*leave.Balance, error) {
	if bal, ok := r.balances[employeeID]; ok {
		return bal, nil
	}
	return nil, nil
}

func (r *fakeLeaveRepo) DeductBalance(ctx context.Context, employeeID uuid.UUID, year int, category leave.Category, days int) error {
	return nil
}

func (r *fakeLeaveRepo) InitBalance(ctx context.Context, employeeID uuid.UUID, year int, sick, casual, earned int) error {
	return nil
}

func (r *fakeLeaveRepo) ApprovedTotals(ctx context.Context, year int) ([]leave.CategoryTotal, error) {
	return r.totals, nil
}

func TestBalanceReconcileDetectsDrift(t *testing.T) {
	employeeID := uuid.New()
	repo := &fakeLeaveRepo{
		totals: []leave.CategoryTotal{
			{EmployeeID: employeeID, Category: leave.CategorySick, Days: 3},
		},
		balances: map[uuid.UUID]*leave.Balance{
			// Deduction never landed: stored remaining still at the full
			// allotment instead of 10-3.
			employeeID: {EmployeeID: employeeID, Year: 2024, Sick: leave.DefaultSickDays, Casual: leave.DefaultCasualDays, Earned: leave.DefaultEarnedDays},
		},
	}

	var buf logCapture
	job := &BalanceReconcileJob{
		Repo:   repo,
		Logger: slog.New(slog.NewTextHandler(&buf, nil)),
	}

	task, err := NewReconcileBalancesTask(2024)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Contains(t, buf.String(), "out of sync")
}

func TestBalanceReconcileCleanPass(t *testing.T) {
	employeeID := uuid.New()
	repo := &fakeLeaveRepo{
		totals: []leave.CategoryTotal{
			{EmployeeID: employeeID, Category: leave.CategorySick, Days: 3},
		},
		balances: map[uuid.UUID]*leave.Balance{
			employeeID: {EmployeeID: employeeID, Year: 2024, Sick: leave.DefaultSickDays - 3, Casual: leave.DefaultCasualDays, Earned: leave.DefaultEarnedDays},
		},
	}

	var buf logCapture
	job := &BalanceReconcileJob{
		Repo:   repo,
		Logger: slog.New(slog.NewTextHandler(&buf, nil)),
	}

	task, err := NewReconcileBalancesTask(2024)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.NotContains(t, buf.String(), "out of sync")
	require.NotContains(t, buf.String(), "missing")
}

type logCapture struct {
	data []byte
}

func (c *logCapture) Write(p []byte) (int, error) {
	c.data = append(c.data, p...)
	return len(p), nil
}

func (c *logCapture) String() string {
	return string(c.data)
}
