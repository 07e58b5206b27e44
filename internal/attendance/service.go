package attendance

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/peoplehub-hr/peoplehub/internal/shared"
)

var (
	ErrAlreadyCheckedIn  = errors.New("already checked in today")
	ErrNoOpenSession     = errors.New("no attendance session open today")
	ErrAlreadyCheckedOut = errors.New("already checked out today")
)

const defaultWorkDayHours = 8

// Config tunes attendance behavior.
type Config struct {
	// WorkDayHours is the expected full-day length. Sessions closed under
	// half of it are classified half_day.
	WorkDayHours float64
}

// Service owns the NoSession -> CheckedIn -> CheckedOut state machine.
type Service struct {
	repo         Repository
	activity     shared.Recorder
	logger       *slog.Logger
	workDayHours float64
	now          func() time.Time
}

// NewService constructs a new Service.
func NewService(repo Repository, activity shared.Recorder, logger *slog.Logger, cfg Config) *Service {
	if cfg.WorkDayHours <= 0 {
		cfg.WorkDayHours = defaultWorkDayHours
	}
	return &Service{repo: repo, activity: activity, logger: logger, workDayHours: cfg.WorkDayHours, now: time.Now}
}

// CheckIn opens today's session for the employee. A second check-in on the
// same date fails with ErrAlreadyCheckedIn, enforced by the store's unique
// index so concurrent calls serialize there.
func (s *Service) CheckIn(ctx context.Context, employeeID uuid.UUID) (Session, error) {
	now := s.now().UTC()
	sess := Session{
		ID:         uuid.New(),
		EmployeeID: employeeID,
		Date:       dateOnly(now),
		CheckIn:    &now,
		Status:     StatusPresent,
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		return Session{}, err
	}
	s.recordActivity(ctx, employeeID, "Checked in", sess.ID)
	return s.repo.GetForDate(ctx, employeeID, sess.Date)
}

// CheckOut closes today's session and fixes work hours permanently.
func (s *Service) CheckOut(ctx context.Context, employeeID uuid.UUID) (Session, error) {
	now := s.now().UTC()
	today := dateOnly(now)

	sess, err := s.repo.GetForDate(ctx, employeeID, today)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Session{}, ErrNoOpenSession
		}
		return Session{}, err
	}
	if sess.CheckOut != nil {
		return Session{}, ErrAlreadyCheckedOut
	}
	if sess.CheckIn == nil {
		return Session{}, ErrNoOpenSession
	}

	hours := roundHours(now.Sub(*sess.CheckIn).Hours())
	if hours < 0 {
		hours = 0
	}
	status := sess.Status
	if hours < s.workDayHours/2 {
		status = StatusHalfDay
	}
	if err := s.repo.CloseSession(ctx, sess.ID, now, hours, status); err != nil {
		return Session{}, err
	}
	s.recordActivity(ctx, employeeID, "Checked out", sess.ID)
	return s.repo.GetForDate(ctx, employeeID, today)
}

// List returns sessions matching the filter, newest first. Restricting
// non-admin callers to their own employee ID is the HTTP boundary's job.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Session, error) {
	return s.repo.List(ctx, filter)
}

// Today returns the employee's session for the current date, nil when none.
func (s *Service) Today(ctx context.Context, employeeID uuid.UUID) (*Session, error) {
	sess, err := s.repo.GetForDate(ctx, employeeID, dateOnly(s.now().UTC()))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sess, nil
}

// Summarize aggregates an employee's sessions over a date range.
func (s *Service) Summarize(ctx context.Context, employeeID uuid.UUID, from, to time.Time) (Summary, error) {
	return s.repo.Summarize(ctx, employeeID, from, to)
}

// PresentCount reports how many employees have a present session for the date.
func (s *Service) PresentCount(ctx context.Context, date time.Time) (int, error) {
	return s.repo.CountForDate(ctx, dateOnly(date))
}

// MarkAbsentees backfills absent sessions for the date; run by the nightly job.
func (s *Service) MarkAbsentees(ctx context.Context, date time.Time) (int, error) {
	return s.repo.MarkAbsentees(ctx, dateOnly(date))
}

func (s *Service) recordActivity(ctx context.Context, employeeID uuid.UUID, action string, entityID uuid.UUID) {
	if s.activity == nil {
		return
	}
	entry := shared.ActivityEntry{EmployeeID: employeeID, Action: action, Entity: "attendance", EntityID: &entityID}
	if err := s.activity.Record(ctx, entry); err != nil {
		s.logger.Warn("record activity", slog.Any("error", err))
	}
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func roundHours(h float64) float64 {
	return math.Round(h*100) / 100
}
