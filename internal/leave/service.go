package leave

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/peoplehub-hr/peoplehub/internal/shared"
)

var (
	ErrInvalidDateRange        = errors.New("leave date range must span at least one day")
	ErrInvalidCategory         = errors.New("unknown leave category")
	ErrInvalidOutcome          = errors.New("decision must be approved or rejected")
	ErrNotPending              = errors.New("leave request is no longer pending")
	ErrRejectionReasonRequired = errors.New("rejection requires a reason")
)

// ReconcileEnqueuer schedules a balance reconciliation pass. The leave
// service uses it when the deduction step fails after the approval committed.
type ReconcileEnqueuer interface {
	EnqueueBalanceReconcile(ctx context.Context, year int) error
}

// Service owns leave requests and entitlement balances.
type Service struct {
	repo      Repository
	activity  shared.Recorder
	reconcile ReconcileEnqueuer
	logger    *slog.Logger
	now       func() time.Time
}

// NewService constructs a new Service. reconcile may be nil; anomalies are
// then only logged.
func NewService(repo Repository, activity shared.Recorder, reconcile ReconcileEnqueuer, logger *slog.Logger) *Service {
	return &Service{repo: repo, activity: activity, reconcile: reconcile, logger: logger, now: time.Now}
}

// Submit files a new leave application with status pending. Total days is
// the inclusive count of calendar days in the range. No balance is reserved;
// deduction happens only when the request is approved.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (Request, error) {
	if !input.Category.Valid() {
		return Request{}, ErrInvalidCategory
	}
	totalDays := inclusiveDays(input.FromDate, input.ToDate)
	if totalDays < 1 {
		return Request{}, ErrInvalidDateRange
	}

	req := Request{
		ID:         uuid.New(),
		EmployeeID: input.EmployeeID,
		Category:   input.Category,
		FromDate:   dateOnly(input.FromDate),
		ToDate:     dateOnly(input.ToDate),
		TotalDays:  totalDays,
		Reason:     strings.TrimSpace(input.Reason),
		Status:     StatusPending,
	}
	if err := s.repo.CreateRequest(ctx, req); err != nil {
		return Request{}, err
	}
	s.recordActivity(ctx, input.EmployeeID, "Submitted "+string(input.Category)+" leave request", req.ID)
	return s.repo.GetRequest(ctx, req.ID)
}

// Decide applies the one-shot pending -> approved|rejected transition. On
// approval of a paid category the employee's current-year balance is
// deducted, floored at zero, as a second store write. If that write fails
// after the approval committed, the request stays approved: the anomaly is
// logged and a reconciliation pass is enqueued rather than guessing a
// rollback.
func (s *Service) Decide(ctx context.Context, leaveID, approverID uuid.UUID, outcome Outcome, rejectionReason string) (Request, error) {
	req, err := s.repo.GetRequest(ctx, leaveID)
	if err != nil {
		return Request{}, err
	}
	// State before input: an already-decided request reports not-pending
	// even when the decision payload is also malformed.
	if req.Status != StatusPending {
		return Request{}, ErrNotPending
	}

	rejectionReason = strings.TrimSpace(rejectionReason)
	var status RequestStatus
	switch outcome {
	case OutcomeApproved:
		status = StatusApproved
	case OutcomeRejected:
		if rejectionReason == "" {
			return Request{}, ErrRejectionReasonRequired
		}
		status = StatusRejected
	default:
		return Request{}, ErrInvalidOutcome
	}

	decidedAt := s.now().UTC()
	var reasonPtr *string
	if status == StatusRejected {
		reasonPtr = &rejectionReason
	}
	if err := s.repo.MarkDecided(ctx, leaveID, status, approverID, decidedAt, reasonPtr); err != nil {
		return Request{}, err
	}

	if status == StatusApproved && req.Category != CategoryUnpaid {
		// Deduction targets the year the decision is made in, not the year
		// the leave starts, matching how balances are looked up.
		year := decidedAt.Year()
		if err := s.repo.DeductBalance(ctx, req.EmployeeID, year, req.Category, req.TotalDays); err != nil {
			s.logger.Error("balance deduction failed after approval",
				slog.String("leave_id", leaveID.String()),
				slog.String("employee_id", req.EmployeeID.String()),
				slog.Any("error", err))
			if s.reconcile != nil {
				if enqErr := s.reconcile.EnqueueBalanceReconcile(ctx, year); enqErr != nil {
					s.logger.Error("enqueue balance reconcile", slog.Any("error", enqErr))
				}
			}
		}
	}

	s.recordActivity(ctx, approverID, string(status)+" leave request", leaveID)
	return s.repo.GetRequest(ctx, leaveID)
}

// GetBalance returns the employee's balance for the year. nil means the
// balance was never initialized; callers surface that as a distinct state,
// not an error.
func (s *Service) GetBalance(ctx context.Context, employeeID uuid.UUID, year int) (*Balance, error) {
	return s.repo.GetBalance(ctx, employeeID, year)
}

// List returns requests matching the filter, newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Request, error) {
	return s.repo.ListRequests(ctx, filter)
}

// PendingCount reports the number of undecided requests.
func (s *Service) PendingCount(ctx context.Context) (int, error) {
	return s.repo.CountPending(ctx)
}

// InitBalance seeds a balance row with the standard allotments when missing.
func (s *Service) InitBalance(ctx context.Context, employeeID uuid.UUID, year int) error {
	return s.repo.InitBalance(ctx, employeeID, year, DefaultSickDays, DefaultCasualDays, DefaultEarnedDays)
}

func (s *Service) recordActivity(ctx context.Context, employeeID uuid.UUID, action string, entityID uuid.UUID) {
	if s.activity == nil {
		return
	}
	entry := shared.ActivityEntry{EmployeeID: employeeID, Action: action, Entity: "leave", EntityID: &entityID}
	if err := s.activity.Record(ctx, entry); err != nil {
		s.logger.Warn("record activity", slog.Any("error", err))
	}
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// inclusiveDays counts calendar days in [from, to], both endpoints included.
func inclusiveDays(from, to time.Time) int {
	f := dateOnly(from)
	t := dateOnly(to)
	return int(t.Sub(f).Hours()/24) + 1
}
