package employee

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/peoplehub-hr/peoplehub/internal/shared"
)

var (
	ErrEmailTaken    = errors.New("email already registered")
	ErrInvalidRole   = errors.New("invalid role")
	ErrInvalidStatus = errors.New("invalid status")
)

// Service wraps employee directory business rules.
type Service struct {
	repo     Repository
	activity shared.Recorder
	logger   *slog.Logger
}

// NewService constructs a new Service.
func NewService(repo Repository, activity shared.Recorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, activity: activity, logger: logger}
}

// Create onboards a new employee: assigns the next sequential employee code,
// hashes the credential and seeds the current-year leave balance in the same
// transaction.
func (s *Service) Create(ctx context.Context, input CreateInput) (Employee, error) {
	if !input.Role.Valid() {
		return Employee{}, ErrInvalidRole
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return Employee{}, err
	}
	if input.JoiningDate.IsZero() {
		input.JoiningDate = time.Now().UTC()
	}

	emp := Employee{
		ID:           uuid.New(),
		FullName:     strings.TrimSpace(input.FullName),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:        input.Phone,
		Department:   input.Department,
		Position:     input.Position,
		Role:         input.Role,
		Status:       StatusActive,
		JoiningDate:  input.JoiningDate,
		PasswordHash: string(hash),
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		code, err := tx.NextEmployeeCode(ctx)
		if err != nil {
			return err
		}
		emp.Code = code
		if err := tx.Insert(ctx, emp); err != nil {
			return err
		}
		return tx.SeedLeaveBalance(ctx, emp.ID, time.Now().UTC().Year())
	})
	if err != nil {
		return Employee{}, err
	}

	s.recordActivity(ctx, input.CreatedBy, "Created employee "+emp.Code, emp.ID)
	return s.repo.Get(ctx, emp.ID)
}

// Get fetches a single employee.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Employee, error) {
	return s.repo.Get(ctx, id)
}

// List returns a filtered page of the directory plus the total count.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Employee, int, error) {
	return s.repo.List(ctx, filter)
}

// Update applies profile changes.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (Employee, error) {
	if err := s.repo.Update(ctx, id, input); err != nil {
		return Employee{}, err
	}
	s.recordActivity(ctx, input.UpdatedBy, "Updated employee profile", id)
	return s.repo.Get(ctx, id)
}

// SetStatus moves the employee through the lifecycle. A non-active status
// blocks authentication from the next login attempt onward.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status Status, actorID uuid.UUID) (Employee, error) {
	switch status {
	case StatusActive, StatusInactive, StatusTerminated:
	default:
		return Employee{}, ErrInvalidStatus
	}
	if err := s.repo.SetStatus(ctx, id, status); err != nil {
		return Employee{}, err
	}
	s.recordActivity(ctx, actorID, "Set employee status to "+string(status), id)
	return s.repo.Get(ctx, id)
}

func (s *Service) recordActivity(ctx context.Context, actorID uuid.UUID, action string, entityID uuid.UUID) {
	if s.activity == nil || actorID == uuid.Nil {
		return
	}
	entry := shared.ActivityEntry{EmployeeID: actorID, Action: action, Entity: "employee", EntityID: &entityID}
	if err := s.activity.Record(ctx, entry); err != nil {
		s.logger.Warn("record activity", slog.Any("error", err))
	}
}
