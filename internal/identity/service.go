package identity

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/peoplehub-hr/peoplehub/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo     Repository
	activity shared.Recorder
	logger   *slog.Logger
}

// NewService constructs a new Service.
func NewService(repo Repository, activity shared.Recorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, activity: activity, logger: logger}
}

// Authenticate validates employee code and password. A matched credential on
// a non-active record fails with ErrAccountInactive; every other failure is
// the indistinguishable ErrInvalidCredentials. Only success writes an
// activity entry.
func (s *Service) Authenticate(ctx context.Context, employeeCode, password string) (Identity, error) {
	cred, err := s.repo.FindByCode(ctx, employeeCode)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Identity{}, shared.ErrInvalidCredentials
		}
		return Identity{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return Identity{}, shared.ErrInvalidCredentials
	}
	if cred.Status != "active" {
		return Identity{}, shared.ErrAccountInactive
	}

	ident := Identity{EmployeeID: cred.ID, Code: cred.Code, FullName: cred.FullName, Role: cred.Role}
	s.recordActivity(ctx, ident.EmployeeID, "Logged in")
	return ident, nil
}

// Resolve re-derives the caller identity from a persisted session reference.
// It returns nil when no reference exists or the referenced employee no
// longer resolves to an active account. No credential is re-checked.
func (s *Service) Resolve(ctx context.Context, sess *shared.Session) (*Identity, error) {
	if sess == nil || sess.User() == "" {
		return nil, nil
	}
	id, err := uuid.Parse(sess.User())
	if err != nil {
		return nil, nil
	}
	cred, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if cred.Status != "active" {
		return nil, nil
	}
	return &Identity{EmployeeID: cred.ID, Code: cred.Code, FullName: cred.FullName, Role: cred.Role}, nil
}

// EndSession writes the logout activity entry when an identity was active.
// Session destruction itself belongs to the HTTP boundary.
func (s *Service) EndSession(ctx context.Context, ident *Identity) {
	if ident == nil {
		return
	}
	s.recordActivity(ctx, ident.EmployeeID, "Logged out")
}

func (s *Service) recordActivity(ctx context.Context, employeeID uuid.UUID, action string) {
	if s.activity == nil {
		return
	}
	entry := shared.ActivityEntry{EmployeeID: employeeID, Action: action, Entity: "auth"}
	if err := s.activity.Record(ctx, entry); err != nil {
		s.logger.Warn("record activity", slog.Any("error", err))
	}
}
