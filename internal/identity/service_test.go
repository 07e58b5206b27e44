package identity

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/peoplehub-hr/peoplehub/internal/shared"
)

type memoryRepo struct {
	byCode map[string]credential
	byID   map[uuid.UUID]credential
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		byCode: make(map[string]credential),
		byID:   make(map[uuid.UUID]credential),
	}
}

func (r *memoryRepo) add(code, password, status string, role shared.Role) credential {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	cred := credential{
		ID:           uuid.New(),
		Code:         code,
		FullName:     "Test Person",
		PasswordHash: string(hash),
		Role:         role,
		Status:       status,
	}
	r.byCode[code] = cred
	r.byID[cred.ID] = cred
	return cred
}

func (r *memoryRepo) FindByCode(ctx context.Context, code string) (credential, error) {
	if cred, ok := r.byCode[code]; ok {
		return cred, nil
	}
	return credential{}, shared.ErrNotFound
}

func (r *memoryRepo) FindByID(ctx context.Context, id uuid.UUID) (credential, error) {
	if cred, ok := r.byID[id]; ok {
		return cred, nil
	}
	return credential{}, shared.ErrNotFound
}

func TestAuthenticateSuccess(t *testing.T) {
	repo := newMemoryRepo()
	cred := repo.add("EMP001", "secret123", "active", shared.RoleAdmin)
	svc := NewService(repo, nil, nil)

	ident, err := svc.Authenticate(context.Background(), "EMP001", "secret123")
	require.NoError(t, err)
	require.Equal(t, cred.ID, ident.EmployeeID)
	require.Equal(t, "EMP001", ident.Code)
	require.Equal(t, shared.RoleAdmin, ident.Role)
}

func TestAuthenticateUnknownCode(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)

	_, err := svc.Authenticate(context.Background(), "EMP999", "whatever")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	repo := newMemoryRepo()
	repo.add("EMP001", "secret123", "active", shared.RoleEmployee)
	svc := NewService(repo, nil, nil)

	_, err := svc.Authenticate(context.Background(), "EMP001", "wrong")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateTerminatedAccount(t *testing.T) {
	repo := newMemoryRepo()
	repo.add("EMP001", "secret123", "terminated", shared.RoleEmployee)
	svc := NewService(repo, nil, nil)

	// Correct credentials on a terminated record is the one case that
	// must be distinguishable from a wrong password.
	_, err := svc.Authenticate(context.Background(), "EMP001", "secret123")
	require.ErrorIs(t, err, shared.ErrAccountInactive)
}

func TestAuthenticateTerminatedWithWrongPassword(t *testing.T) {
	repo := newMemoryRepo()
	repo.add("EMP001", "secret123", "terminated", shared.RoleEmployee)
	svc := NewService(repo, nil, nil)

	// Credentials are checked before status; a wrong password must not
	// leak that the account exists but is inactive.
	_, err := svc.Authenticate(context.Background(), "EMP001", "wrong")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestResolveNilSession(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)

	ident, err := svc.Resolve(context.Background(), nil)
	require.NoError(t, err)
	require.Nil(t, ident)
}

func TestResolveGarbageUserID(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)
	sess := &shared.Session{}
	sess.SetUser("not-a-uuid")

	ident, err := svc.Resolve(context.Background(), sess)
	require.NoError(t, err)
	require.Nil(t, ident)
}

func TestResolveActiveEmployee(t *testing.T) {
	repo := newMemoryRepo()
	cred := repo.add("EMP002", "secret123", "active", shared.RoleEmployee)
	svc := NewService(repo, nil, nil)
	sess := &shared.Session{}
	sess.SetUser(cred.ID.String())

	ident, err := svc.Resolve(context.Background(), sess)
	require.NoError(t, err)
	require.NotNil(t, ident)
	require.Equal(t, cred.ID, ident.EmployeeID)
}

func TestResolveAfterTermination(t *testing.T) {
	repo := newMemoryRepo()
	cred := repo.add("EMP002", "secret123", "active", shared.RoleEmployee)
	svc := NewService(repo, nil, nil)
	sess := &shared.Session{}
	sess.SetUser(cred.ID.String())

	cred.Status = "terminated"
	repo.byID[cred.ID] = cred
	repo.byCode[cred.Code] = cred

	ident, err := svc.Resolve(context.Background(), sess)
	require.NoError(t, err)
	require.Nil(t, ident)
}
