package employee

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/peoplehub-hr/peoplehub/internal/shared"
)

type memoryRepo struct {
	employees map[uuid.UUID]Employee
	balances  map[uuid.UUID][]int
	lastCode  int
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		employees: make(map[uuid.UUID]Employee),
		balances:  make(map[uuid.UUID][]int),
	}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (tx *memoryTx) NextEmployeeCode(ctx context.Context) (string, error) {
	tx.repo.lastCode++
	return fmt.Sprintf("EMP%03d", tx.repo.lastCode), nil
}

func (tx *memoryTx) Insert(ctx context.Context, emp Employee) error {
	for _, existing := range tx.repo.employees {
		if existing.Email == emp.Email {
			return ErrEmailTaken
		}
	}
	tx.repo.employees[emp.ID] = emp
	return nil
}

func (tx *memoryTx) SeedLeaveBalance(ctx context.Context, employeeID uuid.UUID, year int) error {
	tx.repo.balances[employeeID] = append(tx.repo.balances[employeeID], year)
	return nil
}

func (r *memoryRepo) Get(ctx context.Context, id uuid.UUID) (Employee, error) {
	if emp, ok := r.employees[id]; ok {
		return emp, nil
	}
	return Employee{}, shared.ErrNotFound
}

func (r *memoryRepo) GetByCode(ctx context.Context, code string) (Employee, error) {
	for _, emp := range r.employees {
		if emp.Code == code {
			return emp, nil
		}
	}
	return Employee{}, shared.ErrNotFound
}

func (r *memoryRepo) List(ctx context.Context, filter ListFilter) ([]Employee, int, error) {
	var result []Employee
	for _, emp := range r.employees {
		if filter.Status != "" && emp.Status != filter.Status {
			continue
		}
		result = append(result, emp)
	}
	return result, len(result), nil
}

func (r *memoryRepo) Update(ctx context.Context, id uuid.UUID, input UpdateInput) error {
	emp, ok := r.employees[id]
	if !ok {
		return shared.ErrNotFound
	}
	emp.FullName = input.FullName
	emp.Phone = input.Phone
	emp.Department = input.Department
	emp.Position = input.Position
	r.employees[id] = emp
	return nil
}

func (r *memoryRepo) SetStatus(ctx context.Context, id uuid.UUID, status Status) error {
	emp, ok := r.employees[id]
	if !ok {
		return shared.ErrNotFound
	}
	emp.Status = status
	r.employees[id] = emp
	return nil
}

func createEmployee(t *testing.T, svc *Service, email string) Employee {
	t.Helper()
	emp, err := svc.Create(context.Background(), CreateInput{
		FullName: "Asha Raman",
		Email:    email,
		Password: "secret123",
		Role:     shared.RoleEmployee,
	})
	require.NoError(t, err)
	return emp
}

func TestCreateAssignsSequentialCodes(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)

	first := createEmployee(t, svc, "first@example.com")
	second := createEmployee(t, svc, "second@example.com")

	require.Equal(t, "EMP001", first.Code)
	require.Equal(t, "EMP002", second.Code)
	require.Equal(t, StatusActive, first.Status)
}

func TestCreateSeedsLeaveBalance(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)

	emp := createEmployee(t, svc, "asha@example.com")

	require.Len(t, repo.balances[emp.ID], 1)
}

func TestCreateNormalizesEmail(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)

	emp := createEmployee(t, svc, "  Asha@Example.COM ")
	require.Equal(t, "asha@example.com", emp.Email)
}

func TestCreateDuplicateEmail(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)

	createEmployee(t, svc, "asha@example.com")
	_, err := svc.Create(context.Background(), CreateInput{
		FullName: "Other Person",
		Email:    "asha@example.com",
		Password: "secret123",
		Role:     shared.RoleEmployee,
	})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestCreateInvalidRole(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)

	_, err := svc.Create(context.Background(), CreateInput{
		FullName: "Asha Raman",
		Email:    "asha@example.com",
		Password: "secret123",
		Role:     shared.Role("superuser"),
	})
	require.ErrorIs(t, err, ErrInvalidRole)
}

func TestSetStatusInvalid(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	emp := createEmployee(t, svc, "asha@example.com")

	_, err := svc.SetStatus(context.Background(), emp.ID, Status("fired"), uuid.New())
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestSetStatusTerminated(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	emp := createEmployee(t, svc, "asha@example.com")

	updated, err := svc.SetStatus(context.Background(), emp.ID, StatusTerminated, uuid.New())
	require.NoError(t, err)
	require.Equal(t, StatusTerminated, updated.Status)
}
