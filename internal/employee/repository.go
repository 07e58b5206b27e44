package employee

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/peoplehub-hr/peoplehub/internal/leave"
	"github.com/peoplehub-hr/peoplehub/internal/platform/db"
	"github.com/peoplehub-hr/peoplehub/internal/shared"
)

// Repository defines employee data access.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error

	Get(ctx context.Context, id uuid.UUID) (Employee, error)
	GetByCode(ctx context.Context, code string) (Employee, error)
	List(ctx context.Context, filter ListFilter) ([]Employee, int, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) error
	SetStatus(ctx context.Context, id uuid.UUID, status Status) error
}

// TxRepository defines operations within the onboarding transaction.
type TxRepository interface {
	NextEmployeeCode(ctx context.Context) (string, error)
	Insert(ctx context.Context, emp Employee) error
	SeedLeaveBalance(ctx context.Context, employeeID uuid.UUID, year int) error
}

var _ Repository = (*pgRepository)(nil)
var _ TxRepository = (*pgTxRepository)(nil)

type pgRepository struct {
	pool *pgxpool.Pool
}

type pgTxRepository struct {
	tx pgx.Tx
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &pgTxRepository{tx: tx})
	})
}

const employeeColumns = `id, employee_code, full_name, email, phone, department, position, role, status, joining_date, password_hash, created_at, updated_at`

func scanEmployee(row pgx.Row) (Employee, error) {
	var emp Employee
	var role, status string
	err := row.Scan(&emp.ID, &emp.Code, &emp.FullName, &emp.Email, &emp.Phone, &emp.Department, &emp.Position, &role, &status, &emp.JoiningDate, &emp.PasswordHash, &emp.CreatedAt, &emp.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Employee{}, shared.ErrNotFound
		}
		return Employee{}, err
	}
	emp.Role = shared.Role(role)
	emp.Status = Status(status)
	return emp, nil
}

func (r *pgRepository) Get(ctx context.Context, id uuid.UUID) (Employee, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id)
	return scanEmployee(row)
}

func (r *pgRepository) GetByCode(ctx context.Context, code string) (Employee, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE employee_code = $1`, code)
	return scanEmployee(row)
}

func (r *pgRepository) List(ctx context.Context, filter ListFilter) ([]Employee, int, error) {
	where := []string{"1=1"}
	args := []any{}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where = append(where, fmt.Sprintf("(full_name ILIKE $%d OR employee_code ILIKE $%d)", len(args), len(args)))
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM employees WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := shared.NewPagination(filter.Page, filter.PerPage, total)
	args = append(args, page.PerPage, (page.Page-1)*page.PerPage)
	query := fmt.Sprintf(`SELECT %s FROM employees WHERE %s ORDER BY employee_code ASC LIMIT $%d OFFSET $%d`, employeeColumns, clause, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *pgRepository) Update(ctx context.Context, id uuid.UUID, input UpdateInput) error {
	tag, err := r.pool.Exec(ctx, `UPDATE employees SET full_name = $2, phone = $3, department = $4, position = $5, updated_at = NOW() WHERE id = $1`,
		id, input.FullName, input.Phone, input.Department, input.Position)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *pgRepository) SetStatus(ctx context.Context, id uuid.UUID, status Status) error {
	tag, err := r.pool.Exec(ctx, `UPDATE employees SET status = $2, updated_at = NOW() WHERE id = $1`, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (t *pgTxRepository) NextEmployeeCode(ctx context.Context) (string, error) {
	var last *string
	err := t.tx.QueryRow(ctx, `SELECT employee_code FROM employees ORDER BY employee_code DESC LIMIT 1 FOR UPDATE`).Scan(&last)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}
	if last == nil || *last == "" {
		return "EMP001", nil
	}
	var n int
	if _, err := fmt.Sscanf(*last, "EMP%d", &n); err != nil {
		return "", fmt.Errorf("employee: malformed code %q: %w", *last, err)
	}
	return fmt.Sprintf("EMP%03d", n+1), nil
}

func (t *pgTxRepository) Insert(ctx context.Context, emp Employee) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO employees (id, employee_code, full_name, email, phone, department, position, role, status, joining_date, password_hash, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)`,
		emp.ID, emp.Code, emp.FullName, emp.Email, emp.Phone, emp.Department, emp.Position, string(emp.Role), string(emp.Status), emp.JoiningDate, emp.PasswordHash, time.Now().UTC())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "employees_email_key" {
		return ErrEmailTaken
	}
	return err
}

func (t *pgTxRepository) SeedLeaveBalance(ctx context.Context, employeeID uuid.UUID, year int) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO leave_balances (employee_id, year, sick, casual, earned)
VALUES ($1, $2, $3, $4, $5) ON CONFLICT (employee_id, year) DO NOTHING`,
		employeeID, year, leave.DefaultSickDays, leave.DefaultCasualDays, leave.DefaultEarnedDays)
	return err
}
