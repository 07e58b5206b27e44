package attendance

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

	"github.com/peoplehub-hr/peoplehub/internal/shared"
)

// Repository defines attendance data access. The store's unique index on
// (employee_id, date) is what serializes concurrent check-ins.
type Repository interface {
	Create(ctx context.Context, s Session) error
	GetForDate(ctx context.Context, employeeID uuid.UUID, date time.Time) (Session, error)
	CloseSession(ctx context.Context, id uuid.UUID, checkOut time.Time, workHours float64, status Status) error
	List(ctx context.Context, filter ListFilter) ([]Session, error)
	Summarize(ctx context.Context, employeeID uuid.UUID, from, to time.Time) (Summary, error)
	CountForDate(ctx context.Context, date time.Time) (int, error)
	MarkAbsentees(ctx context.Context, date time.Time) (int, error)
}

var _ Repository = (*pgRepository)(nil)

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const sessionColumns = `id, employee_id, date, check_in_time, check_out_time, work_hours, status, created_at`

func scanSession(row pgx.Row) (Session, error) {
	var s Session
	var status string
	err := row.Scan(&s.ID, &s.EmployeeID, &s.Date, &s.CheckIn, &s.CheckOut, &s.WorkHours, &status, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, shared.ErrNotFound
		}
		return Session{}, err
	}
	s.Status = Status(status)
	return s, nil
}

func (r *pgRepository) Create(ctx context.Context, s Session) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO attendance_sessions (id, employee_id, date, check_in_time, check_out_time, work_hours, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())`,
		s.ID, s.EmployeeID, s.Date, s.CheckIn, s.CheckOut, s.WorkHours, string(s.Status))
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrAlreadyCheckedIn
	}
	return err
}

func (r *pgRepository) GetForDate(ctx context.Context, employeeID uuid.UUID, date time.Time) (Session, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM attendance_sessions WHERE employee_id = $1 AND date = $2`, employeeID, date)
	return scanSession(row)
}

// CloseSession records check-out exactly once. The check_out_time IS NULL
// guard makes the second concurrent check-out lose.
func (r *pgRepository) CloseSession(ctx context.Context, id uuid.UUID, checkOut time.Time, workHours float64, status Status) error {
	tag, err := r.pool.Exec(ctx, `UPDATE attendance_sessions SET check_out_time = $2, work_hours = $3, status = $4 WHERE id = $1 AND check_out_time IS NULL`,
		id, checkOut, workHours, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyCheckedOut
	}
	return nil
}

func (r *pgRepository) List(ctx context.Context, filter ListFilter) ([]Session, error) {
	where := []string{"1=1"}
	args := []any{}
	if filter.EmployeeID != nil {
		args = append(args, *filter.EmployeeID)
		where = append(where, fmt.Sprintf("employee_id = $%d", len(args)))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		where = append(where, fmt.Sprintf("date >= $%d", len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		where = append(where, fmt.Sprintf("date <= $%d", len(args)))
	}
	query := fmt.Sprintf(`SELECT %s FROM attendance_sessions WHERE %s ORDER BY date DESC`, sessionColumns, strings.Join(where, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *pgRepository) Summarize(ctx context.Context, employeeID uuid.UUID, from, to time.Time) (Summary, error) {
	var s Summary
	err := r.pool.QueryRow(ctx, `SELECT
COUNT(*) FILTER (WHERE status IN ('present', 'late')),
COUNT(*) FILTER (WHERE status = 'absent'),
COALESCE(SUM(work_hours), 0)
FROM attendance_sessions WHERE employee_id = $1 AND date BETWEEN $2 AND $3`,
		employeeID, from, to).Scan(&s.PresentDays, &s.AbsentDays, &s.TotalWorkHours)
	return s, err
}

func (r *pgRepository) CountForDate(ctx context.Context, date time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM attendance_sessions WHERE date = $1 AND status IN ('present', 'late')`, date).Scan(&n)
	return n, err
}

// MarkAbsentees inserts absent sessions for every active employee without a
// session on the given date. The unique index keeps it idempotent.
func (r *pgRepository) MarkAbsentees(ctx context.Context, date time.Time) (int, error) {
	tag, err := r.pool.Exec(ctx, `INSERT INTO attendance_sessions (id, employee_id, date, status, created_at)
SELECT gen_random_uuid(), e.id, $1, 'absent', NOW()
FROM employees e
WHERE e.status = 'active'
AND NOT EXISTS (SELECT 1 FROM attendance_sessions a WHERE a.employee_id = e.id AND a.date = $1)
ON CONFLICT (employee_id, date) DO NOTHING`, date)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
