package leave

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/peoplehub-hr/peoplehub/internal/shared"
)

// Repository defines leave data access. Decisions are status-guarded
// conditional updates so two concurrent Decide calls serialize at the store.
type Repository interface {
	CreateRequest(ctx context.Context, req Request) error
	GetRequest(ctx context.Context, id uuid.UUID) (Request, error)
	ListRequests(ctx context.Context, filter ListFilter) ([]Request, error)
	MarkDecided(ctx context.Context, id uuid.UUID, status RequestStatus, approverID uuid.UUID, decidedAt time.Time, rejectionReason *string) error
	CountPending(ctx context.Context) (int, error)

	GetBalance(ctx context.Context, employeeID uuid.UUID, year int) (*Balance, error)
	DeductBalance(ctx context.Context, employeeID uuid.UUID, year int, category Category, days int) error
	InitBalance(ctx context.Context, employeeID uuid.UUID, year int, sick, casual, earned int) error
	ApprovedTotals(ctx context.Context, year int) ([]CategoryTotal, error)
}

var _ Repository = (*pgRepository)(nil)

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const requestColumns = `id, employee_id, leave_type, from_date, to_date, total_days, reason, status, approved_by, approved_at, rejection_reason, created_at`

func scanRequest(row pgx.Row) (Request, error) {
	var req Request
	var category, status string
	err := row.Scan(&req.ID, &req.EmployeeID, &category, &req.FromDate, &req.ToDate, &req.TotalDays, &req.Reason, &status, &req.ApproverID, &req.DecidedAt, &req.RejectionReason, &req.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Request{}, shared.ErrNotFound
		}
		return Request{}, err
	}
	req.Category = Category(category)
	req.Status = RequestStatus(status)
	return req, nil
}

func (r *pgRepository) CreateRequest(ctx context.Context, req Request) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO leave_requests (id, employee_id, leave_type, from_date, to_date, total_days, reason, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())`,
		req.ID, req.EmployeeID, string(req.Category), req.FromDate, req.ToDate, req.TotalDays, req.Reason, string(req.Status))
	return err
}

func (r *pgRepository) GetRequest(ctx context.Context, id uuid.UUID) (Request, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+requestColumns+` FROM leave_requests WHERE id = $1`, id)
	return scanRequest(row)
}

func (r *pgRepository) ListRequests(ctx context.Context, filter ListFilter) ([]Request, error) {
	where := []string{"1=1"}
	args := []any{}
	if filter.EmployeeID != nil {
		args = append(args, *filter.EmployeeID)
		where = append(where, fmt.Sprintf("employee_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	query := fmt.Sprintf(`SELECT %s FROM leave_requests WHERE %s ORDER BY created_at DESC`, requestColumns, strings.Join(where, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

// MarkDecided performs the one-shot pending transition. Zero rows affected
// means another decision already won.
func (r *pgRepository) MarkDecided(ctx context.Context, id uuid.UUID, status RequestStatus, approverID uuid.UUID, decidedAt time.Time, rejectionReason *string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE leave_requests SET status = $2, approved_by = $3, approved_at = $4, rejection_reason = $5 WHERE id = $1 AND status = 'pending'`,
		id, string(status), approverID, decidedAt, rejectionReason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotPending
	}
	return nil
}

func (r *pgRepository) CountPending(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM leave_requests WHERE status = 'pending'`).Scan(&n)
	return n, err
}

func (r *pgRepository) GetBalance(ctx context.Context, employeeID uuid.UUID, year int) (*Balance, error) {
	var b Balance
	err := r.pool.QueryRow(ctx, `SELECT employee_id, year, sick, casual, earned FROM leave_balances WHERE employee_id = $1 AND year = $2`,
		employeeID, year).Scan(&b.EmployeeID, &b.Year, &b.Sick, &b.Casual, &b.Earned)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

var balanceColumnByCategory = map[Category]string{
	CategorySick:   "sick",
	CategoryCasual: "casual",
	CategoryEarned: "earned",
}

// DeductBalance subtracts days from the category column, floored at zero.
func (r *pgRepository) DeductBalance(ctx context.Context, employeeID uuid.UUID, year int, category Category, days int) error {
	column, ok := balanceColumnByCategory[category]
	if !ok {
		return fmt.Errorf("leave: category %q carries no balance", category)
	}
	query := fmt.Sprintf(`UPDATE leave_balances SET %s = GREATEST(%s - $3, 0) WHERE employee_id = $1 AND year = $2`, column, column)
	tag, err := r.pool.Exec(ctx, query, employeeID, year, days)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *pgRepository) InitBalance(ctx context.Context, employeeID uuid.UUID, year int, sick, casual, earned int) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO leave_balances (employee_id, year, sick, casual, earned)
VALUES ($1, $2, $3, $4, $5) ON CONFLICT (employee_id, year) DO NOTHING`,
		employeeID, year, sick, casual, earned)
	return err
}

func (r *pgRepository) ApprovedTotals(ctx context.Context, year int) ([]CategoryTotal, error) {
	rows, err := r.pool.Query(ctx, `SELECT employee_id, leave_type, COALESCE(SUM(total_days), 0)
FROM leave_requests
WHERE status = 'approved' AND leave_type <> 'unpaid' AND EXTRACT(YEAR FROM approved_at) = $1
GROUP BY employee_id, leave_type`, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CategoryTotal
	for rows.Next() {
		var t CategoryTotal
		var category string
		if err := rows.Scan(&t.EmployeeID, &category, &t.Days); err != nil {
			return nil, err
		}
		t.Category = Category(category)
		out = append(out, t)
	}
	return out, rows.Err()
}
