package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/peoplehub-hr/peoplehub/internal/platform/db"
	"github.com/peoplehub-hr/peoplehub/internal/shared"
)

// Repository defines task data access. Status moves are guarded conditional
// updates; the losing side of two concurrent transitions sees zero rows.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error

	Get(ctx context.Context, id uuid.UUID) (Task, error)
	List(ctx context.Context, filter ListFilter) ([]Task, error)
	Transition(ctx context.Context, id uuid.UUID, from, to Status, progress int, completedAt *time.Time) error
	CountByStatus(ctx context.Context, assigneeID *uuid.UUID) (map[Status]int, error)

	InsertComment(ctx context.Context, c Comment) error
	ListComments(ctx context.Context, taskID uuid.UUID) ([]Comment, error)
}

// TxRepository defines operations within the creation transaction.
type TxRepository interface {
	NextTaskCode(ctx context.Context) (string, error)
	Insert(ctx context.Context, t Task) error
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

const taskColumns = `id, task_code, title, description, assigned_to, assigned_by, priority, status, progress_percentage, due_date, completed_at, created_at`

func scanTask(row pgx.Row) (Task, error) {
	var t Task
	var priority, status string
	err := row.Scan(&t.ID, &t.Code, &t.Title, &t.Description, &t.AssigneeID, &t.AssignerID, &priority, &status, &t.Progress, &t.DueDate, &t.CompletedAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Task{}, shared.ErrNotFound
		}
		return Task{}, err
	}
	t.Priority = Priority(priority)
	t.Status = Status(status)
	return t, nil
}

func (r *pgRepository) Get(ctx context.Context, id uuid.UUID) (Task, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	return scanTask(row)
}

func (r *pgRepository) List(ctx context.Context, filter ListFilter) ([]Task, error) {
	where := []string{"1=1"}
	args := []any{}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		where = append(where, fmt.Sprintf("assigned_to = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	query := fmt.Sprintf(`SELECT %s FROM tasks WHERE %s ORDER BY created_at DESC`, taskColumns, strings.Join(where, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Transition applies a status-guarded update. Zero rows means the task was
// not in the expected source state anymore.
func (r *pgRepository) Transition(ctx context.Context, id uuid.UUID, from, to Status, progress int, completedAt *time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE tasks SET status = $3, progress_percentage = $4, completed_at = $5 WHERE id = $1 AND status = $2`,
		id, string(from), string(to), progress, completedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrIllegalTransition
	}
	return nil
}

func (r *pgRepository) CountByStatus(ctx context.Context, assigneeID *uuid.UUID) (map[Status]int, error) {
	query := `SELECT status, COUNT(*) FROM tasks GROUP BY status`
	args := []any{}
	if assigneeID != nil {
		query = `SELECT status, COUNT(*) FROM tasks WHERE assigned_to = $1 GROUP BY status`
		args = append(args, *assigneeID)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[Status(status)] = n
	}
	return out, rows.Err()
}

func (r *pgRepository) InsertComment(ctx context.Context, c Comment) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO task_comments (id, task_id, author_id, comment, created_at) VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.TaskID, c.AuthorID, c.Text, c.CreatedAt)
	return err
}

func (r *pgRepository) ListComments(ctx context.Context, taskID uuid.UUID) ([]Comment, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, task_id, author_id, comment, created_at FROM task_comments WHERE task_id = $1 ORDER BY created_at ASC`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.TaskID, &c.AuthorID, &c.Text, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (t *pgTxRepository) NextTaskCode(ctx context.Context) (string, error) {
	var last *string
	err := t.tx.QueryRow(ctx, `SELECT task_code FROM tasks ORDER BY task_code DESC LIMIT 1 FOR UPDATE`).Scan(&last)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}
	if last == nil || *last == "" {
		return "TASK001", nil
	}
	var n int
	if _, err := fmt.Sscanf(*last, "TASK%d", &n); err != nil {
		return "", fmt.Errorf("task: malformed code %q: %w", *last, err)
	}
	return fmt.Sprintf("TASK%03d", n+1), nil
}

func (t *pgTxRepository) Insert(ctx context.Context, tk Task) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO tasks (id, task_code, title, description, assigned_to, assigned_by, priority, status, progress_percentage, due_date, completed_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())`,
		tk.ID, tk.Code, tk.Title, tk.Description, tk.AssigneeID, tk.AssignerID, string(tk.Priority), string(tk.Status), tk.Progress, tk.DueDate, tk.CompletedAt)
	return err
}
