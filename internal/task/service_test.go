package task

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/peoplehub-hr/peoplehub/internal/shared"
)

type memoryRepo struct {
	tasks    map[uuid.UUID]Task
	comments []Comment
	lastCode int
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{tasks: make(map[uuid.UUID]Task)}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (tx *memoryTx) NextTaskCode(ctx context.Context) (string, error) {
	tx.repo.lastCode++
	return fmt.Sprintf("TASK%03d", tx.repo.lastCode), nil
}

func (tx *memoryTx) Insert(ctx context.Context, t Task) error {
	t.CreatedAt = time.Now().UTC()
	tx.repo.tasks[t.ID] = t
	return nil
}

func (r *memoryRepo) Get(ctx context.Context, id uuid.UUID) (Task, error) {
	if t, ok := r.tasks[id]; ok {
		return t, nil
	}
	return Task{}, shared.ErrNotFound
}

func (r *memoryRepo) List(ctx context.Context, filter ListFilter) ([]Task, error) {
	var result []Task
	for _, t := range r.tasks {
		if filter.AssigneeID != nil && t.AssigneeID != *filter.AssigneeID {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		result = append(result, t)
	}
	return result, nil
}

func (r *memoryRepo) Transition(ctx context.Context, id uuid.UUID, from, to Status, progress int, completedAt *time.Time) error {
	t, ok := r.tasks[id]
	if !ok || t.Status != from {
		return ErrIllegalTransition
	}
	t.Status = to
	t.Progress = progress
	t.CompletedAt = completedAt
	r.tasks[id] = t
	return nil
}

func (r *memoryRepo) CountByStatus(ctx context.Context, assigneeID *uuid.UUID) (map[Status]int, error) {
	counts := make(map[Status]int)
	for _, t := range r.tasks {
		if assigneeID != nil && t.AssigneeID != *assigneeID {
			continue
		}
		counts[t.Status]++
	}
	return counts, nil
}

func (r *memoryRepo) InsertComment(ctx context.Context, c Comment) error {
	r.comments = append(r.comments, c)
	return nil
}

func (r *memoryRepo) ListComments(ctx context.Context, taskID uuid.UUID) ([]Comment, error) {
	var result []Comment
	for _, c := range r.comments {
		if c.TaskID == taskID {
			result = append(result, c)
		}
	}
	return result, nil
}

func createTask(t *testing.T, svc *Service, assigneeID uuid.UUID) Task {
	t.Helper()
	created, err := svc.Create(context.Background(), CreateInput{
		Title:      "Prepare onboarding docs",
		AssigneeID: assigneeID,
		AssignerID: uuid.New(),
		Priority:   PriorityMedium,
	})
	require.NoError(t, err)
	return created
}

func TestCreateAssignsSequentialCodes(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)

	first := createTask(t, svc, uuid.New())
	second := createTask(t, svc, uuid.New())

	require.Equal(t, "TASK001", first.Code)
	require.Equal(t, "TASK002", second.Code)
	require.Equal(t, StatusAssigned, first.Status)
	require.Equal(t, 0, first.Progress)
}

func TestCreateRejectsBlankTitle(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)

	_, err := svc.Create(context.Background(), CreateInput{
		Title:      "   ",
		AssigneeID: uuid.New(),
		AssignerID: uuid.New(),
		Priority:   PriorityLow,
	})
	require.ErrorIs(t, err, ErrTitleRequired)
}

func TestCreateRejectsUnknownPriority(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)

	_, err := svc.Create(context.Background(), CreateInput{
		Title:      "Review payroll",
		AssigneeID: uuid.New(),
		AssignerID: uuid.New(),
		Priority:   Priority("critical"),
	})
	require.ErrorIs(t, err, ErrInvalidPriority)
}

func TestAdvanceToInProgressDefaultsProgress(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	assigneeID := uuid.New()
	created := createTask(t, svc, assigneeID)

	updated, err := svc.Advance(context.Background(), created.ID, assigneeID, StatusInProgress, nil)
	require.NoError(t, err)
	require.Equal(t, StatusInProgress, updated.Status)
	require.Equal(t, 25, updated.Progress)
}

func TestAdvanceToInProgressWithExplicitProgress(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	assigneeID := uuid.New()
	created := createTask(t, svc, assigneeID)

	pct := 60
	updated, err := svc.Advance(context.Background(), created.ID, assigneeID, StatusInProgress, &pct)
	require.NoError(t, err)
	require.Equal(t, 60, updated.Progress)
}

func TestAdvanceCompleteForcesProgressAndTimestamp(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	assigneeID := uuid.New()
	created := createTask(t, svc, assigneeID)
	ctx := context.Background()

	_, err := svc.Advance(ctx, created.ID, assigneeID, StatusInProgress, nil)
	require.NoError(t, err)

	pct := 40
	updated, err := svc.Advance(ctx, created.ID, assigneeID, StatusCompleted, &pct)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, updated.Status)
	require.Equal(t, 100, updated.Progress)
	require.NotNil(t, updated.CompletedAt)
}

func TestAdvanceSkippingInProgressFails(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	assigneeID := uuid.New()
	created := createTask(t, svc, assigneeID)

	_, err := svc.Advance(context.Background(), created.ID, assigneeID, StatusCompleted, nil)
	require.ErrorIs(t, err, ErrIllegalTransition)
}

func TestAdvanceByNonAssigneeFails(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	created := createTask(t, svc, uuid.New())

	_, err := svc.Advance(context.Background(), created.ID, uuid.New(), StatusInProgress, nil)
	require.ErrorIs(t, err, ErrNotAssignee)
}

func TestCancelFromTerminalStateFails(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	assigneeID := uuid.New()
	created := createTask(t, svc, assigneeID)
	ctx := context.Background()

	_, err := svc.Advance(ctx, created.ID, assigneeID, StatusInProgress, nil)
	require.NoError(t, err)
	_, err = svc.Advance(ctx, created.ID, assigneeID, StatusCompleted, nil)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, created.ID, uuid.New())
	require.ErrorIs(t, err, ErrIllegalTransition)
}

func TestCancelFromInProgress(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	assigneeID := uuid.New()
	created := createTask(t, svc, assigneeID)
	ctx := context.Background()

	_, err := svc.Advance(ctx, created.ID, assigneeID, StatusInProgress, nil)
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, created.ID, uuid.New())
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, cancelled.Status)
	require.Nil(t, cancelled.CompletedAt)
}

func TestCommentRejectsBlankText(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	created := createTask(t, svc, uuid.New())

	_, err := svc.Comment(context.Background(), created.ID, uuid.New(), "  \n ")
	require.ErrorIs(t, err, ErrEmptyComment)
}

func TestCommentThreadOrder(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	created := createTask(t, svc, uuid.New())
	ctx := context.Background()
	authorID := uuid.New()

	first, err := svc.Comment(ctx, created.ID, authorID, "started looking")
	require.NoError(t, err)
	second, err := svc.Comment(ctx, created.ID, authorID, "blocked on access")
	require.NoError(t, err)

	comments, err := svc.ListComments(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	require.Equal(t, first.ID, comments[0].ID)
	require.Equal(t, second.ID, comments[1].ID)
}

func TestCommentOnMissingTask(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)

	_, err := svc.Comment(context.Background(), uuid.New(), uuid.New(), "hello")
	require.ErrorIs(t, err, shared.ErrNotFound)
}
