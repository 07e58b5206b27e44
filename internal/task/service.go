package task

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
	ErrInvalidPriority   = errors.New("unknown task priority")
	ErrIllegalTransition = errors.New("task status transition not allowed")
	ErrNotAssignee       = errors.New("only the assignee may advance a task")
	ErrEmptyComment      = errors.New("comment text must not be blank")
	ErrTitleRequired     = errors.New("task title must not be blank")
)

// Service owns the task progress state machine and its comment threads.
type Service struct {
	repo     Repository
	activity shared.Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs a new Service.
func NewService(repo Repository, activity shared.Recorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, activity: activity, logger: logger, now: time.Now}
}

// Create assigns a new task with the next sequential code, status assigned
// and progress 0. Admin-only; the boundary enforces the role.
func (s *Service) Create(ctx context.Context, input CreateInput) (Task, error) {
	if strings.TrimSpace(input.Title) == "" {
		return Task{}, ErrTitleRequired
	}
	if !input.Priority.Valid() {
		return Task{}, ErrInvalidPriority
	}

	t := Task{
		ID:          uuid.New(),
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		AssigneeID:  input.AssigneeID,
		AssignerID:  input.AssignerID,
		Priority:    input.Priority,
		Status:      StatusAssigned,
		Progress:    0,
		DueDate:     input.DueDate,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		code, err := tx.NextTaskCode(ctx)
		if err != nil {
			return err
		}
		t.Code = code
		return tx.Insert(ctx, t)
	})
	if err != nil {
		return Task{}, err
	}
	s.recordActivity(ctx, input.AssignerID, "Assigned task "+t.Code, t.ID)
	return s.repo.Get(ctx, t.ID)
}

// Advance moves a task forward on the normal path. Legal transitions:
// assigned -> in_progress (progress defaults to 25 when not supplied) and
// in_progress -> completed (progress forced to 100, completion timestamp
// set). Everything else fails with ErrIllegalTransition. Only the assignee
// may advance.
func (s *Service) Advance(ctx context.Context, taskID, actorID uuid.UUID, newStatus Status, progress *int) (Task, error) {
	t, err := s.repo.Get(ctx, taskID)
	if err != nil {
		return Task{}, err
	}
	if t.AssigneeID != actorID {
		return Task{}, ErrNotAssignee
	}

	var pct int
	var completedAt *time.Time
	switch {
	case t.Status == StatusAssigned && newStatus == StatusInProgress:
		pct = defaultInProgressPercent
		if progress != nil && *progress > 0 && *progress < 100 {
			pct = *progress
		}
	case t.Status == StatusInProgress && newStatus == StatusCompleted:
		pct = 100
		now := s.now().UTC()
		completedAt = &now
	default:
		return Task{}, ErrIllegalTransition
	}

	if err := s.repo.Transition(ctx, taskID, t.Status, newStatus, pct, completedAt); err != nil {
		return Task{}, err
	}
	s.recordActivity(ctx, actorID, "Updated task status to "+string(newStatus), taskID)
	return s.repo.Get(ctx, taskID)
}

// Cancel is the admin-only side exit, legal from assigned or in_progress.
func (s *Service) Cancel(ctx context.Context, taskID, actorID uuid.UUID) (Task, error) {
	t, err := s.repo.Get(ctx, taskID)
	if err != nil {
		return Task{}, err
	}
	if t.Status != StatusAssigned && t.Status != StatusInProgress {
		return Task{}, ErrIllegalTransition
	}
	if err := s.repo.Transition(ctx, taskID, t.Status, StatusCancelled, t.Progress, nil); err != nil {
		return Task{}, err
	}
	s.recordActivity(ctx, actorID, "Cancelled task "+t.Code, taskID)
	return s.repo.Get(ctx, taskID)
}

// Comment appends to the task's thread without touching the task itself.
func (s *Service) Comment(ctx context.Context, taskID, authorID uuid.UUID, text string) (Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Comment{}, ErrEmptyComment
	}
	if _, err := s.repo.Get(ctx, taskID); err != nil {
		return Comment{}, err
	}
	c := Comment{
		ID:        uuid.New(),
		TaskID:    taskID,
		AuthorID:  authorID,
		Text:      text,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.InsertComment(ctx, c); err != nil {
		return Comment{}, err
	}
	s.recordActivity(ctx, authorID, "Commented on task", taskID)
	return c, nil
}

// ListComments returns the thread in creation order, oldest first.
func (s *Service) ListComments(ctx context.Context, taskID uuid.UUID) ([]Comment, error) {
	return s.repo.ListComments(ctx, taskID)
}

// Get fetches one task.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Task, error) {
	return s.repo.Get(ctx, id)
}

// List returns tasks matching the filter, newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Task, error) {
	return s.repo.List(ctx, filter)
}

// CountByStatus aggregates task counts, optionally per assignee.
func (s *Service) CountByStatus(ctx context.Context, assigneeID *uuid.UUID) (map[Status]int, error) {
	return s.repo.CountByStatus(ctx, assigneeID)
}

func (s *Service) recordActivity(ctx context.Context, employeeID uuid.UUID, action string, entityID uuid.UUID) {
	if s.activity == nil {
		return
	}
	entry := shared.ActivityEntry{EmployeeID: employeeID, Action: action, Entity: "task", EntityID: &entityID}
	if err := s.activity.Record(ctx, entry); err != nil {
		s.logger.Warn("record activity", slog.Any("error", err))
	}
}
