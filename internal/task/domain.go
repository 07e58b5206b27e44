package task

import (
	"time"

	"github.com/google/uuid"
)

// Priority enumerates task priorities.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether the priority is known.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Status enumerates the task state machine. The normal path moves forward
// through assigned -> in_progress -> completed; cancelled is an admin-only
// side exit from the two non-terminal states.
type Status string

const (
	StatusAssigned   Status = "assigned"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Progress written when a task moves to in_progress without an explicit value.
const defaultInProgressPercent = 25

// Task model.
type Task struct {
	ID          uuid.UUID
	Code        string
	Title       string
	Description string
	AssigneeID  uuid.UUID
	AssignerID  uuid.UUID
	Priority    Priority
	Status      Status
	Progress    int
	DueDate     *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
}

// Comment is an append-only child of a task. No edit or delete path exists.
type Comment struct {
	ID        uuid.UUID
	TaskID    uuid.UUID
	AuthorID  uuid.UUID
	Text      string
	CreatedAt time.Time
}

// CreateInput carries a new task assignment.
type CreateInput struct {
	Title       string
	Description string
	AssigneeID  uuid.UUID
	AssignerID  uuid.UUID
	Priority    Priority
	DueDate     *time.Time
}

// ListFilter narrows task listings.
type ListFilter struct {
	AssigneeID *uuid.UUID
	Status     Status
}
