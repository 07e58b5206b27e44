package employee

import (
	"time"

	"github.com/google/uuid"

	"github.com/peoplehub-hr/peoplehub/internal/shared"
)

// Status enumerates employee lifecycle states. Leaving active is terminal
// for login purposes; the ledgers keep referencing the employee either way.
type Status string

const (
	StatusActive     Status = "active"
	StatusInactive   Status = "inactive"
	StatusTerminated Status = "terminated"
)

// Employee model.
type Employee struct {
	ID           uuid.UUID
	Code         string
	FullName     string
	Email        string
	Phone        string
	Department   string
	Position     string
	Role         shared.Role
	Status       Status
	JoiningDate  time.Time
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateInput carries onboarding data.
type CreateInput struct {
	FullName    string
	Email       string
	Password    string
	Phone       string
	Department  string
	Position    string
	Role        shared.Role
	JoiningDate time.Time
	CreatedBy   uuid.UUID
}

// UpdateInput carries profile updates. Code, role and status change through
// dedicated operations.
type UpdateInput struct {
	FullName   string
	Phone      string
	Department string
	Position   string
	UpdatedBy  uuid.UUID
}

// ListFilter narrows directory listings.
type ListFilter struct {
	Status  Status
	Search  string
	Page    int
	PerPage int
}
