package leave

import (
	"time"

	"github.com/google/uuid"
)

// Yearly allotments seeded when a balance row is first created.
const (
	DefaultSickDays   = 10
	DefaultCasualDays = 12
	DefaultEarnedDays = 15
)

// Category enumerates leave categories. unpaid carries no balance.
type Category string

const (
	CategorySick   Category = "sick"
	CategoryCasual Category = "casual"
	CategoryEarned Category = "earned"
	CategoryUnpaid Category = "unpaid"
)

// Valid reports whether the category is known.
func (c Category) Valid() bool {
	switch c {
	case CategorySick, CategoryCasual, CategoryEarned, CategoryUnpaid:
		return true
	}
	return false
}

// RequestStatus enumerates the approval state machine. pending moves to
// approved or rejected exactly once; both are terminal.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
)

// Request is one leave application.
type Request struct {
	ID              uuid.UUID
	EmployeeID      uuid.UUID
	Category        Category
	FromDate        time.Time
	ToDate          time.Time
	TotalDays       int
	Reason          string
	Status          RequestStatus
	ApproverID      *uuid.UUID
	DecidedAt       *time.Time
	RejectionReason *string
	CreatedAt       time.Time
}

// Balance is the yearly entitlement per employee. Counts never go negative;
// deductions floor at zero.
type Balance struct {
	EmployeeID uuid.UUID
	Year       int
	Sick       int
	Casual     int
	Earned     int
}

// Remaining returns the balance field for the category, false for unpaid.
func (b Balance) Remaining(c Category) (int, bool) {
	switch c {
	case CategorySick:
		return b.Sick, true
	case CategoryCasual:
		return b.Casual, true
	case CategoryEarned:
		return b.Earned, true
	}
	return 0, false
}

// SubmitInput carries a new leave application.
type SubmitInput struct {
	EmployeeID uuid.UUID
	Category   Category
	FromDate   time.Time
	ToDate     time.Time
	Reason     string
}

// Outcome is a terminal decision on a pending request.
type Outcome string

const (
	OutcomeApproved Outcome = "approved"
	OutcomeRejected Outcome = "rejected"
)

// ListFilter narrows request listings.
type ListFilter struct {
	EmployeeID *uuid.UUID
	Status     RequestStatus
}

// CategoryTotal is the approved-day total per employee/category, produced
// for the balance reconciliation job.
type CategoryTotal struct {
	EmployeeID uuid.UUID
	Category   Category
	Days       int
}
