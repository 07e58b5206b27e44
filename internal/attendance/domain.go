package attendance

import (
	"time"

	"github.com/google/uuid"
)

// Status enumerates attendance session statuses. Check-in writes present;
// absent rows come from the nightly marking job; check-out downgrades short
// sessions to half_day. late exists for manual HR corrections.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
	StatusHalfDay Status = "half_day"
)

// Session is one attendance record per employee per calendar date.
// WorkHours stays nil until check-out and is immutable afterwards.
type Session struct {
	ID         uuid.UUID
	EmployeeID uuid.UUID
	Date       time.Time
	CheckIn    *time.Time
	CheckOut   *time.Time
	WorkHours  *float64
	Status     Status
	CreatedAt  time.Time
}

// ListFilter narrows session listings. EmployeeID nil means all employees;
// the caller boundary restricts non-admins to their own ID.
type ListFilter struct {
	EmployeeID *uuid.UUID
	From       time.Time
	To         time.Time
}

// Summary aggregates sessions over a range for dashboards.
type Summary struct {
	PresentDays    int
	AbsentDays     int
	TotalWorkHours float64
}
