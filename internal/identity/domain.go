package identity

import (
	"github.com/google/uuid"

	"github.com/peoplehub-hr/peoplehub/internal/shared"
)

// Identity is the resolved caller: stable ID plus the role tag the ledgers
// use for authorization decisions.
type Identity struct {
	EmployeeID uuid.UUID
	Code       string
	FullName   string
	Role       shared.Role
}

// credential is the private projection of an employee row needed to
// authenticate. The directory module owns the full record.
type credential struct {
	ID           uuid.UUID
	Code         string
	FullName     string
	PasswordHash string
	Role         shared.Role
	Status       string
}
