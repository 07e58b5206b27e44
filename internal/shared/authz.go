package shared

// Role is the capability tag resolved once at the session boundary.
// Ledger operations branch on it instead of comparing raw strings.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

// Valid reports whether the role is one of the known tags.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleEmployee
}

// IsAdmin reports whether the role grants administrative operations.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}
