package domain

import "time"

// Role determines which incident transitions a user may perform.
type Role string

// User roles.
const (
	RoleAdministrator Role = "administrator"
	RoleSupervisor    Role = "supervisor"
	RoleTechnician    Role = "technician"
	RoleShiftLead     Role = "shift_lead"
)

// IsValid checks if the role is one of the defined values.
func (r Role) IsValid() bool {
	return r == RoleAdministrator || r == RoleSupervisor || r == RoleTechnician || r == RoleShiftLead
}

// User is an account known to the system. The incident engine only ever
// reads users; it receives an already verified Actor from the boundary.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	DisplayName  string    `json:"display_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// Actor is the verified identity performing an operation.
type Actor struct {
	ID   string
	Role Role
}
