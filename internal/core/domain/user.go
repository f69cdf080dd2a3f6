package domain

import "time"

// Role determines which parts of the tracker a user may operate on.
type Role string

const (
	// RoleFarmer can register produce lots and review their own shipments.
	RoleFarmer Role = "farmer"
	// RoleTransporter can update shipment movement state.
	RoleTransporter Role = "transporter"
	// RoleAdmin has full access to the tracker.
	RoleAdmin Role = "admin"
)

// Valid reports whether the role is one of the known tracker roles.
func (r Role) Valid() bool {
	switch r {
	case RoleFarmer, RoleTransporter, RoleAdmin:
		return true
	}
	return false
}

// User represents a tracker account.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	IsActive     bool
	RegisteredAt time.Time
	LastLogin    *time.Time
}
