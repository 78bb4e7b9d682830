package account

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RolePatient Role = "Patient"
	RoleDoctor  Role = "Doctor"
	RoleAdmin   Role = "Admin"
)

// ParseRole maps a raw role string onto a known Role.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RolePatient, RoleDoctor, RoleAdmin:
		return Role(s), true
	}
	return "", false
}

type Account struct {
	ID        uuid.UUID
	FirstName string
	LastName  string
	Email     string
	Role      Role

	// Doctor-only fields.
	Specialty  *string
	Experience *int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Actor is the authenticated identity invoking an operation. The HTTP layer
// builds it from the bearer token; the core only ever sees role + id.
type Actor struct {
	ID   uuid.UUID
	Role Role
}
