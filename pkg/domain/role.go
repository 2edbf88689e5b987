package domain

import dErrors "toolgate/pkg/domain-errors"

// Role is the single polymorphism axis for access decisions.
// Invariant: the value must be one of the supported roles.
//
// Usage: construct via ParseRole at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type Role string

// Supported roles.
const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// validRoles is the single source of truth for valid roles.
var validRoles = map[Role]bool{
	RoleUser:       true,
	RoleAdmin:      true,
	RoleSuperAdmin: true,
}

// ParseRole constructs a Role from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "role cannot be empty")
	}
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}
	return r, nil
}

// IsValid checks if the role is one of the supported enum values.
func (r Role) IsValid() bool {
	return validRoles[r]
}

// IsAdmin reports whether the role grants unconditional capability access.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Principal is an authenticated actor being evaluated for access or skill
// credit. Produced by the auth middleware; consumed by services as a value.
type Principal struct {
	ID    UserID
	Email string
	Role  Role
	// ExternalID is the principal's identifier in the external learning
	// platform, used for enrollment lookups. May be empty for principals
	// that never purchased a course.
	ExternalID string
}
