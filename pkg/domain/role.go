package domain

import dErrors "facepos/pkg/domain-errors"

// Role determines which ledger operations an identity may invoke.
// Invariant: the value must be one of the supported roles.
type Role string

const (
	RoleCivilian Role = "civilian"
	RoleBusiness Role = "business"
	RoleBank     Role = "bank"
)

// validRoles is the single source of truth for supported roles.
var validRoles = map[Role]bool{
	RoleCivilian: true,
	RoleBusiness: true,
	RoleBank:     true,
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
func (r Role) IsValid() bool { return validRoles[r] }

// OverdraftExempt reports whether balances for this role may go negative.
// Only the issuing authority is exempt from the non-negative invariant.
func (r Role) OverdraftExempt() bool { return r == RoleBank }

// String returns the string representation of the role.
func (r Role) String() string { return string(r) }
