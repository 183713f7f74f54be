package domain

import (
	"strings"

	dErrors "casedesk/pkg/domain-errors"
)

// Role is the reviewing function an actor performs in the account-opening
// pipeline. Authorization is always checked against a Role, never a user id.
type Role string

const (
	RoleRM         Role = "RM"
	RoleChecker    Role = "CHECKER"
	RoleCompliance Role = "COMPLIANCE"
	RoleGM         Role = "GM"
	RoleAdmin      Role = "ADMIN"
)

var validRoles = map[Role]bool{
	RoleRM:         true,
	RoleChecker:    true,
	RoleCompliance: true,
	RoleGM:         true,
	RoleAdmin:      true,
}

// ParseRole accepts role names case-insensitively.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if r == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "role cannot be empty")
	}
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}
	return r, nil
}

func (r Role) IsValid() bool {
	return validRoles[r]
}

func (r Role) String() string {
	return string(r)
}

// DisplayName is the label shown to reviewers in notifications.
func (r Role) DisplayName() string {
	switch r {
	case RoleRM:
		return "Relationship Manager"
	case RoleChecker:
		return "Checker"
	case RoleCompliance:
		return "Compliance"
	case RoleGM:
		return "General Manager"
	case RoleAdmin:
		return "Administrator"
	default:
		return "Unknown"
	}
}

// Actor is the resolved caller of a core operation. The core never validates
// credentials; it trusts the Actor placed in the request context.
type Actor struct {
	ID   string
	Name string
	Role Role
}

// IsZero reports whether no actor was resolved.
func (a Actor) IsZero() bool {
	return a.ID == ""
}

// Label is the human-readable identity recorded in activity entries.
func (a Actor) Label() string {
	if a.Name != "" {
		return a.Name
	}
	return a.ID
}
