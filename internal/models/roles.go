package models

import "fmt"

// Role is the stored account role.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleRegular Role = "regular"
)

// AllRoles returns every known role.
func AllRoles() []Role {
	return []Role{RoleAdmin, RoleRegular}
}

// ParseRole validates a raw role value.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleRegular:
		return Role(s), nil
	}
	return "", fmt.Errorf("%w: unknown role %q", ErrValidation, s)
}

func (r Role) String() string {
	return string(r)
}
