package auth

import (
	"fmt"
	"strings"
)

// Role is a global trust level. Roles are strictly ordered.
type Role int

const (
	RoleGuest Role = iota
	RoleTeam
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleTeam:
		return "team"
	case RoleAdmin:
		return "admin"
	default:
		return "guest"
	}
}

// AtLeast reports whether r meets the min threshold.
func (r Role) AtLeast(min Role) bool {
	return r >= min
}

// ParseRole parses a role name.
func ParseRole(value string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "guest", "":
		return RoleGuest, nil
	case "team":
		return RoleTeam, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return RoleGuest, fmt.Errorf("invalid role %q", value)
	}
}

// Resolver maps a presented credential to a Role.
type Resolver struct {
	Team  Secret
	Admin Secret
}

// Resolve returns the role granted by credential. The admin secret is checked
// first; anything unmatched, including an empty credential, is a guest.
func (r Resolver) Resolve(credential string) Role {
	if credential == "" {
		return RoleGuest
	}
	if r.Admin.Matches(credential) {
		return RoleAdmin
	}
	if r.Team.Matches(credential) {
		return RoleTeam
	}
	return RoleGuest
}
