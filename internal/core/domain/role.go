package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role is the closed set of principals the console knows about.
type Role string

const (
	RoleCustomer     Role = "customer"
	RoleAdmin        Role = "admin"
	RoleCenterAdmin  Role = "center_admin"
	RoleSupportAgent Role = "support_agent"
	RoleSuperAdmin   Role = "superadmin"
)

// roleAliases maps legacy role names sent by older API versions to their
// canonical role.
var roleAliases = map[string]Role{
	"branch_manager": RoleCenterAdmin,
	"super_admin":    RoleSuperAdmin,
}

// ParseRole normalises s into a known Role.
func ParseRole(s string) (Role, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if alias, ok := roleAliases[v]; ok {
		return alias, nil
	}
	r := Role(v)
	if !r.Valid() {
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidIdentity, s)
	}
	return r, nil
}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleAdmin, RoleCenterAdmin, RoleSupportAgent, RoleSuperAdmin:
		return true
	}
	return false
}

// IsSuper reports whether r bypasses capability checks.
func (r Role) IsSuper() bool {
	return r == RoleSuperAdmin
}

func (r Role) String() string {
	return string(r)
}

// UnmarshalJSON rejects unknown roles so that a decoded identity always
// carries a member of the closed set.
func (r *Role) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
