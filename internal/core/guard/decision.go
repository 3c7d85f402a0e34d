package guard

import (
	"slices"

	"github.com/lavanderia/ops-console/internal/core/domain"
	"github.com/lavanderia/ops-console/internal/core/session"
)

// Decision is the state of a route guard for one input snapshot.
type Decision int

const (
	// Pending means the store has not hydrated; nothing may be decided yet.
	Pending Decision = iota
	DeniedUnauthenticated
	DeniedWrongRole
	Granted
)

func (d Decision) String() string {
	switch d {
	case Pending:
		return "pending"
	case DeniedUnauthenticated:
		return "denied_unauthenticated"
	case DeniedWrongRole:
		return "denied_wrong_role"
	case Granted:
		return "granted"
	default:
		return "unknown"
	}
}

// Denied reports whether d must send the viewer to the login route.
func (d Decision) Denied() bool {
	return d == DeniedUnauthenticated || d == DeniedWrongRole
}

// Evaluate is the guard's pure decision function over a store snapshot.
// An empty roles list admits nobody.
func Evaluate(st session.State, roles []domain.Role) Decision {
	if !st.Hydrated {
		return Pending
	}
	if !st.IsAuthenticated || st.Identity == nil {
		return DeniedUnauthenticated
	}
	if !slices.Contains(roles, st.Identity.Role) {
		return DeniedWrongRole
	}
	return Granted
}
