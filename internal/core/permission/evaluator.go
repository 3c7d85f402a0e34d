// Package permission answers capability questions about an identity.
package permission

import (
	"github.com/lavanderia/ops-console/internal/core/domain"
	"github.com/lavanderia/ops-console/internal/core/session"
)

// HasPermission reports whether identity may perform action on module.
// The super-role is always allowed; otherwise only an explicit true in the
// capability matrix grants access. A nil identity is never allowed.
func HasPermission(identity *domain.Identity, module domain.Module, action domain.Action) bool {
	if identity == nil {
		return false
	}
	if identity.Role.IsSuper() {
		return true
	}
	return identity.Capabilities.Allows(module, action)
}

// HasModuleAccess reports whether identity holds at least one action on module.
func HasModuleAccess(identity *domain.Identity, module domain.Module) bool {
	if identity == nil {
		return false
	}
	if identity.Role.IsSuper() {
		return true
	}
	return identity.Capabilities.AnyIn(module)
}

// Evaluator answers permission questions against the current identity of a
// session store. Unauthenticated or un-hydrated stores are denied everything.
type Evaluator struct {
	store *session.Store
}

// For binds an Evaluator to store.
func For(store *session.Store) Evaluator {
	return Evaluator{store: store}
}

func (e Evaluator) current() *domain.Identity {
	st := e.store.State()
	if !st.Hydrated || !st.IsAuthenticated {
		return nil
	}
	return st.Identity
}

// Can reports whether the current identity may perform action on module.
func (e Evaluator) Can(module domain.Module, action domain.Action) bool {
	return HasPermission(e.current(), module, action)
}

// CanAccess reports whether the current identity may see module at all.
func (e Evaluator) CanAccess(module domain.Module) bool {
	return HasModuleAccess(e.current(), module)
}
