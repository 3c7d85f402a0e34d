// Package family describes the console's role families and wires one
// session store and one guard per family over a shared durable storage.
package family

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lavanderia/ops-console/internal/core/domain"
	"github.com/lavanderia/ops-console/internal/core/guard"
	"github.com/lavanderia/ops-console/internal/core/ports"
	"github.com/lavanderia/ops-console/internal/core/session"
)

const (
	Customer   = "customer"
	Admin      = "admin"
	Branch     = "branch"
	Support    = "support"
	SuperAdmin = "superadmin"
)

// Family parameterises the shared store and guard implementation.
type Family struct {
	Name       string
	Roles      []domain.Role
	BasePath   string
	LoginRoute string
	StorageKey string
	TokenKey   string
}

// Defaults returns the five role families of the console.
func Defaults() []Family {
	return []Family{
		{
			Name:       Customer,
			Roles:      []domain.Role{domain.RoleCustomer},
			BasePath:   "/app",
			LoginRoute: "/auth/login",
			StorageKey: "auth-storage",
			TokenKey:   "token",
		},
		{
			Name:       Admin,
			Roles:      []domain.Role{domain.RoleAdmin},
			BasePath:   "/admin",
			LoginRoute: "/admin/login",
			StorageKey: "admin-auth-storage",
			TokenKey:   "adminToken",
		},
		{
			Name:       Branch,
			Roles:      []domain.Role{domain.RoleCenterAdmin},
			BasePath:   "/center-admin",
			LoginRoute: "/center-admin/login",
			StorageKey: "center-admin-auth-storage",
			TokenKey:   "centerAdminToken",
		},
		{
			Name:       Support,
			Roles:      []domain.Role{domain.RoleSupportAgent},
			BasePath:   "/support",
			LoginRoute: "/support/login",
			StorageKey: "support-auth-storage",
			TokenKey:   "supportToken",
		},
		{
			Name:       SuperAdmin,
			Roles:      []domain.Role{domain.RoleSuperAdmin},
			BasePath:   "/superadmin",
			LoginRoute: "/superadmin/login",
			StorageKey: "superadmin-auth-storage",
			TokenKey:   "superadminToken",
		},
	}
}

// Member is a role family together with its live store and guard.
type Member struct {
	Family
	Store *session.Store
	Guard *guard.Guard
}

// Observer combines the signals stores and guards emit.
type Observer interface {
	session.Observer
	guard.Observer
}

// Registry owns every family's store and guard.
type Registry struct {
	members []*Member
	byName  map[string]*Member
	storage ports.DurableStorage
}

// Options configures NewRegistry.
type Options struct {
	Families []Family
	Storage  ports.DurableStorage
	Logger   zerolog.Logger
	Observer Observer
	// StoreOptions are applied to every store; Family, keys, storage, logger
	// and observer are filled in per family.
	StoreOptions session.Options
}

// NewRegistry builds an independent store and guard for each family.
func NewRegistry(opts Options) (*Registry, error) {
	families := opts.Families
	if len(families) == 0 {
		families = Defaults()
	}
	r := &Registry{
		byName:  make(map[string]*Member, len(families)),
		storage: opts.Storage,
	}
	keys := make(map[string]string)
	for _, f := range families {
		if f.Name == "" || f.LoginRoute == "" || f.StorageKey == "" || f.TokenKey == "" {
			return nil, fmt.Errorf("family %q: name, login route and storage keys are required", f.Name)
		}
		if _, dup := r.byName[f.Name]; dup {
			return nil, fmt.Errorf("family %q declared twice", f.Name)
		}
		for _, k := range []string{f.StorageKey, f.TokenKey} {
			if owner, taken := keys[k]; taken {
				return nil, fmt.Errorf("family %q: storage key %q already used by %q", f.Name, k, owner)
			}
			keys[k] = f.Name
		}

		so := opts.StoreOptions
		so.Family = f.Name
		so.StorageKey = f.StorageKey
		so.TokenKey = f.TokenKey
		so.Storage = opts.Storage
		so.Logger = opts.Logger
		if opts.Observer != nil {
			so.Observer = opts.Observer
		}
		store := session.New(so)

		var gobs guard.Observer
		if opts.Observer != nil {
			gobs = opts.Observer
		}
		g := guard.New(store, guard.Config{
			Family:     f.Name,
			Roles:      f.Roles,
			LoginRoute: f.LoginRoute,
		}, opts.Logger, gobs)

		m := &Member{Family: f, Store: store, Guard: g}
		r.members = append(r.members, m)
		r.byName[f.Name] = m
	}
	return r, nil
}

// StartAll begins the rehydration pass of every store.
func (r *Registry) StartAll(ctx context.Context) {
	for _, m := range r.members {
		m.Store.Start(ctx)
	}
}

// Lookup finds a family by name.
func (r *Registry) Lookup(name string) (*Member, error) {
	m, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownFamily, name)
	}
	return m, nil
}

// All returns the members in declaration order.
func (r *Registry) All() []*Member {
	return r.members
}

// AllHydrated reports whether every store has finished rehydrating.
func (r *Registry) AllHydrated() bool {
	for _, m := range r.members {
		if !m.Store.Hydrated() {
			return false
		}
	}
	return true
}

// Storage returns the shared durable storage.
func (r *Registry) Storage() ports.DurableStorage {
	return r.storage
}
