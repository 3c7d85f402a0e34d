// Package guard decides whether the current viewer of a role family may see
// a protected page, and redirects to the family's login route when not.
//
// No decision is made before the family's store has hydrated. Both denial
// kinds lead to the same login route with no further explanation.
package guard

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/lavanderia/ops-console/internal/core/domain"
	"github.com/lavanderia/ops-console/internal/core/session"
)

// Navigator performs a redirect.
type Navigator interface {
	Navigate(route string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(route string)

func (f NavigatorFunc) Navigate(route string) { f(route) }

// Observer is told about every decision a guard makes.
type Observer interface {
	Decided(family string, d Decision)
}

type nopObserver struct{}

func (nopObserver) Decided(string, Decision) {}

// Config parameterises a guard for one role family.
type Config struct {
	Family     string
	Roles      []domain.Role
	LoginRoute string
}

// Guard gates one role family.
type Guard struct {
	cfg   Config
	store *session.Store
	log   zerolog.Logger
	obs   Observer
}

// New builds a guard over store. obs may be nil.
func New(store *session.Store, cfg Config, log zerolog.Logger, obs Observer) *Guard {
	if obs == nil {
		obs = nopObserver{}
	}
	return &Guard{
		cfg:   cfg,
		store: store,
		log:   log.With().Str("component", "guard").Str("family", cfg.Family).Logger(),
		obs:   obs,
	}
}

// Family returns the role family name.
func (g *Guard) Family() string { return g.cfg.Family }

// LoginRoute returns where denied viewers are sent.
func (g *Guard) LoginRoute() string { return g.cfg.LoginRoute }

// Current evaluates the store as it is right now, without waiting.
func (g *Guard) Current() Decision {
	return Evaluate(g.store.State(), g.cfg.Roles)
}

// Decide waits for the store to hydrate and returns the decision for the
// state at that moment. If ctx ends first the result is Pending, and the
// caller must not redirect.
func (g *Guard) Decide(ctx context.Context) Decision {
	select {
	case <-g.store.Ready():
	case <-ctx.Done():
		return Pending
	}
	d := g.Current()
	g.obs.Decided(g.cfg.Family, d)
	return d
}

// Mount watches the store and keeps the decision current. nav is called
// exactly once each time the decision enters a denied state; onChange, if
// not nil, is called with every distinct decision, starting with the
// current one. The returned function detaches the watcher; no navigation
// happens after it returns.
func (g *Guard) Mount(nav Navigator, onChange func(Decision)) (unmount func()) {
	m := &mount{guard: g, nav: nav, onChange: onChange, last: -1}

	unsubscribe := g.store.Subscribe(func(session.State) { m.evaluate() })
	m.evaluate()

	return func() {
		m.mu.Lock()
		m.stopped = true
		m.mu.Unlock()
		unsubscribe()
	}
}

type mount struct {
	guard    *Guard
	nav      Navigator
	onChange func(Decision)

	mu      sync.Mutex
	last    Decision
	stopped bool
}

// evaluate re-reads the store rather than trusting the notified snapshot, so
// a late notification can never act on stale state.
func (m *mount) evaluate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}

	d := m.guard.Current()
	if d == m.last {
		return
	}
	prev := m.last
	m.last = d
	m.guard.obs.Decided(m.guard.cfg.Family, d)

	if m.onChange != nil {
		m.onChange(d)
	}
	if d.Denied() && !prev.Denied() {
		m.guard.log.Debug().Str("decision", d.String()).Str("route", m.guard.cfg.LoginRoute).Msg("redirecting to login")
		m.nav.Navigate(m.guard.cfg.LoginRoute)
	}
}
