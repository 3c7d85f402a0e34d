package guard

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/lavanderia/ops-console/internal/core/domain"
	"github.com/lavanderia/ops-console/internal/core/ports"
	"github.com/lavanderia/ops-console/internal/core/session"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type gatedStorage struct {
	mu   sync.Mutex
	data map[string]string
	gate chan struct{}
}

func newGatedStorage() *gatedStorage {
	return &gatedStorage{data: make(map[string]string), gate: make(chan struct{})}
}

func (s *gatedStorage) open() { close(s.gate) }

func (s *gatedStorage) Get(ctx context.Context, key string) (string, bool, error) {
	select {
	case <-s.gate:
	case <-ctx.Done():
		return "", false, ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *gatedStorage) Apply(_ context.Context, writes ...ports.StorageWrite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range writes {
		if w.Delete {
			delete(s.data, w.Key)
		} else {
			s.data[w.Key] = w.Value
		}
	}
	return nil
}

func (s *gatedStorage) Ping(context.Context) error { return nil }
func (s *gatedStorage) Close() error               { return nil }

type recordingNavigator struct {
	mu     sync.Mutex
	routes []string
}

func (n *recordingNavigator) Navigate(route string) {
	n.mu.Lock()
	n.routes = append(n.routes, route)
	n.mu.Unlock()
}

func (n *recordingNavigator) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.routes)
}

func newStore(storage ports.DurableStorage, key string) *session.Store {
	return session.New(session.Options{
		Family:     "test",
		StorageKey: key,
		TokenKey:   key + "-token",
		Storage:    storage,
		Logger:     zerolog.Nop(),
	})
}

func identity(role domain.Role) *domain.Identity {
	return &domain.Identity{ID: "u-" + string(role), Name: "user", Role: role, IsActive: true}
}

var (
	adminConfig   = Config{Family: "admin", Roles: []domain.Role{domain.RoleAdmin}, LoginRoute: "/admin/login"}
	supportConfig = Config{Family: "support", Roles: []domain.Role{domain.RoleSupportAgent}, LoginRoute: "/support/login"}
)

// ---------------------------------------------------------------------------
// Evaluate
// ---------------------------------------------------------------------------

func TestEvaluate_NeverDecidesBeforeHydration(t *testing.T) {
	for _, authed := range []bool{false, true} {
		st := session.State{IsAuthenticated: authed, Hydrated: false}
		if authed {
			st.Identity = identity(domain.RoleAdmin)
			st.Token = "tok"
		}
		if d := Evaluate(st, adminConfig.Roles); d != Pending {
			t.Fatalf("authenticated=%v: expected pending, got %s", authed, d)
		}
	}
}

func TestEvaluate_Table(t *testing.T) {
	cases := []struct {
		name  string
		state session.State
		roles []domain.Role
		want  Decision
	}{
		{"logged out", session.State{Hydrated: true}, adminConfig.Roles, DeniedUnauthenticated},
		{"authenticated flag without identity", session.State{Hydrated: true, IsAuthenticated: true, Token: "t"}, adminConfig.Roles, DeniedUnauthenticated},
		{"admin on admin", session.State{Hydrated: true, IsAuthenticated: true, Token: "t", Identity: identity(domain.RoleAdmin)}, adminConfig.Roles, Granted},
		{"support on admin", session.State{Hydrated: true, IsAuthenticated: true, Token: "t", Identity: identity(domain.RoleSupportAgent)}, adminConfig.Roles, DeniedWrongRole},
		{"admin on support", session.State{Hydrated: true, IsAuthenticated: true, Token: "t", Identity: identity(domain.RoleAdmin)}, supportConfig.Roles, DeniedWrongRole},
		{"support on support", session.State{Hydrated: true, IsAuthenticated: true, Token: "t", Identity: identity(domain.RoleSupportAgent)}, supportConfig.Roles, Granted},
		{"no roles admits nobody", session.State{Hydrated: true, IsAuthenticated: true, Token: "t", Identity: identity(domain.RoleSuperAdmin)}, nil, DeniedWrongRole},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Evaluate(tc.state, tc.roles); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Decide
// ---------------------------------------------------------------------------

func TestDecide_WaitsForHydration(t *testing.T) {
	storage := newGatedStorage()
	store := newStore(storage, "admin")
	g := New(store, adminConfig, zerolog.Nop(), nil)
	store.Start(context.Background())

	result := make(chan Decision, 1)
	go func() { result <- g.Decide(context.Background()) }()

	select {
	case d := <-result:
		t.Fatalf("decided %s before hydration", d)
	case <-time.After(50 * time.Millisecond):
	}

	storage.open()
	select {
	case d := <-result:
		if d != DeniedUnauthenticated {
			t.Fatalf("expected denied_unauthenticated, got %s", d)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("decision never arrived")
	}
}

func TestDecide_CancelledWhilePending(t *testing.T) {
	store := newStore(newGatedStorage(), "admin")
	g := New(store, adminConfig, zerolog.Nop(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if d := g.Decide(ctx); d != Pending {
		t.Fatalf("expected pending on cancellation, got %s", d)
	}
}

// ---------------------------------------------------------------------------
// Mount
// ---------------------------------------------------------------------------

func TestMount_FreshProcessRedirectsOnceAfterHydration(t *testing.T) {
	storage := newGatedStorage()
	store := newStore(storage, "customer")
	g := New(store, Config{Family: "customer", Roles: []domain.Role{domain.RoleCustomer}, LoginRoute: "/auth/login"}, zerolog.Nop(), nil)
	nav := &recordingNavigator{}

	var seen []Decision
	unmount := g.Mount(nav, func(d Decision) { seen = append(seen, d) })
	defer unmount()

	store.Start(context.Background())
	if nav.count() != 0 {
		t.Fatalf("redirected before hydration")
	}

	storage.open()
	<-store.Ready()

	if nav.count() != 1 || nav.routes[0] != "/auth/login" {
		t.Fatalf("expected one redirect to /auth/login, got %v", nav.routes)
	}
	if len(seen) != 2 || seen[0] != Pending || seen[1] != DeniedUnauthenticated {
		t.Fatalf("expected pending then denied_unauthenticated, got %v", seen)
	}
}

func TestMount_WrongRoleFamilyNeverGrants(t *testing.T) {
	storage := newGatedStorage()
	seed := newStore(storage, "branch")
	seed.SetAuth(identity(domain.RoleAdmin), "tok")

	store := newStore(storage, "branch")
	g := New(store, Config{Family: "branch", Roles: []domain.Role{domain.RoleCenterAdmin}, LoginRoute: "/center-admin/login"}, zerolog.Nop(), nil)
	nav := &recordingNavigator{}
	var seen []Decision
	unmount := g.Mount(nav, func(d Decision) { seen = append(seen, d) })
	defer unmount()

	store.Start(context.Background())
	storage.open()
	<-store.Ready()

	if g.Current() != DeniedWrongRole {
		t.Fatalf("expected denied_wrong_role, got %s", g.Current())
	}
	if nav.count() != 1 || nav.routes[0] != "/center-admin/login" {
		t.Fatalf("expected one redirect to /center-admin/login, got %v", nav.routes)
	}
	for _, d := range seen {
		if d == Granted {
			t.Fatalf("branch content rendered for an admin identity")
		}
	}
}

func TestMount_LogoutRedrivesToLogin(t *testing.T) {
	storage := newGatedStorage()
	storage.open()
	store := newStore(storage, "admin")
	store.Rehydrate(context.Background())
	store.SetAuth(identity(domain.RoleAdmin), "tok")

	g := New(store, adminConfig, zerolog.Nop(), nil)
	nav := &recordingNavigator{}
	unmount := g.Mount(nav, nil)
	defer unmount()

	if g.Current() != Granted || nav.count() != 0 {
		t.Fatalf("expected granted without redirect")
	}

	store.Logout()
	store.Logout()
	if nav.count() != 1 {
		t.Fatalf("expected exactly one redirect after logout, got %d", nav.count())
	}

	store.SetAuth(identity(domain.RoleAdmin), "tok-2")
	store.Logout()
	if nav.count() != 2 {
		t.Fatalf("expected a new redirect after a new denial, got %d", nav.count())
	}
}

func TestMount_UnmountCancelsPendingRedirect(t *testing.T) {
	storage := newGatedStorage()
	store := newStore(storage, "admin")
	g := New(store, adminConfig, zerolog.Nop(), nil)
	nav := &recordingNavigator{}

	unmount := g.Mount(nav, nil)
	store.Start(context.Background())
	unmount()

	storage.open()
	<-store.Ready()

	if nav.count() != 0 {
		t.Fatalf("redirect fired after unmount: %v", nav.routes)
	}
}

type countingObserver struct {
	mu    sync.Mutex
	count map[Decision]int
}

func (o *countingObserver) Decided(_ string, d Decision) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.count == nil {
		o.count = make(map[Decision]int)
	}
	o.count[d]++
}

func TestDecide_ReportsToObserver(t *testing.T) {
	storage := newGatedStorage()
	storage.open()
	store := newStore(storage, "admin")
	store.Rehydrate(context.Background())
	obs := &countingObserver{}
	g := New(store, adminConfig, zerolog.Nop(), obs)

	g.Decide(context.Background())
	store.SetAuth(identity(domain.RoleAdmin), "tok")
	g.Decide(context.Background())

	if obs.count[DeniedUnauthenticated] != 1 || obs.count[Granted] != 1 {
		t.Fatalf("unexpected observer counts: %v", obs.count)
	}
}
