// Package session holds the per-role-family persisted session store and its
// one-shot rehydration lifecycle.
//
// A Store is explicit state: construct one per role family with New. Reads
// never block on storage; mutations update memory first, then write the
// durable blob and the flat token mirror in a single storage batch.
package session

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lavanderia/ops-console/internal/core/domain"
	"github.com/lavanderia/ops-console/internal/core/ports"
)

const defaultTimeout = 3 * time.Second

// State is a snapshot of a store.
//
// IsAuthenticated implies Identity != nil and Token != "". Hydrated starts
// false and flips to true once per store; nothing should trust
// IsAuthenticated before that.
type State struct {
	Identity        *domain.Identity
	Token           string
	IsAuthenticated bool
	Hydrated        bool
}

func (s State) clone() State {
	s.Identity = s.Identity.Clone()
	return s
}

// Observer receives store lifecycle signals, typically for metrics.
type Observer interface {
	StoreMutated(family, op string)
	PersistFailed(family string)
	Rehydrated(family string, outcome Outcome)
}

type nopObserver struct{}

func (nopObserver) StoreMutated(string, string) {}
func (nopObserver) PersistFailed(string)        {}
func (nopObserver) Rehydrated(string, Outcome)  {}

// Options configures a Store.
type Options struct {
	Family     string
	StorageKey string
	TokenKey   string
	Storage    ports.DurableStorage
	Logger     zerolog.Logger
	// Timeout bounds every storage call. Defaults to 3s.
	Timeout  time.Duration
	Observer Observer
}

// Store is the persisted session container of one role family.
type Store struct {
	family   string
	key      string
	tokenKey string
	storage  ports.DurableStorage
	log      zerolog.Logger
	timeout  time.Duration
	obs      Observer

	// writeMu serialises mutations, persistence and notifications so that
	// storage and subscribers see changes in the order they happened.
	writeMu sync.Mutex

	mu      sync.RWMutex
	state   State
	mutated bool

	hydrateOnce sync.Once
	readyOnce   sync.Once
	ready       chan struct{}

	subMu  sync.Mutex
	subs   map[uint64]func(State)
	nextID uint64
}

// New builds an un-hydrated store. Call Start or Rehydrate to load it.
func New(opts Options) *Store {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	obs := opts.Observer
	if obs == nil {
		obs = nopObserver{}
	}
	return &Store{
		family:   opts.Family,
		key:      opts.StorageKey,
		tokenKey: opts.TokenKey,
		storage:  opts.Storage,
		log:      opts.Logger.With().Str("component", "session").Str("family", opts.Family).Logger(),
		timeout:  timeout,
		obs:      obs,
		ready:    make(chan struct{}),
		subs:     make(map[uint64]func(State)),
	}
}

// Family returns the role family this store belongs to.
func (s *Store) Family() string {
	return s.family
}

// State returns a snapshot. The identity is a copy.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// SetAuth records a successful login. A nil identity or empty token is
// ignored, leaving the store unchanged.
func (s *Store) SetAuth(identity *domain.Identity, token string) {
	if identity == nil || token == "" {
		s.log.Warn().Bool("has_identity", identity != nil).Msg("setAuth called without identity or token; ignored")
		return
	}
	s.mutate("set_auth", func(st *State) bool {
		st.Identity = identity.Clone()
		st.Token = token
		st.IsAuthenticated = true
		return true
	})
}

// Logout clears the identity, the token and the flat mirror. Calling it on a
// logged-out store is a no-op apart from re-clearing storage.
func (s *Store) Logout() {
	s.mutate("logout", func(st *State) bool {
		st.Identity = nil
		st.Token = ""
		st.IsAuthenticated = false
		return true
	})
}

// UpdateUser merges patch into the current identity. It does nothing when no
// identity is held.
func (s *Store) UpdateUser(patch domain.IdentityPatch) {
	s.mutate("update_user", func(st *State) bool {
		if st.Identity == nil {
			return false
		}
		next := st.Identity.Clone()
		next.Apply(patch)
		st.Identity = next
		return true
	})
}

func (s *Store) mutate(op string, fn func(st *State) bool) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if !fn(&s.state) {
		s.mu.Unlock()
		return
	}
	if !s.state.Hydrated {
		s.mutated = true
	}
	snap := s.state.clone()
	s.mu.Unlock()

	s.persist(snap)
	s.obs.StoreMutated(s.family, op)
	s.notify(snap)
}

// setHasHydrated flips the hydration flag. Must be called with s.mu held.
func (s *Store) setHasHydrated(v bool) {
	s.state.Hydrated = v
}

func (s *Store) signalReady() {
	s.readyOnce.Do(func() { close(s.ready) })
}

// Subscribe registers fn to run after every change. fn runs synchronously on
// the mutating goroutine and must not mutate the store.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Store) notify(snap State) {
	s.subMu.Lock()
	fns := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(snap.clone())
	}
}
