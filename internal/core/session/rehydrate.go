package session

import (
	"context"
)

// Outcome describes how a rehydration pass ended.
type Outcome string

const (
	OutcomeRestored   Outcome = "restored"
	OutcomeEmpty      Outcome = "empty"
	OutcomeCorrupt    Outcome = "corrupt"
	OutcomeError      Outcome = "error"
	OutcomeSuperseded Outcome = "superseded"
)

// Start runs the rehydration pass in the background. Use Ready to wait for it.
func (s *Store) Start(ctx context.Context) {
	go s.Rehydrate(ctx)
}

// Ready is closed once the store has hydrated.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// Hydrated reports whether the rehydration pass has completed.
func (s *Store) Hydrated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Hydrated
}

// Rehydrate loads the persisted blob into the store and marks it hydrated.
// Only the first call does any work; later calls wait for it and return.
// Every path ends hydrated, including read failures and unparseable blobs.
func (s *Store) Rehydrate(ctx context.Context) {
	s.hydrateOnce.Do(func() { s.rehydrate(ctx) })
}

func (s *Store) rehydrate(ctx context.Context) {
	restored, outcome := s.load(ctx)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if s.mutated {
		// A login or logout already landed; it is fresher than the blob.
		outcome = OutcomeSuperseded
	} else {
		s.state.Identity = restored.Identity
		s.state.Token = restored.Token
		s.state.IsAuthenticated = restored.IsAuthenticated
	}
	s.setHasHydrated(true)
	snap := s.state.clone()
	s.mu.Unlock()

	// Rewrite blob and mirror so they agree with what was restored. A storage
	// that just failed to read is left alone.
	if outcome != OutcomeError && outcome != OutcomeSuperseded {
		s.persist(snap)
	}

	s.log.Info().
		Str("outcome", string(outcome)).
		Bool("authenticated", snap.IsAuthenticated).
		Msg("session rehydrated")
	s.obs.Rehydrated(s.family, outcome)
	s.notify(snap)
	s.signalReady()
}

func (s *Store) load(ctx context.Context) (State, Outcome) {
	readCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, found, err := s.storage.Get(readCtx, s.key)
	if err != nil {
		s.log.Warn().Err(err).Msg("read session blob; starting logged out")
		return State{}, OutcomeError
	}
	if !found || raw == "" {
		return State{}, OutcomeEmpty
	}

	st, err := decodeBlob(raw)
	if err != nil {
		s.log.Warn().Err(err).Msg("discarding unreadable session blob")
		return State{}, OutcomeCorrupt
	}
	if !st.IsAuthenticated {
		return State{}, OutcomeEmpty
	}
	return st, OutcomeRestored
}
