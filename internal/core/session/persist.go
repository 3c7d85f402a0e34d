package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lavanderia/ops-console/internal/core/domain"
	"github.com/lavanderia/ops-console/internal/core/ports"
)

// Version is written into every persisted blob. Blobs carrying another
// version are discarded on rehydration.
const Version = 0

var errInvariant = errors.New("authenticated blob without identity, role or token")

// blob is the durable shape: {"state": {...}, "version": N}.
type blob struct {
	State   persistedState `json:"state"`
	Version int            `json:"version"`
}

type persistedState struct {
	Identity        *domain.Identity `json:"identity"`
	Token           *string          `json:"token"`
	IsAuthenticated bool             `json:"isAuthenticated"`
}

func encodeBlob(st State) (string, error) {
	b := blob{
		State: persistedState{
			Identity:        st.Identity,
			IsAuthenticated: st.IsAuthenticated,
		},
		Version: Version,
	}
	if st.Token != "" {
		tok := st.Token
		b.State.Token = &tok
	}
	raw, err := json.Marshal(b)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// decodeBlob parses a persisted blob into a state (without the hydration
// flag). Any error means the blob must be treated as absent.
func decodeBlob(raw string) (State, error) {
	var b blob
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		return State{}, fmt.Errorf("decode blob: %w", err)
	}
	if b.Version != Version {
		return State{}, fmt.Errorf("decode blob: version %d, want %d", b.Version, Version)
	}
	if !b.State.IsAuthenticated {
		return State{}, nil
	}
	id := b.State.Identity
	if id == nil || id.ID == "" || !id.Role.Valid() || b.State.Token == nil || *b.State.Token == "" {
		return State{}, errInvariant
	}
	return State{
		Identity:        b.State.Identity,
		Token:           *b.State.Token,
		IsAuthenticated: true,
	}, nil
}

// persist writes the blob and the flat mirror in one batch. Failures are
// logged and counted; callers never see them.
func (s *Store) persist(st State) {
	raw, err := encodeBlob(st)
	if err != nil {
		s.log.Error().Err(err).Msg("encode session blob")
		s.obs.PersistFailed(s.family)
		return
	}

	writes := []ports.StorageWrite{{Key: s.key, Value: raw}}
	if st.Token != "" {
		writes = append(writes, ports.StorageWrite{Key: s.tokenKey, Value: st.Token})
	} else {
		writes = append(writes, ports.StorageWrite{Key: s.tokenKey, Delete: true})
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.storage.Apply(ctx, writes...); err != nil {
		s.log.Warn().Err(err).Msg("persist session; change will not survive a restart")
		s.obs.PersistFailed(s.family)
	}
}
