// Package memory provides a process-local DurableStorage. State held here
// does not survive a restart; use it for development and tests.
package memory

import (
	"context"
	"sync"

	"github.com/lavanderia/ops-console/internal/core/ports"
)

type Storage struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewStorage() *Storage {
	return &Storage{data: make(map[string]string)}
}

func (s *Storage) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *Storage) Apply(_ context.Context, writes ...ports.StorageWrite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range writes {
		if w.Delete {
			delete(s.data, w.Key)
			continue
		}
		s.data[w.Key] = w.Value
	}
	return nil
}

func (s *Storage) Ping(context.Context) error { return nil }

func (s *Storage) Close() error { return nil }
