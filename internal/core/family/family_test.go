package family

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/lavanderia/ops-console/internal/core/domain"
	"github.com/lavanderia/ops-console/internal/core/guard"
	"github.com/lavanderia/ops-console/internal/core/ports"
)

type memStorage struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemStorage() *memStorage {
	return &memStorage{data: make(map[string]string)}
}

func (m *memStorage) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memStorage) Apply(_ context.Context, writes ...ports.StorageWrite) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range writes {
		if w.Delete {
			delete(m.data, w.Key)
		} else {
			m.data[w.Key] = w.Value
		}
	}
	return nil
}

func (m *memStorage) Ping(context.Context) error { return nil }
func (m *memStorage) Close() error               { return nil }

func TestNewRegistry_Defaults(t *testing.T) {
	r, err := NewRegistry(Options{Storage: newMemStorage(), Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if len(r.All()) != 5 {
		t.Fatalf("expected 5 families, got %d", len(r.All()))
	}
	for _, name := range []string{Customer, Admin, Branch, Support, SuperAdmin} {
		if _, err := r.Lookup(name); err != nil {
			t.Fatalf("Lookup(%s): %v", name, err)
		}
	}
	if _, err := r.Lookup("janitor"); !errors.Is(err, domain.ErrUnknownFamily) {
		t.Fatalf("expected ErrUnknownFamily, got %v", err)
	}
}

func TestNewRegistry_RejectsSharedKeys(t *testing.T) {
	fams := Defaults()
	fams[1].TokenKey = fams[0].TokenKey
	if _, err := NewRegistry(Options{Families: fams, Storage: newMemStorage(), Logger: zerolog.Nop()}); err == nil {
		t.Fatalf("expected an error for shared storage keys")
	}
}

func TestNewRegistry_RejectsIncompleteFamily(t *testing.T) {
	fams := []Family{{Name: "ghost", Roles: []domain.Role{domain.RoleAdmin}}}
	if _, err := NewRegistry(Options{Families: fams, Storage: newMemStorage(), Logger: zerolog.Nop()}); err == nil {
		t.Fatalf("expected an error for a family without routes or keys")
	}
}

func TestRegistry_FamiliesAreIndependent(t *testing.T) {
	r, err := NewRegistry(Options{Storage: newMemStorage(), Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	r.StartAll(context.Background())
	for _, m := range r.All() {
		<-m.Store.Ready()
	}
	if !r.AllHydrated() {
		t.Fatalf("expected every store hydrated")
	}

	admin, _ := r.Lookup(Admin)
	support, _ := r.Lookup(Support)
	admin.Store.SetAuth(&domain.Identity{ID: "a", Role: domain.RoleAdmin}, "tok")

	if admin.Guard.Current() != guard.Granted {
		t.Fatalf("expected admin granted, got %s", admin.Guard.Current())
	}
	if support.Store.State().IsAuthenticated {
		t.Fatalf("admin login leaked into the support store")
	}
	if support.Guard.Current() != guard.DeniedUnauthenticated {
		t.Fatalf("expected support denied, got %s", support.Guard.Current())
	}
}
