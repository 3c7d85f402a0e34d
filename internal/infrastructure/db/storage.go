// Package db selects the durable storage backend for session state.
package db

import (
	"context"
	"fmt"

	"github.com/lavanderia/ops-console/internal/core/ports"
	"github.com/lavanderia/ops-console/internal/infrastructure/db/memory"
	redisdb "github.com/lavanderia/ops-console/internal/infrastructure/db/redis"
)

// Driver identifiers for session storage.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// StorageConfig describes which backend to build.
type StorageConfig struct {
	Driver string
	Prefix string
	Redis  redisdb.Config
}

// NewStorage builds the configured storage backend. An empty driver selects
// the in-memory backend.
func NewStorage(ctx context.Context, cfg StorageConfig) (ports.DurableStorage, error) {
	switch cfg.Driver {
	case "", DriverMemory:
		return memory.NewStorage(), nil
	case DriverRedis:
		client, err := redisdb.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("session storage: %w", err)
		}
		return redisdb.NewStorage(client, cfg.Prefix), nil
	default:
		return nil, fmt.Errorf("unsupported session storage driver: %s", cfg.Driver)
	}
}
