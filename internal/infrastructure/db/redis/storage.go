package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/lavanderia/ops-console/internal/core/ports"
)

const defaultPrefix = "console:"

// Storage keeps session blobs and token mirrors in Redis.
// Key format: <prefix><storage key>, no expiry.
type Storage struct {
	client *redis.Client
	prefix string
}

// NewStorage wraps client. An empty prefix falls back to "console:".
func NewStorage(client *redis.Client, prefix string) *Storage {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Storage{client: client, prefix: prefix}
}

// Get returns the value stored under key, if any.
func (s *Storage) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("storage get %s: %w", key, err)
	}
	return v, true, nil
}

// Apply commits all writes inside a MULTI/EXEC transaction.
func (s *Storage) Apply(ctx context.Context, writes ...ports.StorageWrite) error {
	if len(writes) == 0 {
		return nil
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, w := range writes {
			if w.Delete {
				pipe.Del(ctx, s.key(w.Key))
				continue
			}
			pipe.Set(ctx, s.key(w.Key), w.Value, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("storage apply: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (s *Storage) Close() error {
	return s.client.Close()
}

func (s *Storage) key(k string) string {
	return s.prefix + k
}
