package db

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/lavanderia/ops-console/internal/infrastructure/db/memory"
	redisdb "github.com/lavanderia/ops-console/internal/infrastructure/db/redis"
)

func TestNewStorage_Drivers(t *testing.T) {
	s, err := NewStorage(context.Background(), StorageConfig{})
	if err != nil {
		t.Fatalf("default driver: %v", err)
	}
	if _, ok := s.(*memory.Storage); !ok {
		t.Fatalf("expected memory storage by default, got %T", s)
	}

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()

	s, err = NewStorage(context.Background(), StorageConfig{Driver: DriverRedis, Redis: redisdb.Config{Addr: mr.Addr()}})
	if err != nil {
		t.Fatalf("redis driver: %v", err)
	}
	defer s.Close()
	if _, ok := s.(*redisdb.Storage); !ok {
		t.Fatalf("expected redis storage, got %T", s)
	}

	if _, err := NewStorage(context.Background(), StorageConfig{Driver: "etcd"}); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
