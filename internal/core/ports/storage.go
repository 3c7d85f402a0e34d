package ports

import "context"

// StorageWrite is a single key mutation inside an atomic batch.
type StorageWrite struct {
	Key    string
	Value  string
	Delete bool
}

// DurableStorage is the key/value backend holding persisted session blobs and
// flat token mirrors. Apply must commit all writes or none.
type DurableStorage interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Apply(ctx context.Context, writes ...StorageWrite) error
	Ping(ctx context.Context) error
	Close() error
}
