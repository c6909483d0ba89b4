package db

import (
	"context"
	"time"
)

// Store is the key-value facade behind the embedding cache and the quota counters.
type Store interface {
	Pinger
	KVStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides the key-value operations docrag needs.
type KVStore interface {
	// Get returns ErrKeyNotFound for a missing key.
	Get(ctx context.Context, key string) ([]byte, error)
	// MGet returns one entry per key, nil where the key is missing.
	MGet(ctx context.Context, keys []string) ([][]byte, error)
	// Put stores value; ttl <= 0 stores without expiry.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// IncrWithExpiry adds delta and returns the new value. The ttl is applied only
	// when the key has none yet, so repeated increments keep the first deadline.
	IncrWithExpiry(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error)
}
