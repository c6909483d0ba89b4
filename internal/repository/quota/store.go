package quota

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/docrag/internal/db"
)

// store is the consumer interface for quota counters (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	IncrWithExpiry(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error)
}

// Store persists daily LLM quota counters. Counters expire on their own
// once their day is over, so nothing ever deletes them.
type Store struct {
	kv  store
	ttl time.Duration
}

// New creates a quota store. ttl must outlive one UTC day (48h is used in production).
func New(kv store, ttl time.Duration) *Store {
	return &Store{kv: kv, ttl: ttl}
}

// IncrBy adds val to the counter and returns the new total.
func (s *Store) IncrBy(ctx context.Context, key string, val int64) (int64, error) {
	total, err := s.kv.IncrWithExpiry(ctx, key, val, s.ttl)
	if err != nil {
		return total, fmt.Errorf("quota incr %s: %w", key, err)
	}
	return total, nil
}

// Get returns the counter value, 0 if the key does not exist.
func (s *Store) Get(ctx context.Context, key string) (int64, error) {
	data, err := s.kv.Get(ctx, key)
	if errors.Is(err, db.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("quota get %s: %w", key, err)
	}

	val, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("quota get %s: parse %q: %w", key, data, err)
	}
	return val, nil
}
