package redis

import (
	"context"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/docrag/internal/db"
)

// Get retrieves a value by key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.do(ctx, s.b().Get().Key(key).Build()).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, db.ErrKeyNotFound
		}
		return nil, &db.Error{Op: db.OpGet, Key: key, Err: err}
	}
	return data, nil
}

// MGet pipelines one GET per key. Pipelining instead of MGET keeps keys from
// different cluster slots in one round trip.
func (s *Store) MGet(ctx context.Context, keys []string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	cmds := make([]rueidis.Completed, len(keys))
	for i, key := range keys {
		cmds[i] = s.b().Get().Key(key).Build()
	}

	out := make([][]byte, len(keys))
	for i, res := range s.client.DoMulti(ctx, cmds...) {
		data, err := res.AsBytes()
		if rueidis.IsRedisNil(err) {
			continue
		}
		if err != nil {
			return nil, &db.Error{Op: db.OpMGet, Key: keys[i], Err: err}
		}
		out[i] = data
	}
	return out, nil
}

// Put stores value at key. A non-positive ttl stores without expiry.
func (s *Store) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	// builders are single-use
	var cmd rueidis.Completed
	if ttl > 0 {
		cmd = s.b().Set().Key(key).Value(rueidis.BinaryString(value)).Ex(ttl).Build()
	} else {
		cmd = s.b().Set().Key(key).Value(rueidis.BinaryString(value)).Build()
	}
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpSet, Key: key, Err: err}
	}
	return nil
}

// IncrWithExpiry sends INCRBY and EXPIRE NX in one pipeline.
// A ttl under one second sends INCRBY alone: EXPIRE 0 would delete the key.
func (s *Store) IncrWithExpiry(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	incr := s.b().Incrby().Key(key).Increment(delta).Build()
	secs := int64(ttl / time.Second)
	if secs <= 0 {
		val, err := s.do(ctx, incr).AsInt64()
		if err != nil {
			return 0, &db.Error{Op: db.OpIncrBy, Key: key, Err: err}
		}
		return val, nil
	}

	res := s.client.DoMulti(ctx, incr, s.b().Expire().Key(key).Seconds(secs).Nx().Build())
	val, err := res[0].AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpIncrBy, Key: key, Err: err}
	}
	if err := res[1].Error(); err != nil {
		return val, &db.Error{Op: db.OpExpire, Key: key, Err: err}
	}
	return val, nil
}
