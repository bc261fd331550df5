package transcripts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Store backed by Redis, for deployments that need transcripts
// to survive a process restart or be shared across instances.
//
// Keys carry a TTL of expiry plus a grace window rather than the exact expiry,
// so a read inside the grace window can still distinguish "expired" from
// "never existed". After the grace window Redis reclaims the key and reads
// degrade to ErrNotFound, which callers already treat as "not available".
type RedisStore struct {
	rdb   *redis.Client
	grace time.Duration
	clock func() time.Time
}

const redisKeyPrefix = "transcript:"

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb, grace: 24 * time.Hour, clock: time.Now}
}

func (s *RedisStore) Put(ctx context.Context, e Entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("transcripts: marshal entry: %w", err)
	}
	ttl := e.ExpiresAt.Sub(s.clock().UTC()) + s.grace
	if ttl <= 0 {
		ttl = s.grace
	}
	ok, err := s.rdb.SetNX(ctx, redisKeyPrefix+e.ID, raw, ttl).Result()
	if err != nil {
		return fmt.Errorf("transcripts: redis put: %w", err)
	}
	if !ok {
		return ErrDuplicate
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (Entry, error) {
	raw, err := s.rdb.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("transcripts: redis get: %w", err)
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return Entry{}, fmt.Errorf("transcripts: unmarshal entry: %w", err)
	}
	if s.clock().UTC().After(e.ExpiresAt) {
		// DEL is idempotent; concurrent evictors are safe.
		if err := s.rdb.Del(ctx, redisKeyPrefix+id).Err(); err != nil {
			return Entry{}, fmt.Errorf("transcripts: redis evict: %w", err)
		}
		return Entry{}, ErrExpired
	}
	return e, nil
}

var _ Store = (*RedisStore)(nil)
