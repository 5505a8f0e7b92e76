package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"sdnscreen/internal/sdn/models"
	"sdnscreen/pkg/platform/circuit"
	"sdnscreen/pkg/platform/sentinel"
)

// KVStore is the byte cache CachedStore reads through. Get returns
// sentinel.ErrCacheMiss for an absent key.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisKV adapts a go-redis client to KVStore.
type RedisKV struct {
	client redis.UniversalClient
}

func NewRedisKV(client redis.UniversalClient) *RedisKV {
	return &RedisKV{client: client}
}

func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrCacheMiss
	}
	return b, err
}

func (r *RedisKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

// CachedStore decorates a Store with a read-through cache for Get. Keys carry
// the active snapshot ID, so a publish makes every older entry unreachable.
// Cache faults are logged and fall back to the wrapped store.
// Repeated cache faults open a circuit breaker; while it is open reads go
// straight to the wrapped store.
type CachedStore struct {
	Store
	kv      KVStore
	ttl     time.Duration
	logger  *slog.Logger
	breaker *circuit.Breaker
}

type CacheOption func(*CachedStore)

func WithBreaker(b *circuit.Breaker) CacheOption {
	return func(c *CachedStore) {
		c.breaker = b
	}
}

func NewCachedStore(inner Store, kv KVStore, ttl time.Duration, logger *slog.Logger, opts ...CacheOption) *CachedStore {
	if logger == nil {
		logger = slog.Default()
	}
	c := &CachedStore{
		Store:   inner,
		kv:      kv,
		ttl:     ttl,
		logger:  logger,
		breaker: circuit.New("sdn-entry-cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EntryKey is the cache key of one record within a snapshot.
func EntryKey(snapshotID fmt.Stringer, entryID int64) string {
	return fmt.Sprintf("sdn:entry:%s:%d", snapshotID, entryID)
}

func (c *CachedStore) Get(ctx context.Context, entryID int64) (*models.Record, error) {
	snapshotID, err := c.Store.ActiveID(ctx)
	if err != nil {
		return nil, err
	}
	key := EntryKey(snapshotID, entryID)

	if c.breaker.Allow() {
		raw, err := c.kv.Get(ctx, key)
		switch {
		case err == nil:
			c.cacheSucceeded(ctx)
			var rec models.Record
			if err := json.Unmarshal(raw, &rec); err == nil {
				return &rec, nil
			}
			c.logger.WarnContext(ctx, "discarding undecodable cache entry", "key", key)
		case errors.Is(err, sentinel.ErrCacheMiss):
			c.cacheSucceeded(ctx)
		default:
			c.cacheFailed(ctx, "entry cache read failed", key, err)
		}
	}

	rec, err := c.Store.Get(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if !c.breaker.Allow() {
		return rec, nil
	}
	if data, err := json.Marshal(rec); err == nil {
		if err := c.kv.Set(ctx, key, data, c.ttl); err != nil {
			c.cacheFailed(ctx, "entry cache write failed", key, err)
		}
	}
	return rec, nil
}

func (c *CachedStore) cacheSucceeded(ctx context.Context) {
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.InfoContext(ctx, "entry cache recovered", "breaker", c.breaker.Name())
	}
}

func (c *CachedStore) cacheFailed(ctx context.Context, msg, key string, err error) {
	_, change := c.breaker.RecordFailure()
	c.logger.WarnContext(ctx, msg, "key", key, "error", err)
	if change.Opened {
		c.logger.ErrorContext(ctx, "entry cache bypassed after repeated failures", "breaker", c.breaker.Name())
	}
}
