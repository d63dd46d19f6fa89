// Package cache keeps recently read property rows in Redis so detail pages
// do not hit Postgres on every view.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/raderre/cresite/internal/model"
	"github.com/raderre/cresite/internal/store"
)

// keyPrefix namespaces every key this package writes.
const keyPrefix = "cresite:property:"

// PropertyCache stores individual property rows by ID. Get returns
// (nil, nil) on a miss.
type PropertyCache interface {
	Get(ctx context.Context, id string) (*model.Property, error)
	Set(ctx context.Context, p *model.Property) error
	Invalidate(ctx context.Context, id string) error
}

// RedisCache implements PropertyCache on a Redis server with a fixed TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ PropertyCache = (*RedisCache)(nil)

func NewRedisCache(addr, password string, db int, ttl time.Duration) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisCache{client: client, ttl: ttl}
}

// Ping checks that the server is reachable.
func (r *RedisCache) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

func (r *RedisCache) Get(ctx context.Context, id string) (*model.Property, error) {
	data, err := r.client.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s: %w", id, err)
	}
	var p model.Property
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode cached property %s: %w", id, err)
	}
	return &p, nil
}

func (r *RedisCache) Set(ctx context.Context, p *model.Property) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode property %s: %w", p.ID, err)
	}
	return r.client.Set(ctx, keyPrefix+p.ID, data, r.ttl).Err()
}

func (r *RedisCache) Invalidate(ctx context.Context, id string) error {
	return r.client.Del(ctx, keyPrefix+id).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

// Store wraps a store.Store so that GetProperty reads through the cache and
// property mutations evict the cached row. Cache failures are logged and
// never surface to callers.
type Store struct {
	store.Store
	cache PropertyCache
}

// Wrap returns s with property reads cached in c.
func Wrap(s store.Store, c PropertyCache) *Store {
	return &Store{Store: s, cache: c}
}

func (s *Store) GetProperty(ctx context.Context, id string) (*model.Property, error) {
	if p, err := s.cache.Get(ctx, id); err != nil {
		slog.Warn("property cache read failed", "id", id, "error", err)
	} else if p != nil {
		return p, nil
	}

	p, err := s.Store.GetProperty(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, p); err != nil {
		slog.Warn("property cache write failed", "id", id, "error", err)
	}
	return p, nil
}

func (s *Store) UpdateProperty(ctx context.Context, p *model.Property) error {
	if err := s.Store.UpdateProperty(ctx, p); err != nil {
		return err
	}
	s.evict(ctx, p.ID)
	return nil
}

func (s *Store) DeleteProperty(ctx context.Context, id string) error {
	if err := s.Store.DeleteProperty(ctx, id); err != nil {
		return err
	}
	s.evict(ctx, id)
	return nil
}

// RunInTransaction hands fn a transactional store whose property mutations
// also evict. Reads inside the transaction bypass the cache.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	return s.Store.RunInTransaction(ctx, func(tx store.Store) error {
		return fn(&txStore{Store: tx, parent: s})
	})
}

func (s *Store) evict(ctx context.Context, id string) {
	if err := s.cache.Invalidate(ctx, id); err != nil {
		slog.Warn("property cache invalidate failed", "id", id, "error", err)
	}
}

type txStore struct {
	store.Store
	parent *Store
}

func (t *txStore) UpdateProperty(ctx context.Context, p *model.Property) error {
	if err := t.Store.UpdateProperty(ctx, p); err != nil {
		return err
	}
	t.parent.evict(ctx, p.ID)
	return nil
}

func (t *txStore) DeleteProperty(ctx context.Context, id string) error {
	if err := t.Store.DeleteProperty(ctx, id); err != nil {
		return err
	}
	t.parent.evict(ctx, id)
	return nil
}
