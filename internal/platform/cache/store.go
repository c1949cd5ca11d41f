package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const versionKey = "compro:public:version"

// Store caches public JSON responses in Redis. Entries are keyed by a global
// version which Bump increments after any successful admin mutation.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewStore instantiates the cache helper. A nil client disables caching.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Version returns the current cache version, initialising when missing.
func (s *Store) Version(ctx context.Context) (int64, error) {
	if s == nil || s.client == nil {
		return 0, nil
	}
	ver, err := s.client.Get(ctx, versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		if err := s.client.SetNX(ctx, versionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// Key composes the cache key with the current version.
func (s *Store) Key(ctx context.Context, parts ...string) (string, error) {
	joined := "compro:public:" + strings.Join(parts, ":")
	if s == nil || s.client == nil {
		return joined, nil
	}
	ver, err := s.Version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:v%d", joined, ver), nil
}

// FetchJSON loads a cached value or populates it using the loader. Concurrent
// misses on the same key share one loader call.
func (s *Store) FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("cache: loader required")
	}
	if s == nil || s.client == nil {
		return load(ctx, dest, loader)
	}
	payload, err := s.client.Get(ctx, key).Bytes()
	if err == nil {
		return json.Unmarshal(payload, dest)
	}
	if !errors.Is(err, redis.Nil) {
		// A cache outage degrades to a direct load.
		return load(ctx, dest, loader)
	}
	raw, err, _ := s.group.Do(key, func() (any, error) {
		value, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		_ = s.client.Set(ctx, key, data, s.ttl).Err()
		return data, nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(raw.([]byte), dest)
}

// Bump invalidates every cached entry by incrementing the version.
func (s *Store) Bump(ctx context.Context) error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Incr(ctx, versionKey).Err()
}

func load(ctx context.Context, dest any, loader func(context.Context) (any, error)) error {
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}
