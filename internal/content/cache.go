package content

import (
	"context"
	"net/url"
)

// Cache is the public response cache.
type Cache interface {
	Key(ctx context.Context, parts ...string) (string, error)
	FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error
}

// Cached returns the value for parts from c, computing it with load on a miss.
// A nil cache calls load directly.
func Cached[T any](ctx context.Context, c Cache, load func(context.Context) (T, error), parts ...string) (T, error) {
	var out T
	if c == nil {
		return load(ctx)
	}
	key, err := c.Key(ctx, parts...)
	if err != nil {
		return load(ctx)
	}
	err = c.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		return load(ctx)
	})
	return out, err
}

// QueryKey normalises q for use as a cache key part.
func QueryKey(q url.Values) string {
	if len(q) == 0 {
		return "-"
	}
	return q.Encode()
}
