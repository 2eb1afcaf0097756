// Package cache tracks the snapshot generation used to key cached
// responses. Every committed mutation bumps the generation, which makes
// all responses cached under the previous one unreachable.
package cache

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// Generation is a Redis counter. A nil *Generation or one without a client
// is valid and always reports generation 0.
type Generation struct {
	rdb *redis.Client
	key string
}

// NewGeneration returns a counter stored under prefix + ":gen".
func NewGeneration(rdb *redis.Client, prefix string) *Generation {
	if prefix == "" {
		prefix = "cache"
	}
	return &Generation{rdb: rdb, key: prefix + ":gen"}
}

// Current returns the current generation. A missing key is generation 0.
func (g *Generation) Current(ctx context.Context) (int64, error) {
	if g == nil || g.rdb == nil {
		return 0, nil
	}
	n, err := g.rdb.Get(ctx, g.key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// Bump advances the generation.
func (g *Generation) Bump(ctx context.Context) error {
	if g == nil || g.rdb == nil {
		return nil
	}
	return g.rdb.Incr(ctx, g.key).Err()
}
