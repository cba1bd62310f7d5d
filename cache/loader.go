package cache

import (
	"context"
	"encoding/json"
	"fmt"
)

// LoadFunc fetches the authoritative value on a cache miss.
type LoadFunc func(ctx context.Context) ([]byte, error)

// Loader is a read-through cache. Load errors are returned to the caller and
// never cached.
type Loader struct {
	cache  Cache
	keyer  Keyer
	policy Policy
}

// NewLoader creates a read-through loader.
func NewLoader(cache Cache, keyer Keyer, policy Policy) (*Loader, error) {
	if cache == nil {
		return nil, ErrNilCache
	}
	if keyer == nil {
		keyer = NewHashKeyer("")
	}
	return &Loader{cache: cache, keyer: keyer, policy: policy}, nil
}

// Get returns the cached value for (namespace, params) or calls load and
// caches its result.
func (l *Loader) Get(ctx context.Context, namespace string, params any, load LoadFunc) ([]byte, error) {
	if !l.policy.ShouldCache() {
		return load(ctx)
	}

	key, err := l.keyer.Key(namespace, params)
	if err != nil {
		return load(ctx)
	}

	if cached, ok := l.cache.Get(ctx, key); ok {
		return cached, nil
	}

	value, err := load(ctx)
	if err != nil {
		return nil, err
	}
	_ = l.cache.Set(ctx, key, value, l.policy.EffectiveTTL(0))
	return value, nil
}

// Invalidate drops the entry for (namespace, params).
func (l *Loader) Invalidate(ctx context.Context, namespace string, params any) error {
	key, err := l.keyer.Key(namespace, params)
	if err != nil {
		return err
	}
	return l.cache.Delete(ctx, key)
}

// GetJSON is Get for JSON-encoded values.
func GetJSON[T any](ctx context.Context, l *Loader, namespace string, params any, load func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	raw, err := l.Get(ctx, namespace, params, func(ctx context.Context) ([]byte, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(v)
	})
	if err != nil {
		return zero, err
	}

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, fmt.Errorf("cache: decode %s: %w", namespace, err)
	}
	return out, nil
}
