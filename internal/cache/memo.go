package cache

import (
	"golang.org/x/sync/singleflight"
)

// Memo fronts an expensive computation with a Cache. Concurrent misses for
// the same key share one call to the loader.
type Memo[T any] struct {
	cache Cache[T]
	group singleflight.Group
}

func NewMemo[T any](c Cache[T]) *Memo[T] {
	return &Memo[T]{cache: c}
}

// Get returns the cached value for key or computes, stores and returns it.
// Loader errors are returned and nothing is cached.
func (m *Memo[T]) Get(key string, load func() (T, error)) (T, error) {
	if v, ok := m.cache.Get(key); ok {
		return v, nil
	}
	v, err, _ := m.group.Do(key, func() (any, error) {
		if v, ok := m.cache.Get(key); ok {
			return v, nil
		}
		v, err := load()
		if err != nil {
			return nil, err
		}
		m.cache.Set(key, v)
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Purge forgets every cached value.
func (m *Memo[T]) Purge() {
	m.cache.Purge()
}
