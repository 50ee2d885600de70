package cache

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LRU bounds memoized results that can always be rebuilt from reflection.
// It wraps hashicorp's implementation so callers get the same GetOrBuild
// shape as Store.
type LRU[K comparable, V any] struct {
	cache *lru.Cache[K, V]
	mu    sync.Mutex
}

func NewLRU[K comparable, V any](size int) *LRU[K, V] {
	c, _ := lru.New[K, V](size)
	return &LRU[K, V]{cache: c}
}

// NewLRUWithEvict registers a callback invoked for every evicted entry.
func NewLRUWithEvict[K comparable, V any](size int, onEvict func(K, V)) *LRU[K, V] {
	c, _ := lru.NewWithEvict(size, onEvict)
	return &LRU[K, V]{cache: c}
}

func (l *LRU[K, V]) Get(key K) (V, bool) {
	return l.cache.Get(key)
}

func (l *LRU[K, V]) Add(key K, value V) {
	l.cache.Add(key, value)
}

// GetOrBuild returns the cached value for key, building it on a miss.
// Builds for the same key are serialized so a burst of misses does one build.
func (l *LRU[K, V]) GetOrBuild(key K, build func() (V, error)) (V, error) {
	if v, ok := l.cache.Get(key); ok {
		return v, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if v, ok := l.cache.Get(key); ok {
		return v, nil
	}

	v, err := build()
	if err != nil {
		var zero V
		return zero, err
	}
	l.cache.Add(key, v)
	return v, nil
}

func (l *LRU[K, V]) Len() int {
	return l.cache.Len()
}

func (l *LRU[K, V]) Purge() {
	l.cache.Purge()
}
