package engine

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedEngine memoises compiled patterns by their exact source text.
// Compiled patterns are immutable, so sharing them never changes results;
// cursors are still created per call.
type CachedEngine struct {
	inner Engine
	cache *lru.Cache[string, Pattern]
}

// Cached wraps inner with an LRU cache holding up to size compiled patterns.
func Cached(inner Engine, size int) (*CachedEngine, error) {
	if inner == nil {
		return nil, fmt.Errorf("cached engine: inner engine is nil")
	}
	c, err := lru.New[string, Pattern](size)
	if err != nil {
		return nil, fmt.Errorf("cached engine: %w", err)
	}
	return &CachedEngine{inner: inner, cache: c}, nil
}

// MustCached is like Cached but panics on error.
func MustCached(inner Engine, size int) *CachedEngine {
	c, err := Cached(inner, size)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *CachedEngine) Name() string { return c.inner.Name() }

// Compile returns the cached pattern for source text, compiling it on a miss.
// Compile failures are not cached.
func (c *CachedEngine) Compile(pattern string) (Pattern, error) {
	if p, ok := c.cache.Get(pattern); ok {
		return p, nil
	}
	p, err := c.inner.Compile(pattern)
	if err != nil {
		return nil, err
	}
	c.cache.Add(pattern, p)
	return p, nil
}

// Len returns the number of cached patterns.
func (c *CachedEngine) Len() int { return c.cache.Len() }

// Purge drops every cached pattern.
func (c *CachedEngine) Purge() { c.cache.Purge() }

// Unwrap returns the engine doing the actual compilation.
func (c *CachedEngine) Unwrap() Engine { return c.inner }
