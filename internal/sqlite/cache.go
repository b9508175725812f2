package sqlite

import "sync"

// cachedSet holds one lazily loaded value. loaded distinguishes "never
// loaded" from "loaded and empty".
type cachedSet[T any] struct {
	mu     sync.RWMutex
	loaded bool
	value  T
}

// getOrLoad returns the cached value, calling load at most once until the
// next clear. A failed load leaves the set unloaded.
func (c *cachedSet[T]) getOrLoad(load func() (T, error)) (T, error) {
	c.mu.RLock()
	if c.loaded {
		v := c.value
		c.mu.RUnlock()
		return v, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return c.value, nil
	}
	v, err := load()
	if err != nil {
		var zero T
		return zero, err
	}
	c.value = v
	c.loaded = true
	return v, nil
}

func (c *cachedSet[T]) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	c.value = zero
	c.loaded = false
}
