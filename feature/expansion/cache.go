package expansion

import (
	"context"
	"maps"
	"sync"
	"time"

	"collection-engine/core/snapshot"

	"golang.org/x/sync/singleflight"
)

type cacheEntry struct {
	toggles map[string]snapshot.ExpansionState
	built   time.Time
}

// CachedStore caches a Repository's loads for TTL. Writes go through to the
// repository and refresh the cached entry.
type CachedStore struct {
	next Repository
	ttl  time.Duration
	now  func() time.Time

	mu      sync.RWMutex
	entries map[string]cacheEntry
	sf      singleflight.Group
}

// NewCachedStore wraps next. A zero ttl disables caching.
func NewCachedStore(next Repository, ttl time.Duration) *CachedStore {
	return &CachedStore{
		next:    next,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

func (c *CachedStore) fresh(collectionID string) (map[string]snapshot.ExpansionState, bool) {
	c.mu.RLock()
	e, ok := c.entries[collectionID]
	c.mu.RUnlock()
	if !ok || c.ttl == 0 || c.now().Sub(e.built) > c.ttl {
		return nil, false
	}
	return e.toggles, true
}

func (c *CachedStore) put(collectionID string, toggles map[string]snapshot.ExpansionState) {
	if c.ttl == 0 {
		return
	}
	c.mu.Lock()
	c.entries[collectionID] = cacheEntry{toggles: maps.Clone(toggles), built: c.now()}
	c.mu.Unlock()
}

// Load implements Repository.
func (c *CachedStore) Load(ctx context.Context, collectionID string) (map[string]snapshot.ExpansionState, error) {
	if toggles, ok := c.fresh(collectionID); ok {
		return maps.Clone(toggles), nil
	}

	result, err, _ := c.sf.Do(collectionID, func() (interface{}, error) {
		if toggles, ok := c.fresh(collectionID); ok {
			return toggles, nil
		}
		toggles, err := c.next.Load(ctx, collectionID)
		if err != nil {
			return nil, err
		}
		c.put(collectionID, toggles)
		return toggles, nil
	})
	if err != nil {
		return nil, err
	}
	return maps.Clone(result.(map[string]snapshot.ExpansionState)), nil
}

// Save implements Repository.
func (c *CachedStore) Save(ctx context.Context, collectionID string, toggles map[string]snapshot.ExpansionState) error {
	if err := c.next.Save(ctx, collectionID, toggles); err != nil {
		c.Invalidate(collectionID)
		return err
	}
	c.put(collectionID, toggles)
	return nil
}

// Delete implements Repository.
func (c *CachedStore) Delete(ctx context.Context, collectionID string) error {
	c.Invalidate(collectionID)
	return c.next.Delete(ctx, collectionID)
}

// Invalidate drops the cached entry of a collection.
func (c *CachedStore) Invalidate(collectionID string) {
	c.mu.Lock()
	delete(c.entries, collectionID)
	c.mu.Unlock()
}
