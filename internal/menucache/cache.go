// Package menucache memoizes extracted week texts, including negative
// results, for the lifetime of the process.
package menucache

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/starford/oxmenu/internal/models"
)

// Entry is a cached week. Found is false for a week known to be
// unavailable; Text is then empty.
type Entry struct {
	Text     string    `json:"-"`
	Found    bool      `json:"found"`
	Source   string    `json:"source,omitempty"`
	Checksum string    `json:"checksum,omitempty"`
	StoredAt time.Time `json:"stored_at"`
}

// ComputeFunc loads a week on cache miss. It must not panic.
type ComputeFunc func(ctx context.Context) Entry

// StoreHook is called after an entry is written.
type StoreHook func(key models.WeekKey, e Entry)

// Cache maps week keys to entries. Entries are never overwritten or
// expired; Reset is the only way to drop them.
//
// compute runs at most once per key: concurrent misses for the same key
// share one flight, and the flight re-checks the map before computing.
type Cache struct {
	mu      sync.RWMutex
	entries map[models.WeekKey]Entry
	group   singleflight.Group
	onStore StoreHook
}

// New creates an empty Cache.
func New() *Cache {
	return &Cache{entries: make(map[models.WeekKey]Entry)}
}

// OnStore registers a hook invoked after each write.
func (c *Cache) OnStore(h StoreHook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onStore = h
}

// Get returns the entry for key without computing.
func (c *Cache) Get(key models.WeekKey) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e, ok
}

// GetOrCompute returns the stored entry for key, computing and storing it
// on the first miss.
func (c *Cache) GetOrCompute(ctx context.Context, key models.WeekKey, compute ComputeFunc) Entry {
	if e, ok := c.Get(key); ok {
		return e
	}

	v, _, _ := c.group.Do(key.String(), func() (any, error) {
		if e, ok := c.Get(key); ok {
			return e, nil
		}
		e := compute(ctx)
		if e.StoredAt.IsZero() {
			e.StoredAt = time.Now()
		}

		c.mu.Lock()
		c.entries[key] = e
		hook := c.onStore
		c.mu.Unlock()

		if hook != nil {
			hook(key, e)
		}
		return e, nil
	})
	return v.(Entry)
}

// Reset drops all entries.
func (c *Cache) Reset() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	c.entries = make(map[models.WeekKey]Entry)
	return n
}

// Len returns the number of cached weeks.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// KeyedEntry pairs an entry with its key.
type KeyedEntry struct {
	Key models.WeekKey `json:"key"`
	Entry
}

// Entries returns a snapshot ordered by year and week.
func (c *Cache) Entries() []KeyedEntry {
	c.mu.RLock()
	out := make([]KeyedEntry, 0, len(c.entries))
	for k, e := range c.entries {
		out = append(out, KeyedEntry{Key: k, Entry: e})
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Key.Year != out[j].Key.Year {
			return out[i].Key.Year < out[j].Key.Year
		}
		return out[i].Key.Week < out[j].Key.Week
	})
	return out
}
