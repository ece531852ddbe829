// SPDX-License-Identifier: MIT
/*
Package cache implements the bounded, least-recently-used memo for
per-chunk analysis results.

The cache holds both an entry-count budget and a byte budget; eviction
runs until both hold. It exclusively owns inserted entries and drops all
references on eviction, so evicted spectra become collectable. Mutation
is serialized under a single mutex, which keeps the LRU bookkeeping
correct when parallel pipelines share one instance.

The cache is an optimization, never a correctness dependency: Put never
fails, and an entry too large for the whole byte budget is simply
declined and recomputed by the caller next time.
*/
package cache

import (
	"container/list"
	"sync"

	"github.com/JaclynCodes/Symphonic-Joules/internal/signal"
)

// Entry is one memoized analysis result: the energy metrics for a chunk
// and, when spectral analysis ran, the spectrum they were derived from.
type Entry struct {
	Metrics  signal.EnergyMetrics
	Spectrum *signal.SpectrumResult
}

// Cost returns the entry's byte-budget charge.
func (e *Entry) Cost() int {
	const header = 120 // entry struct, list element, map slot
	cost := header
	if e.Spectrum != nil {
		cost += e.Spectrum.SizeBytes()
	}
	return cost
}

// Stats reports cache effectiveness counters. Values only ever grow.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

type record struct {
	key   signal.CacheKey
	entry *Entry
	cost  int
}

// Cache is a mutex-guarded LRU over chunk fingerprints.
type Cache struct {
	mu         sync.Mutex
	maxEntries int
	maxBytes   int
	costBytes  int
	order      *list.List // Front is most recently used.
	index      map[signal.CacheKey]*list.Element
	stats      Stats
}

// New creates a cache bounded by maxEntries and maxBytes; whichever
// budget is hit first triggers eviction. Non-positive bounds disable
// that budget.
func New(maxEntries, maxBytes int) *Cache {
	return &Cache{
		maxEntries: maxEntries,
		maxBytes:   maxBytes,
		order:      list.New(),
		index:      make(map[signal.CacheKey]*list.Element),
	}
}

// Get returns the entry for key, promoting it to most recently used.
// Absence is not an error; the second return reports presence.
func (c *Cache) Get(key signal.CacheKey) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.index[key]
	if !ok {
		c.stats.Misses++
		return nil, false
	}
	c.order.MoveToFront(el)
	c.stats.Hits++
	return el.Value.(*record).entry, true
}

// Put inserts or replaces the entry for key, promoting it to most
// recently used and evicting least-recently-used entries until both
// budgets hold. An entry whose own cost exceeds the byte budget is
// declined; the caller recomputes instead of the cache thrashing.
func (c *Cache) Put(key signal.CacheKey, entry *Entry) {
	cost := entry.Cost()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxBytes > 0 && cost > c.maxBytes {
		return
	}

	if el, ok := c.index[key]; ok {
		rec := el.Value.(*record)
		c.costBytes += cost - rec.cost
		rec.entry = entry
		rec.cost = cost
		c.order.MoveToFront(el)
	} else {
		rec := &record{key: key, entry: entry, cost: cost}
		c.index[key] = c.order.PushFront(rec)
		c.costBytes += cost
	}

	for c.overBudget() {
		c.evictOldest()
	}
}

// Clear empties the cache, releasing all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.index = make(map[signal.CacheKey]*list.Element)
	c.costBytes = 0
}

// Len returns the current entry count.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// CostBytes returns the current byte-budget charge of all entries.
func (c *Cache) CostBytes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.costBytes
}

// Stats returns a snapshot of the hit/miss/eviction counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// overBudget and evictOldest require c.mu held.

func (c *Cache) overBudget() bool {
	if c.order.Len() == 0 {
		return false
	}
	if c.maxEntries > 0 && c.order.Len() > c.maxEntries {
		return true
	}
	return c.maxBytes > 0 && c.costBytes > c.maxBytes
}

func (c *Cache) evictOldest() {
	el := c.order.Back()
	if el == nil {
		return
	}
	rec := el.Value.(*record)
	c.order.Remove(el)
	delete(c.index, rec.key)
	c.costBytes -= rec.cost
	rec.entry = nil // Drop the reference so large spectra are collectable.
	c.stats.Evictions++
}
