package app

import (
	"sync"
	"time"
)

// DedupCache remembers the last successful send per client.
// Entries count for the calendar day they were written on, not for a rolling 24h window.
type DedupCache struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

func NewDedupCache() *DedupCache {
	return &DedupCache{entries: make(map[string]time.Time)}
}

// WasNotifiedToday reports whether clientID already received a message on today's date.
func (c *DedupCache) WasNotifiedToday(clientID string, today time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	at, ok := c.entries[clientID]
	return ok && SameDay(at, today)
}

// MarkNotified records a successful send, replacing any previous entry for the client.
func (c *DedupCache) MarkNotified(clientID string, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[clientID] = at
}

// PurgeStale drops every entry dated before today and returns how many were removed.
func (c *DedupCache) PurgeStale(today time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	midnight := StartOfDay(today)
	removed := 0
	for id, at := range c.entries {
		if at.Before(midnight) {
			delete(c.entries, id)
			removed++
		}
	}
	return removed
}

// CountOn returns how many clients were notified on the given day.
func (c *DedupCache) CountOn(day time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, at := range c.entries {
		if SameDay(at, day) {
			n++
		}
	}
	return n
}

// Len returns the number of live entries.
func (c *DedupCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
