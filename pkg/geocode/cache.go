package geocode

import (
	"strings"
	"sync"
)

// cacheKey returns the normalized lookup key for an address: the non-empty
// parts joined by ", ", lowercased and trimmed. The same normalization is
// applied on read and write so case/whitespace variants of a query hit the
// same entry.
func cacheKey(addr AddressInput) string {
	return strings.ToLower(strings.TrimSpace(formatAddress(addr)))
}

// formatAddress assembles the full address string sent to the text-search
// provider: address + optional city, state, and postal code, joined by ", ".
func formatAddress(addr AddressInput) string {
	parts := []string{addr.Address, addr.City, addr.State, addr.PostalCode}
	var nonEmpty []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, ", ")
}

// Cache is a process-lifetime in-memory map from normalized address keys to
// geocode results. There is no TTL and no eviction; entries live until Clear
// is called or the process exits. Safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]GeocodeResult
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]GeocodeResult)}
}

// Get returns the cached result for key and whether it was present.
func (c *Cache) Get(key string) (GeocodeResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.entries[key]
	return r, ok
}

// Set stores a result under key, replacing any previous value.
func (c *Cache) Set(key string, value GeocodeResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]GeocodeResult)
}

// Size returns the number of cached entries.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
