package browse

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"sync"
	"time"
)

// RequestCache caches API responses keyed by endpoint, encoded request
// parameters, and the authenticating token, so a token change can never
// serve another account's data. Entries expire after their TTL and can
// be invalidated per endpoint when the client knows the data changed.
type RequestCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	value     interface{}
	endpoint  string
	expiresAt time.Time
}

// NewRequestCache creates an empty cache.
func NewRequestCache() *RequestCache {
	return &RequestCache{
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// CacheKey builds the lookup key. The token is hashed so the raw secret
// never sits in cache keys.
func CacheKey(endpoint string, params url.Values, token string) string {
	sum := sha256.Sum256([]byte(token))
	return endpoint + "?" + params.Encode() + "#" + hex.EncodeToString(sum[:8])
}

// Get returns the cached value for key if present and unexpired.
func (c *RequestCache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || c.now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.value, true
}

// Set stores value under key with the given TTL.
func (c *RequestCache) Set(key, endpoint string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{
		value:     value,
		endpoint:  endpoint,
		expiresAt: c.now().Add(ttl),
	}
}

// InvalidateEndpoint removes every entry cached for the given endpoint,
// regardless of params or token.
func (c *RequestCache) InvalidateEndpoint(endpoint string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, entry := range c.entries {
		if entry.endpoint == endpoint || strings.HasPrefix(entry.endpoint, endpoint+"/") {
			delete(c.entries, key)
		}
	}
}

// Clear drops all entries.
func (c *RequestCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// Len reports the number of entries, expired ones included.
func (c *RequestCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
