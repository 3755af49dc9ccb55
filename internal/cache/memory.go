package cache

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"moodtune/pkg/models"
)

// entry represents a cached item with expiration
type entry struct {
	value      interface{}
	expiration time.Time
}

func (e *entry) expired() bool {
	return time.Now().After(e.expiration)
}

// MemoryCache implements a simple in-memory TTL cache
type MemoryCache struct {
	items map[string]*entry
	mutex sync.RWMutex
	ttl   time.Duration
}

// NewMemoryCache creates a new memory cache
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	cache := &MemoryCache{
		items: make(map[string]*entry),
		ttl:   ttl,
	}

	go cache.cleanupExpired()

	return cache
}

// Set stores a value in the cache
func (c *MemoryCache) Set(key string, value interface{}) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.items[key] = &entry{
		value:      value,
		expiration: time.Now().Add(c.ttl),
	}
}

// Get retrieves a value from the cache
func (c *MemoryCache) Get(key string) (interface{}, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	e, exists := c.items[key]
	if !exists || e.expired() {
		return nil, false
	}

	return e.value, true
}

// Delete removes a value from the cache
func (c *MemoryCache) Delete(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.items, key)
}

// Clear removes all items from the cache
func (c *MemoryCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.items = make(map[string]*entry)
}

// Size returns the number of items in the cache
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.items)
}

// cleanupExpired removes expired entries periodically
func (c *MemoryCache) cleanupExpired() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.mutex.Lock()
		for key, e := range c.items {
			if e.expired() {
				delete(c.items, key)
			}
		}
		c.mutex.Unlock()
	}
}

// PlaylistCache memoizes ranked playlists per mood. Entries must be cleared
// whenever the catalog changes.
type PlaylistCache struct {
	*MemoryCache
}

// NewPlaylistCache creates a playlist cache with a short TTL as a safety
// net on top of explicit invalidation.
func NewPlaylistCache() *PlaylistCache {
	return &PlaylistCache{
		MemoryCache: NewMemoryCache(15 * time.Minute),
	}
}

// Key builds the cache key for a mood and playlist size.
func (pc *PlaylistCache) Key(mood string, topK int) string {
	return fmt.Sprintf("%s:%d", strings.ToLower(mood), topK)
}

// SetPlaylist caches a ranked playlist
func (pc *PlaylistCache) SetPlaylist(key string, playlist []models.PlaylistEntry) {
	pc.Set(key, playlist)
}

// GetPlaylist retrieves a cached playlist
func (pc *PlaylistCache) GetPlaylist(key string) ([]models.PlaylistEntry, bool) {
	value, exists := pc.Get(key)
	if !exists {
		return nil, false
	}
	playlist, ok := value.([]models.PlaylistEntry)
	return playlist, ok
}
