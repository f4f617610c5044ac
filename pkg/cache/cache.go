package cache

import (
	"sync"
	"time"

	"bookmarket/pkg/location"

	"github.com/google/uuid"
)

// LocationKey is the single entry every nearby-search request shares:
// the mapping of all users to their newest location is global, not
// per-request.
const LocationKey = "user_locations"

type entry struct {
	locations map[uuid.UUID]location.UserLocation
	expiresAt time.Time
}

// LocationCache holds a whole user->location mapping per key with a
// fixed TTL. An entry is replaced wholesale on refresh, so readers never
// observe a partially filled mapping. Concurrent refreshes on an expired
// entry may both run the fill; the overwrite is idempotent.
type LocationCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]entry
	now     func() time.Time
}

func NewLocationCache(ttl time.Duration) *LocationCache {
	return &LocationCache{
		ttl:     ttl,
		entries: map[string]entry{},
		now:     time.Now,
	}
}

// GetOrFill returns the cached mapping for key, calling fill to rebuild
// it when the entry is missing or past its TTL.
func (c *LocationCache) GetOrFill(key string, fill func() (map[uuid.UUID]location.UserLocation, error)) (map[uuid.UUID]location.UserLocation, error) {
	c.mu.RLock()
	cached, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && c.now().Before(cached.expiresAt) {
		return cached.locations, nil
	}
	locations, err := fill()
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.entries[key] = entry{
		locations: locations,
		expiresAt: c.now().Add(c.ttl),
	}
	c.mu.Unlock()
	return locations, nil
}
