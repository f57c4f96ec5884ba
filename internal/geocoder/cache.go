package geocoder

import (
	"context"
	"time"

	"github.com/bluele/gcache"
)

// cachedLookup is a cache entry. A nil location records a confirmed miss.
type cachedLookup struct {
	location *Location
}

// CachingGeocoder memoizes lookups of another Geocoder in an LRU cache.
// Both matches and misses are cached; errors are not.
type CachingGeocoder struct {
	next  Geocoder
	cache gcache.Cache
}

// NewCachingGeocoder wraps next with an LRU cache of the given size and TTL.
// size must be positive. A non-positive ttl keeps entries until they are evicted.
func NewCachingGeocoder(next Geocoder, size int, ttl time.Duration) *CachingGeocoder {
	builder := gcache.New(size).LRU()
	if ttl > 0 {
		builder = builder.Expiration(ttl)
	}
	return &CachingGeocoder{
		next:  next,
		cache: builder.Build(),
	}
}

// Geocode returns the cached result for query, or asks the wrapped geocoder.
func (c *CachingGeocoder) Geocode(ctx context.Context, query string) (*Location, error) {
	key := normalizeQuery(query)

	if cached, err := c.cache.Get(key); err == nil {
		if entry, ok := cached.(cachedLookup); ok {
			return copyLocation(entry.location), nil
		}
	}

	location, err := c.next.Geocode(ctx, query)
	if err != nil {
		return nil, err
	}

	_ = c.cache.Set(key, cachedLookup{location: copyLocation(location)})
	return location, nil
}

// Len reports the number of cached queries.
func (c *CachingGeocoder) Len() int {
	return c.cache.Len(false)
}

func copyLocation(l *Location) *Location {
	if l == nil {
		return nil
	}
	cp := *l
	return &cp
}
