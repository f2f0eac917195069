package attento

import (
	"strconv"
	"time"

	Mt "github.com/maroda/attento/types"
	"github.com/patrickmn/go-cache"
)

// FrameCacheTTL is chosen to exceed the dashboard polling interval
// (2s) so near-simultaneous requests for one snapshot collapse into
// a single detector invocation, while the next poll cycle still
// gets a fresh analysis.
const FrameCacheTTL = 4 * time.Second

// FrameCache memoizes one FrameResult per (room, camera).
// Eviction is lazy: an expired entry is simply never returned.
type FrameCache struct {
	results *cache.Cache
}

// NewFrameCache builds the cache with no background janitor,
// staleness is checked at read time only
func NewFrameCache(ttl time.Duration) *FrameCache {
	return &FrameCache{
		results: cache.New(ttl, 0),
	}
}

func cacheKey(roomID string, camID int) string {
	return roomID + "/" + strconv.Itoa(camID)
}

// Get returns the cached result for the key,
// absent when missing or older than the TTL
func (fc *FrameCache) Get(roomID string, camID int) (Mt.FrameResult, bool) {
	v, found := fc.results.Get(cacheKey(roomID, camID))
	if !found {
		return Mt.FrameResult{}, false
	}
	return v.(Mt.FrameResult), true
}

// Put overwrites any prior entry for the key and resets its age
func (fc *FrameCache) Put(roomID string, camID int, fr Mt.FrameResult) {
	fc.results.Set(cacheKey(roomID, camID), fr, cache.DefaultExpiration)
}
