package master

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// faultTTL bounds how long a tag stays flagged as recently faulty after
// TagRequest gives up on its stream. This is advisory only: it never changes TagRequest's
// result, it only lets a caller like cmd/fipmaster warn up front before
// repeating a query that is likely to time out again.
const faultTTL = 5 * time.Second

// faultCache remembers recently faulty tags.
type faultCache struct {
	c *gocache.Cache
}

func newFaultCache() *faultCache {
	return &faultCache{c: gocache.New(gocache.NoExpiration, 30*time.Second)}
}

func (f *faultCache) markFaulty(tag string) {
	f.c.Set(tag, struct{}{}, faultTTL)
}

// RecentlyFaulty reports whether tag ended in TagFaulty within the last
// faultTTL, letting a caller warn before retrying a query that is
// unlikely to have recovered yet.
func (m *MasterState) RecentlyFaulty(tag string) bool {
	_, ok := m.faults.c.Get(tag)
	return ok
}
