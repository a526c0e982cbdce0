package approval

import lru "github.com/hashicorp/golang-lru/v2"

// DefaultRecentlyOutdatedCapacity is the fixed ring size from spec.md §3/§9.
// spec.md §9 flags this as an open question ("a production system should
// scale this with expected finalization lag"); keeping it behind a
// constructor parameter rather than a literal makes that a one-line change
// for a deployment, per SPEC_FULL.md's domain-stack notes.
const DefaultRecentlyOutdatedCapacity = 20

// recentlyOutdated is a bounded, insertion-ordered set of recently
// finalized-or-skipped block hashes, using an LRU cache for automatic
// oldest-eviction instead of a hand-rolled ring buffer.
type recentlyOutdated struct {
	cache *lru.Cache[Hash, BlockNumber]
}

func newRecentlyOutdated(capacity int) *recentlyOutdated {
	if capacity <= 0 {
		capacity = DefaultRecentlyOutdatedCapacity
	}
	c, _ := lru.New[Hash, BlockNumber](capacity)
	return &recentlyOutdated{cache: c}
}

func (r *recentlyOutdated) add(hash Hash, number BlockNumber) {
	r.cache.Add(hash, number)
}

func (r *recentlyOutdated) contains(hash Hash) bool {
	return r.cache.Contains(hash)
}

func (r *recentlyOutdated) len() int {
	return r.cache.Len()
}
