package maindag

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// pageCache is a bounded mapping from page index to the deserialized page
// record, evicting least-recently-accessed pages first. It is not an
// authoritative copy: every page mutation is written through to the
// database inside the same critical section, so an evicted page is always
// recoverable from disk.
//
// The cache is owned by a single DagIndex instance and is only touched
// while that index holds its page lock.
type pageCache struct {
	pages *lru.Cache[uint64, pageRecord]
}

func newPageCache(capacity int) (*pageCache, error) {
	pages, err := lru.NewWithEvict[uint64, pageRecord](capacity,
		func(pageIndex uint64, _ pageRecord) {
			pageCacheEvictions.Inc()
		})
	if err != nil {
		return nil, err
	}
	return &pageCache{pages: pages}, nil
}

// lookup returns the cached record for pageIndex and refreshes its
// last-access position.
func (cache *pageCache) lookup(pageIndex uint64) (pageRecord, bool) {
	record, ok := cache.pages.Get(pageIndex)
	if ok {
		pageCacheHits.Inc()
	} else {
		pageCacheMisses.Inc()
	}
	return record, ok
}

// insert adds or refreshes the record for pageIndex, evicting the oldest
// entries when the cache is at capacity.
func (cache *pageCache) insert(pageIndex uint64, record pageRecord) {
	cache.pages.Add(pageIndex, record)
}

// clear drops every cached page. Used when the on-disk index is destroyed
// for re-indexing.
func (cache *pageCache) clear() {
	cache.pages.Purge()
}

// len returns the number of cached pages.
func (cache *pageCache) len() int {
	return cache.pages.Len()
}
