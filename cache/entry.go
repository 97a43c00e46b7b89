package cache

// entry is the cache's internal record for one key/value pair. It is
// reference counted and intrusively linked into two structures at once:
// a hash-table bucket chain (nextHash) and the shard's circular LRU list
// (prev/next, threaded through the shard's sentinel).
//
// refs starts at 2 on insert: one reference owned by the shard's own
// bookkeeping and one owned by the caller's returned Handle. The value is
// handed to the deleter exactly when refs drops to zero, which may be long
// after the entry left the table and list (a "pinned" entry).
type entry[V any] struct {
	key     []byte // owned copy, immutable after creation
	value   V
	deleter DeleterFunc[V]
	charge  uint64

	// Fingerprint of key, cached to avoid rehashing on chain walks and to
	// route Release back to the owning shard.
	hash uint32

	// Guarded by the owning shard's lock.
	refs uint32

	nextHash *entry[V] // bucket chain
	next     *entry[V] // LRU: towards older entries
	prev     *entry[V] // LRU: towards newer entries
}

// DeleterFunc destroys a value once no owner (cache or Handle) remains.
// It receives the original key bytes and the stored value.
//
// Deleters run with the owning shard's lock held: keep them fast and never
// call back into the cache from one.
type DeleterFunc[V any] func(key []byte, value V)

// Handle is a caller-visible ownership token for one cache entry, returned
// by Insert, Lookup and GetOrInsert. Each Handle keeps its entry alive until
// it is passed to Release, which must happen exactly once; Release empties
// the Handle so a second Release panics instead of corrupting the refcount.
type Handle[V any] struct {
	e *entry[V]
}

// Value returns the cached value. No lock is taken: the Handle's own
// reference guarantees the entry cannot be destroyed concurrently.
// Value must not be called after Release.
func (h *Handle[V]) Value() V {
	if h == nil || h.e == nil {
		panic("handlecache: Value on released handle")
	}
	return h.e.value
}
