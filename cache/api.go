package cache

import "context"

// Cache is a sharded, fixed-capacity, reference-counted LRU cache keyed by
// opaque byte strings. All methods are safe for concurrent use by multiple
// goroutines.
//
// Ownership protocol: every non-nil Handle obtained from Insert, Lookup or
// GetOrInsert must be passed to Release exactly once. A Handle pins its
// entry: the entry's deleter cannot fire while the Handle is live, even if
// the entry has been evicted, erased, or overwritten in the meantime.
type Cache[V any] interface {
	// Insert adds key→value, charging the given weight against capacity,
	// and returns a Handle holding the caller's reference. An existing
	// entry under the same key is superseded. The deleter is invoked
	// exactly once, when the entry's last owner lets go; it may be nil.
	// Returns nil after Close.
	Insert(key []byte, value V, charge uint64, deleter DeleterFunc[V]) *Handle[V]

	// Lookup returns a Handle for key, or nil on miss. A hit promotes the
	// entry to most recently used.
	Lookup(key []byte) *Handle[V]

	// Release returns a Handle obtained from this cache. Exactly once per
	// Handle; releasing twice panics.
	Release(h *Handle[V])

	// Erase drops key from the cache if present. Entries pinned by
	// outstanding Handles are destroyed on their last Release instead.
	Erase(key []byte)

	// GetOrInsert returns a Handle for key, loading and inserting the
	// value on miss. Concurrent loads for the same key are coalesced, but
	// every caller receives its own Handle. The load callback returns the
	// value and its charge.
	GetOrInsert(ctx context.Context, key []byte, load LoaderFunc[V], deleter DeleterFunc[V]) (*Handle[V], error)

	// NewId returns a process-wide monotonically increasing identifier,
	// starting at 1. Unrelated to cache contents; clients use it to
	// partition a shared key space.
	NewId() uint64

	// Len returns the number of resident entries across all shards.
	Len() int

	// Usage returns the total resident charge across all shards.
	Usage() uint64

	// Stats returns an approximate snapshot of aggregate counters.
	Stats() Stats

	// Close drops the cache's own reference to every resident entry and
	// rejects further keyed operations. Outstanding Handles stay valid and
	// must still be released.
	Close() error
}

// LoaderFunc produces a value (and its charge) for a missing key.
// Used by GetOrInsert.
type LoaderFunc[V any] func(ctx context.Context, key []byte) (V, uint64, error)
