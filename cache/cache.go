package cache

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/IvanBrykalov/handlecache/internal/singleflight"
	"github.com/IvanBrykalov/handlecache/internal/util"
)

// ErrClosed is returned by GetOrInsert when the cache has been closed.
var ErrClosed = errorsNew("cache: closed")

// lightweight local errors.New to avoid importing std 'errors' everywhere
func errorsNew(s string) error { return &strErr{s} }

type strErr struct{ s string }

func (e *strErr) Error() string { return e.s }

// cache fans keyed operations out to a fixed set of shards. The key is
// fingerprinted once per operation; the top bits of the hash pick the shard
// and the same hash value is passed down for bucket placement, so nothing is
// ever hashed twice.
type cache[V any] struct {
	shards    []*shard[V]
	shardBits uint
	closed    atomic.Bool

	// Monotonic ID generator, independent of the shards and their locks.
	idMu   sync.Mutex
	lastID uint64

	// singleflight group for coalescing concurrent loads in GetOrInsert.
	sf singleflight.Group[loaded[V]]
}

// loaded carries a loader result through a singleflight flight.
type loaded[V any] struct {
	value  V
	charge uint64
}

// fingerprintSeed is the fixed seed for key fingerprints. Determinism only
// needs to hold within a process, so a constant is fine.
const fingerprintSeed = 0

// New constructs a cache with the given total capacity (in charge units)
// and default options.
func New[V any](capacity uint64) Cache[V] {
	return NewWithOptions(Options[V]{Capacity: capacity})
}

// NewWithOptions constructs a cache with the provided Options.
// Defaults:
//   - nil Metrics -> NoopMetrics
//   - Shards <= 0 -> DefaultShards, otherwise rounded up to a power of two
func NewWithOptions[V any](opt Options[V]) Cache[V] {
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}

	sh := opt.Shards
	if sh <= 0 {
		sh = DefaultShards
	}
	sh = int(util.NextPow2(uint64(sh)))

	shards := make([]*shard[V], sh)
	perShardCap := (opt.Capacity + uint64(sh) - 1) / uint64(sh) // split capacity evenly (ceil)
	for i := range shards {
		shards[i] = newShard[V](perShardCap, opt)
	}

	// return pointer-to-impl as the interface (avoids unexported-return lint)
	return &cache[V]{
		shards:    shards,
		shardBits: util.ShardBits(sh),
	}
}

// ---- Cache[V] implementation ----

// Insert adds key→value with the given weight and returns the caller's
// Handle. See Cache.Insert for the ownership protocol.
func (c *cache[V]) Insert(key []byte, value V, charge uint64, deleter DeleterFunc[V]) *Handle[V] {
	if c.closed.Load() {
		return nil
	}
	h := util.Fingerprint32(key, fingerprintSeed)
	return c.shard(h).Insert(key, h, value, charge, deleter)
}

// Lookup returns a Handle for key, or nil on miss.
func (c *cache[V]) Lookup(key []byte) *Handle[V] {
	if c.closed.Load() {
		return nil
	}
	h := util.Fingerprint32(key, fingerprintSeed)
	return c.shard(h).Lookup(key, h)
}

// Release drops the reference held by h. Routing goes through the entry's
// cached fingerprint, so a Handle always reaches the shard that created it.
// Release works even after Close, so pinned entries can still be let go.
func (c *cache[V]) Release(h *Handle[V]) {
	if h == nil || h.e == nil {
		panic("handlecache: Release of released handle")
	}
	e := h.e
	h.e = nil
	c.shard(e.hash).Release(e)
}

// Erase drops key from the cache if present.
func (c *cache[V]) Erase(key []byte) {
	if c.closed.Load() {
		return
	}
	h := util.Fingerprint32(key, fingerprintSeed)
	c.shard(h).Erase(key, h)
}

// GetOrInsert returns a Handle for key, loading the value on miss.
// Concurrent calls for the same key share one load (singleflight); each
// caller still gets a Handle of its own. If two flights for the same key
// finish back to back, the later Insert supersedes the earlier entry; the
// refcount protocol keeps every returned Handle valid regardless.
func (c *cache[V]) GetOrInsert(ctx context.Context, key []byte, load LoaderFunc[V], deleter DeleterFunc[V]) (*Handle[V], error) {
	// fast path
	if h := c.Lookup(key); h != nil {
		return h, nil
	}

	res, err := c.sf.Do(ctx, string(key), func() (loaded[V], error) {
		v, charge, err := load(ctx, key)
		return loaded[V]{value: v, charge: charge}, err
	})
	if err != nil {
		return nil, err
	}

	// The flight leader (or a concurrent caller) may have inserted already.
	if h := c.Lookup(key); h != nil {
		return h, nil
	}
	h := c.Insert(key, res.value, res.charge, deleter)
	if h == nil {
		return nil, ErrClosed
	}
	return h, nil
}

// NewId returns the next process-wide identifier, starting at 1.
func (c *cache[V]) NewId() uint64 {
	c.idMu.Lock()
	defer c.idMu.Unlock()
	c.lastID++
	return c.lastID
}

// Len returns the total number of resident entries across all shards.
func (c *cache[V]) Len() int {
	total := 0
	for _, s := range c.shards {
		total += s.Len()
	}
	return total
}

// Usage returns the total resident charge across all shards.
func (c *cache[V]) Usage() uint64 {
	var total uint64
	for _, s := range c.shards {
		total += s.Usage()
	}
	return total
}

// Stats sums the per-shard counters into a snapshot.
func (c *cache[V]) Stats() Stats {
	var st Stats
	for _, s := range c.shards {
		st.Hits += s.hits.Load()
		st.Misses += s.misses.Load()
		st.Evictions += s.evicts.Load()
		st.Entries += s.Len()
		st.Usage += s.Usage()
	}
	return st
}

// Close drains every shard and marks the cache closed. Outstanding Handles
// stay valid; their entries are destroyed as they are released.
func (c *cache[V]) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	for _, s := range c.shards {
		s.Drain()
	}
	return nil
}

// shard picks the shard owning a fingerprint by its top bits.
func (c *cache[V]) shard(hash uint32) *shard[V] {
	return c.shards[util.ShardIndex(hash, c.shardBits)]
}
