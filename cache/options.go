package cache

// EvictReason explains why an entry left the cache's bookkeeping.
type EvictReason int

const (
	// EvictCapacity — removed from the LRU end to bring usage under capacity.
	EvictCapacity EvictReason = iota
	// EvictReplaced — superseded by a newer Insert under the same key.
	EvictReplaced
	// EvictErased — removed by an explicit Erase.
	EvictErased
)

// Metrics exposes cache-level observability hooks.
// A NoopMetrics implementation is provided and used by default.
//
// All hooks are called under a shard lock; implementations must be cheap
// and must not call back into the cache.
type Metrics interface {
	Hit()
	Miss()
	Evict(reason EvictReason)
	Size(entries int, usage uint64)
}

// Options configures the cache. Zero values are safe; defaults are applied
// in NewWithOptions:
//   - Shards <= 0 => DefaultShards, otherwise rounded up to a power of two
//   - nil Metrics => NoopMetrics
type Options[V any] struct {
	// Capacity is the total weight budget, in charge units, split evenly
	// across shards (ceil division, so the aggregate may exceed Capacity by
	// up to Shards-1 units). Zero is legal: such a cache only retains
	// entries for as long as callers pin them.
	Capacity uint64

	// Shards is the number of independent lock-protected partitions.
	// Rounded up to a power of two; 0 picks DefaultShards.
	Shards int

	// Metrics receives Hit/Miss/Evict/Size signals. Nil => NoopMetrics.
	// Plug metrics/prom.Adapter to export Prometheus metrics.
	Metrics Metrics

	// OnEvict is called whenever an entry leaves the cache's bookkeeping
	// (capacity eviction, overwrite, erase, drain). It runs under the
	// shard lock; keep callbacks lightweight. For pinned entries this
	// fires at unlink time, before the per-entry deleter eventually runs.
	OnEvict func(key []byte, value V, reason EvictReason)
}

// DefaultShards is the shard count used when Options.Shards is unset.
// 16 partitions keeps contention low for typical core counts without
// fragmenting the capacity budget too finely.
const DefaultShards = 16
