// Package cache provides a fast, sharded, fixed-capacity in-memory cache
// with LRU eviction and reference-counted entries, built to sit inside a
// storage or serving engine and hold expensive-to-recompute values
// (decompressed blocks, parsed records) under heavy concurrent access.
//
// # Design
//
//   - Concurrency: the cache is split into a power-of-two number of shards,
//     each protected by its own mutex. Keys are fingerprinted once; the top
//     bits of the hash pick the shard and the low bits pick the bucket, so
//     every shard sees a uniform bucket distribution.
//
//   - Storage: each shard owns a purpose-built open-chaining hash table
//     (power-of-two buckets, average chain length <= 1, doubling resize that
//     only redistributes links) and an intrusive circular LRU list threaded
//     through a sentinel. All operations are O(1) expected.
//
//   - Handles: Insert and Lookup return a *Handle, an ownership token that
//     pins its entry. A pinned entry can be evicted, erased, or overwritten
//     in the cache's own bookkeeping and still stays alive until the last
//     Handle is released; its deleter then runs exactly once. Release
//     empties the Handle, so releasing twice panics instead of corrupting
//     the refcount.
//
//   - Weights: every entry carries a caller-supplied charge counted against
//     the shard's slice of the capacity budget. A single entry heavier than
//     its whole shard evicts itself immediately and survives only while
//     pinned; such an entry can only cache itself.
//
//   - GetOrInsert: coalesces concurrent loads for the same key using an
//     internal singleflight group. Every caller receives its own Handle.
//
//   - Metrics: Options.Metrics receives Hit/Miss/Evict/Size signals.
//     By default NoopMetrics is used; plug a Prometheus adapter
//     (metrics/prom) to export metrics.
//
// # Basic usage
//
//	c := cache.New[[]byte](64 << 20) // 64 MiB budget
//	h := c.Insert([]byte("block:7"), block, uint64(len(block)), func(key []byte, v []byte) {
//	    pool.Put(v)
//	})
//	use(h.Value())
//	c.Release(h)
//
//	if h := c.Lookup([]byte("block:7")); h != nil {
//	    use(h.Value())
//	    c.Release(h)
//	}
//
// # Deleter contract
//
// Deleters run while the owning shard's lock is held: keep them fast, never
// block, and never call back into the cache from one. Lookup and Erase
// misses are normal outcomes, not errors; no cache operation fails under
// normal memory availability.
//
// # Thread-safety & complexity
//
// All methods on Cache are safe for concurrent use. Typical operation cost
// is O(1) expected time: one fingerprint, one bucket walk of expected
// length one, and a constant number of pointer fixes under a shard lock.
// Eviction work is O(1) per removed entry.
package cache
