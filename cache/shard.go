package cache

import (
	"sync"

	"github.com/IvanBrykalov/handlecache/internal/util"
)

// shard is an independent partition of the cache with its own lock, hash
// table, and circular LRU list. The list is threaded through a sentinel:
// lru.prev is the newest entry, lru.next the oldest, and an empty list is
// the sentinel linked to itself.
//
// usage tracks the total charge of entries currently linked into the list.
// An entry unlinked while still pinned by outstanding Handles stops counting
// against usage immediately; its deleter waits for the last Release.
type shard[V any] struct {
	capacity uint64

	// ---- guarded by mu ----
	mu    sync.Mutex
	usage uint64
	lru   entry[V] // sentinel
	table *handleTable[V]

	metrics Metrics
	onEvict func(key []byte, value V, reason EvictReason)

	// ---- hot counters (separate cache lines to avoid false sharing) ----
	_      util.CacheLinePad
	hits   util.PaddedAtomicInt64
	misses util.PaddedAtomicInt64
	evicts util.PaddedAtomicUint64
}

// newShard initializes a shard with its per-shard capacity slice.
func newShard[V any](capacity uint64, opt Options[V]) *shard[V] {
	s := &shard[V]{
		capacity: capacity,
		table:    newHandleTable[V](),
		metrics:  opt.Metrics,
		onEvict:  opt.OnEvict,
	}
	s.lru.next = &s.lru
	s.lru.prev = &s.lru
	return s
}

// Insert adds key→value with the given weight and returns a Handle holding
// the caller's reference. A prior entry under the same key is superseded
// immediately (its deleter fires now unless a Handle still pins it), then
// entries are evicted from the LRU end until usage fits capacity again.
//
// A single entry heavier than the whole shard evicts itself right away; the
// returned Handle is still valid and the entry lives until released.
func (s *shard[V]) Insert(key []byte, hash uint32, value V, charge uint64, deleter DeleterFunc[V]) *Handle[V] {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := &entry[V]{
		key:     append([]byte(nil), key...),
		value:   value,
		deleter: deleter,
		charge:  charge,
		hash:    hash,
		refs:    2, // one for the shard's bookkeeping, one for the returned Handle
	}
	s.lruAppend(e)
	s.usage += charge

	if old := s.table.insert(e); old != nil {
		s.unlink(old, EvictReplaced)
	}

	for s.usage > s.capacity && s.lru.next != &s.lru {
		victim := s.lru.next
		s.table.remove(victim.key, victim.hash)
		s.unlink(victim, EvictCapacity)
	}

	s.metrics.Size(s.table.len(), s.usage)
	return &Handle[V]{e: e}
}

// Lookup returns a Handle for key or nil on miss. A hit takes a new
// reference and promotes the entry to the newest end of the list.
func (s *shard[V]) Lookup(key []byte, hash uint32) *Handle[V] {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.table.lookup(key, hash)
	if e == nil {
		s.misses.Add(1)
		s.metrics.Miss()
		return nil
	}
	e.refs++
	s.lruRemove(e)
	s.lruAppend(e)
	s.hits.Add(1)
	s.metrics.Hit()
	return &Handle[V]{e: e}
}

// Release drops the reference held by h. The entry is destroyed here if
// this was the last owner.
func (s *shard[V]) Release(e *entry[V]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unref(e)
}

// Erase removes key from the table and list if present. No-op on absent
// keys; a pinned entry survives until its Handles are released.
func (s *shard[V]) Erase(key []byte, hash uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e := s.table.remove(key, hash); e != nil {
		s.unlink(e, EvictErased)
		s.metrics.Size(s.table.len(), s.usage)
	}
}

// Len returns the number of resident entries.
func (s *shard[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.len()
}

// Usage returns the total charge of resident entries.
func (s *shard[V]) Usage() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usage
}

// Drain drops the shard's own reference to every resident entry.
// Entries pinned by outstanding Handles stay alive until released.
func (s *shard[V]) Drain() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for e := s.lru.next; e != &s.lru; {
		next := e.next
		s.table.remove(e.key, e.hash)
		s.unlink(e, EvictErased)
		e = next
	}
	s.metrics.Size(s.table.len(), s.usage)
}

// -------------------- internals (mu held) --------------------

// lruAppend links e in as the newest entry, just before the sentinel.
func (s *shard[V]) lruAppend(e *entry[V]) {
	e.next = &s.lru
	e.prev = s.lru.prev
	e.prev.next = e
	e.next.prev = e
}

// lruRemove unlinks e from the list in O(1).
func (s *shard[V]) lruRemove(e *entry[V]) {
	e.next.prev = e.prev
	e.prev.next = e.next
}

// unlink removes an already table-detached (or about-to-be-replaced) entry
// from the LRU list, stops charging it against usage, and drops the shard's
// reference.
func (s *shard[V]) unlink(e *entry[V], reason EvictReason) {
	s.lruRemove(e)
	s.usage -= e.charge
	s.evicts.Add(1)
	s.metrics.Evict(reason)
	if cb := s.onEvict; cb != nil {
		cb(e.key, e.value, reason)
	}
	s.unref(e)
}

// unref drops one reference; the last owner triggers the deleter.
// The deleter runs with mu held, per the DeleterFunc contract.
func (s *shard[V]) unref(e *entry[V]) {
	if e.refs == 0 {
		panic("handlecache: refcount underflow")
	}
	e.refs--
	if e.refs == 0 {
		if e.deleter != nil {
			e.deleter(e.key, e.value)
		}
	}
}
