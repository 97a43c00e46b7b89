package cache

import "bytes"

// handleTable is a purpose-built open-chaining hash table mapping byte keys
// to entries. Compared to a map[string]*entry it avoids key re-hashing
// (callers pass the cached fingerprint), gives us pointer-stable chain links
// for O(1) removal, and keeps resize behavior predictable.
//
// Buckets are heads of singly linked chains through entry.nextHash. The
// bucket count is always a power of two so the index is hash&(length-1).
// Not safe for concurrent use; the owning shard serializes access.
type handleTable[V any] struct {
	length uint32
	elems  uint32
	list   []*entry[V]
}

// newHandleTable returns a table with a small initial bucket array.
func newHandleTable[V any]() *handleTable[V] {
	t := &handleTable[V]{}
	t.resize()
	return t
}

// lookup returns the entry for key, or nil.
func (t *handleTable[V]) lookup(key []byte, hash uint32) *entry[V] {
	return *t.findPointer(key, hash)
}

// insert adds e to the table and returns the previously present entry for
// the same key, if any. The old entry is only unlinked from the chain; its
// disposition (unref, list removal) is the caller's business.
func (t *handleTable[V]) insert(e *entry[V]) *entry[V] {
	ptr := t.findPointer(e.key, e.hash)
	old := *ptr
	if old != nil {
		e.nextHash = old.nextHash
	} else {
		e.nextHash = nil
	}
	*ptr = e
	if old == nil {
		t.elems++
		if t.elems > t.length {
			// Entries are fairly large, so aim for a short average chain
			// (<= 1 entry per bucket).
			t.resize()
		}
	}
	return old
}

// remove unlinks and returns the entry for key, or nil if absent.
func (t *handleTable[V]) remove(key []byte, hash uint32) *entry[V] {
	ptr := t.findPointer(key, hash)
	e := *ptr
	if e != nil {
		*ptr = e.nextHash
		e.nextHash = nil
		t.elems--
	}
	return e
}

// len returns the number of entries currently in the table.
func (t *handleTable[V]) len() int { return int(t.elems) }

// findPointer returns the slot pointing at the entry matching key/hash, or,
// if no such entry exists, the trailing nil slot of the bucket's chain.
// Comparing the cached hash first skips full key comparison for entries that
// merely share a bucket.
func (t *handleTable[V]) findPointer(key []byte, hash uint32) **entry[V] {
	ptr := &t.list[hash&(t.length-1)]
	for *ptr != nil && ((*ptr).hash != hash || !bytes.Equal(key, (*ptr).key)) {
		ptr = &(*ptr).nextHash
	}
	return ptr
}

// resize grows the bucket array (doubling from 4 until it exceeds the
// element count) and redistributes existing chain links into the new
// buckets. Entry payloads are never copied. The table never shrinks.
func (t *handleTable[V]) resize() {
	newLength := uint32(4)
	for newLength < t.elems {
		newLength *= 2
	}
	newList := make([]*entry[V], newLength)
	for i := uint32(0); i < t.length; i++ {
		e := t.list[i]
		for e != nil {
			next := e.nextHash
			ptr := &newList[e.hash&(newLength-1)]
			e.nextHash = *ptr
			*ptr = e
			e = next
		}
	}
	t.list = newList
	t.length = newLength
}
