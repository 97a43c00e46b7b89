package cache

import (
	"strconv"
	"testing"

	"github.com/IvanBrykalov/handlecache/internal/util"
)

func mkEntry(key string, v int) *entry[int] {
	k := []byte(key)
	return &entry[int]{
		key:   k,
		value: v,
		hash:  util.Fingerprint32(k, 0),
		refs:  1,
	}
}

func TestHandleTable_InsertLookupRemove(t *testing.T) {
	t.Parallel()

	tab := newHandleTable[int]()

	e := mkEntry("a", 1)
	if old := tab.insert(e); old != nil {
		t.Fatal("fresh insert must return nil")
	}
	if got := tab.lookup(e.key, e.hash); got != e {
		t.Fatal("lookup must find the inserted entry")
	}
	if got := tab.lookup([]byte("b"), util.Fingerprint32([]byte("b"), 0)); got != nil {
		t.Fatal("lookup of absent key must return nil")
	}

	// Duplicate insert replaces in place and hands back the old entry.
	e2 := mkEntry("a", 2)
	if old := tab.insert(e2); old != e {
		t.Fatal("duplicate insert must return the previous entry")
	}
	if got := tab.lookup(e2.key, e2.hash); got != e2 {
		t.Fatal("lookup must find the replacement")
	}
	if tab.len() != 1 {
		t.Fatalf("len: got %d, want 1", tab.len())
	}

	if got := tab.remove(e2.key, e2.hash); got != e2 {
		t.Fatal("remove must return the entry")
	}
	if got := tab.remove(e2.key, e2.hash); got != nil {
		t.Fatal("second remove must return nil")
	}
	if tab.len() != 0 {
		t.Fatalf("len: got %d, want 0", tab.len())
	}
}

// Entries with identical hashes but different keys must coexist in one
// chain; the full key comparison disambiguates them.
func TestHandleTable_HashCollisions(t *testing.T) {
	t.Parallel()

	tab := newHandleTable[int]()

	a := &entry[int]{key: []byte("left"), value: 1, hash: 0x12345678, refs: 1}
	b := &entry[int]{key: []byte("right"), value: 2, hash: 0x12345678, refs: 1}
	if tab.insert(a) != nil || tab.insert(b) != nil {
		t.Fatal("colliding keys are distinct entries")
	}

	if got := tab.lookup(a.key, a.hash); got != a {
		t.Fatal("lookup left")
	}
	if got := tab.lookup(b.key, b.hash); got != b {
		t.Fatal("lookup right")
	}

	// Removing one must leave the chain intact for the other.
	if got := tab.remove(a.key, a.hash); got != a {
		t.Fatal("remove left")
	}
	if got := tab.lookup(b.key, b.hash); got != b {
		t.Fatal("right must survive removal of its chain neighbor")
	}
}

// Growing well past the initial bucket count must keep every entry
// reachable (resize redistributes links, never drops them).
func TestHandleTable_Grow(t *testing.T) {
	t.Parallel()

	tab := newHandleTable[int]()

	const n = 1000
	entries := make([]*entry[int], 0, n)
	for i := 0; i < n; i++ {
		e := mkEntry("key:"+strconv.Itoa(i), i)
		if old := tab.insert(e); old != nil {
			t.Fatalf("unexpected duplicate at %d", i)
		}
		entries = append(entries, e)
	}
	if tab.len() != n {
		t.Fatalf("len: got %d, want %d", tab.len(), n)
	}
	if !util.IsPowerOfTwo(uint64(tab.length)) {
		t.Fatalf("bucket count %d must stay a power of two", tab.length)
	}
	if tab.length < n {
		t.Fatalf("bucket count %d must exceed element count %d", tab.length, n)
	}

	for i, e := range entries {
		if got := tab.lookup(e.key, e.hash); got != e {
			t.Fatalf("entry %d lost after growth", i)
		}
	}
}
