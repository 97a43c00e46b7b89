package cache

import (
	"context"
	"math/rand"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// A mixed workload of concurrent Insert/Lookup/Erase on random keys, with
// every obtained handle released. Should pass under `-race` without
// detector reports, and the deleter must run exactly once per entry.
func TestRace_Basic(t *testing.T) {
	var created, deleted int64
	del := func(_ []byte, _ int) { atomic.AddInt64(&deleted, 1) }

	c := NewWithOptions(Options[int]{
		Capacity: 8_192,
		Shards:   32,
	})

	workers := 4 * runtime.GOMAXPROCS(0)
	keyspace := 50_000
	deadline := time.Now().Add(2 * time.Second)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(id int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)*9973))
			for time.Now().Before(deadline) {
				k := []byte("k:" + strconv.Itoa(r.Intn(keyspace)))
				switch r.Intn(100) {
				case 0, 1, 2, 3, 4: // ~5% — Erase
					c.Erase(k)
				case 5, 6, 7, 8, 9, 10, 11, 12, 13, 14: // ~10% — Insert, heavy
					atomic.AddInt64(&created, 1)
					c.Release(c.Insert(k, r.Int(), uint64(1+r.Intn(8)), del))
				case 15, 16, 17, 18, 19: // ~5% — Insert and hold briefly
					atomic.AddInt64(&created, 1)
					h := c.Insert(k, r.Int(), 1, del)
					c.Erase(k) // pinned: must survive until the release below
					_ = h.Value()
					c.Release(h)
				default: // ~80% — Lookup
					if h := c.Lookup(k); h != nil {
						_ = h.Value()
						c.Release(h)
					}
				}
			}
		}(w)
	}
	wg.Wait()

	// Closing drops the cache's remaining references; after that every
	// created entry must have been destroyed exactly once.
	_ = c.Close()
	if got, want := atomic.LoadInt64(&deleted), atomic.LoadInt64(&created); got != want {
		t.Fatalf("deleter calls: got %d, want %d", got, want)
	}
}

// NewId under contention: N goroutines drawing ids concurrently must see
// no duplicates.
func TestRace_NewId(t *testing.T) {
	c := New[int](64)
	t.Cleanup(func() { _ = c.Close() })

	const goroutines = 16
	const perG = 1_000

	ids := make([][]uint64, goroutines)
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func(g int) {
			defer wg.Done()
			out := make([]uint64, 0, perG)
			for i := 0; i < perG; i++ {
				out = append(out, c.NewId())
			}
			ids[g] = out
		}(g)
	}
	wg.Wait()

	seen := make(map[uint64]bool, goroutines*perG)
	for g := range ids {
		prev := uint64(0)
		for _, id := range ids[g] {
			if id == 0 {
				t.Fatal("ids must start above 0")
			}
			if id <= prev {
				t.Fatalf("ids not increasing within a goroutine: %d after %d", id, prev)
			}
			if seen[id] {
				t.Fatalf("duplicate id %d", id)
			}
			seen[id] = true
			prev = id
		}
	}
	if len(seen) != goroutines*perG {
		t.Fatalf("distinct ids: got %d, want %d", len(seen), goroutines*perG)
	}
}

// One hundred goroutines call GetOrInsert on the same key concurrently.
// The loader should run at most once (singleflight coalescing).
func TestRace_GetOrInsert(t *testing.T) {
	var calls int64

	c := New[string](1024)
	t.Cleanup(func() { _ = c.Close() })

	load := func(_ context.Context, key []byte) (string, uint64, error) {
		atomic.AddInt64(&calls, 1)
		time.Sleep(2 * time.Millisecond) // simulate I/O
		return "v:" + string(key), 1, nil
	}

	const goroutines = 100
	key := []byte("same-key")

	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(goroutines)

	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			<-start
			h, err := c.GetOrInsert(context.Background(), key, load, nil)
			if err != nil {
				t.Errorf("GetOrInsert error: %v", err)
				return
			}
			if h.Value() != "v:same-key" {
				t.Errorf("unexpected value: %q", h.Value())
			}
			c.Release(h)
		}()
	}

	close(start)
	wg.Wait()

	if got := atomic.LoadInt64(&calls); got > 1 {
		t.Fatalf("loader should run at most once, got %d", got)
	}
}
