package cache

import (
	"math/rand"
	"strconv"
	"sync/atomic"
	"testing"
)

// benchmarkMix exercises a read/write mix against a warm cache.
// It uses parallel workers (RunParallel spawns GOMAXPROCS goroutines).
// String-formatted keys include strconv/concat costs and often allocate,
// which is fine for an end-to-end benchmark.
func benchmarkMix(b *testing.B, readsPct int) {
	c := New[string](100_000)
	b.Cleanup(func() { _ = c.Close() })

	// Preload half the capacity to get a realistic hit-rate.
	for i := 0; i < 50_000; i++ {
		k := []byte("k:" + strconv.Itoa(i))
		c.Release(c.Insert(k, "v", 1, nil))
	}

	// Report per-op allocations for a rough idea where costs go.
	b.ReportAllocs()
	b.ResetTimer()

	var seed int64 = 1
	keyMask := (1 << 16) - 1 // hot keyspace (power of two for fast &-mask)

	b.RunParallel(func(pb *testing.PB) {
		// Independent RNG stream for each worker.
		r := rand.New(rand.NewSource(atomic.AddInt64(&seed, 1)))
		i := 0
		for pb.Next() {
			k := []byte("k:" + strconv.Itoa(i&keyMask))
			if r.Intn(100) < readsPct {
				if h := c.Lookup(k); h != nil {
					c.Release(h)
				}
			} else {
				c.Release(c.Insert(k, "v", 1, nil))
			}
			i++
		}
	})
}

func BenchmarkCache_90r10w(b *testing.B) { benchmarkMix(b, 90) }
func BenchmarkCache_50r50w(b *testing.B) { benchmarkMix(b, 50) }

// BenchmarkCache_LookupHit isolates the hit path: fingerprint, bucket walk,
// refcount bump, list relink, release.
func BenchmarkCache_LookupHit(b *testing.B) {
	c := New[int](1024)
	b.Cleanup(func() { _ = c.Close() })

	key := []byte("hot")
	c.Release(c.Insert(key, 42, 1, nil))

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			h := c.Lookup(key)
			if h == nil {
				b.Fatal("unexpected miss")
			}
			c.Release(h)
		}
	})
}
