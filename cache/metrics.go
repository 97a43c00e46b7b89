package cache

// NoopMetrics is a drop-in Metrics implementation that does nothing.
// It is safe for concurrent use and intended as the default when
// no observability backend is configured.
type NoopMetrics struct{}

func (NoopMetrics) Hit()                           {}
func (NoopMetrics) Miss()                          {}
func (NoopMetrics) Evict(EvictReason)              {}
func (NoopMetrics) Size(entries int, usage uint64) {}

// Ensure NoopMetrics implements the Metrics interface at compile time.
var _ Metrics = NoopMetrics{}

// Stats is a point-in-time snapshot of aggregate cache counters.
// Counters are maintained per shard on padded atomics and summed on demand,
// so a snapshot taken under concurrent traffic is approximate.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions uint64
	Entries   int
	Usage     uint64
}
