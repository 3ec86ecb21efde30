package metrics

import (
	"sync/atomic"
	"time"
)

// ID identifies a counter or histogram slot.
type ID uint16

const (
	GrantSuccess ID = iota
	GrantFailure
	RefreshSuccess
	RefreshFailure
	ReuseDetected
	FamilyRevoked
	AuthenticateRejected
	BlacklistHit
	ConflictRetried
	AuthenticateLatency
	idCount
)

// Config controls which instruments are live. A disabled Metrics costs one
// nil check per call site.
type Config struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

type histogram struct {
	buckets [histBucketCount]uint64
}

// Metrics stores counters in cache-line-padded slots updated with atomic
// adds. The write path never allocates.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [idCount]paddedCounter
	histograms    [idCount]histogram
}

// Snapshot is a point-in-time copy of all instruments.
type Snapshot struct {
	Counters   map[ID]uint64
	Histograms map[ID][]uint64
}

func New(cfg Config) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

func (m *Metrics) Inc(id ID) {
	if m == nil || !m.enabled || id >= idCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d into the latency histogram. Only AuthenticateLatency
// carries a histogram; other ids are ignored.
func (m *Metrics) Observe(id ID, d time.Duration) {
	if m == nil || !m.enableLatency || id != AuthenticateLatency {
		return
	}
	atomic.AddUint64(&m.histograms[id].buckets[bucketIndex(d)], 1)
}

func (m *Metrics) Value(id ID) uint64 {
	if m == nil || id >= idCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

func (m *Metrics) Snapshot() Snapshot {
	s := Snapshot{
		Counters:   map[ID]uint64{},
		Histograms: map[ID][]uint64{},
	}
	if m == nil || !m.enabled {
		return s
	}

	for id := ID(0); id < idCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := range buckets {
			buckets[i] = atomic.LoadUint64(&m.histograms[AuthenticateLatency].buckets[i])
		}
		s.Histograms[AuthenticateLatency] = buckets
	}

	return s
}

// BucketBounds returns the histogram upper bounds in milliseconds; the last
// bucket is unbounded.
func BucketBounds() []int64 {
	return []int64{5, 10, 25, 50, 100, 250, 500}
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()
	for i, bound := range BucketBounds() {
		if ms <= bound {
			return i
		}
	}
	return histBucketCount - 1
}
