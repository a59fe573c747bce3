package posauth

import (
	"sync/atomic"
	"time"
)

// MetricID identifies a specific counter or latency histogram in the
// in-process metrics system.
type MetricID uint16

const (
	// MetricLoginSuccess counts completed login transactions.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts login transactions aborted by an
	// authentication failure.
	MetricLoginFailure
	// MetricLogout counts logout teardowns.
	MetricLogout
	// MetricAnonymousBoot counts boots that short-circuited to an anonymous
	// ready state because no token was resolvable.
	MetricAnonymousBoot
	// MetricHydrationCompleted counts hydration runs that reached the ready
	// state, whether or not every lookup succeeded.
	MetricHydrationCompleted
	// MetricIdentityRefreshFailure counts identity lookups that degraded to
	// cached identity.
	MetricIdentityRefreshFailure
	// MetricPermissionRefreshSuccess counts permission refreshes that applied
	// fresh data.
	MetricPermissionRefreshSuccess
	// MetricPermissionRefreshFailure counts permission refreshes that
	// degraded to the cached set.
	MetricPermissionRefreshFailure
	// MetricBusinessLookupFailure counts business profile lookups that
	// degraded to a null business context.
	MetricBusinessLookupFailure
	// MetricAssetFetchSuccess counts installed asset handles.
	MetricAssetFetchSuccess
	// MetricAssetFetchFailure counts asset fetches that left the slot empty.
	MetricAssetFetchFailure
	// MetricStaleResultDiscarded counts asynchronous results dropped by the
	// generation check instead of being committed.
	MetricStaleResultDiscarded
	// MetricStorageFailure counts swallowed durable-store failures.
	MetricStorageFailure
	// MetricAccessGranted counts allow decisions from Can.
	MetricAccessGranted
	// MetricAccessDenied counts deny decisions from Can.
	MetricAccessDenied
	// MetricLoginLatency is the login transaction latency histogram.
	MetricLoginLatency
	// MetricHydrateLatency is the hydration run latency histogram.
	MetricHydrateLatency

	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

// latencyMetrics are the IDs that accept Observe calls.
var latencyMetrics = [metricIDCount]bool{
	MetricLoginLatency:   true,
	MetricHydrateLatency: true,
}

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds atomic counters and optional latency histograms. A nil or
// disabled Metrics is a no-op on every method.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time deep copy of all metrics.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics creates a [Metrics] instance configured by the given
// [MetricsConfig]. When Enabled is false, all operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether the instance records anything at all.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether latency histograms are recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc increments a counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records a latency observation for a histogram metric.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if !latencyMetrics[id] {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value returns the current counter value.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot returns a deep copy of all counters and histograms.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 2),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		for id := MetricID(0); id < metricIDCount; id++ {
			if !latencyMetrics[id] {
				continue
			}
			buckets := make([]uint64, histBucketCount)
			for i := 0; i < histBucketCount; i++ {
				buckets[i] = atomic.LoadUint64(&m.histograms[id].buckets[i])
			}
			s.Histograms[id] = buckets
		}
	}

	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
