package metrics

import (
	"sync"
	"sync/atomic"
)

// MetricKey is a strongly typed metric identifier.
type MetricKey string

// Metric keys (centralized)
const (
	// Store
	KVKeysTotal    MetricKey = "kv_keys_total"
	KVExpiredTotal MetricKey = "kv_expired_total"

	// Operations
	KVPutsTotal    MetricKey = "kv_puts_total"
	KVGetsTotal    MetricKey = "kv_gets_total"
	KVMissesTotal  MetricKey = "kv_misses_total"
	KVDeletesTotal MetricKey = "kv_deletes_total"
	KVListsTotal   MetricKey = "kv_lists_total"

	// Soft and hard failures
	KVSizeRejectionsTotal     MetricKey = "kv_size_rejections_total"
	KVJSONDecodeFailuresTotal MetricKey = "kv_json_decode_failures_total"

	// Test affordances
	KVForcedExpirationsTotal MetricKey = "kv_forced_expirations_total"
)

// gauges go up and down; everything else is a monotonic counter.
var gauges = map[MetricKey]bool{
	KVKeysTotal: true,
}

// Registry stores all metrics.
type Registry struct {
	mu       sync.RWMutex
	counters map[MetricKey]*int64
}

// NewRegistry creates a metrics registry.
func NewRegistry() *Registry {
	return &Registry{
		counters: make(map[MetricKey]*int64),
	}
}

// Inc increments a metric by 1.
func (r *Registry) Inc(key MetricKey) {
	r.Add(key, 1)
}

// Add increments a metric by delta.
// A nil registry discards updates so callers never need to guard.
func (r *Registry) Add(key MetricKey, delta int64) {
	if r == nil {
		return
	}

	r.mu.RLock()
	ptr, ok := r.counters[key]
	r.mu.RUnlock()

	if ok {
		atomic.AddInt64(ptr, delta)
		return
	}

	// Slow path: metric not yet initialized
	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock
	if ptr, ok = r.counters[key]; ok {
		atomic.AddInt64(ptr, delta)
		return
	}

	var val int64
	r.counters[key] = &val
	atomic.AddInt64(&val, delta)
}
