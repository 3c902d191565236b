package radixstore

import (
	"io"
	"math"
	"sync"

	"github.com/VictoriaMetrics/metrics"
)

// storeMetrics exposes VictoriaMetrics gauges for the store's live state
// plus a value-size histogram, sampled on each successful Add of a []byte
// value.
type storeMetrics struct {
	set *metrics.Set

	liveLeaves    *metrics.Gauge
	expiryListLen *metrics.Gauge
	deleteListLen *metrics.Gauge

	sizes *sizeHistogram
}

func newStoreMetrics(s *Store) *storeMetrics {
	set := metrics.NewSet()
	m := &storeMetrics{set: set, sizes: newSizeHistogram()}

	m.liveLeaves = set.NewGauge(`radixstore_live_leaves`, func() float64 {
		return float64(s.Len())
	})
	m.expiryListLen = set.NewGauge(`radixstore_expiry_list_length`, func() float64 {
		return float64(s.expiryList.Len())
	})
	m.deleteListLen = set.NewGauge(`radixstore_delete_list_length`, func() float64 {
		return float64(s.deleteList.Len())
	})

	return m
}

// observeValueSize records the size, in bytes, of a value passed to Add.
// Add calls it only for []byte values; a size of 0 is not recorded.
func (m *storeMetrics) observeValueSize(n int) {
	if n > 0 {
		m.sizes.AddSample(n)
	}
}

// WritePrometheus writes this store's metrics in Prometheus exposition
// format, for wiring into an HTTP /metrics endpoint.
func (s *Store) WritePrometheus(w io.Writer) {
	s.metrics.set.WritePrometheus(w)
}

// sizeHistogram tracks the distribution of value sizes passed to Add,
// bucketed exponentially from bytes to gigabytes.
type sizeHistogram struct {
	mu         sync.RWMutex
	boundaries []int
	buckets    []int64
	count      int64
	sum        int64
}

func newSizeHistogram() *sizeHistogram {
	return &sizeHistogram{
		boundaries: []int{
			16, 64, 256, 1024, 4096,
			16384, 65536, 262144, 1048576,
			4194304, 16777216, 67108864,
			268435456, 1073741824, 4294967296,
		},
		buckets: make([]int64, 16),
	}
}

func (h *sizeHistogram) AddSample(size int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	bucketIndex := len(h.boundaries)
	for i, boundary := range h.boundaries {
		if size <= boundary {
			bucketIndex = i
			break
		}
	}

	h.buckets[bucketIndex]++
	h.count++
	h.sum += int64(size)
}

func (h *sizeHistogram) AverageSize() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.count == 0 {
		return 0
	}
	return int(h.sum / h.count)
}

func (h *sizeHistogram) MedianEstimate() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.count == 0 {
		return 0
	}

	target := h.count / 2
	cumulative := int64(0)
	for i, count := range h.buckets {
		cumulative += count
		if cumulative >= target {
			return h.boundaryMidpoint(i)
		}
	}
	return int(math.Round(float64(h.sum) / float64(h.count)))
}

func (h *sizeHistogram) boundaryMidpoint(bucket int) int {
	switch {
	case bucket == 0:
		return h.boundaries[0] / 2
	case bucket < len(h.boundaries):
		return (h.boundaries[bucket-1] + h.boundaries[bucket]) / 2
	default:
		return h.boundaries[len(h.boundaries)-1] * 2
	}
}
