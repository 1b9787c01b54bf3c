package stresstest

import (
	"sort"
	"sync"
	"time"
)

// Stats is the aggregate shared by all workers of a run
type Stats struct {
	mu         sync.Mutex
	total      int
	success    int
	failure    int
	latencySum time.Duration
	latencies  []time.Duration // Successful requests only, for percentiles
}

// Snapshot is a consistent copy of Stats
type Snapshot struct {
	Total      int
	Success    int
	Failure    int
	LatencySum time.Duration
	Latencies  []time.Duration
}

// NewStats creates a new Stats instance
func NewStats() *Stats {
	return &Stats{
		latencies: make([]time.Duration, 0, 1000),
	}
}

// Record accounts for one finished iteration. The latency is only added on success.
func (s *Stats) Record(success bool, latency time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	if success {
		s.success++
		s.latencySum += latency
		s.latencies = append(s.latencies, latency)
	} else {
		s.failure++
	}
}

// Counts returns the counters without copying latency samples
func (s *Stats) Counts() (total, success, failure int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total, s.success, s.failure
}

// Snapshot returns a copy of the current statistics (thread-safe)
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Total:      s.total,
		Success:    s.success,
		Failure:    s.failure,
		LatencySum: s.latencySum,
		Latencies:  make([]time.Duration, len(s.latencies)),
	}
	copy(snap.Latencies, s.latencies)
	return snap
}

// AvgLatency returns the mean latency of successful requests.
// ok is false when nothing succeeded.
func (s Snapshot) AvgLatency() (avg time.Duration, ok bool) {
	if s.Success == 0 {
		return 0, false
	}
	return s.LatencySum / time.Duration(s.Success), true
}

// Min returns the smallest successful latency, or 0 if none
func (s Snapshot) Min() time.Duration {
	if len(s.Latencies) == 0 {
		return 0
	}
	m := s.Latencies[0]
	for _, d := range s.Latencies[1:] {
		if d < m {
			m = d
		}
	}
	return m
}

// Max returns the largest successful latency, or 0 if none
func (s Snapshot) Max() time.Duration {
	var m time.Duration
	for _, d := range s.Latencies {
		if d > m {
			m = d
		}
	}
	return m
}

// Percentile calculates the percentile value (p should be between 0 and 100)
func (s Snapshot) Percentile(p float64) time.Duration {
	if len(s.Latencies) == 0 {
		return 0
	}

	sorted := make([]time.Duration, len(s.Latencies))
	copy(sorted, s.Latencies)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	index := (p / 100.0) * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1

	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	// Linear interpolation between lower and upper
	weight := index - float64(lower)
	return time.Duration(float64(sorted[lower])*(1-weight) + float64(sorted[upper])*weight)
}

// SuccessRate returns success / total as a fraction in [0, 1]
func (s Snapshot) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Success) / float64(s.Total)
}
