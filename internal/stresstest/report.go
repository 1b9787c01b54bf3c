package stresstest

import "time"

// Throughput units, one per mode
const (
	UnitSuccessPerSec  = "success/s"
	UnitRequestsPerSec = "requests/s"
)

// Summary holds the derived metrics of a finished run
type Summary struct {
	RunID          string         `json:"runId" yaml:"runId"`
	Mode           Mode           `json:"mode" yaml:"mode"`
	Target         string         `json:"target" yaml:"target"`
	Concurrency    int            `json:"concurrency" yaml:"concurrency"`
	StartedAt      time.Time      `json:"startedAt" yaml:"startedAt"`
	Total          int            `json:"total" yaml:"total"`
	Success        int            `json:"success" yaml:"success"`
	Failure        int            `json:"failure" yaml:"failure"`
	Duration       time.Duration  `json:"durationNs" yaml:"durationNs"`
	SuccessRate    float64        `json:"successRate" yaml:"successRate"`
	Throughput     float64        `json:"throughput" yaml:"throughput"`
	ThroughputUnit string         `json:"throughputUnit" yaml:"throughputUnit"`
	AvgLatency     *time.Duration `json:"avgLatencyNs,omitempty" yaml:"avgLatencyNs,omitempty"`
	MinLatency     time.Duration  `json:"minLatencyNs" yaml:"minLatencyNs"`
	MaxLatency     time.Duration  `json:"maxLatencyNs" yaml:"maxLatencyNs"`
	P50Latency     time.Duration  `json:"p50LatencyNs" yaml:"p50LatencyNs"`
	P95Latency     time.Duration  `json:"p95LatencyNs" yaml:"p95LatencyNs"`
	P99Latency     time.Duration  `json:"p99LatencyNs" yaml:"p99LatencyNs"`
	Cancelled      bool           `json:"cancelled,omitempty" yaml:"cancelled,omitempty"`
}

// NewSummary derives the report metrics from a snapshot.
// Keep-alive throughput counts successes only; close throughput counts every request.
func NewSummary(mode Mode, snap Snapshot, duration time.Duration) *Summary {
	s := &Summary{
		Mode:        mode,
		Total:       snap.Total,
		Success:     snap.Success,
		Failure:     snap.Failure,
		Duration:    duration,
		SuccessRate: snap.SuccessRate(),
		MinLatency:  snap.Min(),
		MaxLatency:  snap.Max(),
		P50Latency:  snap.Percentile(50),
		P95Latency:  snap.Percentile(95),
		P99Latency:  snap.Percentile(99),
	}

	counted := snap.Success
	s.ThroughputUnit = UnitSuccessPerSec
	if mode == ModeClose {
		counted = snap.Total
		s.ThroughputUnit = UnitRequestsPerSec
	}
	if seconds := duration.Seconds(); seconds > 0 {
		s.Throughput = float64(counted) / seconds
	}

	if avg, ok := snap.AvgLatency(); ok {
		s.AvgLatency = &avg
	}
	return s
}

// HasAvgLatency reports whether the average latency is defined
func (s *Summary) HasAvgLatency() bool {
	return s.AvgLatency != nil
}
