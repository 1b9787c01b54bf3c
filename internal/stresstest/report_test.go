package stresstest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshotOf(success, failure int, latency time.Duration) Snapshot {
	stats := NewStats()
	for i := 0; i < success; i++ {
		stats.Record(true, latency)
	}
	for i := 0; i < failure; i++ {
		stats.Record(false, 0)
	}
	return stats.Snapshot()
}

func TestNewSummary_KeepAliveCountsSuccesses(t *testing.T) {
	s := NewSummary(ModeKeepAlive, snapshotOf(800, 200, 2*time.Millisecond), 2*time.Second)

	assert.Equal(t, 1000, s.Total)
	assert.Equal(t, 800, s.Success)
	assert.Equal(t, 200, s.Failure)
	assert.Equal(t, UnitSuccessPerSec, s.ThroughputUnit)
	assert.InDelta(t, 400.0, s.Throughput, 1e-9)
	assert.InDelta(t, 0.8, s.SuccessRate, 1e-9)

	require.True(t, s.HasAvgLatency())
	assert.Equal(t, 2*time.Millisecond, *s.AvgLatency)
}

func TestNewSummary_CloseCountsEveryRequest(t *testing.T) {
	s := NewSummary(ModeClose, snapshotOf(800, 200, time.Millisecond), 2*time.Second)

	assert.Equal(t, UnitRequestsPerSec, s.ThroughputUnit)
	assert.InDelta(t, 500.0, s.Throughput, 1e-9)
}

func TestNewSummary_NoSuccessOmitsAverage(t *testing.T) {
	for _, mode := range []Mode{ModeKeepAlive, ModeClose} {
		s := NewSummary(mode, snapshotOf(0, 50, 0), time.Second)
		assert.False(t, s.HasAvgLatency(), mode)
		assert.Nil(t, s.AvgLatency, mode)
		assert.Zero(t, s.SuccessRate, mode)
	}

	// Close mode still reports its request rate when everything failed
	s := NewSummary(ModeClose, snapshotOf(0, 50, 0), time.Second)
	assert.InDelta(t, 50.0, s.Throughput, 1e-9)
}

func TestNewSummary_ZeroDuration(t *testing.T) {
	s := NewSummary(ModeKeepAlive, snapshotOf(1, 0, time.Millisecond), 0)
	assert.Zero(t, s.Throughput)
}
