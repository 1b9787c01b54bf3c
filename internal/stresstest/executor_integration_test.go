package stresstest

import (
	"context"
	"net"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studiowebux/sockbench/internal/mock"
	"go.uber.org/zap/zaptest"
)

// startTarget starts an in-process target on a free port
func startTarget(t *testing.T, cfg *mock.Config) *mock.Server {
	t.Helper()
	server := mock.NewServer(cfg, zaptest.NewLogger(t))
	require.NoError(t, server.Start())
	t.Cleanup(func() { server.Stop() })
	return server
}

func targetConfig(t *testing.T, server *mock.Server, mode Mode, total, concurrency int) *Config {
	t.Helper()
	host, port, err := net.SplitHostPort(server.Addr())
	require.NoError(t, err)
	p, err := strconv.Atoi(port)
	require.NoError(t, err)
	return &Config{
		Mode:          mode,
		Host:          host,
		Port:          p,
		Path:          "/",
		TotalRequests: total,
		Concurrency:   concurrency,
		Timeout:       2 * time.Second,
	}
}

// countingDialer counts every connection attempt
type countingDialer struct {
	dials atomic.Int64
}

func (d *countingDialer) dial(ctx context.Context, network, address string) (net.Conn, error) {
	d.dials.Add(1)
	var nd net.Dialer
	return nd.DialContext(ctx, network, address)
}

func TestExecutor_KeepAliveReusesConnections(t *testing.T) {
	server := startTarget(t, mock.DefaultConfig("hello"))
	dialer := &countingDialer{}

	executor, err := NewExecutor(targetConfig(t, server, ModeKeepAlive, 100, 10),
		WithDialer(dialer.dial), WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)

	summary, err := executor.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 100, summary.Total)
	assert.Equal(t, 100, summary.Success)
	assert.Equal(t, 0, summary.Failure)
	assert.Equal(t, UnitSuccessPerSec, summary.ThroughputUnit)
	assert.True(t, summary.HasAvgLatency())
	assert.True(t, executor.Done())

	// One connection per worker for the whole run
	assert.EqualValues(t, 10, dialer.dials.Load())
	assert.Equal(t, 10.0, testutil.ToFloat64(server.Connections()))
	assert.Equal(t, 100.0, testutil.ToFloat64(server.Requests("default", 200)))
}

func TestExecutor_CloseOpensConnectionPerRequest(t *testing.T) {
	server := startTarget(t, mock.DefaultConfig("hello"))
	dialer := &countingDialer{}

	executor, err := NewExecutor(targetConfig(t, server, ModeClose, 60, 6), WithDialer(dialer.dial))
	require.NoError(t, err)

	summary, err := executor.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 60, summary.Total)
	assert.Equal(t, 60, summary.Success)
	assert.Equal(t, UnitRequestsPerSec, summary.ThroughputUnit)
	assert.EqualValues(t, 60, dialer.dials.Load())

	// The server closes its side after each response; give the last handlers a moment
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(server.Requests("default", 200)) == 60
	}, 2*time.Second, 10*time.Millisecond)
}

func TestExecutor_HangupIsAllFailures(t *testing.T) {
	for _, mode := range []Mode{ModeKeepAlive, ModeClose} {
		t.Run(string(mode), func(t *testing.T) {
			server := startTarget(t, mock.HangupConfig())

			executor, err := NewExecutor(targetConfig(t, server, mode, 40, 4))
			require.NoError(t, err)

			summary, err := executor.Run(context.Background())
			require.NoError(t, err)

			assert.Equal(t, 40, summary.Total)
			assert.Equal(t, 0, summary.Success)
			assert.Equal(t, 40, summary.Failure)
			assert.False(t, summary.HasAvgLatency())
		})
	}
}

func TestExecutor_UnreachableTarget(t *testing.T) {
	// Grab a free port and release it so nothing listens there
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	cfg := &Config{
		Mode:          ModeKeepAlive,
		Host:          "127.0.0.1",
		Port:          port,
		TotalRequests: 25,
		Concurrency:   5,
		Timeout:       500 * time.Millisecond,
	}
	executor, err := NewExecutor(cfg)
	require.NoError(t, err)

	summary, err := executor.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 25, summary.Total)
	assert.Equal(t, 25, summary.Failure)
}

func TestExecutor_CancelledBeforeStart(t *testing.T) {
	server := startTarget(t, mock.DefaultConfig("hello"))
	dialer := &countingDialer{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	executor, err := NewExecutor(targetConfig(t, server, ModeClose, 30, 3), WithDialer(dialer.dial))
	require.NoError(t, err)

	summary, err := executor.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, summary)
	assert.True(t, summary.Cancelled)
	assert.Equal(t, 0, summary.Total)
	assert.Zero(t, dialer.dials.Load())
	assert.True(t, executor.Done())
}

func TestExecutor_CancelStopsHeldConnections(t *testing.T) {
	for _, mode := range []Mode{ModeKeepAlive, ModeClose} {
		t.Run(string(mode), func(t *testing.T) {
			cfg := mock.DefaultConfig("slow")
			cfg.Routes[0].Delay = 20
			server := startTarget(t, cfg)
			manager := createTestManager(t)

			executor, err := NewExecutor(targetConfig(t, server, mode, 50, 1), WithManager(manager))
			require.NoError(t, err)

			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			start := time.Now()
			summary, err := executor.Run(ctx)
			elapsed := time.Since(start)

			require.ErrorIs(t, err, context.DeadlineExceeded)
			require.NotNil(t, summary)
			assert.True(t, summary.Cancelled)
			assert.Less(t, summary.Total, 50)
			// The interrupted exchange is not counted as a failure
			assert.Equal(t, 0, summary.Failure)
			assert.Equal(t, summary.Total, summary.Success)
			assert.Less(t, elapsed, 500*time.Millisecond)

			runs, err := manager.ListRuns(mode, 0)
			require.NoError(t, err)
			require.Len(t, runs, 1)
			assert.Equal(t, StatusCancelled, runs[0].Status)
			assert.False(t, runs[0].IsCompleted())
			assert.Equal(t, summary.Total, runs[0].Total)
		})
	}
}

func TestExecutor_SlowTargetTimesOut(t *testing.T) {
	cfg := mock.DefaultConfig("late")
	cfg.Routes[0].Delay = 300
	server := startTarget(t, cfg)

	rc := targetConfig(t, server, ModeKeepAlive, 4, 2)
	rc.Timeout = 50 * time.Millisecond
	executor, err := NewExecutor(rc)
	require.NoError(t, err)

	summary, err := executor.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 4, summary.Failure)
}

func TestExecutor_PersistsRun(t *testing.T) {
	server := startTarget(t, mock.DefaultConfig("hello"))
	manager := createTestManager(t)

	executor, err := NewExecutor(targetConfig(t, server, ModeKeepAlive, 20, 2), WithManager(manager))
	require.NoError(t, err)

	summary, err := executor.Run(context.Background())
	require.NoError(t, err)

	runs, err := manager.ListRuns(ModeKeepAlive, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	run := runs[0]
	assert.Equal(t, executor.RunID(), run.UUID)
	assert.Equal(t, summary.RunID, run.UUID)
	assert.True(t, run.IsCompleted())
	assert.Equal(t, 20, run.RequestedTotal)
	assert.Equal(t, 20, run.Success)
	assert.Equal(t, int64(2000), run.TimeoutMs)
	assert.Equal(t, server.Addr(), run.Target)
	require.NotNil(t, run.AvgLatencyMs)
}

func TestNewExecutor_RejectsInvalidConfig(t *testing.T) {
	_, err := NewExecutor(&Config{Mode: ModeKeepAlive})
	assert.ErrorContains(t, err, "invalid config")
}
