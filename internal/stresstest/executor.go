package stresstest

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Run statuses stored by the Manager
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Executor splits a run across concurrent workers and aggregates their results
type Executor struct {
	config  *Config
	stats   *Stats
	dial    DialFunc
	manager *Manager
	logger  *zap.Logger
	runID   string

	started  atomic.Int64 // Unix nanos, 0 until Run starts
	finished atomic.Bool
}

// Option configures an Executor
type Option func(*Executor)

// WithLogger sets the logger used for per-request failures
func WithLogger(logger *zap.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithDialer replaces the TCP dialer, mainly for tests
func WithDialer(dial DialFunc) Option {
	return func(e *Executor) {
		if dial != nil {
			e.dial = dial
		}
	}
}

// WithManager persists the run record through manager
func WithManager(manager *Manager) Option {
	return func(e *Executor) {
		e.manager = manager
	}
}

// NewExecutor creates a new executor for config
func NewExecutor(config *Config, opts ...Option) (*Executor, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	e := &Executor{
		config: config,
		stats:  NewStats(),
		dial:   defaultDial(config.GetTimeout()),
		logger: zap.NewNop(),
		runID:  uuid.NewString(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// RunID returns the identifier of this run
func (e *Executor) RunID() string {
	return e.runID
}

// Config returns the run configuration
func (e *Executor) Config() *Config {
	return e.config
}

// Stats returns a copy of the current statistics (thread-safe)
func (e *Executor) Stats() Snapshot {
	return e.stats.Snapshot()
}

// Counts returns the current counters (thread-safe)
func (e *Executor) Counts() (total, success, failure int) {
	return e.stats.Counts()
}

// Elapsed returns the time since Run started, or 0 before that
func (e *Executor) Elapsed() time.Duration {
	start := e.started.Load()
	if start == 0 {
		return 0
	}
	return time.Since(time.Unix(0, start))
}

// Done reports whether every worker has finished its quota
func (e *Executor) Done() bool {
	return e.finished.Load()
}

// Run launches one goroutine per worker and blocks until all quotas are done.
// Cancelling ctx stops every worker before its next iteration and aborts the
// exchange in flight. The partial summary is still returned and stored, with
// status cancelled, together with an error wrapping ctx.Err().
func (e *Executor) Run(ctx context.Context) (*Summary, error) {
	defer e.finished.Store(true)

	quotas := Partition(e.config.TotalRequests, e.config.Concurrency)
	request := e.config.Request()

	startedAt := time.Now()
	run := &Run{
		UUID:           e.runID,
		Mode:           e.config.Mode,
		Target:         e.config.Addr(),
		Path:           e.config.Path,
		RequestedTotal: e.config.TotalRequests,
		Concurrency:    e.config.Concurrency,
		TimeoutMs:      e.config.GetTimeout().Milliseconds(),
		StartedAt:      startedAt,
		Status:         StatusRunning,
	}
	if e.manager != nil {
		if err := e.manager.CreateRun(run); err != nil {
			return nil, fmt.Errorf("failed to create run record: %w", err)
		}
	}

	e.logger.Info("starting run",
		zap.String("run_id", e.runID),
		zap.String("mode", string(e.config.Mode)),
		zap.String("target", e.config.Addr()),
		zap.Int("requests", e.config.TotalRequests),
		zap.Int("concurrency", e.config.Concurrency))

	e.started.Store(startedAt.UnixNano())

	g, gctx := errgroup.WithContext(ctx)
	for i, quota := range quotas {
		w := &worker{
			id:      i,
			quota:   quota,
			cfg:     e.config,
			request: request,
			dial:    e.dial,
			stats:   e.stats,
			logger:  e.logger,
		}
		g.Go(func() error {
			return w.run(gctx)
		})
	}
	runErr := g.Wait()

	duration := time.Since(startedAt)

	summary := NewSummary(e.config.Mode, e.stats.Snapshot(), duration)
	summary.RunID = e.runID
	summary.Target = e.config.Addr()
	summary.Concurrency = e.config.Concurrency
	summary.StartedAt = startedAt
	summary.Cancelled = runErr != nil

	e.logger.Info("run finished",
		zap.String("run_id", e.runID),
		zap.Int("total", summary.Total),
		zap.Int("success", summary.Success),
		zap.Int("failure", summary.Failure),
		zap.Duration("duration", duration),
		zap.Bool("cancelled", summary.Cancelled))

	if e.manager != nil {
		run.Finish(summary)
		if err := e.manager.UpdateRun(run); err != nil {
			return summary, fmt.Errorf("failed to update run record: %w", err)
		}
	}

	if runErr != nil {
		return summary, fmt.Errorf("run cancelled after %d of %d requests: %w",
			summary.Total, e.config.TotalRequests, runErr)
	}
	return summary, nil
}
