package stresstest

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"go.uber.org/zap"
)

// worker runs one quota of requests sequentially on one logical connection
type worker struct {
	id      int
	quota   int
	cfg     *Config
	request []byte
	dial    DialFunc
	stats   *Stats
	logger  *zap.Logger
}

// run consumes the quota. It returns ctx.Err() when cancelled; the iteration
// interrupted by the cancellation is not recorded.
func (w *worker) run(ctx context.Context) error {
	if w.cfg.Mode == ModeClose {
		return w.runClose(ctx)
	}
	return w.runKeepAlive(ctx)
}

// runClose opens, uses and closes one connection per iteration
func (w *worker) runClose(ctx context.Context) error {
	for i := 0; i < w.quota; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		conn, err := w.connect(ctx, false)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.fail(i, "dial", err)
			continue
		}

		stop := context.AfterFunc(ctx, func() { conn.Close() })
		err = w.exchange(conn, ReadUntilEOF)
		stop()
		conn.Close()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.fail(i, phaseOf(err), err)
			continue
		}
		w.stats.Record(true, time.Since(start))
	}
	return nil
}

// runKeepAlive holds one connection across iterations and reconnects after a failure
func (w *worker) runKeepAlive(ctx context.Context) error {
	var conn net.Conn
	stop := func() bool { return false }
	defer func() {
		stop()
		if conn != nil {
			conn.Close()
		}
	}()

	for i := 0; i < w.quota; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if conn == nil {
			c, err := w.connect(ctx, true)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				w.fail(i, "dial", err)
				continue
			}
			conn = c
			// Unblocks a pending read or write as soon as the run is cancelled
			stop = context.AfterFunc(ctx, func() { c.Close() })
		}

		start := time.Now()
		if err := w.exchange(conn, ReadResponse); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.fail(i, phaseOf(err), err)
			stop()
			conn.Close()
			conn = nil
			continue
		}
		w.stats.Record(true, time.Since(start))
	}
	return nil
}

func (w *worker) connect(ctx context.Context, noDelay bool) (net.Conn, error) {
	conn, err := w.dial(ctx, "tcp", w.cfg.Addr())
	if err != nil {
		return nil, err
	}
	if noDelay {
		if err := setNoDelay(conn); err != nil {
			conn.Close()
			return nil, fmt.Errorf("set nodelay: %w", err)
		}
	}
	return newDeadlineConn(conn, w.cfg.GetTimeout()), nil
}

// exchange writes the request and frames the response with read
func (w *worker) exchange(conn net.Conn, read func(r io.Reader) error) error {
	if _, err := conn.Write(w.request); err != nil {
		return &phaseError{phase: "send", err: err}
	}
	if err := read(conn); err != nil {
		return &phaseError{phase: "receive", err: err}
	}
	return nil
}

func (w *worker) fail(iteration int, phase string, err error) {
	w.stats.Record(false, 0)
	w.logger.Debug("request failed",
		zap.Int("worker", w.id),
		zap.Int("iteration", iteration),
		zap.String("phase", phase),
		zap.Error(err))
}

// phaseError tags an error with the step of the exchange it came from
type phaseError struct {
	phase string
	err   error
}

func (e *phaseError) Error() string { return e.phase + ": " + e.err.Error() }

func (e *phaseError) Unwrap() error { return e.err }

func phaseOf(err error) string {
	if pe, ok := err.(*phaseError); ok {
		return pe.phase
	}
	return "unknown"
}
