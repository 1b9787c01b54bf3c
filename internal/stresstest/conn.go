package stresstest

import (
	"context"
	"net"
	"time"
)

// DialFunc establishes one TCP connection to the target
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// defaultDial returns a dialer whose connect phase is bounded by timeout
func defaultDial(timeout time.Duration) DialFunc {
	d := &net.Dialer{Timeout: timeout}
	return d.DialContext
}

// deadlineConn applies a fresh deadline before every read and write, the way a
// socket timeout bounds each blocking call rather than the whole exchange.
type deadlineConn struct {
	net.Conn
	timeout time.Duration
}

func newDeadlineConn(conn net.Conn, timeout time.Duration) *deadlineConn {
	return &deadlineConn{Conn: conn, timeout: timeout}
}

func (c *deadlineConn) Read(p []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Read(p)
}

func (c *deadlineConn) Write(p []byte) (int, error) {
	if err := c.Conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Write(p)
}

// setNoDelay disables Nagle batching when the connection is TCP
func setNoDelay(conn net.Conn) error {
	if tcp, ok := conn.(*net.TCPConn); ok {
		return tcp.SetNoDelay(true)
	}
	return nil
}
