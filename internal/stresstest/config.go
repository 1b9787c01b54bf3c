package stresstest

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Mode selects the connection strategy of a run
type Mode string

const (
	// ModeKeepAlive reuses one connection per worker across its quota
	ModeKeepAlive Mode = "keepalive"
	// ModeClose opens a new connection for every request
	ModeClose Mode = "close"
)

const (
	// DefaultTimeout is the per-operation socket timeout
	DefaultTimeout = 5 * time.Second
	// MaxConcurrency caps the number of workers of a single run
	MaxConcurrency = 10000
)

// ParseMode converts a user supplied mode name
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "keepalive", "keep-alive", "long":
		return ModeKeepAlive, nil
	case "close", "short":
		return ModeClose, nil
	default:
		return "", fmt.Errorf("unknown mode %q (expected keepalive or close)", s)
	}
}

// Config represents one benchmark run
type Config struct {
	Mode          Mode
	Host          string
	Port          int
	Path          string
	TotalRequests int
	Concurrency   int
	Timeout       time.Duration // Per read/write timeout (default: 5s)
}

// Validate validates the run configuration
func (c *Config) Validate() error {
	if c.Mode != ModeKeepAlive && c.Mode != ModeClose {
		return fmt.Errorf("unknown mode %q", c.Mode)
	}
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	if c.TotalRequests <= 0 {
		return fmt.Errorf("total requests must be greater than 0")
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be greater than 0")
	}
	if c.Concurrency > MaxConcurrency {
		return fmt.Errorf("concurrency cannot exceed %d", MaxConcurrency)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}
	return nil
}

// GetTimeout returns the socket timeout, falling back to DefaultTimeout
func (c *Config) GetTimeout() time.Duration {
	if c.Timeout == 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

// Addr returns the dial address of the target
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Request returns the fixed GET request sent on every iteration
func (c *Config) Request() []byte {
	connection := "keep-alive"
	if c.Mode == ModeClose {
		connection = "close"
	}
	path := "/" + strings.TrimPrefix(c.Path, "/")
	return []byte(fmt.Sprintf("GET %s HTTP/1.1\r\nHost: %s\r\nConnection: %s\r\n\r\n",
		path, c.Addr(), connection))
}

// Partition splits total into concurrency quotas. The first total%concurrency
// workers get one extra request so the quotas always sum to total.
func Partition(total, concurrency int) []int {
	if concurrency <= 0 {
		return nil
	}
	base := total / concurrency
	remainder := total % concurrency

	quotas := make([]int, concurrency)
	for i := range quotas {
		quotas[i] = base
		if i < remainder {
			quotas[i]++
		}
	}
	return quotas
}
