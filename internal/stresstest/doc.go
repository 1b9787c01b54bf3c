/*
Package stresstest drives HTTP/1.1 load over raw TCP connections and measures
throughput and latency.

# Overview

Two connection strategies are supported:
  - Keep-alive: every worker holds one connection and reuses it for its whole quota
  - Close: every request opens a new connection that the server closes after replying

# Architecture

The package consists of these components:

 1. Framer (framer.go): finds the end of one HTTP response on a byte stream
 2. Worker (worker.go): runs one quota of requests sequentially on one logical connection
 3. Executor (executor.go): splits the total across workers and waits for them
 4. Stats (stats.go): the shared aggregate, updated under a single mutex
 5. Summary (report.go): derived metrics (rate, throughput, latency)
 6. Manager (manager.go): SQLite persistence of finished runs

# Framing

Close mode reads until end of stream. Keep-alive mode accumulates bytes until the
header separator is found, reads Content-Length from the header block and stops once
header + body bytes are in the buffer. A response without Content-Length is treated
as having an empty body. Bytes read past the end of a response are dropped, they are
not handed to the next request on the same connection.

# Throughput

The two modes define throughput differently and both definitions are kept:
keep-alive divides successful requests by the run duration, close divides all
requests by the run duration.

# Example Usage

	cfg := &Config{
		Mode:          ModeKeepAlive,
		Host:          "127.0.0.1",
		Port:          8080,
		Path:          "/hello",
		TotalRequests: 50000,
		Concurrency:   50,
		Timeout:       5 * time.Second,
	}

	executor, err := NewExecutor(cfg, WithLogger(logger))
	if err != nil {
		return err
	}

	summary, err := executor.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%.2f %s\n", summary.Throughput, summary.ThroughputUnit)

# Thread Safety

Stats is the only state shared between workers. Every update is a single critical
section and no lock is held across network I/O. Each worker owns its connection.
*/
package stresstest
