package stresstest

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/studiowebux/sockbench/internal/migrations"
)

// Run represents a persisted benchmark run
type Run struct {
	ID             int64      `json:"id" yaml:"id"`
	UUID           string     `json:"uuid" yaml:"uuid"`
	Mode           Mode       `json:"mode" yaml:"mode"`
	Target         string     `json:"target" yaml:"target"`
	Path           string     `json:"path" yaml:"path"`
	RequestedTotal int        `json:"requestedTotal" yaml:"requestedTotal"`
	Concurrency    int        `json:"concurrency" yaml:"concurrency"`
	TimeoutMs      int64      `json:"timeoutMs" yaml:"timeoutMs"`
	StartedAt      time.Time  `json:"startedAt" yaml:"startedAt"`
	CompletedAt    *time.Time `json:"completedAt,omitempty" yaml:"completedAt,omitempty"`
	Status         string     `json:"status" yaml:"status"` // "running", "completed", "cancelled"
	Total          int        `json:"total" yaml:"total"`
	Success        int        `json:"success" yaml:"success"`
	Failure        int        `json:"failure" yaml:"failure"`
	DurationMs     float64    `json:"durationMs" yaml:"durationMs"`
	Throughput     float64    `json:"throughput" yaml:"throughput"`
	ThroughputUnit string     `json:"throughputUnit" yaml:"throughputUnit"`
	AvgLatencyMs   *float64   `json:"avgLatencyMs,omitempty" yaml:"avgLatencyMs,omitempty"`
	MinLatencyMs   float64    `json:"minLatencyMs" yaml:"minLatencyMs"`
	MaxLatencyMs   float64    `json:"maxLatencyMs" yaml:"maxLatencyMs"`
	P50LatencyMs   float64    `json:"p50LatencyMs" yaml:"p50LatencyMs"`
	P95LatencyMs   float64    `json:"p95LatencyMs" yaml:"p95LatencyMs"`
	P99LatencyMs   float64    `json:"p99LatencyMs" yaml:"p99LatencyMs"`
}

// Finish copies the final metrics of summary into the run record
func (r *Run) Finish(s *Summary) {
	completed := s.StartedAt.Add(s.Duration)
	r.CompletedAt = &completed
	r.Status = StatusCompleted
	if s.Cancelled {
		r.Status = StatusCancelled
	}
	r.Total = s.Total
	r.Success = s.Success
	r.Failure = s.Failure
	r.DurationMs = ms(s.Duration)
	r.Throughput = s.Throughput
	r.ThroughputUnit = s.ThroughputUnit
	if s.AvgLatency != nil {
		avg := ms(*s.AvgLatency)
		r.AvgLatencyMs = &avg
	}
	r.MinLatencyMs = ms(s.MinLatency)
	r.MaxLatencyMs = ms(s.MaxLatency)
	r.P50LatencyMs = ms(s.P50Latency)
	r.P95LatencyMs = ms(s.P95Latency)
	r.P99LatencyMs = ms(s.P99Latency)
}

// IsCompleted returns true if the run has finished
func (r *Run) IsCompleted() bool {
	return r.Status == StatusCompleted
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// Manager handles run persistence
type Manager struct {
	db *sql.DB
}

// NewManager opens (or creates) the run database at dbPath
func NewManager(dbPath string) (*Manager, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	if err := migrations.Run(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Manager{db: db}, nil
}

// Close closes the database connection
func (m *Manager) Close() error {
	return m.db.Close()
}

// CreateRun inserts a new run record and sets its ID
func (m *Manager) CreateRun(run *Run) error {
	result, err := m.db.Exec(`
		INSERT INTO bench_runs
		(uuid, mode, target, path, requested_total, concurrency, timeout_ms, started_at, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.UUID, string(run.Mode), run.Target, run.Path, run.RequestedTotal, run.Concurrency,
		run.TimeoutMs, run.StartedAt, run.Status)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	run.ID = id
	return nil
}

// UpdateRun stores the final metrics of a run
func (m *Manager) UpdateRun(run *Run) error {
	_, err := m.db.Exec(`
		UPDATE bench_runs
		SET completed_at = ?, status = ?, total = ?, success = ?, failure = ?,
		    duration_ms = ?, throughput = ?, throughput_unit = ?, avg_latency_ms = ?,
		    min_latency_ms = ?, max_latency_ms = ?, p50_latency_ms = ?, p95_latency_ms = ?, p99_latency_ms = ?
		WHERE id = ?
	`, run.CompletedAt, run.Status, run.Total, run.Success, run.Failure,
		run.DurationMs, run.Throughput, run.ThroughputUnit, run.AvgLatencyMs,
		run.MinLatencyMs, run.MaxLatencyMs, run.P50LatencyMs, run.P95LatencyMs, run.P99LatencyMs,
		run.ID)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

const runColumns = `
	id, uuid, mode, target, path, requested_total, concurrency, timeout_ms, started_at, completed_at, status,
	total, success, failure, duration_ms, throughput, COALESCE(throughput_unit, ''), avg_latency_ms,
	min_latency_ms, max_latency_ms, p50_latency_ms, p95_latency_ms, p99_latency_ms`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	run := &Run{}
	var mode string
	var completedAt sql.NullTime
	var avg sql.NullFloat64

	err := row.Scan(&run.ID, &run.UUID, &mode, &run.Target, &run.Path, &run.RequestedTotal,
		&run.Concurrency, &run.TimeoutMs, &run.StartedAt, &completedAt, &run.Status,
		&run.Total, &run.Success, &run.Failure, &run.DurationMs, &run.Throughput, &run.ThroughputUnit,
		&avg, &run.MinLatencyMs, &run.MaxLatencyMs, &run.P50LatencyMs, &run.P95LatencyMs, &run.P99LatencyMs)
	if err != nil {
		return nil, err
	}

	run.Mode = Mode(mode)
	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	if avg.Valid {
		run.AvgLatencyMs = &avg.Float64
	}
	return run, nil
}

// GetRun retrieves a run by ID
func (m *Manager) GetRun(id int64) (*Run, error) {
	row := m.db.QueryRow(`SELECT `+runColumns+` FROM bench_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get run %d: %w", id, err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, optionally restricted to one mode
func (m *Manager) ListRuns(mode Mode, limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM bench_runs
		WHERE mode = ? OR ? = ''
		ORDER BY started_at DESC, id DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := m.db.Query(query, string(mode), string(mode))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// DeleteRun deletes a run record
func (m *Manager) DeleteRun(id int64) error {
	result, err := m.db.Exec("DELETE FROM bench_runs WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %d not found", id)
	}
	return nil
}
