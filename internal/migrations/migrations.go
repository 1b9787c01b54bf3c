package migrations

import (
	"database/sql"
	"fmt"
)

// Migration represents a single database migration
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// AllMigrations contains all database migrations in order
var AllMigrations = []Migration{
	{
		Version: 1,
		Name:    "Add mode and target indices to bench_runs",
		Up: `
			CREATE INDEX IF NOT EXISTS idx_bench_runs_mode ON bench_runs(mode);
			CREATE INDEX IF NOT EXISTS idx_bench_runs_target ON bench_runs(target);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_bench_runs_mode;
			DROP INDEX IF EXISTS idx_bench_runs_target;
		`,
	},
	{
		Version: 2,
		Name:    "Composite index for per-mode history listing",
		Up: `
			CREATE INDEX IF NOT EXISTS idx_bench_runs_mode_started ON bench_runs(mode, started_at DESC);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_bench_runs_mode_started;
		`,
	},
}

// InitSchema creates all tables
// This must be called before running migrations to ensure all tables exist
func InitSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS bench_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		uuid TEXT NOT NULL UNIQUE,
		mode TEXT NOT NULL,
		target TEXT NOT NULL,
		path TEXT NOT NULL DEFAULT '/',
		requested_total INTEGER NOT NULL,
		concurrency INTEGER NOT NULL,
		timeout_ms INTEGER NOT NULL,
		started_at DATETIME NOT NULL,
		completed_at DATETIME,
		status TEXT NOT NULL,
		total INTEGER NOT NULL DEFAULT 0,
		success INTEGER NOT NULL DEFAULT 0,
		failure INTEGER NOT NULL DEFAULT 0,
		duration_ms REAL NOT NULL DEFAULT 0,
		throughput REAL NOT NULL DEFAULT 0,
		throughput_unit TEXT,
		avg_latency_ms REAL,
		min_latency_ms REAL NOT NULL DEFAULT 0,
		max_latency_ms REAL NOT NULL DEFAULT 0,
		p50_latency_ms REAL NOT NULL DEFAULT 0,
		p95_latency_ms REAL NOT NULL DEFAULT 0,
		p99_latency_ms REAL NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_bench_runs_started_at ON bench_runs(started_at DESC);
	CREATE INDEX IF NOT EXISTS idx_bench_runs_status ON bench_runs(status);
	`

	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}

// Run executes all pending migrations on the database
func Run(db *sql.DB) error {
	if err := InitSchema(db); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	currentVersion, err := GetCurrentVersion(db)
	if err != nil {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	for _, migration := range AllMigrations {
		if migration.Version <= currentVersion {
			continue
		}

		if _, err := db.Exec(migration.Up); err != nil {
			return fmt.Errorf("failed to apply migration %d (%s): %w", migration.Version, migration.Name, err)
		}

		_, err = db.Exec(
			"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
			migration.Version,
			migration.Name,
		)
		if err != nil {
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// GetCurrentVersion returns the current database schema version
func GetCurrentVersion(db *sql.DB) (int, error) {
	var version int
	err := db.QueryRow(`
		SELECT COALESCE(MAX(version), 0)
		FROM schema_migrations
	`).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return 0, err
	}
	return version, nil
}
