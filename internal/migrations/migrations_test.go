package migrations

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRun_AppliesAllMigrations(t *testing.T) {
	db := openDB(t)
	require.NoError(t, Run(db))

	version, err := GetCurrentVersion(db)
	require.NoError(t, err)
	assert.Equal(t, AllMigrations[len(AllMigrations)-1].Version, version)

	var n int
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = 'idx_bench_runs_mode_started'`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestRun_IsIdempotent(t *testing.T) {
	db := openDB(t)
	require.NoError(t, Run(db))
	require.NoError(t, Run(db))

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&n))
	assert.Equal(t, len(AllMigrations), n)
}

func TestMigrations_AreOrdered(t *testing.T) {
	for i := 1; i < len(AllMigrations); i++ {
		assert.Greater(t, AllMigrations[i].Version, AllMigrations[i-1].Version)
	}
}
