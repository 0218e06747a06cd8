package storage

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrationRunner_FreshDB(t *testing.T) {
	db := openTestDB(t)
	runner := NewMigrationRunner(db)

	err := runner.Run()
	require.NoError(t, err)

	expectedTables := []string{
		"runs",
		"transitions",
		"visits",
		"audit_log",
		"schema_migrations",
	}
	for _, table := range expectedTables {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrationRunner_IndexesCreated(t *testing.T) {
	db := openTestDB(t)
	runner := NewMigrationRunner(db)
	require.NoError(t, runner.Run())

	expectedIndexes := []string{
		"idx_runs_created_at",
		"idx_runs_source_name",
		"idx_transitions_count",
		"idx_audit_log_ts",
		"idx_audit_log_action",
	}
	for _, idx := range expectedIndexes {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='index' AND name=?", idx,
		).Scan(&name)
		require.NoError(t, err, "index %s should exist", idx)
		assert.Equal(t, idx, name)
	}
}

func TestMigrationRunner_Idempotent(t *testing.T) {
	db := openTestDB(t)
	runner := NewMigrationRunner(db)

	// Run migrations twice
	require.NoError(t, runner.Run())
	require.NoError(t, runner.Run())

	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "should have exactly 1 migration recorded after double-run")
}

func TestMigrationRunner_SchemaMigrationsTracking(t *testing.T) {
	db := openTestDB(t)
	runner := NewMigrationRunner(db)
	require.NoError(t, runner.Run())

	var version int
	var name string
	err := db.QueryRow("SELECT version, name FROM schema_migrations WHERE version = 1").Scan(&version, &name)
	require.NoError(t, err)
	assert.Equal(t, 1, version)
	assert.Equal(t, "run_cache", name)

	v, err := runner.Version()
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestMigrationRunner_WALMode(t *testing.T) {
	db := openTestDB(t)
	runner := NewMigrationRunner(db)
	require.NoError(t, runner.Run())

	var journalMode string
	err := db.QueryRow("PRAGMA journal_mode").Scan(&journalMode)
	require.NoError(t, err)
	// In-memory databases report "memory"; WAL only applies to files.
	assert.Contains(t, []string{"wal", "memory"}, journalMode)
}

func TestMigrationRunner_ForeignKeyEnforcement(t *testing.T) {
	db := openTestDB(t)
	runner := NewMigrationRunner(db)
	require.NoError(t, runner.Run())

	var fk int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk, "foreign_keys should be enabled")

	_, err := db.Exec(
		"INSERT INTO transitions (run_id, source, target, count) VALUES ('nonexistent', 'a', 'b', 1)",
	)
	assert.Error(t, err, "foreign key constraint should prevent orphan transition rows")
}

func TestMigrationRunner_TransitionConstraints(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, NewMigrationRunner(db).Run())

	_, err := db.Exec("INSERT INTO runs (id, source_path) VALUES ('RUN-1', 'x.csv')")
	require.NoError(t, err)

	_, err = db.Exec("INSERT INTO transitions (run_id, source, target, count) VALUES ('RUN-1', 'a', 'a', 1)")
	assert.Error(t, err, "self-transitions are rejected")

	_, err = db.Exec("INSERT INTO transitions (run_id, source, target, count) VALUES ('RUN-1', 'a', 'b', 0)")
	assert.Error(t, err, "zero counts are rejected")

	_, err = db.Exec("INSERT INTO transitions (run_id, source, target, count) VALUES ('RUN-1', 'a', 'b', 3)")
	assert.NoError(t, err)
}
