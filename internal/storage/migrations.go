package storage

import (
	"database/sql"
	"fmt"
)

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	Apply   func(tx *sql.Tx) error
}

// connectionPragmas are set on every Run, before any migration.
var connectionPragmas = []struct {
	stmt string
	desc string
}{
	{"PRAGMA journal_mode = WAL", "set WAL mode"},
	{"PRAGMA foreign_keys = ON", "enable foreign keys"},
}

const createSchemaMigrations = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		name       TEXT NOT NULL,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`

// MigrationRunner applies pending migrations to the run cache database.
type MigrationRunner struct {
	db         *sql.DB
	migrations []migration
}

// NewMigrationRunner creates a MigrationRunner with all registered migrations.
func NewMigrationRunner(db *sql.DB) *MigrationRunner {
	return &MigrationRunner{
		db: db,
		migrations: []migration{
			{Version: 1, Name: "run_cache", Apply: migrateV001},
		},
	}
}

// Run sets the connection pragmas, creates the schema_migrations tracking
// table, then applies every migration not recorded there, in version order.
// Running it again is a no-op.
func (r *MigrationRunner) Run() error {
	for _, p := range connectionPragmas {
		if _, err := r.db.Exec(p.stmt); err != nil {
			return fmt.Errorf("%s: %w", p.desc, err)
		}
	}

	if _, err := r.db.Exec(createSchemaMigrations); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	applied, err := r.appliedVersions()
	if err != nil {
		return err
	}
	for _, m := range r.migrations {
		if applied[m.Version] {
			continue
		}
		if err := r.apply(m); err != nil {
			return fmt.Errorf("apply migration %d (%s): %w", m.Version, m.Name, err)
		}
	}
	return nil
}

// Version returns the highest applied migration version, or 0 on a fresh
// database.
func (r *MigrationRunner) Version() (int, error) {
	var version sql.NullInt64
	err := r.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return int(version.Int64), nil
}

func (r *MigrationRunner) appliedVersions() (map[int]bool, error) {
	rows, err := r.db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("read applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan migration version: %w", err)
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

// apply executes a migration inside a transaction and records it.
func (r *MigrationRunner) apply(m migration) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := m.Apply(tx); err != nil {
		return err
	}

	if _, err := tx.Exec(
		"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
		m.Version, m.Name,
	); err != nil {
		return fmt.Errorf("record migration: %w", err)
	}

	return tx.Commit()
}
