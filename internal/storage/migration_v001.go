package storage

import "database/sql"

// migrateV001 creates the run cache schema: runs, their transition and
// visit rows, and the audit log. Every statement uses IF NOT EXISTS for
// idempotency.
func migrateV001(tx *sql.Tx) error {
	stmts := []string{
		// ── Tables ──────────────────────────────────────────────

		`CREATE TABLE IF NOT EXISTS runs (
			id               TEXT PRIMARY KEY,
			source_path      TEXT NOT NULL,
			source_name      TEXT NOT NULL DEFAULT '',
			created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			event_count      INTEGER NOT NULL DEFAULT 0,
			user_count       INTEGER NOT NULL DEFAULT 0,
			category_count   INTEGER NOT NULL DEFAULT 0,
			transition_count INTEGER NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS transitions (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			source TEXT NOT NULL,
			target TEXT NOT NULL,
			count  INTEGER NOT NULL CHECK (count > 0),
			PRIMARY KEY (run_id, source, target),
			CHECK (source <> target)
		)`,

		`CREATE TABLE IF NOT EXISTS visits (
			run_id   TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			category TEXT NOT NULL,
			count    INTEGER NOT NULL CHECK (count >= 0),
			PRIMARY KEY (run_id, category)
		)`,

		`CREATE TABLE IF NOT EXISTS audit_log (
			id     INTEGER PRIMARY KEY AUTOINCREMENT,
			action TEXT NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			run_id TEXT,
			ts     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		// ── Indexes ────────────────────────────────────────────

		`CREATE INDEX IF NOT EXISTS idx_runs_created_at     ON runs(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_source_name    ON runs(source_name)`,
		`CREATE INDEX IF NOT EXISTS idx_transitions_count   ON transitions(run_id, count)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_log_ts        ON audit_log(ts)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_log_action    ON audit_log(action)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
