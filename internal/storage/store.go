package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a run ID does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the interface for run cache operations.
type Store interface {
	SaveRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, query RunQuery) ([]RunSummary, error)
	DeleteRun(ctx context.Context, id string) error
	PruneRuns(ctx context.Context, olderThan time.Time) (int64, error)
	PurgeAll(ctx context.Context) error
	GetStats(ctx context.Context) (*Stats, error)
	Close() error
}

// SQLiteStore implements Store backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB

	// Prepared statements
	getRun         *sql.Stmt
	getTransitions *sql.Stmt
	getVisits      *sql.Stmt
}

// NewSQLiteStore creates a new SQLiteStore from an already-opened and migrated database.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}

	if err := s.prepareStatements(); err != nil {
		return nil, fmt.Errorf("prepare statements: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.getRun, err = s.db.Prepare(`
		SELECT id, source_path, source_name, created_at, event_count, user_count, category_count
		FROM runs WHERE id = ?
	`)
	if err != nil {
		return err
	}

	s.getTransitions, err = s.db.Prepare(`
		SELECT source, target, count FROM transitions
		WHERE run_id = ? ORDER BY source, target
	`)
	if err != nil {
		return err
	}

	s.getVisits, err = s.db.Prepare(`SELECT category, count FROM visits WHERE run_id = ?`)
	if err != nil {
		return err
	}

	return nil
}

// generateID creates a run ID: RUN- + a random UUID.
func generateID() string {
	return "RUN-" + uuid.NewString()
}

// parseTimestamp tries several common SQLite timestamp formats.
func parseTimestamp(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp: %s", s)
}

// timestampLayout is fixed width so stored timestamps compare as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// SaveRun stores a run with its transition and visit rows in a single
// transaction. The run's ID is generated, and CreatedAt and SourceName are
// filled in when empty.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *Run) error {
	if run.SourcePath == "" {
		return fmt.Errorf("save run: source path is required")
	}
	run.ID = generateID()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	if run.SourceName == "" {
		run.SourceName = filepath.Base(run.SourcePath)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, source_path, source_name, created_at, event_count, user_count, category_count, transition_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.SourcePath, run.SourceName, formatTimestamp(run.CreatedAt),
		run.Events, run.Users, run.Categories, len(run.Transitions),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	insertTransition, err := tx.PrepareContext(ctx,
		"INSERT INTO transitions (run_id, source, target, count) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare transition insert: %w", err)
	}
	defer insertTransition.Close()

	for _, tr := range run.Transitions {
		if _, err := insertTransition.ExecContext(ctx, run.ID, tr.Source, tr.Target, tr.Count); err != nil {
			return fmt.Errorf("insert transition %s -> %s: %w", tr.Source, tr.Target, err)
		}
	}

	insertVisit, err := tx.PrepareContext(ctx,
		"INSERT INTO visits (run_id, category, count) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare visit insert: %w", err)
	}
	defer insertVisit.Close()

	for category, n := range run.Visits {
		if _, err := insertVisit.ExecContext(ctx, run.ID, category, n); err != nil {
			return fmt.Errorf("insert visits for %s: %w", category, err)
		}
	}

	if err := audit(ctx, tx, "save", run.SourcePath, run.ID); err != nil {
		return err
	}

	return tx.Commit()
}

// GetRun retrieves a run with all its rows.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	var r Run
	var createdStr string

	err := s.getRun.QueryRowContext(ctx, id).Scan(
		&r.ID, &r.SourcePath, &r.SourceName, &createdStr,
		&r.Events, &r.Users, &r.Categories,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get run: %w", err)
	}
	r.CreatedAt, _ = parseTimestamp(createdStr)

	rows, err := s.getTransitions.QueryContext(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("query transitions: %w", err)
	}
	for rows.Next() {
		var tr TransitionRow
		if err := rows.Scan(&tr.Source, &tr.Target, &tr.Count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		r.Transitions = append(r.Transitions, tr)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	r.Visits = make(map[string]int)
	rows, err = s.getVisits.QueryContext(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("query visits: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var category string
		var n int
		if err := rows.Scan(&category, &n); err != nil {
			return nil, fmt.Errorf("scan visits: %w", err)
		}
		r.Visits[category] = n
	}

	return &r, rows.Err()
}

// ListRuns returns run summaries, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, q RunQuery) ([]RunSummary, error) {
	if q.Limit <= 0 {
		q.Limit = 50
	}

	var clauses []string
	var args []interface{}

	baseQuery := `
		SELECT id, source_path, source_name, created_at,
		       event_count, user_count, category_count, transition_count
		FROM runs
	`

	if q.Source != "" {
		clauses = append(clauses, "(source_name = ? OR source_path = ?)")
		args = append(args, q.Source, q.Source)
	}
	if !q.Since.IsZero() {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, formatTimestamp(q.Since))
	}

	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	fullQuery := baseQuery + where + " ORDER BY created_at DESC, id LIMIT ? OFFSET ?"
	args = append(args, q.Limit, q.Offset)

	rows, err := s.db.QueryContext(ctx, fullQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunSummary{}
	for rows.Next() {
		var r RunSummary
		var createdStr string
		if err := rows.Scan(
			&r.ID, &r.SourcePath, &r.SourceName, &createdStr,
			&r.Events, &r.Users, &r.Categories, &r.Transitions,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.CreatedAt, _ = parseTimestamp(createdStr)
		runs = append(runs, r)
	}

	return runs, rows.Err()
}

// DeleteRun removes a run. Its rows are cascade-deleted by the schema.
func (s *SQLiteStore) DeleteRun(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("run %s: %w", id, ErrNotFound)
	}

	if err := audit(ctx, tx, "delete", "", id); err != nil {
		return err
	}
	return tx.Commit()
}

// PruneRuns deletes runs created before olderThan and returns how many
// were removed.
func (s *SQLiteStore) PruneRuns(ctx context.Context, olderThan time.Time) (int64, error) {
	tsFormatted := formatTimestamp(olderThan)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, "DELETE FROM runs WHERE created_at < ?", tsFormatted)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	if n > 0 {
		if err := audit(ctx, tx, "prune", fmt.Sprintf("%d runs before %s", n, tsFormatted), ""); err != nil {
			return 0, err
		}
	}
	return n, tx.Commit()
}

// CountPruneable returns how many runs PruneRuns would delete.
func (s *SQLiteStore) CountPruneable(ctx context.Context, olderThan time.Time) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM runs WHERE created_at < ?", formatTimestamp(olderThan),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count pruneable runs: %w", err)
	}
	return n, nil
}

// PurgeAll deletes every run and its rows. The audit log is kept.
func (s *SQLiteStore) PurgeAll(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmts := []string{
		"DELETE FROM visits",
		"DELETE FROM transitions",
		"DELETE FROM runs",
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("purge (%s): %w", stmt, err)
		}
	}
	if err := audit(ctx, tx, "purge", "all runs", ""); err != nil {
		return err
	}
	return tx.Commit()
}

// GetStats returns aggregate statistics about the run cache.
func (s *SQLiteStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs").Scan(&stats.TotalRuns)
	if err != nil {
		return nil, fmt.Errorf("count runs: %w", err)
	}

	err = s.db.QueryRowContext(ctx, "SELECT COALESCE(SUM(count), 0) FROM transitions").Scan(&stats.TotalTransitions)
	if err != nil {
		return nil, fmt.Errorf("count transitions: %w", err)
	}

	// Oldest and newest (handle empty DB)
	if stats.TotalRuns > 0 {
		var oldestStr, newestStr string
		err = s.db.QueryRowContext(ctx, "SELECT MIN(created_at), MAX(created_at) FROM runs").Scan(&oldestStr, &newestStr)
		if err != nil {
			return nil, fmt.Errorf("run time range: %w", err)
		}
		stats.OldestRun, _ = parseTimestamp(oldestStr)
		stats.NewestRun, _ = parseTimestamp(newestStr)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT source_name, COUNT(*) AS cnt FROM runs GROUP BY source_name ORDER BY cnt DESC, source_name LIMIT 10",
	)
	if err != nil {
		return nil, fmt.Errorf("top sources: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sc SourceCount
		if err := rows.Scan(&sc.Source, &sc.Count); err != nil {
			return nil, err
		}
		stats.TopSources = append(stats.TopSources, sc)
	}

	return stats, rows.Err()
}

// AuditEntry is one audit_log row.
type AuditEntry struct {
	Action string
	Detail string
	RunID  string
	At     time.Time
}

// AuditLog returns the most recent audit entries, newest first.
func (s *SQLiteStore) AuditLog(ctx context.Context, limit int) ([]AuditEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT action, detail, COALESCE(run_id, ''), ts FROM audit_log ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		var ts string
		if err := rows.Scan(&e.Action, &e.Detail, &e.RunID, &ts); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.At, _ = parseTimestamp(ts)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func audit(ctx context.Context, tx *sql.Tx, action, detail, runID string) error {
	var id interface{}
	if runID != "" {
		id = runID
	}
	_, err := tx.ExecContext(ctx,
		"INSERT INTO audit_log (action, detail, run_id, ts) VALUES (?, ?, ?, ?)",
		action, detail, id, formatTimestamp(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

// VisitedCategories returns the categories with a visit count, sorted.
func (r *Run) VisitedCategories() []string {
	cats := make([]string, 0, len(r.Visits))
	for c := range r.Visits {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return cats
}

// Close releases all prepared statements. The underlying *sql.DB is NOT
// closed; that is the caller's responsibility.
func (s *SQLiteStore) Close() error {
	stmts := []*sql.Stmt{s.getRun, s.getTransitions, s.getVisits}
	for _, stmt := range stmts {
		if stmt != nil {
			stmt.Close()
		}
	}
	return nil
}
