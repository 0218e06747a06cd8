package cli

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/chordmap/internal/storage"
)

// navigationLog yields bienvenue->tutorial twice and tutorial->Mes tâches once.
const navigationLog = `user_id,category,timestamp
user1,bienvenue,2024-09-01 10:00:00
user1,tutorial,2024-09-01 10:05:00
user1,Mes tâches,2024-09-01 10:09:00
user2,bienvenue,2024-09-02 08:00:00
user2,tutorial,2024-09-02 08:01:00
`

// captureOutput captures stdout during fn execution and returns it as a string.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

// testGlobals writes a config file whose run cache lives in a temp dir.
func testGlobals(t *testing.T) *GlobalFlags {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf("storage:\n  path: %q\nlogging:\n  level: error\n", dir)
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0644))
	return &GlobalFlags{Config: cfgPath}
}

// testEnv loads the environment described by testGlobals.
func testEnv(t *testing.T) (*GlobalFlags, *env) {
	t.Helper()
	globals := testGlobals(t)
	e, err := loadEnv(globals)
	require.NoError(t, err)
	return globals, e
}

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sept.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// openTestStore creates a migrated in-memory store.
func openTestStore(t *testing.T) (*storage.SQLiteStore, *sql.DB) {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	runner := storage.NewMigrationRunner(db)
	require.NoError(t, runner.Run())

	store, err := storage.NewSQLiteStore(db)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store, db
}

// seedRun saves a small run created at the given time.
func seedRun(t *testing.T, store storage.Store, path string, created time.Time) *storage.Run {
	t.Helper()
	run := &storage.Run{
		SourcePath: path,
		CreatedAt:  created,
		Events:     5,
		Users:      2,
		Categories: 3,
		Transitions: []storage.TransitionRow{
			{Source: "bienvenue", Target: "tutorial", Count: 2},
			{Source: "tutorial", Target: "Mes tâches", Count: 1},
		},
		Visits: map[string]int{"bienvenue": 2, "tutorial": 2, "Mes tâches": 1},
	}
	require.NoError(t, store.SaveRun(context.Background(), run))
	return run
}
