package storage

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestStore creates a migrated in-memory Store for testing.
func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	runner := NewMigrationRunner(db)
	require.NoError(t, runner.Run())

	store, err := NewSQLiteStore(db)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func sampleRun(path string, created time.Time) *Run {
	return &Run{
		SourcePath: path,
		CreatedAt:  created,
		Events:     6,
		Users:      2,
		Categories: 3,
		Transitions: []TransitionRow{
			{Source: "bienvenue", Target: "tutorial", Count: 2},
			{Source: "tutorial", Target: "Mes tâches", Count: 1},
		},
		Visits: map[string]int{"bienvenue": 3, "tutorial": 2, "Mes tâches": 1},
	}
}

func TestSaveRun_GetRun_Roundtrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	run := sampleRun("/data/logs/sept.csv", time.Date(2024, 9, 30, 12, 0, 0, 0, time.UTC))
	require.NoError(t, store.SaveRun(ctx, run))

	assert.Contains(t, run.ID, "RUN-", "run ID should have RUN- prefix")
	assert.Len(t, run.ID, len("RUN-")+36)
	assert.Equal(t, "sept.csv", run.SourceName)

	got, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, "/data/logs/sept.csv", got.SourcePath)
	assert.Equal(t, "sept.csv", got.SourceName)
	assert.True(t, run.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, 6, got.Events)
	assert.Equal(t, 2, got.Users)
	assert.Equal(t, 3, got.Categories)
	assert.Equal(t, []TransitionRow{
		{Source: "bienvenue", Target: "tutorial", Count: 2},
		{Source: "tutorial", Target: "Mes tâches", Count: 1},
	}, got.Transitions)
	assert.Equal(t, run.Visits, got.Visits)
	assert.Equal(t, []string{"Mes tâches", "bienvenue", "tutorial"}, got.VisitedCategories())
}

func TestSaveRun_GeneratesUniqueIDs(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	r1 := sampleRun("a.csv", time.Time{})
	r2 := sampleRun("a.csv", time.Time{})
	require.NoError(t, store.SaveRun(ctx, r1))
	require.NoError(t, store.SaveRun(ctx, r2))

	assert.NotEqual(t, r1.ID, r2.ID, "IDs should be unique")
	assert.False(t, r1.CreatedAt.IsZero(), "created_at should be set")
}

func TestSaveRun_RequiresSource(t *testing.T) {
	store := openTestStore(t)
	err := store.SaveRun(context.Background(), &Run{})
	assert.Error(t, err)
}

func TestSaveRun_RejectsSelfTransitionAtomically(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	run := sampleRun("bad.csv", time.Time{})
	run.Transitions = append(run.Transitions, TransitionRow{Source: "x", Target: "x", Count: 1})
	require.Error(t, store.SaveRun(ctx, run))

	runs, err := store.ListRuns(ctx, RunQuery{})
	require.NoError(t, err)
	assert.Empty(t, runs, "failed save should leave nothing behind")
}

func TestGetRun_NotFound(t *testing.T) {
	store := openTestStore(t)

	_, err := store.GetRun(context.Background(), "RUN-nonexistent")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestListRuns_NewestFirstWithFilters(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)

	for i, path := range []string{"logs/a.csv", "logs/b.csv", "other/a.csv"} {
		require.NoError(t, store.SaveRun(ctx, sampleRun(path, base.Add(time.Duration(i)*24*time.Hour))))
	}

	all, err := store.ListRuns(ctx, RunQuery{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "other/a.csv", all[0].SourcePath)
	assert.Equal(t, "logs/a.csv", all[2].SourcePath)
	assert.Equal(t, 2, all[0].Transitions)

	byName, err := store.ListRuns(ctx, RunQuery{Source: "a.csv"})
	require.NoError(t, err)
	assert.Len(t, byName, 2)

	byPath, err := store.ListRuns(ctx, RunQuery{Source: "logs/b.csv"})
	require.NoError(t, err)
	require.Len(t, byPath, 1)
	assert.Equal(t, "b.csv", byPath[0].SourceName)

	recent, err := store.ListRuns(ctx, RunQuery{Since: base.Add(36 * time.Hour)})
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestListRuns_Pagination(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.SaveRun(ctx, sampleRun("p.csv", base.Add(time.Duration(i)*time.Minute))))
	}

	page1, err := store.ListRuns(ctx, RunQuery{Limit: 2})
	require.NoError(t, err)
	page2, err := store.ListRuns(ctx, RunQuery{Limit: 2, Offset: 2})
	require.NoError(t, err)
	page3, err := store.ListRuns(ctx, RunQuery{Limit: 2, Offset: 4})
	require.NoError(t, err)

	assert.Len(t, page1, 2)
	assert.Len(t, page2, 2)
	assert.Len(t, page3, 1)
	assert.NotEqual(t, page1[0].ID, page2[0].ID)
}

func TestListRuns_EmptyIsNotNil(t *testing.T) {
	store := openTestStore(t)
	runs, err := store.ListRuns(context.Background(), RunQuery{})
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

func TestDeleteRun_CascadesRows(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	run := sampleRun("d.csv", time.Time{})
	require.NoError(t, store.SaveRun(ctx, run))
	require.NoError(t, store.DeleteRun(ctx, run.ID))

	_, err := store.GetRun(ctx, run.ID)
	assert.True(t, errors.Is(err, ErrNotFound))

	var n int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM transitions").Scan(&n))
	assert.Equal(t, 0, n)
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM visits").Scan(&n))
	assert.Equal(t, 0, n)
}

func TestDeleteRun_NotFound(t *testing.T) {
	store := openTestStore(t)
	err := store.DeleteRun(context.Background(), "RUN-nonexistent")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestPruneRuns(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	old := sampleRun("old.csv", now.Add(-60*24*time.Hour))
	fresh := sampleRun("fresh.csv", now.Add(-time.Hour))
	require.NoError(t, store.SaveRun(ctx, old))
	require.NoError(t, store.SaveRun(ctx, fresh))

	cutoff := now.Add(-30 * 24 * time.Hour)
	n, err := store.CountPruneable(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	pruned, err := store.PruneRuns(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pruned)

	_, err = store.GetRun(ctx, old.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = store.GetRun(ctx, fresh.ID)
	assert.NoError(t, err)
}

func TestPurgeAll(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveRun(ctx, sampleRun("a.csv", time.Time{})))
	require.NoError(t, store.SaveRun(ctx, sampleRun("b.csv", time.Time{})))
	require.NoError(t, store.PurgeAll(ctx))

	stats, err := store.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalRuns)
	assert.Equal(t, int64(0), stats.TotalTransitions)

	entries, err := store.AuditLog(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "purge", entries[0].Action)
}

func TestAuditLog_RecordsActions(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	run := sampleRun("a.csv", time.Time{})
	require.NoError(t, store.SaveRun(ctx, run))
	require.NoError(t, store.DeleteRun(ctx, run.ID))

	entries, err := store.AuditLog(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "delete", entries[0].Action)
	assert.Equal(t, run.ID, entries[0].RunID)
	assert.Equal(t, "save", entries[1].Action)
	assert.Equal(t, "a.csv", entries[1].Detail)
}

func TestGetStats_EmptyDB(t *testing.T) {
	store := openTestStore(t)

	stats, err := store.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalRuns)
	assert.True(t, stats.OldestRun.IsZero())
	assert.Empty(t, stats.TopSources)
}

func TestGetStats_WithData(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveRun(ctx, sampleRun("a.csv", base)))
	require.NoError(t, store.SaveRun(ctx, sampleRun("x/a.csv", base.Add(time.Hour))))
	require.NoError(t, store.SaveRun(ctx, sampleRun("b.csv", base.Add(2*time.Hour))))

	stats, err := store.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalRuns)
	assert.Equal(t, int64(9), stats.TotalTransitions)
	assert.True(t, base.Equal(stats.OldestRun))
	assert.True(t, base.Add(2*time.Hour).Equal(stats.NewestRun))
	require.Len(t, stats.TopSources, 2)
	assert.Equal(t, SourceCount{Source: "a.csv", Count: 2}, stats.TopSources[0])
}

func TestClose(t *testing.T) {
	store := openTestStore(t)
	assert.NoError(t, store.Close())
}
