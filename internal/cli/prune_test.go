package cli

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/chordmap/internal/storage"
)

const thirtyDays = 30 * 24 * time.Hour

func TestPrune_DryRunCountsOnly(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()
	now := time.Now()
	seedRun(t, store, "/logs/old.csv", now.Add(-40*24*time.Hour))
	seedRun(t, store, "/logs/new.csv", now)

	cmd := &PruneCommand{DryRun: true, globals: &GlobalFlags{}}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(ctx, store, thirtyDays, now))
	})
	assert.Contains(t, output, "Would prune 1 run older than 30 days.")

	runs, err := store.ListRuns(ctx, storage.RunQuery{})
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestPrune_DeletesOldRuns(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()
	now := time.Now()
	seedRun(t, store, "/logs/old.csv", now.Add(-40*24*time.Hour))
	seedRun(t, store, "/logs/older.csv", now.Add(-90*24*time.Hour))
	kept := seedRun(t, store, "/logs/new.csv", now)

	cmd := &PruneCommand{globals: &GlobalFlags{}}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(ctx, store, thirtyDays, now))
	})
	assert.Contains(t, output, "Pruned 2 runs older than 30 days.")

	runs, err := store.ListRuns(ctx, storage.RunQuery{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, kept.ID, runs[0].ID)
}

func TestPrune_JSON(t *testing.T) {
	store, _ := openTestStore(t)
	now := time.Date(2024, 9, 30, 0, 0, 0, 0, time.UTC)

	cmd := &PruneCommand{DryRun: true, globals: &GlobalFlags{JSON: true}}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(context.Background(), store, thirtyDays, now))
	})

	var got struct {
		DryRun bool   `json:"dry_run"`
		Runs   int64  `json:"runs"`
		Cutoff string `json:"cutoff"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &got))
	assert.True(t, got.DryRun)
	assert.Equal(t, int64(0), got.Runs)
	assert.Equal(t, "2024-08-31T00:00:00Z", got.Cutoff)
}
