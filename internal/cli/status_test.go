package cli

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_EmptyDB(t *testing.T) {
	globals, e := testEnv(t)
	store, db := openTestStore(t)

	cmd := &StatusCommand{globals: globals, version: "dev"}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(context.Background(), e, store, db, ":memory:"))
	})

	assert.Contains(t, output, "chordmap Status")
	assert.Contains(t, output, "Version:       dev")
	assert.Contains(t, output, "Config:        "+globals.Config)
	assert.Contains(t, output, "schema v1")
	assert.Contains(t, output, "Runs:          0")
	assert.NotContains(t, output, "Oldest:")
	assert.NotContains(t, output, "Recent Activity:")
	assert.Contains(t, output, "Paramètrer")
	assert.Contains(t, output, "Other")
}

func TestStatus_WithRuns(t *testing.T) {
	globals, e := testEnv(t)
	store, db := openTestStore(t)
	run := seedRun(t, store, "/logs/sept.csv", time.Now())
	seedRun(t, store, "/logs/sept.csv", time.Now())

	cmd := &StatusCommand{globals: globals, version: "dev"}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(context.Background(), e, store, db, ":memory:"))
	})

	assert.Contains(t, output, "Runs:          2")
	assert.Contains(t, output, "Transitions:   6")
	assert.Contains(t, output, "Top Sources:")
	assert.Contains(t, output, "Recent Activity:")
	assert.Contains(t, output, "("+run.ID+")")
}

func TestStatus_JSON(t *testing.T) {
	globals, e := testEnv(t)
	globals.JSON = true
	store, db := openTestStore(t)
	seedRun(t, store, "/logs/sept.csv", time.Now())

	cmd := &StatusCommand{globals: globals, version: "1.0.0"}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(context.Background(), e, store, db, ":memory:"))
	})

	var got statusJSON
	require.NoError(t, json.Unmarshal([]byte(output), &got))
	assert.Equal(t, "1.0.0", got.Version)
	assert.Equal(t, 1, got.SchemaVersion)
	assert.Equal(t, int64(1), got.TotalRuns)
	assert.Equal(t, int64(3), got.TotalTransitions)
	assert.Greater(t, got.DatabaseSizeBytes, int64(0))
	assert.NotEmpty(t, got.OldestRun)
	assert.Equal(t, 2, got.MinTransitions)
	require.Len(t, got.TopSources, 1)
	assert.Equal(t, "sept.csv", got.TopSources[0].Source)

	require.Len(t, got.Groups, 7)
	assert.Equal(t, "Other", got.Groups[6].Name)
	assert.Equal(t, "#808080", got.Groups[6].Color)

	require.Len(t, got.RecentActivity, 1)
	assert.Equal(t, "save", got.RecentActivity[0].Action)
	assert.Equal(t, "/logs/sept.csv", got.RecentActivity[0].Detail)
}
