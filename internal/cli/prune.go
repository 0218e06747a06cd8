package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/runnerr0/chordmap/internal/storage"
)

// Execute implements the go-flags Commander interface for PruneCommand.
func (c *PruneCommand) Execute(args []string) error {
	age, err := parseDuration(c.OlderThan)
	if err != nil {
		return fmt.Errorf("invalid --older-than: %w", err)
	}

	e, err := loadEnv(c.globals)
	if err != nil {
		return err
	}
	defer e.close()

	store, db, _, err := openConfiguredStore(c.globals, e.cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	return c.executeWithStore(context.Background(), store, age, time.Now())
}

// executeWithStore prunes a provided store relative to now (for testing).
func (c *PruneCommand) executeWithStore(ctx context.Context, store *storage.SQLiteStore, age time.Duration, now time.Time) error {
	cutoff := now.Add(-age)

	var n int64
	var err error
	if c.DryRun {
		n, err = store.CountPruneable(ctx, cutoff)
	} else {
		n, err = store.PruneRuns(ctx, cutoff)
	}
	if err != nil {
		return err
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(map[string]interface{}{
			"dry_run": c.DryRun,
			"runs":    n,
			"cutoff":  cutoff.UTC().Format(time.RFC3339),
		})
	}

	if c.DryRun {
		fmt.Printf("Would prune %s older than %s.\n", plural(int(n), "run"), formatDurationHuman(age))
		return nil
	}
	fmt.Printf("Pruned %s older than %s.\n", plural(int(n), "run"), formatDurationHuman(age))
	return nil
}
