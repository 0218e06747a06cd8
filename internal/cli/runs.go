package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/runnerr0/chordmap/internal/storage"
)

// runJSON is the JSON output structure for one listed run.
type runJSON struct {
	ID          string `json:"id"`
	Source      string `json:"source"`
	Path        string `json:"path"`
	CreatedAt   string `json:"created_at"`
	Events      int    `json:"events"`
	Users       int    `json:"users"`
	Categories  int    `json:"categories"`
	Transitions int    `json:"transitions"`
}

// Execute implements the go-flags Commander interface for RunsCommand.
func (c *RunsCommand) Execute(args []string) error {
	q, err := c.query(time.Now())
	if err != nil {
		return err
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

	return c.executeWithStore(context.Background(), store, q)
}

// query validates the flags into a RunQuery.
func (c *RunsCommand) query(now time.Time) (storage.RunQuery, error) {
	if c.Limit < 1 {
		return storage.RunQuery{}, fmt.Errorf("--limit must be at least 1, got %d", c.Limit)
	}
	if c.Offset < 0 {
		return storage.RunQuery{}, fmt.Errorf("--offset must be non-negative, got %d", c.Offset)
	}
	q := storage.RunQuery{Source: c.Source, Limit: c.Limit, Offset: c.Offset}
	if c.Since != "" {
		d, err := parseDuration(c.Since)
		if err != nil {
			return storage.RunQuery{}, fmt.Errorf("invalid --since: %w", err)
		}
		q.Since = now.Add(-d)
	}
	return q, nil
}

// executeWithStore lists runs from a provided store (for testing).
func (c *RunsCommand) executeWithStore(ctx context.Context, store storage.Store, q storage.RunQuery) error {
	runs, err := store.ListRuns(ctx, q)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		out := make([]runJSON, len(runs))
		for i, r := range runs {
			out[i] = runJSON{
				ID:          r.ID,
				Source:      r.SourceName,
				Path:        r.SourcePath,
				CreatedAt:   r.CreatedAt.UTC().Format(time.RFC3339),
				Events:      r.Events,
				Users:       r.Users,
				Categories:  r.Categories,
				Transitions: r.Transitions,
			}
		}
		return printJSON(out)
	}

	if len(runs) == 0 {
		fmt.Println("No stored runs.")
		return nil
	}

	fmt.Printf("%-40s  %-16s  %-24s  %8s  %6s  %11s\n", "ID", "CREATED", "SOURCE", "EVENTS", "USERS", "TRANSITIONS")
	for _, r := range runs {
		fmt.Printf("%-40s  %-16s  %-24s  %8s  %6d  %11s\n",
			r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04"), r.SourceName,
			formatNumber(int64(r.Events)), r.Users, formatNumber(int64(r.Transitions)))
	}
	return nil
}
