package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/runnerr0/chordmap/internal/storage"
)

// showJSON is the JSON output structure for the show command.
type showJSON struct {
	ID          string           `json:"id"`
	Source      string           `json:"source"`
	Path        string           `json:"path"`
	CreatedAt   string           `json:"created_at"`
	Events      int              `json:"events"`
	Users       int              `json:"users"`
	Categories  int              `json:"categories"`
	Transitions []transitionJSON `json:"transitions"`
	Visits      map[string]int   `json:"visits"`
}

type transitionJSON struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Count  int    `json:"count"`
}

// Execute implements the go-flags Commander interface for ShowCommand.
func (c *ShowCommand) Execute(args []string) error {
	if c.ID == "" {
		return fmt.Errorf("show requires --id")
	}
	if c.Format != "table" && c.Format != "json" {
		return fmt.Errorf("invalid --format %q (use table or json)", c.Format)
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

	return c.executeWithStore(context.Background(), store)
}

// executeWithStore prints a run from a provided store (for testing).
func (c *ShowCommand) executeWithStore(ctx context.Context, store storage.Store) error {
	run, err := store.GetRun(ctx, c.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("run %s not found", c.ID)
		}
		return err
	}

	if c.Format == "json" || (c.globals != nil && c.globals.JSON) {
		out := showJSON{
			ID:          run.ID,
			Source:      run.SourceName,
			Path:        run.SourcePath,
			CreatedAt:   run.CreatedAt.UTC().Format(time.RFC3339),
			Events:      run.Events,
			Users:       run.Users,
			Categories:  run.Categories,
			Transitions: make([]transitionJSON, len(run.Transitions)),
			Visits:      run.Visits,
		}
		for i, tr := range run.Transitions {
			out.Transitions[i] = transitionJSON{Source: tr.Source, Target: tr.Target, Count: tr.Count}
		}
		return printJSON(out)
	}

	fmt.Printf("Run:           %s\n", run.ID)
	fmt.Printf("Source:        %s\n", run.SourcePath)
	fmt.Printf("Created:       %s\n", run.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Printf("Events:        %s\n", formatNumber(int64(run.Events)))
	fmt.Printf("Users:         %d\n", run.Users)
	fmt.Printf("Categories:    %d\n", run.Categories)

	fmt.Println()
	fmt.Printf("%-30s  %-30s  %8s\n", "SOURCE", "TARGET", "COUNT")
	for _, tr := range run.Transitions {
		fmt.Printf("%-30s  %-30s  %8s\n", tr.Source, tr.Target, formatNumber(int64(tr.Count)))
	}

	if len(run.Visits) > 0 {
		fmt.Println()
		fmt.Printf("%-30s  %8s\n", "CATEGORY", "VISITS")
		for _, cat := range run.VisitedCategories() {
			fmt.Printf("%-30s  %8s\n", cat, formatNumber(int64(run.Visits[cat])))
		}
	}
	return nil
}
