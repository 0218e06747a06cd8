package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/runnerr0/chordmap/internal/storage"
)

// Execute implements the go-flags Commander interface for DeleteCommand.
func (c *DeleteCommand) Execute(args []string) error {
	if c.ID == "" {
		return fmt.Errorf("delete requires --id")
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

// executeWithStore deletes from a provided store (for testing).
func (c *DeleteCommand) executeWithStore(ctx context.Context, store storage.Store) error {
	if err := store.DeleteRun(ctx, c.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("run %s not found", c.ID)
		}
		return fmt.Errorf("delete run: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(map[string]interface{}{"deleted": c.ID})
	}
	fmt.Printf("Deleted run %s\n", c.ID)
	return nil
}
