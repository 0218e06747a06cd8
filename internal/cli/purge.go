package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/runnerr0/chordmap/internal/storage"
)

// Execute implements the go-flags Commander interface for PurgeCommand.
func (c *PurgeCommand) Execute(args []string) error {
	if !c.All {
		return fmt.Errorf("purge requires --all flag for safety")
	}

	// Confirmation prompt unless --force
	if !c.Force {
		if err := c.confirm(); err != nil {
			return err
		}
	}

	// Open or use injected DB
	db := c.db
	if db == nil {
		e, err := loadEnv(c.globals)
		if err != nil {
			return err
		}
		defer e.close()

		store, opened, _, err := openConfiguredStore(c.globals, e.cfg)
		if err != nil {
			return err
		}
		defer opened.Close()
		defer store.Close()
		return c.purge(store)
	}

	store, err := storage.NewSQLiteStore(db)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer store.Close()
	return c.purge(store)
}

func (c *PurgeCommand) confirm() error {
	fmt.Println("⚠ WARNING: This will permanently delete ALL stored runs.")
	fmt.Println("  - All run summaries")
	fmt.Println("  - All stored transitions and visits")
	fmt.Println()
	fmt.Println("Event log files are not touched. This action cannot be undone.")
	fmt.Println()
	fmt.Print(`Type "PURGE" to confirm: `)

	var in io.Reader = os.Stdin
	if c.stdin != nil {
		in = c.stdin
	}
	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		return fmt.Errorf("aborted: no input received")
	}
	if strings.TrimSpace(scanner.Text()) != "PURGE" {
		return fmt.Errorf("aborted: confirmation text did not match")
	}
	return nil
}

func (c *PurgeCommand) purge(store storage.Store) error {
	if err := store.PurgeAll(context.Background()); err != nil {
		return fmt.Errorf("purge failed: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(map[string]interface{}{
			"purged":  true,
			"message": "all runs deleted",
		})
	}

	fmt.Println("Purged all stored runs. The run cache is empty.")
	return nil
}
