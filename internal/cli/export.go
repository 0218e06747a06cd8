package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/runnerr0/chordmap/internal/analysis"
	"github.com/runnerr0/chordmap/internal/chord"
	"github.com/runnerr0/chordmap/internal/export"
)

// exportJSON is the JSON output structure for the export command.
type exportJSON struct {
	Output         string `json:"output"`
	Format         string `json:"format"`
	Source         string `json:"source"`
	Connectors     int    `json:"connectors"`
	Markers        int    `json:"markers"`
	MinTransitions int    `json:"min_transitions"`
	RunID          string `json:"run_id,omitempty"`
}

// Execute implements the go-flags Commander interface for ExportCommand.
func (c *ExportCommand) Execute(args []string) error {
	if err := validateSource("export", c.Args.Input, c.RunID); err != nil {
		return err
	}
	if err := validateThreshold(c.MinTransitions); err != nil {
		return err
	}
	if c.Save && c.RunID != "" {
		return fmt.Errorf("--save cannot be combined with --run")
	}
	format, err := c.format()
	if err != nil {
		return err
	}

	e, err := loadEnv(c.globals)
	if err != nil {
		return err
	}
	defer e.close()

	return c.executeWithEnv(context.Background(), e, format)
}

// format resolves --format, then the --output extension, then HTML.
func (c *ExportCommand) format() (export.Format, error) {
	if c.Format != "" {
		return export.ParseFormat(c.Format)
	}
	if c.Output != "" {
		return export.FormatFromPath(c.Output), nil
	}
	return export.FormatHTML, nil
}

// executeWithEnv runs the export against a loaded environment (for testing).
func (c *ExportCommand) executeWithEnv(ctx context.Context, e *env, format export.Format) error {
	session, err := loadSession(ctx, c.globals, e, c.Args.Input, c.RunID)
	if err != nil {
		return err
	}

	minCount := threshold(c.MinTransitions, e.cfg)
	d, err := session.Render(minCount)
	if err != nil {
		return err
	}

	outPath := export.OutputPath(session.Source(), c.Output, format)
	if err := writeDiagram(outPath, d, format, canvas(e.cfg)); err != nil {
		return err
	}

	var runID string
	if c.Save {
		runID, err = c.save(ctx, e, session)
		if err != nil {
			return err
		}
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(exportJSON{
			Output:         outPath,
			Format:         string(format),
			Source:         session.Source(),
			Connectors:     len(d.Connectors),
			Markers:        d.Markers(),
			MinTransitions: minCount,
			RunID:          runID,
		})
	}

	fmt.Printf("Wrote %s (%s, %s, %s, min %d)\n", outPath, format,
		plural(len(d.Connectors), "connector"), plural(d.Markers(), "category"), minCount)
	if runID != "" {
		fmt.Printf("Saved run %s\n", runID)
	}
	return nil
}

func (c *ExportCommand) save(ctx context.Context, e *env, session *analysis.Session) (string, error) {
	run, err := session.Snapshot()
	if err != nil {
		return "", err
	}

	store, db, _, err := openConfiguredStore(c.globals, e.cfg)
	if err != nil {
		return "", err
	}
	defer db.Close()
	defer store.Close()

	if err := store.SaveRun(ctx, run); err != nil {
		return "", fmt.Errorf("save run: %w", err)
	}
	return run.ID, nil
}

func writeDiagram(path string, d *chord.Diagram, format export.Format, c export.Canvas) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := export.Write(f, d, format, c); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
