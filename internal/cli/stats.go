package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/runnerr0/chordmap/internal/analysis"
)

// Execute implements the go-flags Commander interface for StatsCommand.
func (c *StatsCommand) Execute(args []string) error {
	if c.Args.Input == "" {
		return fmt.Errorf("stats requires a csv file")
	}
	if c.Limit < 0 {
		return fmt.Errorf("--limit must be non-negative, got %d", c.Limit)
	}
	if err := validateThreshold(c.MinTransitions); err != nil {
		return err
	}

	e, err := loadEnv(c.globals)
	if err != nil {
		return err
	}
	defer e.close()

	return c.executeWithEnv(context.Background(), e)
}

func (c *StatsCommand) executeWithEnv(ctx context.Context, e *env) error {
	session, err := loadSession(ctx, c.globals, e, c.Args.Input, "")
	if err != nil {
		return err
	}

	sum, err := session.Summarize(c.Limit, threshold(c.MinTransitions, e.cfg))
	if err != nil {
		return err
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(sum)
	}
	printSummary(sum)
	return nil
}

func printSummary(sum *analysis.Summary) {
	fmt.Printf("Source:        %s\n", sum.Source)
	if sum.Ordering != "" {
		fmt.Printf("Ordering:      %s\n", sum.Ordering)
	}
	fmt.Printf("Events:        %s\n", formatNumber(int64(sum.Events)))
	fmt.Printf("Users:         %s\n", formatNumber(int64(sum.Users)))
	fmt.Printf("Categories:    %d\n", sum.Categories)
	fmt.Printf("Pairs:         %d\n", sum.Pairs)
	fmt.Printf("Transitions:   %s\n", formatNumber(int64(sum.Transitions)))
	fmt.Printf("Visible:       %d of %d pairs (min %d)\n", sum.Visible, sum.Pairs, sum.MinTransitions)
	if len(sum.Unclassified) > 0 {
		fmt.Printf("Unclassified:  %s\n", strings.Join(sum.Unclassified, ", "))
	}
	if len(sum.Isolated) > 0 {
		fmt.Printf("Isolated:      %s\n", strings.Join(sum.Isolated, ", "))
	}

	if len(sum.Top) > 0 {
		fmt.Println()
		fmt.Println("Top Transitions:")
		for _, t := range sum.Top {
			fmt.Printf("  %-40s %s\n", t.Source+" -> "+t.Target, formatNumber(int64(t.Count)))
		}
	}

	if len(sum.Groups) > 0 {
		fmt.Println()
		fmt.Println("Groups:")
		fmt.Printf("  %-20s %10s %8s %8s %8s %8s %8s\n", "GROUP", "CATEGORIES", "VISITS", "OUT", "IN", "WITHIN", "ARC")
		for _, g := range sum.Groups {
			fmt.Printf("  %-20s %10d %8d %8d %8d %8d %7.1f°\n", g.Group, g.Categories, g.Visits, g.Outgoing, g.Incoming, g.WithinGroup, g.ArcDegrees)
		}
	}
}
