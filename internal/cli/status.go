package cli

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/runnerr0/chordmap/internal/storage"
	"github.com/runnerr0/chordmap/internal/taxonomy"
)

// statusJSON is the JSON output structure for the status command.
type statusJSON struct {
	Version           string            `json:"version"`
	ConfigPath        string            `json:"config_path"`
	DatabasePath      string            `json:"database_path"`
	DatabaseSizeBytes int64             `json:"database_size_bytes"`
	SchemaVersion     int               `json:"schema_version"`
	TotalRuns         int64             `json:"total_runs"`
	TotalTransitions  int64             `json:"total_transitions"`
	OldestRun         string            `json:"oldest_run,omitempty"`
	NewestRun         string            `json:"newest_run,omitempty"`
	TopSources        []sourceCountJSON `json:"top_sources"`
	MinTransitions    int               `json:"min_transitions"`
	Groups            []groupJSON       `json:"groups"`
	RecentActivity    []auditJSON       `json:"recent_activity"`
}

type sourceCountJSON struct {
	Source string `json:"source"`
	Count  int64  `json:"count"`
}

type groupJSON struct {
	Name       string `json:"name"`
	Color      string `json:"color"`
	Categories int    `json:"categories"`
}

type auditJSON struct {
	Action string `json:"action"`
	Detail string `json:"detail"`
	RunID  string `json:"run_id,omitempty"`
	At     string `json:"at"`
}

// statusInfo gathers everything status prints.
type statusInfo struct {
	cfgPath       string
	dbPath        string
	dbSize        int64
	schemaVersion int
	stats         *storage.Stats
	table         *taxonomy.Table
	audit         []storage.AuditEntry
}

// Execute implements the go-flags Commander interface for StatusCommand.
func (c *StatusCommand) Execute(args []string) error {
	e, err := loadEnv(c.globals)
	if err != nil {
		return err
	}
	defer e.close()

	store, db, dbPath, err := openConfiguredStore(c.globals, e.cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	return c.executeWithStore(context.Background(), e, store, db, dbPath)
}

// executeWithStore runs status against a provided store and db (for testing).
func (c *StatusCommand) executeWithStore(ctx context.Context, e *env, store *storage.SQLiteStore, db *sql.DB, dbPath string) error {
	stats, err := store.GetStats(ctx)
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}

	version, err := storage.NewMigrationRunner(db).Version()
	if err != nil {
		return err
	}

	entries, err := store.AuditLog(ctx, 5)
	if err != nil {
		return err
	}

	table, err := e.cfg.Taxonomy.Table()
	if err != nil {
		return err
	}

	info := statusInfo{
		cfgPath:       e.cfgPath,
		dbPath:        dbPath,
		dbSize:        getDatabaseSize(db, dbPath),
		schemaVersion: version,
		stats:         stats,
		table:         table,
		audit:         entries,
	}

	if c.globals != nil && c.globals.JSON {
		return c.printStatusJSON(info, e.cfg.Render.MinTransitions)
	}
	return c.printStatusHuman(info, e.cfg.Render.MinTransitions)
}

func (c *StatusCommand) printStatusHuman(info statusInfo, minTransitions int) error {
	fmt.Println("chordmap Status")
	fmt.Println("===============")
	fmt.Printf("Version:       %s\n", c.version)
	fmt.Printf("Config:        %s\n", info.cfgPath)
	fmt.Printf("Database:      %s (%s, schema v%d)\n", info.dbPath, formatBytes(info.dbSize), info.schemaVersion)
	fmt.Printf("Runs:          %s\n", formatNumber(info.stats.TotalRuns))
	fmt.Printf("Transitions:   %s\n", formatNumber(info.stats.TotalTransitions))

	if info.stats.TotalRuns > 0 {
		fmt.Printf("Oldest:        %s\n", info.stats.OldestRun.Local().Format("2006-01-02"))
		fmt.Printf("Newest:        %s\n", info.stats.NewestRun.Local().Format("2006-01-02"))
	}
	fmt.Printf("Threshold:     %d\n", minTransitions)

	if len(info.stats.TopSources) > 0 {
		fmt.Println()
		fmt.Println("Top Sources:")
		for _, s := range info.stats.TopSources {
			fmt.Printf("  %-30s %s\n", s.Source, formatNumber(s.Count))
		}
	}

	fmt.Println()
	fmt.Println("Taxonomy:")
	for _, g := range info.table.Groups() {
		fmt.Printf("  %-20s %s  %s\n", g.Name, g.Color.Hex(), plural(len(g.Categories), "category"))
	}
	other := info.table.Other()
	fmt.Printf("  %-20s %s  (unlisted categories)\n", other.Name, other.Color.Hex())

	if len(info.audit) > 0 {
		fmt.Println()
		fmt.Println("Recent Activity:")
		for _, a := range info.audit {
			line := fmt.Sprintf("  %s  %-7s %s", a.At.Local().Format("2006-01-02 15:04"), a.Action, a.Detail)
			if a.RunID != "" {
				line += " (" + a.RunID + ")"
			}
			fmt.Println(strings.TrimRight(line, " "))
		}
	}

	return nil
}

func (c *StatusCommand) printStatusJSON(info statusInfo, minTransitions int) error {
	out := statusJSON{
		Version:           c.version,
		ConfigPath:        info.cfgPath,
		DatabasePath:      info.dbPath,
		DatabaseSizeBytes: info.dbSize,
		SchemaVersion:     info.schemaVersion,
		TotalRuns:         info.stats.TotalRuns,
		TotalTransitions:  info.stats.TotalTransitions,
		TopSources:        make([]sourceCountJSON, len(info.stats.TopSources)),
		MinTransitions:    minTransitions,
		Groups:            []groupJSON{},
		RecentActivity:    make([]auditJSON, len(info.audit)),
	}

	if info.stats.TotalRuns > 0 {
		out.OldestRun = info.stats.OldestRun.UTC().Format(time.RFC3339)
		out.NewestRun = info.stats.NewestRun.UTC().Format(time.RFC3339)
	}

	for i, s := range info.stats.TopSources {
		out.TopSources[i] = sourceCountJSON{Source: s.Source, Count: s.Count}
	}
	for _, g := range info.table.Groups() {
		out.Groups = append(out.Groups, groupJSON{Name: g.Name, Color: g.Color.Hex(), Categories: len(g.Categories)})
	}
	other := info.table.Other()
	out.Groups = append(out.Groups, groupJSON{Name: other.Name, Color: other.Color.Hex()})
	for i, a := range info.audit {
		out.RecentActivity[i] = auditJSON{Action: a.Action, Detail: a.Detail, RunID: a.RunID, At: a.At.UTC().Format(time.RFC3339)}
	}

	return printJSON(out)
}

// getDatabaseSize returns the database file size in bytes.
// For on-disk databases, it uses os.Stat. For in-memory databases,
// it queries page_count * page_size.
func getDatabaseSize(db *sql.DB, dbPath string) int64 {
	// Try file stat first
	if info, err := os.Stat(dbPath); err == nil {
		return info.Size()
	}

	// Fallback: query SQLite for in-memory or unavailable file
	var pageCount, pageSize int64
	if err := db.QueryRow("PRAGMA page_count").Scan(&pageCount); err != nil {
		return 0
	}
	if err := db.QueryRow("PRAGMA page_size").Scan(&pageSize); err != nil {
		return 0
	}
	return pageCount * pageSize
}
