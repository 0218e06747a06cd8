package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/runnerr0/chordmap/internal/analysis"
	"github.com/runnerr0/chordmap/internal/config"
	"github.com/runnerr0/chordmap/internal/export"
	"github.com/runnerr0/chordmap/internal/logging"
	"github.com/runnerr0/chordmap/internal/storage"
)

// env is what every command needs once flags are parsed.
type env struct {
	cfg     *config.Config
	cfgPath string
	logger  *zap.Logger
}

// loadEnv resolves the config file and builds the logger.
// Priority: --config flag > default path (created with defaults if missing).
func loadEnv(globals *GlobalFlags) (*env, error) {
	cfgPath, err := config.ResolvePath(globals.Config)
	if err != nil {
		return nil, err
	}

	var cfg *config.Config
	if globals.Config != "" {
		cfg, err = config.Load(cfgPath)
	} else {
		cfg, err = config.LoadOrCreateAt(cfgPath)
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging, globals.Verbose)
	if err != nil {
		return nil, err
	}
	logger.Debug("config loaded", zap.String("path", cfgPath))

	return &env{cfg: cfg, cfgPath: cfgPath, logger: logger}, nil
}

func (e *env) close() {
	e.logger.Sync() //nolint:errcheck
}

// resolveDBPath determines the SQLite database file path.
// Priority: --db-path flag > config file.
func resolveDBPath(globals *GlobalFlags, cfg *config.Config) (string, error) {
	if globals != nil && globals.DBPath != "" {
		return globals.DBPath, nil
	}
	return cfg.Storage.DBPath()
}

// openStore opens the database at dbPath, runs migrations, and returns a
// ready-to-use store and the underlying *sql.DB.
func openStore(dbPath string) (*storage.SQLiteStore, *sql.DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	runner := storage.NewMigrationRunner(db)
	if err := runner.Run(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}

	store, err := storage.NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("create store: %w", err)
	}

	return store, db, nil
}

// openConfiguredStore opens the store named by --db-path or the config.
func openConfiguredStore(globals *GlobalFlags, cfg *config.Config) (*storage.SQLiteStore, *sql.DB, string, error) {
	dbPath, err := resolveDBPath(globals, cfg)
	if err != nil {
		return nil, nil, "", err
	}
	store, db, err := openStore(dbPath)
	return store, db, dbPath, err
}

// newSession builds an analysis session from the config.
func newSession(cfg *config.Config, logger *zap.Logger) (*analysis.Session, error) {
	table, err := cfg.Taxonomy.Table()
	if err != nil {
		return nil, err
	}
	return analysis.New(analysis.Options{
		Columns:     cfg.Input.Columns(),
		Title:       cfg.Render.Title,
		LegendTitle: cfg.Render.LegendTitle,
	}, table, logger), nil
}

// threshold returns flagValue, or the configured default when it is negative.
func threshold(flagValue int, cfg *config.Config) int {
	if flagValue < 0 {
		return cfg.Render.MinTransitions
	}
	return flagValue
}

func canvas(cfg *config.Config) export.Canvas {
	return export.Canvas{Width: cfg.Render.Width, Height: cfg.Render.Height, Background: cfg.Render.Background}
}

// printJSON writes v to stdout, indented.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseDuration parses a human-friendly duration string like "30d", "7d", "24h", "2w".
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("invalid duration: empty string")
	}

	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]

	n, err := strconv.Atoi(numStr)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	switch suffix {
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'w':
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	case 'm':
		return time.Duration(n) * time.Minute, nil
	default:
		return 0, fmt.Errorf("invalid duration: %q (use d, h, w, or m suffix)", s)
	}
}

// formatDurationHuman formats a duration into a human-readable string like "30 days".
func formatDurationHuman(d time.Duration) string {
	days := int(d.Hours() / 24)
	if days > 0 {
		if days == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", days)
	}
	hours := int(d.Hours())
	if hours > 0 {
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	return d.String()
}

// formatBytes formats a byte count into a human-readable string.
func formatBytes(b int64) string {
	switch {
	case b >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(1<<30))
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// formatNumber formats an integer with comma separators.
func formatNumber(n int64) string {
	s := strconv.FormatInt(n, 10)
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if i > 0 {
			result.WriteString(",")
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// plural formats n with word, pluralized unless n is 1.
func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	if strings.HasSuffix(word, "y") {
		return fmt.Sprintf("%d %sies", n, strings.TrimSuffix(word, "y"))
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// validateSource checks the input/--run pair shared by export and display.
func validateSource(cmd, input, runID string) error {
	if input == "" && runID == "" {
		return fmt.Errorf("%s requires a csv file or --run", cmd)
	}
	if input != "" && runID != "" {
		return fmt.Errorf("%s takes either a csv file or --run, not both", cmd)
	}
	return nil
}

// validateThreshold accepts -1 (use config) and any non-negative count.
func validateThreshold(n int) error {
	if n < -1 {
		return fmt.Errorf("--min-transitions must be a non-negative integer, got %d", n)
	}
	return nil
}

// loadSession aggregates input, or restores runID from the run cache.
func loadSession(ctx context.Context, globals *GlobalFlags, e *env, input, runID string) (*analysis.Session, error) {
	session, err := newSession(e.cfg, e.logger)
	if err != nil {
		return nil, err
	}

	if runID == "" {
		if err := session.Load(input); err != nil {
			return nil, err
		}
		return session, nil
	}

	store, db, _, err := openConfiguredStore(globals, e.cfg)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	defer store.Close()

	run, err := store.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if err := session.Restore(run); err != nil {
		return nil, err
	}
	return session, nil
}
