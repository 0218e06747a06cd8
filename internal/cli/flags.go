package cli

import (
	"database/sql"
	"io"
)

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file (default ~/.config/chordmap/config.yaml)" default:""`
	DBPath  string `long:"db-path" description:"Path to the run cache database (overrides config)"`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Enable debug logging"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// inputArg is the event log positional argument.
type inputArg struct {
	Input string `positional-arg-name:"csv" description:"Navigation event log (CSV)"`
}

// ExportCommand runs the pipeline and writes the diagram to a file.
type ExportCommand struct {
	Output         string `long:"output" short:"o" description:"Output file (default: input name with the format's extension)"`
	Format         string `long:"format" short:"f" description:"Output format: svg | html | json (default: from --output, else html)"`
	MinTransitions int    `long:"min-transitions" description:"Hide transitions seen fewer times (default from config)" default:"-1"`
	Save           bool   `long:"save" description:"Store the aggregation in the run cache"`
	RunID          string `long:"run" description:"Render a stored run instead of reading a CSV"`

	Args inputArg `positional-args:"yes"`

	globals *GlobalFlags
	version string
}

// DisplayCommand serves the interactive diagram over HTTP.
type DisplayCommand struct {
	MinTransitions int    `long:"min-transitions" description:"Default visibility threshold (default from config)" default:"-1"`
	Host           string `long:"host" description:"Override server host"`
	Port           int    `long:"port" description:"Override server port"`
	RunID          string `long:"run" description:"Display a stored run instead of reading a CSV"`

	Args inputArg `positional-args:"yes"`

	globals *GlobalFlags
	version string
	ready   chan<- string // receives the bound address; tests only
}

// StatsCommand prints a transitions summary of an event log.
type StatsCommand struct {
	Limit          int `long:"limit" description:"Number of top transitions to list" default:"10"`
	MinTransitions int `long:"min-transitions" description:"Threshold used for the visible count (default from config)" default:"-1"`

	Args inputArg `positional-args:"yes"`

	globals *GlobalFlags
	version string
}

// RunsCommand lists stored runs.
type RunsCommand struct {
	Source string `long:"source" description:"Only runs of this source file (name or path)"`
	Since  string `long:"since" description:"Only runs newer than duration (e.g., 7d, 24h, 2w)"`
	Limit  int    `long:"limit" description:"Maximum results" default:"20"`
	Offset int    `long:"offset" description:"Skip first N results" default:"0"`

	globals *GlobalFlags
	version string
}

// ShowCommand prints the transitions of a stored run.
type ShowCommand struct {
	ID     string `long:"id" description:"Run ID (required)"`
	Format string `long:"format" description:"Output format: table | json" default:"table"`

	globals *GlobalFlags
	version string
}

// DeleteCommand deletes one stored run.
type DeleteCommand struct {
	ID string `long:"id" description:"Run ID (required)"`

	globals *GlobalFlags
	version string
}

// PruneCommand deletes stored runs older than a duration.
type PruneCommand struct {
	OlderThan string `long:"older-than" description:"Delete runs older than duration (e.g., 30d)" default:"30d"`
	DryRun    bool   `long:"dry-run" description:"Show what would be pruned without deleting"`

	globals *GlobalFlags
	version string
}

// PurgeCommand deletes ALL stored runs with safety confirmation.
type PurgeCommand struct {
	All   bool `long:"all" description:"Required flag to confirm purge intent"`
	Force bool `long:"force" description:"Skip safety confirmation prompt"`

	globals *GlobalFlags
	version string
	db      *sql.DB   // injectable for testing; nil means open the configured DB
	stdin   io.Reader // injectable for testing; nil means os.Stdin
}

// StatusCommand shows configuration, run cache and taxonomy summary.
type StatusCommand struct {
	globals *GlobalFlags
	version string
}
