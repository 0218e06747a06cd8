package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Export  *ExportCommand
	Display *DisplayCommand
	Stats   *StatsCommand
	Runs    *RunsCommand
	Show    *ShowCommand
	Delete  *DeleteCommand
	Prune   *PruneCommand
	Purge   *PurgeCommand
	Status  *StatusCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "chordmap"
	parser.LongDescription = "Chord diagrams of the transitions between page categories in navigation logs."

	cmds := &commands{
		Export:  &ExportCommand{globals: &globals, version: version},
		Display: &DisplayCommand{globals: &globals, version: version},
		Stats:   &StatsCommand{globals: &globals, version: version},
		Runs:    &RunsCommand{globals: &globals, version: version},
		Show:    &ShowCommand{globals: &globals, version: version},
		Delete:  &DeleteCommand{globals: &globals, version: version},
		Prune:   &PruneCommand{globals: &globals, version: version},
		Purge:   &PurgeCommand{globals: &globals, version: version},
		Status:  &StatusCommand{globals: &globals, version: version},
	}

	parser.AddCommand("export", "Write the diagram to a file", "Aggregate an event log (or a stored run) and write the chord diagram as SVG, HTML or JSON.", cmds.Export)
	parser.AddCommand("display", "Serve the interactive diagram", "Aggregate an event log (or a stored run) and serve the interactive diagram over HTTP until interrupted.", cmds.Display)
	parser.AddCommand("stats", "Summarize the transitions of an event log", "Print totals, the most frequent transitions and per-group totals of an event log.", cmds.Stats)
	parser.AddCommand("runs", "List stored runs", "List runs saved in the run cache, newest first.", cmds.Runs)
	parser.AddCommand("show", "Print a stored run", "Print the transitions and visits of a stored run.", cmds.Show)
	parser.AddCommand("delete", "Delete a stored run", "Delete one stored run and its transitions.", cmds.Delete)
	parser.AddCommand("prune", "Delete old stored runs", "Delete stored runs older than a duration.", cmds.Prune)
	parser.AddCommand("purge", "Delete ALL stored runs", "Delete ALL stored runs. Destructive operation with safety prompt.", cmds.Purge)
	parser.AddCommand("status", "Show configuration and run cache summary", "Show the configuration, taxonomy, run cache statistics and recent cache activity.", cmds.Status)

	return parser, &globals, cmds
}

// Run is the main entry point for the chordmap CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// Handle --version before parser (go-flags requires a subcommand, but
	// --version is valid without one).
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("chordmap %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}
