// Package analysis runs the chord pipeline for one input file: load,
// aggregate once, then lay out and render on demand.
package analysis

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/runnerr0/chordmap/internal/chord"
	"github.com/runnerr0/chordmap/internal/eventlog"
	"github.com/runnerr0/chordmap/internal/layout"
	"github.com/runnerr0/chordmap/internal/storage"
	"github.com/runnerr0/chordmap/internal/taxonomy"
	"github.com/runnerr0/chordmap/internal/transition"
)

// ErrNotLoaded is returned by Render and Snapshot before Load or Restore.
var ErrNotLoaded = errors.New("no event log loaded")

// Options configures a Session.
type Options struct {
	Columns     eventlog.Columns
	Title       string
	LegendTitle string
}

// Session holds one aggregation. After Load or Restore it is read-only, so
// Render may be called from several goroutines.
type Session struct {
	opts   Options
	table  *taxonomy.Table
	logger *zap.Logger

	source   string
	ordering eventlog.Ordering
	ordered  bool // ordering is known, false after Restore
	result   *transition.Result
}

// New returns an empty session. Zero Columns means the default header
// names; a nil logger discards output.
func New(opts Options, table *taxonomy.Table, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Columns == (eventlog.Columns{}) {
		opts.Columns = eventlog.DefaultColumns()
	}
	if opts.LegendTitle == "" {
		opts.LegendTitle = "Groups"
	}
	return &Session{opts: opts, table: table, logger: logger}
}

// Load reads and aggregates the event log at path.
func (s *Session) Load(path string) error {
	start := time.Now()

	log, err := eventlog.Load(path, s.opts.Columns)
	if err != nil {
		return err
	}
	s.logger.Debug("event log loaded",
		zap.String("path", path),
		zap.Int("events", len(log.Events)),
		zap.Int("users", log.Users()),
		zap.Stringer("ordering", log.Ordering),
	)
	if log.Ordering == eventlog.Lexicographic {
		s.logger.Warn("timestamps not recognised, ordering by raw text", zap.String("path", path))
	}

	res, err := transition.Aggregate(log.Events, log.Visits)
	if err != nil {
		return fmt.Errorf("aggregate %s: %w", path, err)
	}

	s.source = path
	s.ordering = log.Ordering
	s.ordered = true
	s.result = res

	s.logger.Info("transitions aggregated",
		zap.String("path", path),
		zap.Int("events", res.Events),
		zap.Int("categories", len(res.Categories)),
		zap.Int("pairs", len(res.Counts)),
		zap.Int("transitions", res.Total()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// Restore rebuilds the aggregation from a stored run.
func (s *Session) Restore(run *storage.Run) error {
	rows := make([]transition.Transition, 0, len(run.Transitions))
	for _, tr := range run.Transitions {
		rows = append(rows, transition.Transition{Source: tr.Source, Target: tr.Target, Count: tr.Count})
	}
	res, err := transition.FromRows(rows, run.Visits)
	if err != nil {
		return fmt.Errorf("restore run %s: %w", run.ID, err)
	}
	res.Events = run.Events
	res.Users = run.Users

	s.source = run.SourcePath
	s.ordering, s.ordered = 0, false
	s.result = res

	s.logger.Info("run restored",
		zap.String("run", run.ID),
		zap.String("path", run.SourcePath),
		zap.Int("pairs", len(res.Counts)),
	)
	return nil
}

// Source returns the path of the loaded log.
func (s *Session) Source() string {
	return s.source
}

// Ordering reports how the loaded log's events were sequenced. ok is false
// when the aggregation was restored from a stored run.
func (s *Session) Ordering() (o eventlog.Ordering, ok bool) {
	return s.ordering, s.ordered
}

// Result returns the cached aggregation, or nil before Load.
func (s *Session) Result() *transition.Result {
	return s.result
}

// Table returns the session's taxonomy.
func (s *Session) Table() *taxonomy.Table {
	return s.table
}

// Render lays out the categories and draws every transition seen at least
// minTransitions times.
func (s *Session) Render(minTransitions int) (*chord.Diagram, error) {
	if s.result == nil {
		return nil, ErrNotLoaded
	}
	if minTransitions < 0 {
		return nil, fmt.Errorf("minimum transitions must not be negative (got %d)", minTransitions)
	}

	lay := layout.Circular(s.result.Categories, s.table)
	d, err := chord.Render(chord.Input{
		Result:         s.result,
		Layout:         lay,
		Table:          s.table,
		MinTransitions: minTransitions,
		Title:          s.opts.Title,
		Subtitle:       filepath.Base(s.source),
		LegendTitle:    s.opts.LegendTitle,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("diagram rendered",
		zap.Int("min_transitions", minTransitions),
		zap.Int("connectors", len(d.Connectors)),
		zap.Int("markers", d.Markers()),
	)
	return d, nil
}

// Snapshot converts the aggregation into a run ready for SaveRun.
func (s *Session) Snapshot() (*storage.Run, error) {
	if s.result == nil {
		return nil, ErrNotLoaded
	}

	run := &storage.Run{
		SourcePath: s.source,
		SourceName: filepath.Base(s.source),
		Events:     s.result.Events,
		Users:      s.result.Users,
		Categories: len(s.result.Categories),
		Visits:     make(map[string]int, len(s.result.Visits)),
	}
	for _, tr := range s.result.Sorted() {
		run.Transitions = append(run.Transitions, storage.TransitionRow{Source: tr.Source, Target: tr.Target, Count: tr.Count})
	}
	for c, n := range s.result.Visits {
		run.Visits[c] = n
	}
	return run, nil
}
