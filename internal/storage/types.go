package storage

import "time"

// Run is one stored aggregation of an event log: enough to redraw its
// diagram without the source file.
type Run struct {
	ID         string
	SourcePath string
	SourceName string
	CreatedAt  time.Time
	Events     int
	Users      int
	Categories int

	Transitions []TransitionRow
	Visits      map[string]int
}

// TransitionRow is one counted source -> target pair of a run.
type TransitionRow struct {
	Source string
	Target string
	Count  int
}

// RunSummary is a run without its rows, as listed by ListRuns.
type RunSummary struct {
	ID          string
	SourcePath  string
	SourceName  string
	CreatedAt   time.Time
	Events      int
	Users       int
	Categories  int
	Transitions int
}

// RunQuery defines filters for listing runs.
type RunQuery struct {
	Source string // matches the source name or full path
	Since  time.Time
	Limit  int
	Offset int
}

// Stats holds aggregate statistics about the run cache.
type Stats struct {
	TotalRuns        int64
	TotalTransitions int64
	OldestRun        time.Time
	NewestRun        time.Time
	TopSources       []SourceCount
}

// SourceCount pairs a source file name with its run count.
type SourceCount struct {
	Source string
	Count  int64
}
