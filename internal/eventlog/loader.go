// Package eventlog reads navigation logs: one row per page view, with the
// user, the category visited and when.
package eventlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// Default column names expected in the header row.
const (
	DefaultUserColumn      = "user_id"
	DefaultCategoryColumn  = "category"
	DefaultTimestampColumn = "timestamp"
)

// Columns names the header cells holding each field.
type Columns struct {
	User      string
	Category  string
	Timestamp string
	Delimiter rune
}

// DefaultColumns returns the standard header layout.
func DefaultColumns() Columns {
	return Columns{
		User:      DefaultUserColumn,
		Category:  DefaultCategoryColumn,
		Timestamp: DefaultTimestampColumn,
		Delimiter: ',',
	}
}

// Event is a single page view.
type Event struct {
	Row       int // 1-based data row in the source file
	UserID    string
	Category  string
	Timestamp Timestamp
}

// Log is a loaded, sorted navigation log.
type Log struct {
	Path     string
	Events   []Event        // sorted by user, then timestamp
	Visits   map[string]int // occurrences per category, all rows
	Ordering Ordering
}

// Users returns the number of distinct non-empty user ids.
func (l *Log) Users() int {
	seen := make(map[string]struct{})
	for _, e := range l.Events {
		if e.UserID != "" {
			seen[e.UserID] = struct{}{}
		}
	}
	return len(seen)
}

// Load opens path and reads it with Read.
func Load(path string, cols Columns) (*Log, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer f.Close()

	return Read(f, path, cols)
}

// Read parses a delimited log from r. name is used in errors and kept as
// the log's Path.
func Read(r io.Reader, name string, cols Columns) (*Log, error) {
	if cols.Delimiter == 0 {
		cols.Delimiter = ','
	}

	reader := csv.NewReader(r)
	reader.Comma = cols.Delimiter

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &LoadError{Path: name, Err: errors.New("file is empty")}
		}
		return nil, &LoadError{Path: name, Line: 1, Err: fmt.Errorf("reading header: %w", err)}
	}

	columnMap := make(map[string]int, len(header))
	for i, col := range header {
		if i == 0 {
			col = strings.TrimPrefix(col, "\ufeff")
		}
		col = strings.TrimSpace(col)
		if _, dup := columnMap[col]; !dup {
			columnMap[col] = i
		}
	}

	var missing []string
	for _, want := range []string{cols.User, cols.Category, cols.Timestamp} {
		if _, ok := columnMap[want]; !ok {
			missing = append(missing, want)
		}
	}
	if len(missing) > 0 {
		return nil, &LoadError{Path: name, Line: 1, Err: fmt.Errorf("missing required columns %v (available: %v)", missing, header)}
	}
	userCol, catCol, tsCol := columnMap[cols.User], columnMap[cols.Category], columnMap[cols.Timestamp]

	log := &Log{Path: name, Visits: make(map[string]int)}
	allTime, allNumeric := true, true

	for row := 1; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			line := 0
			if errors.As(err, &pe) {
				line = pe.Line
			}
			return nil, &LoadError{Path: name, Line: line, Err: err}
		}

		e := Event{
			Row:       row,
			UserID:    strings.TrimSpace(record[userCol]),
			Category:  record[catCol],
			Timestamp: ParseTimestamp(record[tsCol]),
		}
		allTime = allTime && e.Timestamp.Parsed
		allNumeric = allNumeric && e.Timestamp.IsNumber

		log.Visits[e.Category]++
		log.Events = append(log.Events, e)
	}

	switch {
	case allTime:
		log.Ordering = Chronological
	case allNumeric:
		log.Ordering = Numeric
	default:
		log.Ordering = Lexicographic
	}
	Sort(log.Events, log.Ordering)
	return log, nil
}

// Sort orders events by user id, then timestamp. Equal keys keep their
// input order.
func Sort(events []Event, o Ordering) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.UserID != b.UserID {
			return a.UserID < b.UserID
		}
		return compare(a.Timestamp, b.Timestamp, o) < 0
	})
}
