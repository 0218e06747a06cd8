package eventlog

import (
	"strconv"
	"strings"
	"time"
)

// Ordering is how a log's timestamps were compared.
type Ordering int

const (
	// Chronological means every timestamp parsed as a time.
	Chronological Ordering = iota
	// Numeric means every timestamp is a plain number, such as a step
	// index or an epoch offset.
	Numeric
	// Lexicographic means neither held, so the raw text is compared.
	Lexicographic
)

func (o Ordering) String() string {
	switch o {
	case Chronological:
		return "chronological"
	case Numeric:
		return "numeric"
	default:
		return "lexicographic"
	}
}

// Timestamp keeps the raw text of a timestamp cell, its parsed time when
// one of the known layouts matched, and its value when it is a number.
type Timestamp struct {
	Raw    string
	Time   time.Time
	Parsed bool

	Number   float64
	IsNumber bool
}

var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
}

// ParseTimestamp tries the known layouts in turn. The raw text is kept
// either way.
func ParseTimestamp(s string) Timestamp {
	raw := strings.TrimSpace(s)
	ts := Timestamp{Raw: raw}
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, raw); err == nil {
			ts.Time = t
			ts.Parsed = true
			break
		}
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		ts.Number = n
		ts.IsNumber = true
	}
	return ts
}

// compare orders two timestamps under the given ordering.
func compare(a, b Timestamp, o Ordering) int {
	switch o {
	case Chronological:
		return a.Time.Compare(b.Time)
	case Numeric:
		switch {
		case a.Number < b.Number:
			return -1
		case a.Number > b.Number:
			return 1
		}
		return 0
	}
	return strings.Compare(a.Raw, b.Raw)
}
