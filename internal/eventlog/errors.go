package eventlog

import "fmt"

// LoadError reports an input file that could not be turned into events:
// missing or unreadable file, absent required columns, malformed rows.
// Callers abort the pipeline; there is no partial result.
type LoadError struct {
	Path string
	Line int // 0 when the failure is not tied to a line
	Err  error
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("load %s: line %d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
