package export

import (
	"encoding/json"
	"io"

	"github.com/runnerr0/chordmap/internal/chord"
)

// WriteJSON writes the diagram model, indented.
func WriteJSON(w io.Writer, d *chord.Diagram) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}
