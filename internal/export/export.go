// Package export writes chord diagrams to files: static SVG, a
// self-contained interactive HTML page, or the JSON model.
package export

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/runnerr0/chordmap/internal/chord"
)

// Format is an output format.
type Format string

const (
	FormatSVG  Format = "svg"
	FormatHTML Format = "html"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name. The empty string means HTML.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatHTML, "htm":
		return FormatHTML, nil
	case FormatSVG:
		return FormatSVG, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown format %q (use svg, html or json)", s)
	}
}

// FormatFromPath infers the format from a file extension, defaulting to HTML.
func FormatFromPath(path string) Format {
	f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return FormatHTML
	}
	return f
}

// OutputPath returns output if set, otherwise the input's base name with
// the format's extension, e.g. "logs/sept.csv" -> "sept.html".
func OutputPath(input, output string, f Format) string {
	if output != "" {
		return output
	}
	base := filepath.Base(input)
	return strings.TrimSuffix(base, filepath.Ext(base)) + "." + string(f)
}

// Canvas sizes the drawing.
type Canvas struct {
	Width      int
	Height     int
	Background string
}

// DefaultCanvas is 1200x1000 on white.
func DefaultCanvas() Canvas {
	return Canvas{Width: 1200, Height: 1000, Background: "#ffffff"}
}

// Write renders d to w in the given format.
func Write(w io.Writer, d *chord.Diagram, f Format, c Canvas) error {
	switch f {
	case FormatSVG:
		return WriteSVG(w, d, c)
	case FormatHTML:
		return WriteHTML(w, d, c, HTMLOptions{})
	case FormatJSON:
		return WriteJSON(w, d)
	default:
		return fmt.Errorf("unknown format %q", f)
	}
}
