// Package chord turns aggregated transitions and a circular layout into a
// chord diagram: curved connectors between categories and one marker per
// category, grouped by taxonomy.
package chord

import (
	"fmt"

	"github.com/runnerr0/chordmap/internal/taxonomy"
)

// RenderError reports a category that the layout did not place. It is an
// invariant violation: the diagram is not produced.
type RenderError struct {
	Category string
	Reason   string
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render chord diagram: category %q: %s", e.Category, e.Reason)
}

// Point is a coordinate in layout space, where the circle has radius 1.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Connector is one drawn transition.
type Connector struct {
	Source      string       `json:"source"`
	Target      string       `json:"target"`
	SourceGroup string       `json:"source_group"`
	TargetGroup string       `json:"target_group"`
	Count       int          `json:"count"`
	Width       float64      `json:"width"`
	Opacity     float64      `json:"opacity"`
	Color       taxonomy.RGB `json:"-"`
	RGBA        string       `json:"color"`
	Control     Point        `json:"control"`
	Points      []Point      `json:"points"`
	Text        string       `json:"text"`
}

// Marker is the node drawn for one category.
type Marker struct {
	Category string  `json:"category"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Size     float64 `json:"size"`
	Visits   int     `json:"visits"`
	Text     string  `json:"text"`
}

// MarkerGroup is the set of markers of one taxonomy group. Legends toggle
// whole groups.
type MarkerGroup struct {
	Group   string       `json:"group"`
	Color   taxonomy.RGB `json:"-"`
	Hex     string       `json:"color"`
	Markers []Marker     `json:"markers"`
}

// LegendEntry is one line of the legend.
type LegendEntry struct {
	Group string `json:"group"`
	Hex   string `json:"color"`
	Nodes int    `json:"nodes"`
}

// Diagram is a fully computed chord diagram, ready for any output surface.
type Diagram struct {
	Title          string        `json:"title"`
	Subtitle       string        `json:"subtitle,omitempty"`
	LegendTitle    string        `json:"legend_title"`
	MinTransitions int           `json:"min_transitions"`
	Connectors     []Connector   `json:"connectors"`
	Groups         []MarkerGroup `json:"groups"`
	Legend         []LegendEntry `json:"legend"`
}

// Markers returns the number of markers across all groups.
func (d *Diagram) Markers() int {
	n := 0
	for _, g := range d.Groups {
		n += len(g.Markers)
	}
	return n
}
