// Package layout places categories on the unit circle, one contiguous arc
// per taxonomy group.
package layout

import (
	"math"
	"sort"

	"github.com/runnerr0/chordmap/internal/taxonomy"
)

// Position is a point on the unit circle.
type Position struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Angle float64 `json:"angle"`
}

// Arc is the angular slice occupied by one group.
type Arc struct {
	Group      string   `json:"group"`
	Start      float64  `json:"start"`
	Width      float64  `json:"width"`
	Categories []string `json:"categories"`
}

// Layout holds one position per category and the arcs they were placed in.
type Layout struct {
	Positions map[string]Position
	Arcs      []Arc // non-empty groups in layout order
}

// Circular places categories group by group in the table's order, unknown
// categories last. Each group gets an arc of 2π × members/total starting
// where the previous one ended; members are spaced evenly inside it,
// ordered by name. Groups with no member get no arc.
func Circular(categories []string, table *taxonomy.Table) *Layout {
	l := &Layout{Positions: make(map[string]Position, len(categories))}

	unique := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		unique[c] = struct{}{}
	}
	n := len(unique)
	if n == 0 {
		return l
	}

	members := make(map[string][]string)
	for c := range unique {
		g := table.GroupOf(c)
		members[g] = append(members[g], c)
	}

	current := 0.0
	for _, group := range table.Order() {
		cats := members[group]
		if len(cats) == 0 {
			continue
		}
		sort.Strings(cats)

		slice := 2 * math.Pi * float64(len(cats)) / float64(n)
		for i, c := range cats {
			angle := current + float64(i)*slice/float64(len(cats))
			l.Positions[c] = Position{X: math.Cos(angle), Y: math.Sin(angle), Angle: angle}
		}
		l.Arcs = append(l.Arcs, Arc{Group: group, Start: current, Width: slice, Categories: cats})
		current += slice
	}

	return l
}

// Position returns the position assigned to category.
func (l *Layout) Position(category string) (Position, bool) {
	p, ok := l.Positions[category]
	return p, ok
}

// Span is the total angular width of all arcs: 2π for any non-empty layout.
func (l *Layout) Span() float64 {
	total := 0.0
	for _, a := range l.Arcs {
		total += a.Width
	}
	return total
}

// Arc returns the arc of a group, if it has members.
func (l *Layout) Arc(group string) (Arc, bool) {
	for _, a := range l.Arcs {
		if a.Group == group {
			return a, true
		}
	}
	return Arc{}, false
}
