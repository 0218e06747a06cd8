package analysis

import (
	"math"
	"sort"

	"github.com/runnerr0/chordmap/internal/layout"
	"github.com/runnerr0/chordmap/internal/transition"
)

// GroupTotal sums one taxonomy group's share of the aggregation.
type GroupTotal struct {
	Group       string  `json:"group"`
	Color       string  `json:"color"`
	Categories  int     `json:"categories"`
	Visits      int     `json:"visits"`
	Outgoing    int     `json:"outgoing"`
	Incoming    int     `json:"incoming"`
	WithinGroup int     `json:"within_group"`
	ArcDegrees  float64 `json:"arc_degrees"`
}

// Summary describes an aggregation for the stats command.
type Summary struct {
	Source         string                  `json:"source"`
	Ordering       string                  `json:"ordering,omitempty"`
	Events         int                     `json:"events"`
	Users          int                     `json:"users"`
	Categories     int                     `json:"categories"`
	Pairs          int                     `json:"pairs"`
	Transitions    int                     `json:"transitions"`
	Visible        int                     `json:"visible"`
	MinTransitions int                     `json:"min_transitions"`
	Top            []transition.Transition `json:"top"`
	Groups         []GroupTotal            `json:"groups"`

	// Unclassified lists diagram categories no declared group claims.
	Unclassified []string `json:"unclassified"`
	// Isolated lists visited categories absent from every transition.
	Isolated []string `json:"isolated"`
}

// Summarize reports totals, the top n transitions and per-group totals in
// taxonomy order. Groups with no category in the diagram are omitted.
// Ordering is left empty for restored runs.
func (s *Session) Summarize(top, minTransitions int) (*Summary, error) {
	if s.result == nil {
		return nil, ErrNotLoaded
	}
	res := s.result

	sum := &Summary{
		Source:         s.source,
		Events:         res.Events,
		Users:          res.Users,
		Categories:     len(res.Categories),
		Pairs:          len(res.Counts),
		Transitions:    res.Total(),
		MinTransitions: minTransitions,
		Top:            res.Top(top),
		Groups:         []GroupTotal{},
		Unclassified:   []string{},
		Isolated:       []string{},
	}
	if o, ok := s.Ordering(); ok {
		sum.Ordering = o.String()
	}
	for _, n := range res.Counts {
		if n >= minTransitions {
			sum.Visible++
		}
	}

	totals := make(map[string]*GroupTotal)
	for _, c := range res.Categories {
		g := s.table.GroupOf(c)
		t, ok := totals[g]
		if !ok {
			color, _ := s.table.Color(g)
			t = &GroupTotal{Group: g, Color: color.Hex()}
			totals[g] = t
		}
		t.Categories++
		t.Visits += res.Visits[c]
		if !s.table.Known(c) {
			sum.Unclassified = append(sum.Unclassified, c)
		}
	}
	for c := range res.Visits {
		if !res.Has(c) {
			sum.Isolated = append(sum.Isolated, c)
		}
	}
	sort.Strings(sum.Isolated)
	for p, n := range res.Counts {
		src, dst := s.table.GroupOf(p.Source), s.table.GroupOf(p.Target)
		totals[src].Outgoing += n
		totals[dst].Incoming += n
		if src == dst {
			totals[src].WithinGroup += n
		}
	}

	l := layout.Circular(res.Categories, s.table)
	for _, g := range s.table.Order() {
		if t, ok := totals[g]; ok {
			if arc, ok := l.Arc(g); ok {
				t.ArcDegrees = arc.Width * 180 / math.Pi
			}
			sum.Groups = append(sum.Groups, *t)
		}
	}
	return sum, nil
}
