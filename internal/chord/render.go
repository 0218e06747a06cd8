package chord

import (
	"fmt"
	"math"

	"github.com/runnerr0/chordmap/internal/layout"
	"github.com/runnerr0/chordmap/internal/taxonomy"
	"github.com/runnerr0/chordmap/internal/transition"
)

const (
	// DefaultMinTransitions is the default visibility threshold.
	DefaultMinTransitions = 2

	// CurveSamples is the number of points each connector is sampled at.
	CurveSamples = 100

	// ControlScale is applied to the sum of the endpoints to get the
	// control point, which is therefore their midpoint.
	ControlScale = 0.5

	maxOpacity     = 0.8
	baseMarkerSize = 20
	maxMarkerBonus = 30
)

// Input is everything Render needs.
type Input struct {
	Result         *transition.Result
	Layout         *layout.Layout
	Table          *taxonomy.Table
	MinTransitions int
	Title          string
	Subtitle       string
	LegendTitle    string
}

// Opacity of a connector drawn for count transitions.
func Opacity(count int) float64 {
	return math.Min(maxOpacity, float64(count)/10)
}

// Width of a connector drawn for count transitions.
func Width(count int) float64 {
	return 1 + float64(count)/10
}

// MarkerSize of a category visited visits times.
func MarkerSize(visits int) float64 {
	return baseMarkerSize + math.Min(maxMarkerBonus, float64(visits)/50)
}

// Control returns the control point of the quadratic curve from p0 to p1.
func Control(p0, p1 Point) Point {
	return Point{X: (p0.X + p1.X) * ControlScale, Y: (p0.Y + p1.Y) * ControlScale}
}

// Curve samples the quadratic Bézier curve from p0 to p1 through control c
// at n evenly spaced values of t in [0, 1], both ends included.
func Curve(p0, c, p1 Point, n int) []Point {
	if n < 2 {
		n = 2
	}
	pts := make([]Point, n)
	for i := range pts {
		t := float64(i) / float64(n-1)
		u := 1 - t
		pts[i] = Point{
			X: u*u*p0.X + 2*u*t*c.X + t*t*p1.X,
			Y: u*u*p0.Y + 2*u*t*c.Y + t*t*p1.Y,
		}
	}
	return pts
}

// Render builds the diagram. Transitions with fewer than MinTransitions
// occurrences are not drawn. Any category without a position aborts the
// whole render.
func Render(in Input) (*Diagram, error) {
	if in.Result == nil || in.Layout == nil || in.Table == nil {
		return nil, fmt.Errorf("render chord diagram: result, layout and taxonomy are required")
	}

	d := &Diagram{
		Title:          in.Title,
		Subtitle:       in.Subtitle,
		LegendTitle:    in.LegendTitle,
		MinTransitions: in.MinTransitions,
		Connectors:     []Connector{},
		Groups:         []MarkerGroup{},
		Legend:         []LegendEntry{},
	}

	for _, tr := range in.Result.Sorted() {
		if tr.Count < in.MinTransitions {
			continue
		}
		c, err := connector(in, tr)
		if err != nil {
			return nil, err
		}
		d.Connectors = append(d.Connectors, c)
	}

	groups, err := markerGroups(in)
	if err != nil {
		return nil, err
	}
	for _, g := range groups {
		d.Groups = append(d.Groups, g)
		d.Legend = append(d.Legend, LegendEntry{Group: g.Group, Hex: g.Hex, Nodes: len(g.Markers)})
	}

	return d, nil
}

func connector(in Input, tr transition.Transition) (Connector, error) {
	src, ok := in.Layout.Position(tr.Source)
	if !ok {
		return Connector{}, &RenderError{Category: tr.Source, Reason: "transition source has no layout position"}
	}
	dst, ok := in.Layout.Position(tr.Target)
	if !ok {
		return Connector{}, &RenderError{Category: tr.Target, Reason: "transition target has no layout position"}
	}

	p0 := Point{X: src.X, Y: src.Y}
	p1 := Point{X: dst.X, Y: dst.Y}
	ctrl := Control(p0, p1)

	color := in.Table.ColorOf(tr.Source)
	opacity := Opacity(tr.Count)
	srcGroup, dstGroup := in.Table.GroupOf(tr.Source), in.Table.GroupOf(tr.Target)

	return Connector{
		Source:      tr.Source,
		Target:      tr.Target,
		SourceGroup: srcGroup,
		TargetGroup: dstGroup,
		Count:       tr.Count,
		Width:       Width(tr.Count),
		Opacity:     opacity,
		Color:       color,
		RGBA:        color.RGBA(opacity),
		Control:     ctrl,
		Points:      Curve(p0, ctrl, p1, CurveSamples),
		Text:        fmt.Sprintf("%s (%s) → %s (%s): %d", tr.Source, srcGroup, tr.Target, dstGroup, tr.Count),
	}, nil
}

// markerGroups returns one group per taxonomy group that has at least one
// category in the diagram, in layout order.
func markerGroups(in Input) ([]MarkerGroup, error) {
	byGroup := make(map[string][]string)
	for _, c := range in.Result.Categories {
		g := in.Table.GroupOf(c)
		byGroup[g] = append(byGroup[g], c)
	}

	var out []MarkerGroup
	for _, group := range in.Table.Order() {
		cats := byGroup[group]
		if len(cats) == 0 {
			continue
		}
		color, _ := in.Table.Color(group)
		mg := MarkerGroup{Group: group, Color: color, Hex: color.Hex()}

		for _, c := range cats {
			pos, ok := in.Layout.Position(c)
			if !ok {
				return nil, &RenderError{Category: c, Reason: "category has no layout position"}
			}
			visits := in.Result.Visits[c]
			mg.Markers = append(mg.Markers, Marker{
				Category: c,
				X:        pos.X,
				Y:        pos.Y,
				Size:     MarkerSize(visits),
				Visits:   visits,
				Text:     fmt.Sprintf("%s (%s): %d visits", c, group, visits),
			})
		}
		out = append(out, mg)
	}
	return out, nil
}
