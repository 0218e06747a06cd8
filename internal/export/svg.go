package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/runnerr0/chordmap/internal/chord"
)

// extent is the half-width of the layout space drawn; the unit circle plus
// room for the largest markers.
const extent = 1.2

const (
	marginTop    = 90
	marginBottom = 30
	marginSide   = 30
	legendWidth  = 220
	legendRow    = 22
)

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// escapeXML escapes text for use in SVG content and attribute values.
func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}

// projection maps layout space onto the canvas, y pointing up.
type projection struct {
	cx, cy, scale float64
}

func newProjection(c Canvas) projection {
	plotW := float64(c.Width - 2*marginSide)
	plotH := float64(c.Height - marginTop - marginBottom)
	side := plotW
	if plotH < side {
		side = plotH
	}
	return projection{
		cx:    float64(marginSide) + plotW/2,
		cy:    float64(marginTop) + plotH/2,
		scale: side / (2 * extent),
	}
}

func (p projection) point(x, y float64) (float64, float64) {
	return p.cx + x*p.scale, p.cy - y*p.scale
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// SVG renders the diagram as a standalone SVG document.
func SVG(d *chord.Diagram, c Canvas) string {
	if c.Width <= 0 || c.Height <= 0 {
		c = DefaultCanvas()
	}
	if c.Background == "" {
		c.Background = "#ffffff"
	}
	proj := newProjection(c)

	var svg strings.Builder
	svg.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg class="chordmap" width="%d" height="%d" viewBox="0 0 %d %d" xmlns="http://www.w3.org/2000/svg">
<rect width="100%%" height="100%%" fill="%s"/>
<defs>
<style>
.title { font-family: Arial, sans-serif; font-size: 18px; fill: #333333; }
.subtitle { font-family: Arial, sans-serif; font-size: 13px; fill: #666666; }
.label { font-family: Arial, sans-serif; font-size: 10px; fill: #333333; text-anchor: middle; dominant-baseline: middle; pointer-events: none; }
.legend-title { font-family: Arial, sans-serif; font-size: 13px; font-weight: bold; fill: #333333; }
.legend-entry text { font-family: Arial, sans-serif; font-size: 12px; fill: #333333; }
.connector { fill: none; stroke-linecap: round; }
.hidden { display: none; }
.muted { opacity: 0.35; }
</style>
</defs>
`, c.Width, c.Height, c.Width, c.Height, escapeXML(c.Background)))

	svg.WriteString(fmt.Sprintf(`<text class="title" x="%d" y="36">%s</text>`+"\n", marginSide, escapeXML(d.Title)))
	if d.Subtitle != "" {
		svg.WriteString(fmt.Sprintf(`<text class="subtitle" x="%d" y="58">%s</text>`+"\n", marginSide, escapeXML(d.Subtitle)))
	}

	svg.WriteString(`<g class="viewport">` + "\n")
	drawConnectors(&svg, d, proj)
	drawMarkers(&svg, d, proj)
	svg.WriteString("</g>\n")

	drawLegend(&svg, d, c)

	svg.WriteString("</svg>\n")
	return svg.String()
}

// WriteSVG writes SVG(d, c) to w.
func WriteSVG(w io.Writer, d *chord.Diagram, c Canvas) error {
	_, err := io.WriteString(w, SVG(d, c))
	return err
}

func drawConnectors(svg *strings.Builder, d *chord.Diagram, proj projection) {
	svg.WriteString(`<g class="connectors">` + "\n")
	for _, conn := range d.Connectors {
		var pts strings.Builder
		for i, p := range conn.Points {
			if i > 0 {
				pts.WriteByte(' ')
			}
			x, y := proj.point(p.X, p.Y)
			pts.WriteString(num(x))
			pts.WriteByte(',')
			pts.WriteString(num(y))
		}
		svg.WriteString(fmt.Sprintf(`<polyline class="connector" data-source="%s" data-target="%s" data-group="%s" points="%s" stroke="%s" stroke-opacity="%s" stroke-width="%s"><title>%s</title></polyline>`+"\n",
			escapeXML(conn.Source), escapeXML(conn.Target), escapeXML(conn.SourceGroup),
			pts.String(), conn.Color.Hex(), strconv.FormatFloat(conn.Opacity, 'f', -1, 64), num(conn.Width),
			escapeXML(conn.Text)))
	}
	svg.WriteString("</g>\n")
}

// drawMarkers draws one circle per category. Marker sizes are diameters.
func drawMarkers(svg *strings.Builder, d *chord.Diagram, proj projection) {
	svg.WriteString(`<g class="markers">` + "\n")
	for _, g := range d.Groups {
		svg.WriteString(fmt.Sprintf(`<g class="group" data-group="%s">`+"\n", escapeXML(g.Group)))
		for _, m := range g.Markers {
			x, y := proj.point(m.X, m.Y)
			svg.WriteString(fmt.Sprintf(`<g class="marker"><circle cx="%s" cy="%s" r="%s" fill="%s" stroke="#ffffff" stroke-width="2"><title>%s</title></circle><text class="label" x="%s" y="%s">%s</text></g>`+"\n",
				num(x), num(y), num(m.Size/2), g.Hex, escapeXML(m.Text),
				num(x), num(y), escapeXML(m.Category)))
		}
		svg.WriteString("</g>\n")
	}
	svg.WriteString("</g>\n")
}

func drawLegend(svg *strings.Builder, d *chord.Diagram, c Canvas) {
	if len(d.Legend) == 0 {
		return
	}
	x := c.Width - marginSide - legendWidth
	svg.WriteString(fmt.Sprintf(`<g class="legend" transform="translate(%d,%d)">`+"\n", x, marginTop))
	svg.WriteString(fmt.Sprintf(`<text class="legend-title" x="0" y="0">%s</text>`+"\n", escapeXML(d.LegendTitle)))
	for i, e := range d.Legend {
		y := (i + 1) * legendRow
		svg.WriteString(fmt.Sprintf(`<g class="legend-entry" data-group="%s" transform="translate(0,%d)"><circle cx="6" cy="-4" r="6" fill="%s"/><text x="18" y="0">%s</text></g>`+"\n",
			escapeXML(e.Group), y, e.Hex, escapeXML(e.Group)))
	}
	svg.WriteString("</g>\n")
}
