package export

import (
	"html/template"
	"io"
	"strings"

	"github.com/runnerr0/chordmap/internal/chord"
)

// HTMLOptions tunes the HTML page.
type HTMLOptions struct {
	// Controls adds a threshold form and download links, for pages served
	// by the display server.
	Controls bool
}

type htmlPage struct {
	Title          string
	Subtitle       string
	MinTransitions int
	Connectors     int
	Markers        int
	SVG            template.HTML
	Controls       bool
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { margin: 0; font-family: Arial, sans-serif; background: #fafafa; color: #333333; }
header { padding: 12px 24px; font-size: 13px; color: #666666; }
header form { display: inline; margin-left: 16px; }
header input { width: 4em; }
main { padding: 0 24px 24px; }
svg.chordmap { background: #ffffff; border: 1px solid #e0e0e0; cursor: grab; user-select: none; }
svg.chordmap .legend-entry { cursor: pointer; }
</style>
</head>
<body>
<header>
{{if .Subtitle}}{{.Subtitle}} · {{end}}{{.Connectors}} connectors, {{.Markers}} categories, transitions with at least {{.MinTransitions}} occurrences.
Scroll to zoom, drag to pan, double-click to reset, click a legend entry to toggle its group.
{{- if .Controls}}
<form method="get" action="/">
<label>Minimum transitions <input type="number" name="min" min="0" value="{{.MinTransitions}}"></label>
<button type="submit">Redraw</button>
</form>
<a href="/diagram.svg?min={{.MinTransitions}}">SVG</a> · <a href="/diagram.json?min={{.MinTransitions}}">JSON</a>
{{- end}}
</header>
<main>
{{.SVG}}
</main>
<script>
(function () {
  var svg = document.querySelector("svg.chordmap");
  if (!svg) { return; }
  var viewport = svg.querySelector(".viewport");
  var scale = 1, tx = 0, ty = 0, drag = null;

  function point(ev) {
    var p = svg.createSVGPoint();
    p.x = ev.clientX;
    p.y = ev.clientY;
    return p.matrixTransform(svg.getScreenCTM().inverse());
  }
  function apply() {
    viewport.setAttribute("transform", "translate(" + tx + "," + ty + ") scale(" + scale + ")");
  }

  svg.addEventListener("wheel", function (ev) {
    ev.preventDefault();
    var p = point(ev);
    var k = ev.deltaY < 0 ? 1.1 : 1 / 1.1;
    tx = p.x - (p.x - tx) * k;
    ty = p.y - (p.y - ty) * k;
    scale *= k;
    apply();
  }, { passive: false });
  svg.addEventListener("mousedown", function (ev) {
    var p = point(ev);
    drag = { x: p.x - tx, y: p.y - ty };
  });
  window.addEventListener("mousemove", function (ev) {
    if (!drag) { return; }
    var p = point(ev);
    tx = p.x - drag.x;
    ty = p.y - drag.y;
    apply();
  });
  window.addEventListener("mouseup", function () { drag = null; });
  svg.addEventListener("dblclick", function () {
    scale = 1; tx = 0; ty = 0;
    apply();
  });

  svg.querySelectorAll(".legend-entry").forEach(function (entry) {
    entry.addEventListener("mousedown", function (ev) { ev.stopPropagation(); });
    entry.addEventListener("click", function () {
      var name = entry.getAttribute("data-group");
      svg.querySelectorAll(".markers .group").forEach(function (g) {
        if (g.getAttribute("data-group") === name) { g.classList.toggle("hidden"); }
      });
      entry.classList.toggle("muted");
    });
  });
})();
</script>
</body>
</html>
`))

// svgElement returns the SVG markup without its XML declaration, for
// inlining into HTML.
func svgElement(d *chord.Diagram, c Canvas) string {
	s := SVG(d, c)
	if i := strings.Index(s, "?>"); i >= 0 && strings.HasPrefix(s, "<?xml") {
		s = strings.TrimLeft(s[i+2:], "\n")
	}
	return s
}

// WriteHTML writes a self-contained HTML page: the SVG inlined, plus a
// small script for pan, zoom and legend toggling. No external assets.
func WriteHTML(w io.Writer, d *chord.Diagram, c Canvas, opts HTMLOptions) error {
	page := htmlPage{
		Title:          d.Title,
		Subtitle:       d.Subtitle,
		MinTransitions: d.MinTransitions,
		Connectors:     len(d.Connectors),
		Markers:        d.Markers(),
		SVG:            template.HTML(svgElement(d, c)), // all text in it is escaped by SVG
		Controls:       opts.Controls,
	}
	return pageTemplate.Execute(w, page)
}
