package diagram

import (
	"bytes"
	"fmt"
	"html"

	"github.com/matzehuels/netdiagram/pkg/layout"
	"github.com/matzehuels/netdiagram/pkg/topology"
)

const diagramCSS = `
    .group-box { fill: #f8f9fa; stroke: #adb5bd; stroke-width: 1.5; }
    .group-label { font: bold 14px sans-serif; fill: #343a40; }
    .device-box { fill: #ffffff; stroke: #495057; stroke-width: 1.5; }
    .device-label { font: 12px sans-serif; fill: #212529; text-anchor: middle; }
    .connection { fill: none; stroke-width: 2; }
    .connection.selected { stroke-width: 3; }
    .connection-label { font: 10px sans-serif; fill: #6c757d; text-anchor: middle; }
    .interface { stroke: #212529; stroke-width: 0.5; }
    .legend { font: 12px sans-serif; fill: #212529; }`

const (
	legendRowHeight = 20
	legendPadding   = 20
)

// Scene is what the renderer reads. [layout.Engine] satisfies it after its
// first Layout call.
type Scene interface {
	Snapshot() *topology.Snapshot
	Resolver() *layout.Resolver
	Canvas() layout.Canvas
	Geometry() layout.Geometry
}

// SVGOption configures RenderSVG.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	legend     bool
	labels     bool
	background string
}

// WithLegend appends a zone legend and, when a flow is selected, its status
// below the diagram.
func WithLegend() SVGOption { return func(r *svgRenderer) { r.legend = true } }

// WithConnectionLabels writes each connection label at its midpoint.
func WithConnectionLabels() SVGOption { return func(r *svgRenderer) { r.labels = true } }

// WithBackground fills the canvas with color.
func WithBackground(color string) SVGOption {
	return func(r *svgRenderer) { r.background = color }
}

// RenderSVG draws the scene. Groups are drawn first, then devices, then
// connections, and interface glyphs last so that they stay clickable. A scene
// without a snapshot renders as an empty canvas.
func RenderSVG(s Scene, opts ...SVGOption) []byte {
	r := svgRenderer{}
	for _, opt := range opts {
		opt(&r)
	}

	geo := s.Geometry()
	canvas := s.Canvas()
	if canvas.Width == 0 || canvas.Height == 0 {
		canvas = layout.Canvas{Width: geo.MinCanvasWidth, Height: geo.MinCanvasHeight}
	}
	snap := s.Snapshot()
	res := s.Resolver()

	height := canvas.Height
	if r.legend && snap != nil {
		height += legendHeight(snap)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %g %g" width="%g" height="%g">`+"\n",
		canvas.Width, height, canvas.Width, height)
	fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", diagramCSS)
	if r.background != "" {
		fmt.Fprintf(&buf, `  <rect class="background" width="100%%" height="100%%" fill="%s"/>`+"\n", html.EscapeString(r.background))
	}

	if snap != nil && res != nil {
		renderGroups(&buf, snap)
		renderDevices(&buf, snap, res)
		renderConnections(&buf, snap, res, r.labels)
		renderInterfaces(&buf, snap, res, geo)
		if r.legend {
			renderLegend(&buf, snap, canvas)
		}
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func renderGroups(buf *bytes.Buffer, snap *topology.Snapshot) {
	for _, g := range snap.Groups {
		name := html.EscapeString(g.Name)
		fmt.Fprintf(buf, `  <g class="group" id="group-%s">`+"\n", name)
		fmt.Fprintf(buf, `    <rect class="group-box" x="%g" y="%g" width="%g" height="%g" rx="8"/>`+"\n",
			g.X, g.Y, g.Width, g.Height)
		fmt.Fprintf(buf, `    <text class="group-label" x="%g" y="%g">%s</text>`+"\n", g.X+10, g.Y+20, name)
		buf.WriteString("  </g>\n")
	}
}

func renderDevices(buf *bytes.Buffer, snap *topology.Snapshot, res *layout.Resolver) {
	for _, d := range snap.Devices {
		box, _ := res.DeviceBounds(d.Hostname)
		name := html.EscapeString(d.Hostname)
		fmt.Fprintf(buf, `  <g class="device" id="device-%s">`+"\n", name)
		fmt.Fprintf(buf, `    <rect class="device-box" x="%g" y="%g" width="%g" height="%g" rx="4"/>`+"\n",
			box.X, box.Y, box.Width, box.Height)
		fmt.Fprintf(buf, `    <text class="device-label" x="%g" y="%g">%s</text>`+"\n",
			box.X+box.Width/2, box.Y+20, name)
		buf.WriteString("  </g>\n")
	}
}

func renderConnections(buf *bytes.Buffer, snap *topology.Snapshot, res *layout.Resolver, labels bool) {
	for _, c := range snap.Connections {
		class := "connection"
		if c.Selected {
			class += " selected"
		}
		a, b := res.ConnectionAnchors(c)
		fmt.Fprintf(buf, `  <path class="%s" d="%s" stroke="%s"><title>%s</title></path>`+"\n",
			class, layout.LinePath(a, b), topology.ConnectionStroke(c), html.EscapeString(c.Label))
		if labels && c.Label != "" {
			fmt.Fprintf(buf, `  <text class="connection-label" x="%g" y="%g">%s</text>`+"\n",
				(a.X+b.X)/2, (a.Y+b.Y)/2-4, html.EscapeString(c.Label))
		}
	}
}

func renderInterfaces(buf *bytes.Buffer, snap *topology.Snapshot, res *layout.Resolver, geo layout.Geometry) {
	half := geo.InterfaceSize / 2
	for _, d := range snap.Devices {
		for _, ifc := range d.Interfaces {
			a := res.InterfaceAnchor(d.Hostname, ifc.Name)
			title := ifc.Name
			if ifc.IP != "" {
				title += " " + ifc.IP
			}
			fmt.Fprintf(buf, `  <rect class="interface" data-device="%s" data-interface="%s" x="%g" y="%g" width="%g" height="%g" fill="%s"><title>%s</title></rect>`+"\n",
				html.EscapeString(d.Hostname), html.EscapeString(ifc.Name),
				a.X-half, a.Y-half, geo.InterfaceSize, geo.InterfaceSize,
				snap.ZoneColor(ifc.Zone), html.EscapeString(title))
		}
	}
}

// =============================================================================
// Legend
// =============================================================================

func legendHeight(snap *topology.Snapshot) float64 {
	rows := len(snap.Zones)
	if _, ok := snap.SelectedFlow(); ok {
		rows++
	}
	if rows == 0 {
		return 0
	}
	return float64(rows*legendRowHeight + 2*legendPadding)
}

func renderLegend(buf *bytes.Buffer, snap *topology.Snapshot, canvas layout.Canvas) {
	x := float64(legendPadding)
	y := canvas.Height + legendPadding
	buf.WriteString(`  <g class="legend">` + "\n")
	for _, z := range snap.Zones {
		fmt.Fprintf(buf, `    <rect x="%g" y="%g" width="12" height="12" fill="%s"/>`+"\n", x, y, snap.ZoneColor(z.Name))
		fmt.Fprintf(buf, `    <text x="%g" y="%g">%s</text>`+"\n", x+20, y+11, html.EscapeString(z.Name))
		y += legendRowHeight
	}
	if f, ok := snap.SelectedFlow(); ok {
		fmt.Fprintf(buf, `    <rect x="%g" y="%g" width="12" height="12" rx="6" fill="%s"/>`+"\n", x, y, topology.FlowStatusColor(f.Status))
		fmt.Fprintf(buf, `    <text x="%g" y="%g">flow %s: %s -&gt; %s (%s)</text>`+"\n", x+20, y+11,
			html.EscapeString(f.Name), html.EscapeString(f.Source), html.EscapeString(f.Destination), html.EscapeString(f.Status))
	}
	buf.WriteString("  </g>\n")
}
