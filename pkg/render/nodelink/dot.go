package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/netdiagram/pkg/layout"
	"github.com/matzehuels/netdiagram/pkg/render/diagram"
	"github.com/matzehuels/netdiagram/pkg/topology"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds interface names, addresses and zones to device labels.
	// When false, only the hostname is shown.
	Detailed bool
}

// ToDOT converts a laid out scene to Graphviz DOT. Every device is pinned
// to the center of its box, so rendering with neato reproduces the computed
// layout instead of running a graph layout. Graphviz puts the origin at the
// bottom left, so y is flipped against the canvas height.
//
// Connections become edges between devices labeled with their connection
// label; the interfaces appear as tail and head labels.
func ToDOT(s diagram.Scene, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  inputscale=72;\n")
	buf.WriteString("  splines=line;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=10, fixedsize=true];\n")
	buf.WriteString("  edge [fontsize=8];\n")
	buf.WriteString("\n")

	snap := s.Snapshot()
	res := s.Resolver()
	if snap == nil || res == nil {
		buf.WriteString("}\n")
		return buf.String()
	}

	geo := s.Geometry()
	height := s.Canvas().Height
	for _, d := range snap.Devices {
		c := res.DeviceCenter(d.Hostname)
		attrs := []string{
			fmt.Sprintf("label=%q", fmtLabel(d.Hostname, d.Interfaces, opts.Detailed)),
			fmt.Sprintf("pos=\"%g,%g!\"", c.X, height-c.Y),
			fmt.Sprintf("width=%g", geo.DeviceWidth/72),
			fmt.Sprintf("height=%g", geo.DeviceHeight/72),
		}
		if group, ok := membership(s, d.Hostname); ok {
			attrs = append(attrs, fmt.Sprintf("tooltip=%q", "group: "+group))
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", d.Hostname, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, c := range snap.Connections {
		if _, ok := snap.Device(c.SourceDevice); !ok {
			continue
		}
		if _, ok := snap.Device(c.DestinationDevice); !ok {
			continue
		}
		attrs := []string{
			fmt.Sprintf("label=%q", c.Label),
			fmt.Sprintf("taillabel=%q", c.SourceInterface),
			fmt.Sprintf("headlabel=%q", c.DestinationInterface),
			fmt.Sprintf("color=%q", topology.ConnectionStroke(c)),
		}
		if c.Selected {
			attrs = append(attrs, "penwidth=2")
		}
		fmt.Fprintf(&buf, "  %q -- %q [%s];\n", c.SourceDevice, c.DestinationDevice, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(hostname string, ifaces []topology.Interface, detailed bool) string {
	if !detailed || len(ifaces) == 0 {
		return hostname
	}

	parts := make([]string, 0, len(ifaces))
	for _, ifc := range ifaces {
		line := ifc.Name
		if ifc.IP != "" {
			line += " " + ifc.IP
		}
		if ifc.Zone != "" {
			line += " [" + ifc.Zone + "]"
		}
		parts = append(parts, line)
	}
	return hostname + "\n" + strings.Join(parts, "\n")
}

// membership reports the owning group when the scene exposes one.
func membership(s diagram.Scene, hostname string) (string, bool) {
	m, ok := s.(interface{ Membership() *layout.Membership })
	if !ok || m.Membership() == nil {
		return "", false
	}
	return m.Membership().GroupOf(hostname)
}

// RenderSVG renders a DOT graph to SVG using the neato engine, which keeps
// the pinned positions. Returns the SVG bytes ready for display or further
// conversion with render.ToPDF or render.ToPNG.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
