// Package nodelink renders a laid out topology through Graphviz.
//
// # Overview
//
// The diagram package draws the network exactly as the web view does. This
// package instead emits Graphviz DOT in which every device is a node pinned
// to its computed center and every connection is an undirected edge. The
// result can be handed to other Graphviz tooling or rendered here.
//
// # Usage
//
//	engine.Layout(snap)
//	dot := nodelink.ToDOT(engine, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(dot)
//
// For PDF or PNG output, convert the SVG:
//
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0)  // 2x scale
//
// # Positions
//
// DOT positions use inputscale=72 so that one layout unit is one point, and
// each pos carries the "!" suffix so that neato keeps it. Groups are not
// drawn; each device carries its group name as a tooltip.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
