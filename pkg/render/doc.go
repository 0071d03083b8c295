// Package render turns laid out topology snapshots into images.
//
// # Overview
//
// Two renderers read the positions computed by [layout.Engine]:
//
//   - [diagram]: the network diagram itself, with group boxes, device boxes,
//     interface glyphs colored by zone and connection lines
//   - [nodelink]: a Graphviz rendering with every device pinned to its
//     computed position, useful for tooling that consumes DOT
//
// # Format Conversion
//
// Both renderers produce SVG. [ToPDF] and [ToPNG] convert any SVG using the
// external rsvg-convert tool (from librsvg):
//
//	svg := diagram.RenderSVG(engine)
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0)  // 2x scale
//
// [layout.Engine]: github.com/matzehuels/netdiagram/pkg/layout.Engine
// [diagram]: github.com/matzehuels/netdiagram/pkg/render/diagram
// [nodelink]: github.com/matzehuels/netdiagram/pkg/render/nodelink
package render
