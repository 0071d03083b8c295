// Package diagram renders a laid out topology as an SVG network diagram.
//
// Every coordinate comes from the layout resolver, so a diagram drawn in the
// middle of a drag shows the dragged group and everything attached to it at
// their current positions. Interface glyphs are filled with their zone color
// and connections belonging to the selected flow are highlighted.
//
//	engine := layout.New()
//	engine.Layout(snap)
//	svg := diagram.RenderSVG(engine, diagram.WithLegend())
package diagram
