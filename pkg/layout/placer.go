package layout

import (
	"slices"

	"github.com/matzehuels/netdiagram/pkg/topology"
)

// DefaultLevel is the level assumed when a group or device declares none.
const DefaultLevel = 1

func levelOr(p *int) int {
	if p == nil {
		return DefaultLevel
	}
	return *p
}

// groupSize returns the size used for placement. Groups that were never
// sized fall back to the fallback group size.
func (geo Geometry) groupSize(g *topology.DeviceGroup) (float64, float64) {
	w, h := g.Width, g.Height
	if w <= 0 {
		w = geo.FallbackGroupWidth
	}
	if h <= 0 {
		h = geo.FallbackGroupHeight
	}
	return w, h
}

// GroupRect returns the bounding box of g as placement sees it.
func (geo Geometry) GroupRect(g *topology.DeviceGroup) Rect {
	w, h := geo.groupSize(g)
	return Rect{X: g.X, Y: g.Y, Width: w, Height: h}
}

// PlaceGroups packs groups into rows and writes each group's X and Y.
//
// Groups are bucketed by y-level and the buckets are laid out top to bottom
// in ascending order. Inside a bucket the groups are stably sorted by x-level
// and placed left to right, each one starting GroupSpacingX past the previous
// group's right edge. Each row starts LevelSpacingY below the tallest group of
// the row above it. Levels only order groups; they are never coordinates.
//
// The returned canvas covers every group plus CanvasMargin, floored at the
// minimum canvas size.
func PlaceGroups(geo Geometry, groups []topology.DeviceGroup) Canvas {
	buckets := make(map[int][]*topology.DeviceGroup)
	for i := range groups {
		g := &groups[i]
		y := levelOr(g.YLevel)
		buckets[y] = append(buckets[y], g)
	}

	levels := make([]int, 0, len(buckets))
	for y := range buckets {
		levels = append(levels, y)
	}
	slices.Sort(levels)

	var right, bottom float64
	currentY := geo.BaseMarginY
	for _, y := range levels {
		row := buckets[y]
		slices.SortStableFunc(row, func(a, b *topology.DeviceGroup) int {
			return levelOr(a.XLevel) - levelOr(b.XLevel)
		})

		currentX := geo.BaseMarginX
		var tallest float64
		for _, g := range row {
			w, h := geo.groupSize(g)
			g.X, g.Y = currentX, currentY
			currentX += w + geo.GroupSpacingX
			tallest = max(tallest, h)
			right = max(right, g.X+w)
			bottom = max(bottom, g.Y+h)
		}
		currentY += tallest + geo.LevelSpacingY
	}

	return geo.canvasFor(right, bottom)
}
