package layout

import "github.com/matzehuels/netdiagram/pkg/topology"

// PlaceStandalone puts every device no group lists into one row below the
// lowest group, StandaloneGap under its bottom edge, and writes the devices'
// X and Y. It returns the bottom-right corner of the row, or the zero point
// when there are no standalone devices.
func PlaceStandalone(geo Geometry, snap *topology.Snapshot, m *Membership) Point {
	y := geo.BaseMarginY
	if len(snap.Groups) > 0 {
		y = 0
		for i := range snap.Groups {
			y = max(y, geo.GroupRect(&snap.Groups[i]).Bottom())
		}
	}
	y += geo.StandaloneGap

	var (
		n      int
		corner Point
	)
	for i := range snap.Devices {
		d := &snap.Devices[i]
		if !m.IsStandalone(d.Hostname) {
			continue
		}
		d.X = geo.BaseMarginX + float64(n)*geo.StandaloneSpacing
		d.Y = y
		corner = Point{X: d.X + geo.DeviceWidth, Y: d.Y + geo.DeviceHeight}
		n++
	}
	return corner
}
