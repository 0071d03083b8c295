package layout

import "github.com/matzehuels/netdiagram/pkg/topology"

// RelativePosition returns the top-left of a device inside its group. A
// device that declares both levels sits on the level grid; any other device
// sits in the first row at its member index.
func RelativePosition(geo Geometry, d *topology.Device, index int) Point {
	if d.HasLevels() {
		return Point{
			X: geo.DeviceMarginX + float64(*d.XLevel-1)*geo.GridX,
			Y: geo.DeviceMarginY + float64(*d.YLevel-1)*geo.GridY,
		}
	}
	return Point{
		X: geo.DeviceMarginX + float64(index)*geo.GridX,
		Y: geo.DeviceMarginY,
	}
}

// SizeGroup sizes g to fit members, which must be in canonical member order,
// writes the result into g and returns it. A group with no members gets the
// empty-group size.
func SizeGroup(geo Geometry, g *topology.DeviceGroup, members []*topology.Device) (width, height float64) {
	if len(members) == 0 {
		g.Width, g.Height = geo.EmptyGroupWidth, geo.EmptyGroupHeight
		return g.Width, g.Height
	}
	for i, d := range members {
		rel := RelativePosition(geo, d, i)
		width = max(width, rel.X+geo.DeviceWidth)
		height = max(height, rel.Y+geo.DeviceHeight)
	}
	g.Width, g.Height = width+geo.GroupPadding, height+geo.GroupPadding
	return g.Width, g.Height
}

// SizeGroups sizes every group in snap using m.
func SizeGroups(geo Geometry, snap *topology.Snapshot, m *Membership) {
	for i := range snap.Groups {
		g := &snap.Groups[i]
		SizeGroup(geo, g, m.Members(g.Name))
	}
}
