package layout

import (
	"fmt"

	"github.com/matzehuels/netdiagram/pkg/topology"
)

// Resolver answers position queries against the current state of a
// snapshot. Every query is a pure function of the position fields, so a
// group moved by a drag is reflected on the next call.
type Resolver struct {
	geo      Geometry
	snap     *topology.Snapshot
	members  *Membership
	reporter Reporter
}

// NewResolver returns a resolver over snap. m must have been built from the
// same snapshot.
func NewResolver(geo Geometry, snap *topology.Snapshot, m *Membership, r Reporter) *Resolver {
	if r == nil {
		r = Discard
	}
	return &Resolver{geo: geo, snap: snap, members: m, reporter: r}
}

// DeviceOrigin returns the absolute top-left of a device box. Grouped devices
// are offset from their group; standalone devices use their stored position.
// An unknown hostname resolves to the zero point.
func (r *Resolver) DeviceOrigin(hostname string) Point {
	d, ok := r.snap.Device(hostname)
	if !ok {
		return Point{}
	}
	if name, ok := r.members.GroupOf(hostname); ok {
		if g, ok := r.snap.Group(name); ok {
			idx, _ := r.members.Index(hostname)
			return Point{X: g.X, Y: g.Y}.Add(RelativePosition(r.geo, d, idx))
		}
	}
	return Point{X: d.X, Y: d.Y}
}

// DeviceCenter returns the visual center of a device box.
func (r *Resolver) DeviceCenter(hostname string) Point {
	return r.DeviceOrigin(hostname).Add(Point{X: r.geo.DeviceCenterDX, Y: r.geo.DeviceCenterDY})
}

// InterfaceAnchor returns the center of an interface glyph. Glyphs sit in a
// single row centered under the device box. An unknown interface resolves
// to a point near the bottom center of the device and is reported as a
// LookupMiss.
func (r *Resolver) InterfaceAnchor(hostname, name string) Point {
	origin := r.DeviceOrigin(hostname)
	d, ok := r.snap.Device(hostname)
	idx := -1
	if ok {
		idx = d.InterfaceIndex(name)
	}
	if idx < 0 {
		r.reporter.Report(Diagnostic{
			Kind:    LookupMiss,
			Subject: hostname,
			Detail:  fmt.Sprintf("interface %q not found", name),
		})
		return Point{X: origin.X + r.geo.DeviceCenterDX, Y: origin.Y + r.geo.InterfaceMissDY}
	}

	n := float64(len(d.Interfaces))
	step := r.geo.InterfaceSize + r.geo.InterfaceGap
	total := n*r.geo.InterfaceSize + (n-1)*r.geo.InterfaceGap
	start := origin.X + r.geo.DeviceCenterDX - total/2
	return Point{
		X: start + float64(idx)*step + r.geo.InterfaceSize/2,
		Y: origin.Y + r.geo.InterfaceOffsetY,
	}
}

// DeviceBounds returns the device box of hostname.
func (r *Resolver) DeviceBounds(hostname string) (Rect, bool) {
	if _, ok := r.snap.Device(hostname); !ok {
		return Rect{}, false
	}
	o := r.DeviceOrigin(hostname)
	return Rect{X: o.X, Y: o.Y, Width: r.geo.DeviceWidth, Height: r.geo.DeviceHeight}, true
}

// GroupBounds returns the bounding box of the named group.
func (r *Resolver) GroupBounds(name string) (Rect, bool) {
	g, ok := r.snap.Group(name)
	if !ok {
		return Rect{}, false
	}
	return r.geo.GroupRect(g), true
}

// ConnectionPath returns the SVG path data for a straight line between the
// two interface anchors of c.
func (r *Resolver) ConnectionPath(c topology.Connection) string {
	a, b := r.ConnectionAnchors(c)
	return LinePath(a, b)
}

// ConnectionAnchors returns the source and destination anchors of c.
func (r *Resolver) ConnectionAnchors(c topology.Connection) (Point, Point) {
	return r.InterfaceAnchor(c.SourceDevice, c.SourceInterface),
		r.InterfaceAnchor(c.DestinationDevice, c.DestinationInterface)
}

// LinePath is the SVG path of a straight line from a to b.
func LinePath(a, b Point) string {
	return fmt.Sprintf("M %g %g L %g %g", a.X, a.Y, b.X, b.Y)
}

// =============================================================================
// Hit Testing
// =============================================================================

// HitKind says what a point landed on.
type HitKind int

// Hit kinds, from background to foreground.
const (
	HitNone HitKind = iota
	HitGroup
	HitDevice
	HitInterface
)

func (k HitKind) String() string {
	switch k {
	case HitGroup:
		return "group"
	case HitDevice:
		return "device"
	case HitInterface:
		return "interface"
	default:
		return "none"
	}
}

// MarshalText encodes k by name.
func (k HitKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Hit is the result of a hit test. Group is set whenever the point is inside
// a group, even when a device inside it was hit.
type Hit struct {
	Kind      HitKind `json:"kind"`
	Group     string  `json:"group,omitempty"`
	Device    string  `json:"device,omitempty"`
	Interface string  `json:"interface,omitempty"`
}

// HitTest returns the foremost element under p. Interfaces sit above devices
// and devices above group backgrounds. Later groups are drawn over earlier
// ones.
func (r *Resolver) HitTest(p Point) Hit {
	var hit Hit
	for i := len(r.snap.Groups) - 1; i >= 0; i-- {
		g := &r.snap.Groups[i]
		if r.geo.GroupRect(g).Contains(p) {
			hit = Hit{Kind: HitGroup, Group: g.Name}
			break
		}
	}

	for i := range r.snap.Devices {
		d := &r.snap.Devices[i]
		if hit.Kind == HitGroup {
			if owner, _ := r.members.GroupOf(d.Hostname); owner != hit.Group {
				continue
			}
		} else if !r.members.IsStandalone(d.Hostname) {
			continue
		}
		box, _ := r.DeviceBounds(d.Hostname)
		if !box.Contains(p) {
			continue
		}
		hit.Kind, hit.Device = HitDevice, d.Hostname
		half := r.geo.InterfaceSize / 2
		for _, ifc := range d.Interfaces {
			a := r.InterfaceAnchor(d.Hostname, ifc.Name)
			glyph := Rect{X: a.X - half, Y: a.Y - half, Width: r.geo.InterfaceSize, Height: r.geo.InterfaceSize}
			if glyph.Contains(p) {
				hit.Kind, hit.Interface = HitInterface, ifc.Name
				break
			}
		}
		break
	}
	return hit
}
