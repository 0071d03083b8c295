package layout

import (
	"fmt"
	"testing"

	"github.com/matzehuels/netdiagram/pkg/errors"
	"github.com/matzehuels/netdiagram/pkg/topology"
)

func device(hostname string, ifaces ...string) topology.Device {
	d := topology.Device{Hostname: hostname, Interfaces: []topology.Interface{}}
	for _, name := range ifaces {
		d.Interfaces = append(d.Interfaces, topology.Interface{Name: name})
	}
	return d
}

func leveled(hostname string, x, y int) topology.Device {
	d := device(hostname)
	d.XLevel, d.YLevel = topology.Level(x), topology.Level(y)
	return d
}

func group(name string, x, y *int, members ...string) topology.DeviceGroup {
	return topology.DeviceGroup{Name: name, Devices: members, XLevel: x, YLevel: y}
}

func lv(v int) *int { return topology.Level(v) }

// twoGroups has g1 (empty) and g2 (one device with one interface) in the
// same row, listed in reverse x-level order.
func twoGroups() *topology.Snapshot {
	return &topology.Snapshot{
		Devices: []topology.Device{device("a", "e0")},
		Groups: []topology.DeviceGroup{
			group("g2", lv(2), lv(1), "a"),
			group("g1", lv(1), lv(1)),
		},
	}
}

func TestRelativePositionAndSize(t *testing.T) {
	geo := DefaultGeometry()

	tests := []struct {
		name    string
		devices []topology.Device
		wantRel []Point
		wantW   float64
		wantH   float64
	}{
		{
			name:    "index row",
			devices: []topology.Device{device("a"), device("b"), device("c")},
			wantRel: []Point{{20, 40}, {120, 40}, {220, 40}},
			wantW:   350, wantH: 150,
		},
		{
			name:    "level grid",
			devices: []topology.Device{leveled("a", 2, 3)},
			wantRel: []Point{{120, 200}},
			wantW:   250, wantH: 310,
		},
		{
			name:    "one level is not enough",
			devices: []topology.Device{device("a"), {Hostname: "b", XLevel: lv(5)}},
			wantRel: []Point{{20, 40}, {120, 40}},
			wantW:   250, wantH: 150,
		},
		{
			name:    "empty",
			devices: nil,
			wantW:   150, wantH: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			members := make([]*topology.Device, len(tt.devices))
			for i := range tt.devices {
				members[i] = &tt.devices[i]
				if got := RelativePosition(geo, members[i], i); got != tt.wantRel[i] {
					t.Errorf("RelativePosition(%s) = %v, want %v", members[i].Hostname, got, tt.wantRel[i])
				}
			}
			g := &topology.DeviceGroup{Name: "g", Width: 999, Height: 999}
			w, h := SizeGroup(geo, g, members)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("SizeGroup() = (%v, %v), want (%v, %v)", w, h, tt.wantW, tt.wantH)
			}
			if g.Width != w || g.Height != h {
				t.Errorf("group size = (%v, %v), want written (%v, %v)", g.Width, g.Height, w, h)
			}
		})
	}
}

func TestPlaceGroupsRows(t *testing.T) {
	snap := twoGroups()
	snap.Groups = append(snap.Groups, group("g3", nil, lv(2)))

	e := New()
	canvas := e.Layout(snap)

	want := map[string]Rect{
		"g1": {X: 50, Y: 50, Width: 150, Height: 100},
		"g2": {X: 220, Y: 50, Width: 150, Height: 150},
		"g3": {X: 50, Y: 250, Width: 150, Height: 100},
	}
	for name, w := range want {
		got, ok := e.Resolver().GroupBounds(name)
		if !ok {
			t.Fatalf("GroupBounds(%s) not found", name)
		}
		if got != w {
			t.Errorf("GroupBounds(%s) = %+v, want %+v", name, got, w)
		}
	}
	if canvas != (Canvas{Width: 1400, Height: 1000}) {
		t.Errorf("canvas = %+v, want minimum 1400x1000", canvas)
	}
}

func TestPlaceGroupsTiesKeepArrayOrder(t *testing.T) {
	groups := []topology.DeviceGroup{
		{Name: "b", Width: 100, Height: 100},
		{Name: "a", Width: 100, Height: 100},
		{Name: "c", Width: 100, Height: 100, XLevel: lv(1)},
	}
	PlaceGroups(DefaultGeometry(), groups)

	wantX := map[string]float64{"b": 50, "a": 170, "c": 290}
	for _, g := range groups {
		if g.X != wantX[g.Name] || g.Y != 50 {
			t.Errorf("%s at (%v, %v), want (%v, 50)", g.Name, g.X, g.Y, wantX[g.Name])
		}
	}
}

func TestPlaceGroupsFallbackSize(t *testing.T) {
	groups := []topology.DeviceGroup{{Name: "a"}, {Name: "b"}}
	canvas := PlaceGroups(DefaultGeometry(), groups)

	if groups[1].X != 50+350+20 {
		t.Errorf("b.X = %v, want %v", groups[1].X, 50+350+20)
	}
	if canvas.Width != 1400 {
		t.Errorf("canvas.Width = %v, want 1400", canvas.Width)
	}
}

func TestCanvasGrowsPastMinimum(t *testing.T) {
	snap := &topology.Snapshot{}
	for i := range 15 {
		var names []string
		for j := range 3 {
			h := fmt.Sprintf("d%d-%d", i, j)
			snap.Devices = append(snap.Devices, device(h))
			names = append(names, h)
		}
		snap.Groups = append(snap.Groups, group(fmt.Sprintf("g%d", i), nil, nil, names...))
	}

	canvas := New().Layout(snap)
	// 15 groups of 350 in one row with 14 gaps of 20.
	if want := 50.0 + 15*350 + 14*20 + 100; canvas.Width != want {
		t.Errorf("canvas.Width = %v, want %v", canvas.Width, want)
	}
	if canvas.Height != 1000 {
		t.Errorf("canvas.Height = %v, want 1000", canvas.Height)
	}
}

func TestStandalonePlacement(t *testing.T) {
	snap := twoGroups()
	snap.Devices = append(snap.Devices, device("s1"), device("s2"))

	New().Layout(snap)

	tests := []struct {
		host string
		want Point
	}{
		{"s1", Point{50, 250}},
		{"s2", Point{200, 250}},
	}
	for _, tt := range tests {
		d, _ := snap.Device(tt.host)
		if got := (Point{d.X, d.Y}); got != tt.want {
			t.Errorf("%s at %v, want %v", tt.host, got, tt.want)
		}
	}
}

func TestStandaloneWithoutGroups(t *testing.T) {
	snap := &topology.Snapshot{Devices: []topology.Device{device("s1", "e0"), device("s2", "e0")}}
	e := New()
	e.Layout(snap)

	if got := e.Resolver().DeviceOrigin("s1"); got != (Point{50, 100}) {
		t.Errorf("DeviceOrigin(s1) = %v, want (50, 100)", got)
	}
	if got := e.Resolver().ConnectionPath(topology.Connection{
		SourceDevice:         "s1",
		SourceInterface:      "e0",
		DestinationDevice:    "s2",
		DestinationInterface: "e0",
	}); got != "M 90 140 L 240 140" {
		t.Errorf("ConnectionPath() = %q, want %q", got, "M 90 140 L 240 140")
	}
}

func TestResolver(t *testing.T) {
	snap := &topology.Snapshot{
		Devices: []topology.Device{device("a", "e0", "e1", "e2")},
		Groups:  []topology.DeviceGroup{group("g", nil, nil, "a")},
	}
	rep := &Collector{}
	e := New(WithReporter(rep))
	e.Layout(snap)

	tests := []struct {
		name string
		got  Point
		want Point
	}{
		{"origin", e.Resolver().DeviceOrigin("a"), Point{70, 90}},
		{"center", e.DeviceCenter("a"), Point{110, 105}},
		{"first interface", e.InterfaceAnchor("a", "e0"), Point{92, 130}},
		{"middle interface", e.InterfaceAnchor("a", "e1"), Point{110, 130}},
		{"last interface", e.InterfaceAnchor("a", "e2"), Point{128, 130}},
		{"missing device", e.Resolver().DeviceOrigin("nobody"), Point{}},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
	if n := rep.Count(LookupMiss); n != 0 {
		t.Errorf("LookupMiss count = %d, want 0", n)
	}
}

func TestInterfaceLookupMiss(t *testing.T) {
	snap := &topology.Snapshot{
		Devices: []topology.Device{device("a", "e0")},
		Groups:  []topology.DeviceGroup{group("g", nil, nil, "a")},
	}
	rep := &Collector{}
	e := New(WithReporter(rep))
	e.Layout(snap)

	if got := e.InterfaceAnchor("a", "nope"); got != (Point{110, 135}) {
		t.Errorf("InterfaceAnchor(a, nope) = %v, want (110, 135)", got)
	}
	if got := rep.Count(LookupMiss); got != 1 {
		t.Errorf("LookupMiss count = %d, want 1", got)
	}
	diag := rep.Diagnostics()[0]
	if diag.Subject != "a" {
		t.Errorf("diagnostic subject = %q, want %q", diag.Subject, "a")
	}
}

func TestResolverIsPure(t *testing.T) {
	snap := twoGroups()
	e := New()
	e.Layout(snap)

	first := e.InterfaceAnchor("a", "e0")
	for range 3 {
		if got := e.InterfaceAnchor("a", "e0"); got != first {
			t.Fatalf("InterfaceAnchor changed without mutation: %v then %v", first, got)
		}
	}
}

func TestMembership(t *testing.T) {
	snap := &topology.Snapshot{
		Devices: []topology.Device{device("a"), device("b"), device("c")},
		Groups: []topology.DeviceGroup{
			group("g1", nil, nil, "ghost", "a", "a", "b"),
			group("g2", nil, nil, "a", "c"),
		},
	}
	rep := &Collector{}
	e := New(WithReporter(rep))
	e.Layout(snap)
	m := e.Membership()

	if owner, _ := m.GroupOf("a"); owner != "g1" {
		t.Errorf("GroupOf(a) = %q, want g1", owner)
	}
	tests := []struct {
		host string
		want int
	}{
		{"a", 0},
		{"b", 1},
		{"c", 0},
	}
	for _, tt := range tests {
		if got, _ := m.Index(tt.host); got != tt.want {
			t.Errorf("Index(%s) = %d, want %d", tt.host, got, tt.want)
		}
	}
	if got := len(m.Members("g2")); got != 1 {
		t.Errorf("len(Members(g2)) = %d, want 1", got)
	}
	if got := rep.Count(ReferenceMiss); got != 1 {
		t.Errorf("ReferenceMiss count = %d, want 1", got)
	}
	if got := rep.Count(DuplicateMember); got != 1 {
		t.Errorf("DuplicateMember count = %d, want 1", got)
	}

	// Sizer and resolver agree: b sits in the second slot of g1.
	g1, _ := e.Resolver().GroupBounds("g1")
	if g1.Width != 250 {
		t.Errorf("g1 width = %v, want 250", g1.Width)
	}
	if got := e.Resolver().DeviceOrigin("b"); got != (Point{g1.X + 120, g1.Y + 40}) {
		t.Errorf("DeviceOrigin(b) = %v, want offset (120, 40) from g1", got)
	}
}

// fixture builds a varied snapshot: mixed levels, member counts and some
// leveled devices.
func fixture() *topology.Snapshot {
	snap := &topology.Snapshot{}
	for i := range 9 {
		var names []string
		for j := range i % 4 {
			h := fmt.Sprintf("d%d-%d", i, j)
			d := device(h, "e0", "e1")
			if j == 2 {
				d.XLevel, d.YLevel = lv(1), lv(2)
			}
			snap.Devices = append(snap.Devices, d)
			names = append(names, h)
		}
		snap.Groups = append(snap.Groups, group(fmt.Sprintf("g%d", i), lv(3-i%3), lv(1+i%2), names...))
	}
	snap.Devices = append(snap.Devices, device("solo1"), device("solo2"), device("solo3"))
	return snap
}

func TestGroupsContainMembers(t *testing.T) {
	snap := fixture()
	e := New()
	e.Layout(snap)
	geo := e.Geometry()

	for _, g := range snap.Groups {
		for i, d := range e.Membership().Members(g.Name) {
			rel := RelativePosition(geo, d, i)
			if rel.X+geo.DeviceWidth > g.Width-geo.GroupPadding || rel.Y+geo.DeviceHeight > g.Height-geo.GroupPadding {
				t.Errorf("%s does not fit %s (%vx%v)", d.Hostname, g.Name, g.Width, g.Height)
			}
		}
	}
}

func TestNoOverlap(t *testing.T) {
	snap := fixture()
	e := New()
	e.Layout(snap)
	geo := e.Geometry()

	for i := range snap.Groups {
		a := geo.GroupRect(&snap.Groups[i])
		for j := i + 1; j < len(snap.Groups); j++ {
			if b := geo.GroupRect(&snap.Groups[j]); a.Intersects(b) {
				t.Errorf("%s %+v overlaps %s %+v", snap.Groups[i].Name, a, snap.Groups[j].Name, b)
			}
		}
		for _, d := range snap.Devices {
			if !e.Membership().IsStandalone(d.Hostname) {
				continue
			}
			box, _ := e.Resolver().DeviceBounds(d.Hostname)
			if box.Intersects(a) {
				t.Errorf("standalone %s overlaps %s", d.Hostname, snap.Groups[i].Name)
			}
		}
	}
}

func TestDeterministicAndIdempotent(t *testing.T) {
	positions := func(s *topology.Snapshot) string {
		out := ""
		for _, g := range s.Groups {
			out += fmt.Sprintf("%s:%v,%v,%v,%v;", g.Name, g.X, g.Y, g.Width, g.Height)
		}
		for _, d := range s.Devices {
			out += fmt.Sprintf("%s:%v,%v;", d.Hostname, d.X, d.Y)
		}
		return out
	}

	a, b := fixture(), fixture()
	New().Layout(a)
	New().Layout(b)
	if positions(a) != positions(b) {
		t.Error("identical input produced different positions")
	}

	e := New()
	e.Layout(a)
	first := positions(a)
	e.Layout(a)
	if got := positions(a); got != first {
		t.Errorf("second Layout changed positions:\n%s\n%s", first, got)
	}
}

func TestLayoutComputedNotifications(t *testing.T) {
	e := New()
	var reasons []Reason
	release := e.OnLayoutComputed(func(ev LayoutComputed) {
		reasons = append(reasons, ev.Reason)
		if ev.Canvas.Width < 1400 {
			t.Errorf("event canvas width = %v, want >= 1400", ev.Canvas.Width)
		}
	})

	e.AutoArrange() // no snapshot yet
	e.Layout(twoGroups())
	e.AutoArrange()
	e.RefreshGroupSizes()
	release()
	release()
	e.Layout(twoGroups())

	want := []Reason{ReasonLayout, ReasonAutoArrange, ReasonRefreshSizes}
	if fmt.Sprint(reasons) != fmt.Sprint(want) {
		t.Errorf("reasons = %v, want %v", reasons, want)
	}
}

func TestAutoArrangeRestoresPositions(t *testing.T) {
	snap := twoGroups()
	e := New()
	e.Layout(snap)

	g, _ := snap.Group("g2")
	g.X, g.Y = 900, 900
	e.AutoArrange()
	if g.X != 220 || g.Y != 50 {
		t.Errorf("g2 at (%v, %v) after AutoArrange, want (220, 50)", g.X, g.Y)
	}

	snap.Devices = append(snap.Devices[:1:1], device("b"))
	snap.Groups[0].Devices = append(snap.Groups[0].Devices, "b")
	e.Layout(snap)
	if g.Width != 250 {
		t.Errorf("g2 width = %v, want 250 after relayout", g.Width)
	}
}

func TestReferenceMissesFromConnectionsAndFlows(t *testing.T) {
	snap := twoGroups()
	snap.Connections = []topology.Connection{
		{SourceDevice: "a", SourceInterface: "e0", DestinationDevice: "zz", DestinationInterface: "e0", Label: "c1"},
	}
	snap.Flows = []topology.Flow{{ID: "f", ConnectionLabels: []string{"c1", "c9"}}}

	rep := &Collector{}
	New(WithReporter(rep)).Layout(snap)
	if got := rep.Count(ReferenceMiss); got != 2 {
		t.Errorf("ReferenceMiss count = %d, want 2: %v", got, rep.Diagnostics())
	}
}

func TestEngineBeforeLayout(t *testing.T) {
	e := New()
	if got := e.DeviceCenter("a"); got != (Point{}) {
		t.Errorf("DeviceCenter before Layout = %v, want zero", got)
	}
	if err := e.Drag().BeginDrag("g", Point{}); !errors.Is(err, errors.ErrCodeGroupNotFound) {
		t.Errorf("BeginDrag before Layout error = %v, want GROUP_NOT_FOUND", err)
	}
}

func TestLayoutNilSnapshot(t *testing.T) {
	e := New()
	canvas := e.Layout(nil)
	if canvas != (Canvas{Width: 1400, Height: 1000}) {
		t.Errorf("Layout(nil) = %+v, want minimum 1400x1000", canvas)
	}
	if e.Snapshot() == nil {
		t.Error("Snapshot() after Layout(nil) = nil, want empty snapshot")
	}
	if got := e.AutoArrange(); got != canvas {
		t.Errorf("AutoArrange after Layout(nil) = %+v, want %+v", got, canvas)
	}
}
