package layout

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/netdiagram/pkg/topology"
)

// Reason says which operation produced a layout.
type Reason string

// Layout reasons.
const (
	ReasonLayout       Reason = "layout"
	ReasonAutoArrange  Reason = "auto-arrange"
	ReasonRefreshSizes Reason = "refresh-sizes"
)

// LayoutComputed is emitted after every Layout, AutoArrange and
// RefreshGroupSizes.
type LayoutComputed struct {
	Reason Reason `json:"reason"`
	Canvas Canvas `json:"canvas"`
}

// Engine lays out one snapshot at a time and keeps it consistent while groups
// are dragged. It writes position and size fields into the snapshot it was
// given and nothing else.
//
// An Engine is not safe for concurrent use. Callers that receive events from
// several goroutines must funnel them through one.
type Engine struct {
	geo      Geometry
	reporter Reporter
	logger   *log.Logger
	source   PointerSource

	snap     *topology.Snapshot
	members  *Membership
	resolver *Resolver
	canvas   Canvas
	drag     *DragController

	computed listeners[LayoutComputed]
}

// Option configures an Engine.
type Option func(*Engine)

// WithGeometry replaces the default constants.
func WithGeometry(g Geometry) Option {
	return func(e *Engine) { e.geo = g }
}

// WithReporter sets where diagnostics go. The default discards them.
func WithReporter(r Reporter) Option {
	return func(e *Engine) {
		if r != nil {
			e.reporter = r
		}
	}
}

// WithLogger sets the logger for debug output.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithPointerSource attaches a pointer source to the drag controller.
func WithPointerSource(s PointerSource) Option {
	return func(e *Engine) { e.source = s }
}

// New returns an engine with no snapshot.
func New(opts ...Option) *Engine {
	e := &Engine{
		geo:      DefaultGeometry(),
		reporter: Discard,
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.drag = NewDragController(nil, nil, e.source)
	return e
}

// Layout sizes every group, packs the groups, places standalone devices and
// returns the canvas. Previous positions in snap are ignored. Reference
// problems are reported as diagnostics and never stop the layout. A nil snap
// is laid out as an empty topology.
func (e *Engine) Layout(snap *topology.Snapshot) Canvas {
	start := time.Now()
	if snap == nil {
		snap = &topology.Snapshot{}
	}
	e.snap = snap
	e.members = BuildMembership(snap, e.reporter)
	ReportProblems(e.reporter, topology.ValidateConnections(snap))
	ReportProblems(e.reporter, topology.ValidateFlows(snap))
	e.resolver = NewResolver(e.geo, snap, e.members, e.reporter)
	e.drag.attach(snap, e.resolver)

	SizeGroups(e.geo, snap, e.members)
	return e.finish(ReasonLayout, start)
}

// AutoArrange repacks every group from scratch, discarding dragged
// positions, and places standalone devices again. Sizes are kept.
func (e *Engine) AutoArrange() Canvas {
	if e.snap == nil {
		return e.canvas
	}
	start := time.Now()
	e.drag.EndDrag()
	return e.finish(ReasonAutoArrange, start)
}

// RefreshGroupSizes resizes every group and then repacks, as AutoArrange.
func (e *Engine) RefreshGroupSizes() Canvas {
	if e.snap == nil {
		return e.canvas
	}
	start := time.Now()
	e.drag.EndDrag()
	SizeGroups(e.geo, e.snap, e.members)
	return e.finish(ReasonRefreshSizes, start)
}

func (e *Engine) finish(reason Reason, start time.Time) Canvas {
	PlaceGroups(e.geo, e.snap.Groups)
	corner := PlaceStandalone(e.geo, e.snap, e.members)
	e.canvas = e.bounds(corner)

	e.logger.Debug("computed layout",
		"reason", reason,
		"groups", len(e.snap.Groups),
		"devices", len(e.snap.Devices),
		"width", e.canvas.Width,
		"height", e.canvas.Height,
		"took", time.Since(start))
	e.computed.emit(LayoutComputed{Reason: reason, Canvas: e.canvas})
	return e.canvas
}

// bounds covers every group and the standalone row ending at corner.
func (e *Engine) bounds(corner Point) Canvas {
	right, bottom := corner.X, corner.Y
	for i := range e.snap.Groups {
		r := e.geo.GroupRect(&e.snap.Groups[i])
		right = max(right, r.Right())
		bottom = max(bottom, r.Bottom())
	}
	return e.geo.canvasFor(right, bottom)
}

// OnLayoutComputed subscribes fn to layout notifications.
func (e *Engine) OnLayoutComputed(fn func(LayoutComputed)) (release func()) {
	return e.computed.add(fn)
}

// Canvas returns the canvas of the last layout.
func (e *Engine) Canvas() Canvas { return e.canvas }

// Snapshot returns the snapshot being laid out, or nil.
func (e *Engine) Snapshot() *topology.Snapshot { return e.snap }

// Geometry returns the constants in use.
func (e *Engine) Geometry() Geometry { return e.geo }

// Membership returns the index built by the last Layout, or nil.
func (e *Engine) Membership() *Membership { return e.members }

// Resolver returns the position resolver for the current snapshot, or nil
// before the first Layout.
func (e *Engine) Resolver() *Resolver { return e.resolver }

// Drag returns the drag controller.
func (e *Engine) Drag() *DragController { return e.drag }

// DeviceCenter returns the visual center of a device.
func (e *Engine) DeviceCenter(hostname string) Point {
	if e.resolver == nil {
		return Point{}
	}
	return e.resolver.DeviceCenter(hostname)
}

// InterfaceAnchor returns the connection anchor of an interface.
func (e *Engine) InterfaceAnchor(hostname, name string) Point {
	if e.resolver == nil {
		return Point{}
	}
	return e.resolver.InterfaceAnchor(hostname, name)
}

// Close ends any drag and closes the drag controller.
func (e *Engine) Close() {
	e.drag.Close()
}
