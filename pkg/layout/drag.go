package layout

import (
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/netdiagram/pkg/errors"
	"github.com/matzehuels/netdiagram/pkg/observability"
	"github.com/matzehuels/netdiagram/pkg/topology"
)

// DragState is the state of a DragController.
type DragState int

// Drag states.
const (
	Idle DragState = iota
	Dragging
)

func (s DragState) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// PositionChanged is emitted for every pointer move applied to a dragged
// group.
type PositionChanged struct {
	Session string  `json:"session"`
	Group   string  `json:"group"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

// DragController moves one group at a time by following the pointer.
//
// A drag captures the pointer and the group position when it begins; every
// move sets the group to start + (pointer - pointer at start), so the delta
// is always measured from the start of the drag. Moves never resize or
// repack anything.
//
// When a PointerSource is attached, the controller subscribes to it for the
// lifetime of each drag. The subscriptions are released on pointer-up,
// EndDrag, a new BeginDrag and Close.
type DragController struct {
	snap     *topology.Snapshot
	resolver *Resolver
	source   PointerSource

	state    DragState
	closed   bool
	group    *topology.DeviceGroup
	p0       Point
	start    Point
	session  string
	moves    int
	began    time.Time
	releases []func()

	changed listeners[PositionChanged]
}

// NewDragController returns an idle controller over snap. source may be nil,
// in which case pointer events arrive only through OnPointerMove and EndDrag.
func NewDragController(snap *topology.Snapshot, res *Resolver, source PointerSource) *DragController {
	return &DragController{snap: snap, resolver: res, source: source}
}

// attach points the controller at a freshly laid out snapshot. A drag in
// progress is ended first since its group belongs to the old state.
func (c *DragController) attach(snap *topology.Snapshot, res *Resolver) {
	c.EndDrag()
	c.snap, c.resolver = snap, res
}

// State returns the current state.
func (c *DragController) State() DragState { return c.state }

// Group returns the name of the group being dragged, or "".
func (c *DragController) Group() string {
	if c.group == nil {
		return ""
	}
	return c.group.Name
}

// Session returns the ID of the current drag, or "" when idle.
func (c *DragController) Session() string { return c.session }

// OnPositionChanged subscribes fn to position updates.
func (c *DragController) OnPositionChanged(fn func(PositionChanged)) (release func()) {
	return c.changed.add(fn)
}

// PointerDown hit-tests p and starts dragging the group whose background was
// hit. A press on a device or interface belongs to that element and never
// starts a group drag.
func (c *DragController) PointerDown(p Point) (Hit, error) {
	if c.resolver == nil {
		return Hit{}, nil
	}
	hit := c.resolver.HitTest(p)
	if hit.Kind != HitGroup {
		return hit, nil
	}
	return hit, c.BeginDrag(hit.Group, p)
}

// BeginDrag starts dragging the named group from pointer position p0. A drag
// already in progress is ended first.
func (c *DragController) BeginDrag(group string, p0 Point) error {
	if c.closed {
		return errors.New(errors.ErrCodeInvalidInput, "drag controller is closed")
	}
	if c.state == Dragging {
		c.EndDrag()
	}
	if c.snap == nil {
		return errors.New(errors.ErrCodeGroupNotFound, "group %q not found", group)
	}
	g, ok := c.snap.Group(group)
	if !ok {
		return errors.New(errors.ErrCodeGroupNotFound, "group %q not found", group)
	}

	c.state = Dragging
	c.group = g
	c.p0 = p0
	c.start = Point{X: g.X, Y: g.Y}
	c.session = uuid.NewString()
	c.moves = 0
	c.began = time.Now()

	if c.source != nil {
		c.releases = append(c.releases,
			c.source.OnMove(c.OnPointerMove),
			c.source.OnUp(func(Point) { c.EndDrag() }),
		)
	}
	observability.Drag().OnDragStart(g.Name)
	return nil
}

// OnPointerMove moves the dragged group to follow p. It does nothing when
// idle.
func (c *DragController) OnPointerMove(p Point) {
	if c.state != Dragging {
		return
	}
	pos := c.start.Add(p.Sub(c.p0))
	c.group.X, c.group.Y = pos.X, pos.Y
	c.moves++
	c.changed.emit(PositionChanged{Session: c.session, Group: c.group.Name, X: pos.X, Y: pos.Y})
}

// EndDrag finishes the drag. The last position stands. Calling EndDrag when
// idle is a no-op.
func (c *DragController) EndDrag() {
	c.release()
	if c.state != Dragging {
		return
	}
	observability.Drag().OnDragEnd(c.group.Name, c.moves, time.Since(c.began))
	c.state = Idle
	c.group = nil
	c.session = ""
}

// Close ends any drag, releases every pointer subscription and makes later
// BeginDrag calls fail. Close is idempotent.
func (c *DragController) Close() {
	c.EndDrag()
	c.closed = true
}

func (c *DragController) release() {
	rs := c.releases
	c.releases = nil
	for _, r := range rs {
		r()
	}
}
