package layout

// PointerSource delivers pointer events to a DragController. The controller
// subscribes when a drag begins and releases both subscriptions when the
// drag ends, whichever way it ends.
type PointerSource interface {
	OnMove(fn func(Point)) (release func())
	OnUp(fn func(Point)) (release func())
}

// Dispatcher is a PointerSource fed by explicit calls, for example from a
// WebSocket reader or a terminal UI.
type Dispatcher struct {
	move listeners[Point]
	up   listeners[Point]
}

// NewDispatcher returns an empty dispatcher.
func NewDispatcher() *Dispatcher { return &Dispatcher{} }

func (d *Dispatcher) OnMove(fn func(Point)) (release func()) { return d.move.add(fn) }

func (d *Dispatcher) OnUp(fn func(Point)) (release func()) { return d.up.add(fn) }

// Move delivers a pointer move to every subscriber.
func (d *Dispatcher) Move(p Point) { d.move.emit(p) }

// Up delivers a pointer release to every subscriber.
func (d *Dispatcher) Up(p Point) { d.up.emit(p) }

// ListenerCount returns the number of live move and up subscriptions.
func (d *Dispatcher) ListenerCount() int { return d.move.len() + d.up.len() }

var _ PointerSource = (*Dispatcher)(nil)
