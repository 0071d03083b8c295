package server

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/netdiagram/pkg/layout"
	"github.com/matzehuels/netdiagram/pkg/topology"
)

// Event names broadcast to clients.
const (
	EventLayoutComputed   = "layout.computed"
	EventPositionChanged  = "position.changed"
	EventTopologyReloaded = "topology.reloaded"
)

// errLoopStopped is returned by Do after the loop has exited.
var errLoopStopped = fmt.Errorf("event loop stopped")

// Loop serializes all access to a layout engine on one goroutine.
type Loop struct {
	engine  *layout.Engine
	pointer *layout.Dispatcher
	diag    *diagnostics
	owner   dragOwner
	reqs    chan func()
	done    chan struct{}
}

// NewLoop creates a loop around a fresh engine. Layout and drag
// notifications are forwarded to hub.
func NewLoop(geo layout.Geometry, hub *Hub, logger *log.Logger) *Loop {
	if logger == nil {
		logger = log.Default()
	}
	l := &Loop{
		pointer: layout.NewDispatcher(),
		diag:    &diagnostics{logger: logger, warn: layout.NewLogReporter(logger)},
		reqs:    make(chan func()),
		done:    make(chan struct{}),
	}
	l.engine = layout.New(
		layout.WithGeometry(geo),
		layout.WithReporter(l.diag),
		layout.WithLogger(logger),
		layout.WithPointerSource(l.pointer),
	)
	if hub != nil {
		l.engine.OnLayoutComputed(func(ev layout.LayoutComputed) {
			hub.Broadcast(EventLayoutComputed, ev)
		})
		l.engine.Drag().OnPositionChanged(func(ev layout.PositionChanged) {
			hub.Broadcast(EventPositionChanged, ev)
		})
	}
	return l
}

// Run processes requests until ctx is cancelled, then closes the engine.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)
	defer l.engine.Close()
	for {
		select {
		case fn := <-l.reqs:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

// Do runs fn on the loop goroutine and returns its error. It gives up when
// ctx is cancelled or the loop has stopped.
func (l *Loop) Do(ctx context.Context, fn func(*State) error) error {
	result := make(chan error, 1)
	req := func() {
		result <- fn(&State{Engine: l.engine, Pointer: l.pointer, diag: l.diag, owner: &l.owner})
	}
	select {
	case l.reqs <- req:
	case <-l.done:
		return errLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State is what a loop request may touch. It is only valid inside the
// closure passed to Do.
type State struct {
	Engine  *layout.Engine
	Pointer *layout.Dispatcher
	diag    *diagnostics
	owner   *dragOwner
}

// dragOwner remembers which WebSocket client started the active drag so
// the drag can be ended when that client disconnects. A nil client means
// the drag was started over HTTP or none is active.
type dragOwner struct {
	c *client
}

// claimDrag records c as the owner if a drag is now active.
func (s *State) claimDrag(c *client) {
	if s.Engine.Drag().State() == layout.Dragging {
		s.owner.c = c
		return
	}
	s.owner.c = nil
}

// releaseDrag ends the active drag if c owns it.
func (s *State) releaseDrag(c *client) {
	if s.owner.c != c {
		return
	}
	s.owner.c = nil
	if s.Engine.Drag().State() == layout.Dragging {
		s.Engine.Drag().EndDrag()
	}
}

// Layout lays out snap and records the diagnostics it produces.
func (s *State) Layout(snap *topology.Snapshot) layout.Canvas {
	s.diag.begin()
	defer s.diag.end()
	return s.Engine.Layout(snap)
}

// Diagnostics returns the diagnostics of the last recorded layout.
func (s *State) Diagnostics() []layout.Diagnostic {
	return s.diag.items
}

// diagnostics records what a layout reports and logs everything else at
// debug level. Lookup misses from queries between layouts would otherwise
// repeat on every render.
type diagnostics struct {
	logger    *log.Logger
	warn      *layout.LogReporter
	recording bool
	items     []layout.Diagnostic
}

func (d *diagnostics) begin() {
	d.recording = true
	d.items = nil
}

func (d *diagnostics) end() { d.recording = false }

func (d *diagnostics) Report(x layout.Diagnostic) {
	if d.recording {
		d.items = append(d.items, x)
		d.warn.Report(x)
		return
	}
	d.logger.Debug(x.Detail, "kind", x.Kind, "subject", x.Subject)
}
