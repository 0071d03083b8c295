package cli

import (
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/netdiagram/pkg/layout"
	"github.com/matzehuels/netdiagram/pkg/topology"
)

func arrangeFixture(t *testing.T) ArrangeModel {
	t.Helper()
	snap := &topology.Snapshot{
		Devices: []topology.Device{
			{Hostname: "fw1", Interfaces: []topology.Interface{{Name: "eth0"}}},
			{Hostname: "sw1", Interfaces: []topology.Interface{{Name: "eth0"}}},
		},
		Groups: []topology.DeviceGroup{
			{Name: "core", Devices: []string{"fw1"}},
			{Name: "edge", Devices: []string{"sw1"}},
		},
	}
	e := layout.New()
	t.Cleanup(e.Close)
	e.Layout(snap)
	return NewArrangeModel(e, filepath.Join(t.TempDir(), "arranged.json"))
}

func press(m ArrangeModel, keys ...tea.KeyMsg) (ArrangeModel, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(k)
		m = next.(ArrangeModel)
	}
	return m, cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func groupAt(t *testing.T, m ArrangeModel, name string) layout.Point {
	t.Helper()
	g, ok := m.Engine.Snapshot().Group(name)
	if !ok {
		t.Fatalf("group %q missing", name)
	}
	return layout.Point{X: g.X, Y: g.Y}
}

func TestArrangeModelMove(t *testing.T) {
	m := arrangeFixture(t)
	start := groupAt(t, m, "core")

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyRight}, tea.KeyMsg{Type: tea.KeyRight}, tea.KeyMsg{Type: tea.KeyDown})
	if got := m.Engine.Drag().State(); got != layout.Dragging {
		t.Fatalf("State() = %v, want dragging", got)
	}
	want := start.Add(layout.Point{X: 2 * arrangeStep, Y: arrangeStep})
	if got := groupAt(t, m, "core"); got != want {
		t.Errorf("core = %v, want %v", got, want)
	}

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if got := m.Engine.Drag().State(); got != layout.Idle {
		t.Errorf("State() after enter = %v, want idle", got)
	}
	if got := groupAt(t, m, "core"); got != want {
		t.Errorf("core after enter = %v, want %v", got, want)
	}
}

func TestArrangeModelSelect(t *testing.T) {
	m := arrangeFixture(t)
	core := groupAt(t, m, "core")
	edge := groupAt(t, m, "edge")

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyRight}, tea.KeyMsg{Type: tea.KeyTab})
	if m.Cursor != 1 {
		t.Fatalf("Cursor = %d, want 1", m.Cursor)
	}
	if got := m.Engine.Drag().State(); got != layout.Idle {
		t.Errorf("tab left drag state %v, want idle", got)
	}

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyLeft})
	if got, want := groupAt(t, m, "edge"), edge.Add(layout.Point{X: -arrangeStep}); got != want {
		t.Errorf("edge = %v, want %v", got, want)
	}
	if got, want := groupAt(t, m, "core"), core.Add(layout.Point{X: arrangeStep}); got != want {
		t.Errorf("core = %v, want %v", got, want)
	}

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyShiftTab}, tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.Cursor != 1 {
		t.Errorf("Cursor after two shift+tab = %d, want 1", m.Cursor)
	}
}

func TestArrangeModelAutoArrange(t *testing.T) {
	m := arrangeFixture(t)
	start := groupAt(t, m, "core")

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyUp}, tea.KeyMsg{Type: tea.KeyUp}, runes("a"))
	if got := groupAt(t, m, "core"); got != start {
		t.Errorf("core after auto-arrange = %v, want %v", got, start)
	}
	if got := m.Engine.Drag().State(); got != layout.Idle {
		t.Errorf("State() after auto-arrange = %v, want idle", got)
	}
	if m.Status == "" {
		t.Error("Status is empty after auto-arrange")
	}
}

func TestArrangeModelWriteAndQuit(t *testing.T) {
	m := arrangeFixture(t)

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyDown}, runes("w"))
	if !m.Written {
		t.Fatalf("Written = false, status %q", m.Status)
	}
	snap, err := topology.Load(topology.Paths{Topology: m.Output})
	if err != nil {
		t.Fatalf("Load(%s) error: %v", m.Output, err)
	}
	g, _ := snap.Group("core")
	if want := groupAt(t, m, "core"); g.X != want.X || g.Y != want.Y {
		t.Errorf("written core = (%g, %g), want %v", g.X, g.Y, want)
	}

	_, cmd := press(m, runes("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestArrangeModelView(t *testing.T) {
	m := arrangeFixture(t)
	view := m.View()
	for _, want := range []string{"Arrange Groups", "core", "edge", "idle"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}

	e := layout.New()
	e.Layout(&topology.Snapshot{})
	empty := NewArrangeModel(e, "")
	if !strings.Contains(empty.View(), "no device groups") {
		t.Error("empty View() missing placeholder")
	}
	if _, cmd := press(empty, tea.KeyMsg{Type: tea.KeyRight}, tea.KeyMsg{Type: tea.KeyTab}); cmd != nil {
		t.Error("keys on empty model returned a command")
	}
}
