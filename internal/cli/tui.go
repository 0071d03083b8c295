package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/netdiagram/pkg/layout"
	"github.com/matzehuels/netdiagram/pkg/topology"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
	dragStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorYellow)
)

// arrangeStep is how far one arrow key moves a group.
const arrangeStep = 10.0

// =============================================================================
// ArrangeModel - Interactive group placement
// =============================================================================

// ArrangeModel is the bubbletea model for moving groups by keyboard. Arrow
// keys drive the engine's drag controller exactly as pointer moves would.
type ArrangeModel struct {
	Engine *layout.Engine
	Output string // file written by "w"

	Groups  []string
	Cursor  int
	Pointer layout.Point // virtual pointer while dragging
	Status  string
	Written bool
}

// NewArrangeModel creates a model over an engine that has already laid out
// its snapshot.
func NewArrangeModel(e *layout.Engine, output string) ArrangeModel {
	m := ArrangeModel{Engine: e, Output: output}
	for _, g := range e.Snapshot().Groups {
		m.Groups = append(m.Groups, g.Name)
	}
	return m
}

func (m ArrangeModel) Init() tea.Cmd {
	return nil
}

func (m ArrangeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	drag := m.Engine.Drag()
	switch key.String() {
	case "q", "ctrl+c":
		drag.EndDrag()
		return m, tea.Quit
	case "tab", "shift+tab":
		if len(m.Groups) == 0 {
			return m, nil
		}
		drag.EndDrag()
		if key.String() == "tab" {
			m.Cursor = (m.Cursor + 1) % len(m.Groups)
		} else {
			m.Cursor = (m.Cursor + len(m.Groups) - 1) % len(m.Groups)
		}
		m.Status = ""
	case "up", "k":
		m = m.move(0, -arrangeStep)
	case "down", "j":
		m = m.move(0, arrangeStep)
	case "left", "h":
		m = m.move(-arrangeStep, 0)
	case "right", "l":
		m = m.move(arrangeStep, 0)
	case "enter", "esc":
		if drag.State() == layout.Dragging {
			drag.EndDrag()
			m.Status = "Placed " + m.Groups[m.Cursor]
		}
	case "a":
		c := m.Engine.AutoArrange()
		m.Status = fmt.Sprintf("Auto-arranged (%gx%g)", c.Width, c.Height)
	case "r":
		c := m.Engine.RefreshGroupSizes()
		m.Status = fmt.Sprintf("Refreshed sizes (%gx%g)", c.Width, c.Height)
	case "w":
		drag.EndDrag()
		if err := topology.WriteFile(m.Output, m.Engine.Snapshot()); err != nil {
			m.Status = "Write failed: " + err.Error()
			return m, nil
		}
		m.Written = true
		m.Status = "Wrote " + m.Output
	}
	return m, nil
}

// move drags the selected group by (dx, dy), starting a drag at the group's
// origin when none is in progress.
func (m ArrangeModel) move(dx, dy float64) ArrangeModel {
	if len(m.Groups) == 0 {
		return m
	}
	drag := m.Engine.Drag()
	name := m.Groups[m.Cursor]
	if drag.State() != layout.Dragging {
		g, ok := m.Engine.Snapshot().Group(name)
		if !ok {
			return m
		}
		m.Pointer = layout.Point{X: g.X, Y: g.Y}
		if err := drag.BeginDrag(name, m.Pointer); err != nil {
			m.Status = err.Error()
			return m
		}
	}
	m.Pointer = m.Pointer.Add(layout.Point{X: dx, Y: dy})
	drag.OnPointerMove(m.Pointer)
	m.Status = ""
	return m
}

func (m ArrangeModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Arrange Groups"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("tab select  ←↑↓→ move  ⏎ place  a auto-arrange  r refresh sizes  w write  q quit"))
	b.WriteString("\n\n")

	if len(m.Groups) == 0 {
		b.WriteString(listDimStyle.Render("  no device groups"))
		b.WriteString("\n")
		return b.String()
	}

	snap := m.Engine.Snapshot()
	members := m.Engine.Membership()
	dragging := m.Engine.Drag().State() == layout.Dragging

	rows := make([][]string, 0, len(m.Groups))
	for i, name := range m.Groups {
		g, _ := snap.Group(name)
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{
			cursor,
			name,
			formatFloat(g.X) + ", " + formatFloat(g.Y),
			formatFloat(g.Width) + " x " + formatFloat(g.Height),
			strconv.Itoa(len(members.Members(name))),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Group", "Position", "Size", "Devices").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case row != m.Cursor:
				return lipgloss.NewStyle()
			case dragging:
				return dragStyle
			}
			return lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")

	c := m.Engine.Canvas()
	state := m.Engine.Drag().State().String()
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  canvas %gx%g · %s", c.Width, c.Height, state)))
	if m.Status != "" {
		style := StyleHighlight
		if m.Written {
			style = StyleSuccess
		}
		b.WriteString("\n  ")
		b.WriteString(style.Render(m.Status))
	}
	b.WriteString("\n")

	return b.String()
}
