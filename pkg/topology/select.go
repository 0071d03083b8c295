package topology

import (
	"slices"

	"github.com/matzehuels/netdiagram/pkg/errors"
)

// Colors used by renderers.
const (
	DefaultZoneColor        = "#000"
	ConnectionColor         = "#666"
	SelectedConnectionColor = "#8A2BE2"
)

var flowStatusColors = map[string]string{
	FlowApproved: "#28a745",
	FlowPending:  "#ffc107",
	FlowRejected: "#dc3545",
}

// FlowStatusColor returns the badge color for a flow status.
func FlowStatusColor(status string) string {
	if c, ok := flowStatusColors[status]; ok {
		return c
	}
	return "#6c757d"
}

// ConnectionStroke returns the line color for a connection.
func ConnectionStroke(c Connection) string {
	if c.Selected {
		return SelectedConnectionColor
	}
	return ConnectionColor
}

// ZoneColor returns the color of the named zone, or DefaultZoneColor.
func (s *Snapshot) ZoneColor(name string) string {
	for _, z := range s.Zones {
		if z.Name == name && z.Color != "" {
			return z.Color
		}
	}
	return DefaultZoneColor
}

// ConnectionsByLabels returns the connections whose labels appear in labels,
// in snapshot order.
func (s *Snapshot) ConnectionsByLabels(labels []string) []Connection {
	var out []Connection
	for _, c := range s.Connections {
		if slices.Contains(labels, c.Label) {
			out = append(out, c)
		}
	}
	return out
}

// SelectFlow marks the flow with the given ID and every connection it
// traverses as selected. All other flows and connections are deselected.
func (s *Snapshot) SelectFlow(id string) error {
	f, ok := s.Flow(id)
	if !ok {
		return errors.New(errors.ErrCodeFlowNotFound, "flow %q not found", id)
	}
	s.DeselectAll()
	f.Selected = true
	for i := range s.Connections {
		if slices.Contains(f.ConnectionLabels, s.Connections[i].Label) {
			s.Connections[i].Selected = true
		}
	}
	return nil
}

// DeselectAll clears every selection flag.
func (s *Snapshot) DeselectAll() {
	for i := range s.Flows {
		s.Flows[i].Selected = false
	}
	for i := range s.Connections {
		s.Connections[i].Selected = false
	}
}

// SelectedFlow returns the currently selected flow, if any.
func (s *Snapshot) SelectedFlow() (*Flow, bool) {
	for i := range s.Flows {
		if s.Flows[i].Selected {
			return &s.Flows[i], true
		}
	}
	return nil, false
}
