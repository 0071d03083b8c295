package topology

import "fmt"

// ProblemKind classifies a dangling reference inside a snapshot.
type ProblemKind string

// Reference problem kinds.
const (
	ProblemGroupMember        ProblemKind = "group-member"
	ProblemConnectionEndpoint ProblemKind = "connection-endpoint"
	ProblemFlowLabel          ProblemKind = "flow-label"
	ProblemDuplicateMember    ProblemKind = "duplicate-member"
)

// Problem describes one dangling or conflicting reference. Problems never
// stop a layout; they are surfaced as diagnostics.
type Problem struct {
	Kind    ProblemKind `json:"kind"`
	Subject string      `json:"subject"`
	Detail  string      `json:"detail"`
}

func (p Problem) String() string {
	return fmt.Sprintf("%s %s: %s", p.Kind, p.Subject, p.Detail)
}

// Validate checks every weak reference in the snapshot: group members,
// connection endpoints and flow labels. It also flags devices listed by more
// than one group.
func Validate(s *Snapshot) []Problem {
	var out []Problem
	out = append(out, ValidateGroups(s)...)
	out = append(out, ValidateConnections(s)...)
	out = append(out, ValidateFlows(s)...)
	return out
}

// ValidateGroups reports member names with no device and devices claimed by
// more than one group.
func ValidateGroups(s *Snapshot) []Problem {
	var out []Problem
	owner := make(map[string]string)
	for _, g := range s.Groups {
		for _, h := range g.Devices {
			if _, ok := s.Device(h); !ok {
				out = append(out, Problem{
					Kind:    ProblemGroupMember,
					Subject: g.Name,
					Detail:  fmt.Sprintf("member %q has no matching device", h),
				})
				continue
			}
			if first, ok := owner[h]; ok && first != g.Name {
				out = append(out, Problem{
					Kind:    ProblemDuplicateMember,
					Subject: h,
					Detail:  fmt.Sprintf("listed by %q and %q; %q wins", first, g.Name, first),
				})
				continue
			}
			owner[h] = g.Name
		}
	}
	return out
}

// ValidateConnections reports endpoints naming a missing device or interface.
func ValidateConnections(s *Snapshot) []Problem {
	var out []Problem
	for _, c := range s.Connections {
		for _, end := range [][2]string{
			{c.SourceDevice, c.SourceInterface},
			{c.DestinationDevice, c.DestinationInterface},
		} {
			d, ok := s.Device(end[0])
			if !ok {
				out = append(out, Problem{
					Kind:    ProblemConnectionEndpoint,
					Subject: c.Label,
					Detail:  fmt.Sprintf("device %q not found", end[0]),
				})
				continue
			}
			if d.InterfaceIndex(end[1]) < 0 {
				out = append(out, Problem{
					Kind:    ProblemConnectionEndpoint,
					Subject: c.Label,
					Detail:  fmt.Sprintf("interface %q not found on %q", end[1], end[0]),
				})
			}
		}
	}
	return out
}

// ValidateFlows reports flow labels with no matching connection.
func ValidateFlows(s *Snapshot) []Problem {
	labels := make(map[string]bool, len(s.Connections))
	for _, c := range s.Connections {
		labels[c.Label] = true
	}
	var out []Problem
	for _, f := range s.Flows {
		for _, l := range f.ConnectionLabels {
			if !labels[l] {
				out = append(out, Problem{
					Kind:    ProblemFlowLabel,
					Subject: f.ID,
					Detail:  fmt.Sprintf("connection %q not found", l),
				})
			}
		}
	}
	return out
}
