package layout

import "github.com/matzehuels/netdiagram/pkg/topology"

// Membership is the hostname to group index for one layout pass. Groups hold
// member names only; Membership resolves them once so that the sizer and the
// resolver agree on which devices a group has and in what order.
//
// A member's index is its position in the group's member list counting only
// names that resolve to a device. The first occurrence of a repeated name
// wins, and a device listed by several groups belongs to the first group in
// snapshot order.
type Membership struct {
	owner   map[string]string
	index   map[string]int
	members map[string][]*topology.Device
}

// BuildMembership indexes snap. Names that resolve to no device are
// reported as ReferenceMiss and skipped; devices claimed by a second group are
// reported as DuplicateMember and skipped in that group.
func BuildMembership(snap *topology.Snapshot, r Reporter) *Membership {
	if r == nil {
		r = Discard
	}
	m := &Membership{
		owner:   make(map[string]string),
		index:   make(map[string]int),
		members: make(map[string][]*topology.Device, len(snap.Groups)),
	}

	devices := make(map[string]*topology.Device, len(snap.Devices))
	for i := range snap.Devices {
		d := &snap.Devices[i]
		if _, ok := devices[d.Hostname]; !ok {
			devices[d.Hostname] = d
		}
	}

	for _, g := range snap.Groups {
		list := m.members[g.Name]
		for _, h := range g.Devices {
			d, ok := devices[h]
			if !ok {
				r.Report(Diagnostic{
					Kind:    ReferenceMiss,
					Subject: g.Name,
					Detail:  "group member " + h + " has no matching device",
				})
				continue
			}
			if first, ok := m.owner[h]; ok {
				if first != g.Name {
					r.Report(Diagnostic{
						Kind:    DuplicateMember,
						Subject: h,
						Detail:  "listed by " + first + " and " + g.Name + "; keeping " + first,
					})
				}
				continue
			}
			m.owner[h] = g.Name
			m.index[h] = len(list)
			list = append(list, d)
		}
		m.members[g.Name] = list
	}
	return m
}

// GroupOf returns the name of the group that owns hostname.
func (m *Membership) GroupOf(hostname string) (string, bool) {
	g, ok := m.owner[hostname]
	return g, ok
}

// Index returns the canonical position of hostname inside its group.
func (m *Membership) Index(hostname string) (int, bool) {
	i, ok := m.index[hostname]
	return i, ok
}

// Members returns the devices of group in canonical order.
func (m *Membership) Members(group string) []*topology.Device {
	return m.members[group]
}

// IsStandalone reports whether no group lists hostname.
func (m *Membership) IsStandalone(hostname string) bool {
	_, ok := m.owner[hostname]
	return !ok
}
