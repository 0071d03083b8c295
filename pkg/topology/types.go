package topology

import "slices"

// =============================================================================
// Entities
// =============================================================================

// Zone is a named security or routing zone. Interfaces reference zones by name.
type Zone struct {
	Name  string `json:"name" yaml:"name" bson:"name"`
	Color string `json:"color" yaml:"color" bson:"color"`
}

// Interface is a named port on a device.
type Interface struct {
	Name   string `json:"name" yaml:"name" bson:"name"`
	IP     string `json:"ip,omitempty" yaml:"ip,omitempty" bson:"ip,omitempty"`
	Status string `json:"status,omitempty" yaml:"status,omitempty" bson:"status,omitempty"`
	Zone   string `json:"zone,omitempty" yaml:"zone,omitempty" bson:"zone,omitempty"`
	XLevel *int   `json:"x-level,omitempty" yaml:"x-level,omitempty" bson:"x_level,omitempty"`
	YLevel *int   `json:"y-level,omitempty" yaml:"y-level,omitempty" bson:"y_level,omitempty"`
}

// Device is a network device. X and Y are only used for standalone devices;
// grouped devices are positioned relative to their group.
type Device struct {
	Hostname   string      `json:"hostname" yaml:"hostname" bson:"hostname"`
	Interfaces []Interface `json:"interfaces" yaml:"interfaces" bson:"interfaces"`
	X          float64     `json:"x,omitempty" yaml:"x,omitempty" bson:"x,omitempty"`
	Y          float64     `json:"y,omitempty" yaml:"y,omitempty" bson:"y,omitempty"`
	XLevel     *int        `json:"x-level,omitempty" yaml:"x-level,omitempty" bson:"x_level,omitempty"`
	YLevel     *int        `json:"y-level,omitempty" yaml:"y-level,omitempty" bson:"y_level,omitempty"`
}

// HasLevels reports whether the device declares both x-level and y-level.
func (d *Device) HasLevels() bool {
	return d.XLevel != nil && d.YLevel != nil
}

// InterfaceIndex returns the position of the named interface, or -1.
func (d *Device) InterfaceIndex(name string) int {
	return slices.IndexFunc(d.Interfaces, func(i Interface) bool { return i.Name == name })
}

// DeviceGroup is a named set of devices drawn inside one box.
// Devices lists member hostnames in display order.
type DeviceGroup struct {
	Name    string   `json:"name" yaml:"name" bson:"name"`
	Devices []string `json:"devices" yaml:"devices" bson:"devices"`
	X       float64  `json:"x,omitempty" yaml:"x,omitempty" bson:"x,omitempty"`
	Y       float64  `json:"y,omitempty" yaml:"y,omitempty" bson:"y,omitempty"`
	Width   float64  `json:"width,omitempty" yaml:"width,omitempty" bson:"width,omitempty"`
	Height  float64  `json:"height,omitempty" yaml:"height,omitempty" bson:"height,omitempty"`
	XLevel  *int     `json:"x-level,omitempty" yaml:"x-level,omitempty" bson:"x_level,omitempty"`
	YLevel  *int     `json:"y-level,omitempty" yaml:"y-level,omitempty" bson:"y_level,omitempty"`
}

// Contains reports whether hostname appears in the member list.
func (g *DeviceGroup) Contains(hostname string) bool {
	return slices.Contains(g.Devices, hostname)
}

// Connection links an interface on one device to an interface on another.
// Selected is owned by the selection helpers; layout never touches it.
type Connection struct {
	SourceDevice         string `json:"source_device" yaml:"source_device" bson:"source_device"`
	SourceInterface      string `json:"source_interface" yaml:"source_interface" bson:"source_interface"`
	DestinationDevice    string `json:"destination_device" yaml:"destination_device" bson:"destination_device"`
	DestinationInterface string `json:"destination_interface" yaml:"destination_interface" bson:"destination_interface"`
	Label                string `json:"label" yaml:"label" bson:"label"`
	Selected             bool   `json:"selected" yaml:"selected,omitempty" bson:"-"`
}

// Flow status values.
const (
	FlowApproved = "approved"
	FlowPending  = "pending"
	FlowRejected = "rejected"
)

// Flow is a traffic flow traversing an ordered list of connections.
type Flow struct {
	ID               string   `json:"id" yaml:"id" bson:"id"`
	Name             string   `json:"name" yaml:"name" bson:"name"`
	Source           string   `json:"source" yaml:"source" bson:"source"`
	Destination      string   `json:"destination" yaml:"destination" bson:"destination"`
	ConnectionLabels []string `json:"connection_labels" yaml:"connection_labels" bson:"connection_labels"`
	Status           string   `json:"status" yaml:"status" bson:"status"`
	Bandwidth        string   `json:"bandwidth,omitempty" yaml:"bandwidth,omitempty" bson:"bandwidth,omitempty"`
	Protocol         string   `json:"protocol,omitempty" yaml:"protocol,omitempty" bson:"protocol,omitempty"`
	Selected         bool     `json:"selected" yaml:"selected,omitempty" bson:"-"`
}

// =============================================================================
// Snapshot
// =============================================================================

// Snapshot is one merged load of topology, connection and flow data.
type Snapshot struct {
	Devices     []Device      `json:"devices" yaml:"devices" bson:"devices"`
	Groups      []DeviceGroup `json:"device_group" yaml:"device_group" bson:"device_group"`
	Zones       []Zone        `json:"zones" yaml:"zones" bson:"zones"`
	Connections []Connection  `json:"connection" yaml:"connection" bson:"connection"`
	Flows       []Flow        `json:"flows" yaml:"flows" bson:"flows"`
}

// Device returns the device with the given hostname.
func (s *Snapshot) Device(hostname string) (*Device, bool) {
	for i := range s.Devices {
		if s.Devices[i].Hostname == hostname {
			return &s.Devices[i], true
		}
	}
	return nil, false
}

// Group returns the group with the given name.
func (s *Snapshot) Group(name string) (*DeviceGroup, bool) {
	for i := range s.Groups {
		if s.Groups[i].Name == name {
			return &s.Groups[i], true
		}
	}
	return nil, false
}

// Flow returns the flow with the given ID.
func (s *Snapshot) Flow(id string) (*Flow, bool) {
	for i := range s.Flows {
		if s.Flows[i].ID == id {
			return &s.Flows[i], true
		}
	}
	return nil, false
}

// Stats summarizes the size of a snapshot.
type Stats struct {
	Devices     int `json:"devices"`
	Groups      int `json:"groups"`
	Zones       int `json:"zones"`
	Connections int `json:"connections"`
	Flows       int `json:"flows"`
	Standalone  int `json:"standalone"`
}

// Stats counts the entities in the snapshot. A device is standalone when no
// group lists its hostname.
func (s *Snapshot) Stats() Stats {
	st := Stats{
		Devices:     len(s.Devices),
		Groups:      len(s.Groups),
		Zones:       len(s.Zones),
		Connections: len(s.Connections),
		Flows:       len(s.Flows),
	}
	members := make(map[string]bool)
	for _, g := range s.Groups {
		for _, h := range g.Devices {
			members[h] = true
		}
	}
	for _, d := range s.Devices {
		if !members[d.Hostname] {
			st.Standalone++
		}
	}
	return st
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	c := &Snapshot{
		Devices:     make([]Device, len(s.Devices)),
		Groups:      make([]DeviceGroup, len(s.Groups)),
		Zones:       slices.Clone(s.Zones),
		Connections: slices.Clone(s.Connections),
		Flows:       make([]Flow, len(s.Flows)),
	}
	for i, d := range s.Devices {
		d.Interfaces = make([]Interface, len(s.Devices[i].Interfaces))
		for j, ifc := range s.Devices[i].Interfaces {
			ifc.XLevel = cloneInt(ifc.XLevel)
			ifc.YLevel = cloneInt(ifc.YLevel)
			d.Interfaces[j] = ifc
		}
		d.XLevel = cloneInt(d.XLevel)
		d.YLevel = cloneInt(d.YLevel)
		c.Devices[i] = d
	}
	for i, g := range s.Groups {
		g.Devices = slices.Clone(g.Devices)
		g.XLevel = cloneInt(g.XLevel)
		g.YLevel = cloneInt(g.YLevel)
		c.Groups[i] = g
	}
	for i, f := range s.Flows {
		f.ConnectionLabels = slices.Clone(f.ConnectionLabels)
		c.Flows[i] = f
	}
	return c
}

// ResetPositions zeroes every position and size field. Stored snapshots and
// reloads start from here so that no layout survives a load.
func (s *Snapshot) ResetPositions() {
	for i := range s.Devices {
		s.Devices[i].X, s.Devices[i].Y = 0, 0
	}
	for i := range s.Groups {
		g := &s.Groups[i]
		g.X, g.Y, g.Width, g.Height = 0, 0, 0, 0
	}
}

// Level returns a pointer to v, for building level hints in literals.
func Level(v int) *int { return &v }

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
