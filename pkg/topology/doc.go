// Package topology defines the network topology snapshot consumed by the
// layout engine, together with the loaders that build it.
//
// # Data Model
//
// A [Snapshot] holds devices, device groups, zones, connections and flows.
// Group membership is expressed only by the ordered hostname list on each
// [DeviceGroup]; devices carry no back-pointer to their group. Member names
// are weak references: a name without a matching device is tolerated and
// reported by [Validate], never rejected.
//
// The only mutable fields are positions and sizes:
//
//   - DeviceGroup.X, Y, Width, Height
//   - Device.X, Y (standalone devices only)
//
// They are written by the layout engine and discarded on every reload.
//
// # Loading
//
// Topology data arrives as three documents, in JSON or YAML:
//
//	topology.json     {"devices": [...], "device_group": [...], "zones": [...]}
//	connections.json  {"connections": [...]}
//	flows.json        {"flows": [...]}
//
// [Load] reads and merges them into one snapshot with every selection flag
// cleared:
//
//	snap, err := topology.Load(topology.Paths{
//	    Topology:    "topology.json",
//	    Connections: "connections.json",
//	    Flows:       "flows.json",
//	})
//
// The field names (x-level, y-level, width, height and the hostname-keyed
// member lists) are the external data contract and are preserved exactly on
// output by [WriteJSON].
package topology
