// Package layout positions the groups and devices of a topology snapshot on a
// 2D canvas and keeps those positions consistent while the user drags groups.
//
// # Pipeline
//
// [Engine.Layout] runs three passes over a snapshot, each writing position or
// size fields in place:
//
//  1. [SizeGroup] sizes every group to fit its members on a fixed grid.
//  2. [PlaceGroups] packs the groups into rows by y-level, ordered within a
//     row by x-level. Rows never overlap and neither do groups within a row.
//  3. [PlaceStandalone] puts the devices no group lists in one row below
//     the lowest group.
//
// Nothing else in the snapshot is touched, and no earlier position survives a
// Layout: the result depends only on the topology and its array order.
//
// # Membership
//
// Groups reference devices by hostname. [BuildMembership] resolves those
// names once per pass and fixes the order used by both the sizer and the
// [Resolver], so a device is always drawn where its group was sized to hold
// it. Dangling names and devices claimed by two groups become diagnostics.
//
// # Queries
//
// The [Resolver] answers device origins, centers, interface anchors, bounds
// and hit tests from the current position fields. Queries are pure; a group
// moved by a drag shows up on the next call.
//
// # Dragging
//
// The [DragController] is a two-state machine, Idle and Dragging. A drag
// moves one group by the pointer delta measured from where the drag began and
// never repacks siblings. [Engine.AutoArrange] and [Engine.RefreshGroupSizes]
// restore a packed layout on request.
//
// # Diagnostics
//
// The engine has no failure path for bad data. Missing references degrade to
// defaults and are sent to a [Reporter]: [Collector] keeps them, [LogReporter]
// logs them, [Discard] drops them.
//
// # Concurrency
//
// An [Engine] and its controller are single-threaded. Callers receiving
// pointer events from several goroutines must serialize them.
package layout
