// Package server exposes a live layout engine over HTTP.
//
// A single event loop goroutine owns the [layout.Engine] and the snapshot it
// lays out. HTTP handlers, WebSocket readers and the file watcher never touch
// the engine directly; they submit closures to the loop and wait for the
// result. Engine notifications (layout.computed, position.changed) and
// topology reloads are fanned out to every Server-Sent Events and WebSocket
// client through a [Hub].
//
// Routes live under /api/v1:
//
//	GET  /health                   liveness and version
//	GET  /topology                 positioned snapshot as JSON
//	GET  /layout                   canvas, group boxes, drag state, diagnostics
//	GET  /diagram.svg              rendered diagram
//	PUT  /topology                 replace the topology (JSON or YAML body)
//	POST /topology/reload          reload the topology files
//	POST /layout/auto-arrange      repack groups
//	POST /layout/refresh-sizes     resize and repack groups
//	POST /drag/begin               start dragging a group
//	POST /drag/move                move the dragged group
//	POST /drag/end                 finish the drag
//	POST /pointer/down             hit-test and maybe start a drag
//	GET  /anchors/{device}/{iface} interface anchor
//	GET  /devices/{device}/center  device center
//	POST /flows/{id}/select        highlight a flow
//	POST /flows/deselect           clear highlighting
//	GET  /events                   Server-Sent Events stream
//	GET  /ws                       WebSocket for pointer input and events
package server
