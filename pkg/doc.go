// Package pkg provides the core libraries for netdiagram network topology
// layout.
//
// # Overview
//
// netdiagram turns a network topology into a positioned diagram. Device
// groups are packed into a grid of levels, devices are placed on a grid
// inside their group, and devices that belong to no group are lined up below.
// A drag controller lets a user move groups by hand afterwards.
//
// The pkg directory is organized into four areas:
//
//  1. [topology] - Data model, document loading and reference validation
//  2. [layout] - Sizing, placement, position resolution and dragging
//  3. [render] - SVG diagrams, Graphviz node-link graphs, PNG/PDF export
//  4. [pipeline] - Orchestration (load → layout → render) with caching
//
// Supporting packages are [cache], [storage], [config], [errors],
// [observability] and [buildinfo].
//
// # Architecture
//
// The typical data flow:
//
//	topology.json / connections.json / flows.json
//	         ↓
//	    [topology] package (merge into a Snapshot)
//	         ↓
//	    [layout] package (Engine.Layout: size, pack, place standalone)
//	         ↓
//	    [render] package (diagram or nodelink)
//	         ↓
//	    SVG/PNG/PDF/DOT/JSON output
//
// # Quick Start
//
// Lay out a topology and move a group:
//
//	import (
//	    "github.com/matzehuels/netdiagram/pkg/layout"
//	    "github.com/matzehuels/netdiagram/pkg/topology"
//	)
//
//	snap, _ := topology.Load(topology.DiscoverPaths("lab/topology.yaml"))
//
//	e := layout.New()
//	defer e.Close()
//	canvas := e.Layout(snap)
//
//	drag := e.Drag()
//	_ = drag.BeginDrag("perimeter", layout.Point{X: 60, Y: 60})
//	drag.OnPointerMove(layout.Point{X: 160, Y: 60})
//	drag.EndDrag()
//
// Or run the whole pipeline with caching:
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
//	result, _ := runner.Execute(ctx, pipeline.Options{
//	    Paths:   topology.DiscoverPaths("lab/topology.yaml"),
//	    Formats: []string{"svg"},
//	})
//
// # Main Packages
//
// [topology] - Devices, interfaces, device groups, zones, connections and
// flows. Loads JSON or YAML documents, validates weak references and
// selects flows.
//
// [layout] - The layout engine. SizeGroups sizes groups from their members'
// grid levels, PlaceGroups packs groups by level, PlaceStandalone lines up
// ungrouped devices, and the Resolver answers device centers, interface
// anchors and hit tests. The DragController moves one group at a time.
//
// [render/diagram] - SVG with group boxes, device boxes, zone-colored
// interface glyphs and connection lines.
//
// [render/nodelink] - Graphviz DOT with pinned positions, rendered with
// go-graphviz.
//
// [pipeline] - Runner with layout and artifact caching.
//
// [cache] - File, Redis and null caches with scoped keys.
//
// [storage] - Named snapshots in SQLite or MongoDB.
package pkg
