package pipeline

import (
	"encoding/json"
	"fmt"

	"github.com/matzehuels/netdiagram/pkg/cache"
	"github.com/matzehuels/netdiagram/pkg/layout"
	"github.com/matzehuels/netdiagram/pkg/topology"
)

// =============================================================================
// Layout Data
// =============================================================================

// LayoutData is a positioned snapshot together with the canvas and geometry
// it was laid out with. It is what the layout stage caches and what the
// render stage reads.
type LayoutData struct {
	Snapshot    *topology.Snapshot  `json:"snapshot"`
	Canvas      layout.Canvas       `json:"canvas"`
	Geometry    layout.Geometry     `json:"geometry"`
	Diagnostics []layout.Diagnostic `json:"diagnostics,omitempty"`
}

// Layout lays out a copy of snap; snap itself is not modified. Diagnostics
// go to opts.Reporter and are also kept on the result.
func Layout(snap *topology.Snapshot, opts Options) *LayoutData {
	opts.SetLayoutDefaults()

	work := snap.Clone()
	collected := &layout.Collector{}
	e := layout.New(
		layout.WithGeometry(opts.Geometry),
		layout.WithReporter(layout.Tee(collected, opts.Reporter)),
		layout.WithLogger(opts.Logger),
	)
	defer e.Close()

	canvas := e.Layout(work)
	return &LayoutData{
		Snapshot:    work,
		Canvas:      canvas,
		Geometry:    opts.Geometry,
		Diagnostics: collected.Diagnostics(),
	}
}

// TopologyHash hashes everything in snap that a layout depends on.
// Positions and selections are excluded.
func TopologyHash(snap *topology.Snapshot) (string, error) {
	c := snap.Clone()
	c.ResetPositions()
	c.DeselectAll()
	return cache.HashJSON(c)
}

// MarshalLayout encodes d for caching.
func MarshalLayout(d *LayoutData) ([]byte, error) {
	return json.Marshal(d)
}

// UnmarshalLayout decodes data written by MarshalLayout.
func UnmarshalLayout(data []byte) (*LayoutData, error) {
	var d LayoutData
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	if d.Snapshot == nil {
		return nil, fmt.Errorf("layout data has no snapshot")
	}
	return &d, nil
}

// =============================================================================
// Scene
// =============================================================================

// Scene returns a read-only renderable view of d. Positions are taken as
// stored; nothing is recomputed.
func (d *LayoutData) Scene() *Scene {
	m := layout.BuildMembership(d.Snapshot, layout.Discard)
	return &Scene{
		data:     d,
		members:  m,
		resolver: layout.NewResolver(d.Geometry, d.Snapshot, m, layout.Discard),
	}
}

// Scene adapts LayoutData to the renderers.
type Scene struct {
	data     *LayoutData
	members  *layout.Membership
	resolver *layout.Resolver
}

func (s *Scene) Snapshot() *topology.Snapshot   { return s.data.Snapshot }
func (s *Scene) Resolver() *layout.Resolver     { return s.resolver }
func (s *Scene) Canvas() layout.Canvas          { return s.data.Canvas }
func (s *Scene) Geometry() layout.Geometry      { return s.data.Geometry }
func (s *Scene) Membership() *layout.Membership { return s.members }
