package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/netdiagram/pkg/observability"
	"github.com/matzehuels/netdiagram/pkg/topology"
)

// Load reads the documents named by opts.Paths into a snapshot.
//
// Topology files are small and local, so loading is never cached; the
// content hash of the result keys everything downstream instead.
func Load(ctx context.Context, opts Options) (*topology.Snapshot, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, err
	}

	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, opts.Paths.Topology)
	start := time.Now()

	snap, err := topology.Load(opts.Paths)
	devices := 0
	if snap != nil {
		devices = len(snap.Devices)
	}
	hooks.OnLoadComplete(ctx, opts.Paths.Topology, devices, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	opts.Logger.Debug("loaded topology",
		"files", opts.Paths.List(),
		"devices", len(snap.Devices),
		"groups", len(snap.Groups))
	return snap, nil
}
