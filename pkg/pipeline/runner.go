package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/netdiagram/pkg/cache"
	"github.com/matzehuels/netdiagram/pkg/layout"
	"github.com/matzehuels/netdiagram/pkg/observability"
	"github.com/matzehuels/netdiagram/pkg/topology"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger; it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{}

	// Stage 1: Load
	loadStart := time.Now()
	snap, err := r.Load(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.Stats = snap.Stats()

	// Stage 2: Layout
	layoutStart := time.Now()
	data, layoutHit, err := r.LayoutWithCacheInfo(ctx, snap, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = data
	result.TopologyHash, _ = TopologyHash(snap)
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.Diagnostics = len(data.Diagnostics)
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"groups", len(data.Snapshot.Groups),
		"devices", len(data.Snapshot.Devices),
		"canvas", fmt.Sprintf("%gx%g", data.Canvas.Width, data.Canvas.Height),
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, data, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Load reads the topology documents.
func (r *Runner) Load(ctx context.Context, opts Options) (*topology.Snapshot, error) {
	r.applyLogger(&opts)
	return Load(ctx, opts)
}

// LayoutWithCacheInfo lays out snap with caching and returns cache hit info.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, snap *topology.Snapshot, opts Options) (*LayoutData, bool, error) {
	r.applyLogger(&opts)
	opts.SetLayoutDefaults()

	topoHash, err := TopologyHash(snap)
	if err != nil {
		return nil, false, fmt.Errorf("hash topology: %w", err)
	}
	geoHash, err := cache.HashJSON(opts.Geometry)
	if err != nil {
		return nil, false, fmt.Errorf("hash geometry: %w", err)
	}
	cacheKey := r.Keyer.LayoutKey(topoHash, cache.LayoutKeyOpts{GeometryHash: geoHash})

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if cached, err := UnmarshalLayout(data); err == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				for _, d := range cached.Diagnostics {
					opts.Reporter.Report(d)
				}
				return cached, true, nil
			}
			// If deserialization fails, fall through to recompute
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, string(layout.ReasonLayout), len(snap.Groups))
	start := time.Now()
	data := Layout(snap, opts)
	hooks.OnLayoutComplete(ctx, string(layout.ReasonLayout), time.Since(start), nil)

	if encoded, err := MarshalLayout(data); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, encoded, cache.TTLLayout); err == nil {
			observability.Cache().OnCacheSet(ctx, "layout", len(encoded))
		}
	}

	return data, false, nil
}

// Layout is a convenience wrapper that calls LayoutWithCacheInfo and discards the cache hit info.
func (r *Runner) Layout(ctx context.Context, snap *topology.Snapshot, opts Options) (*LayoutData, error) {
	data, _, err := r.LayoutWithCacheInfo(ctx, snap, opts)
	return data, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, data *LayoutData, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	// Compute cache key from layout data
	layoutData, err := MarshalLayout(data)
	if err != nil {
		return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	layoutHash := cache.Hash(layoutData)

	// Try to get all formats from cache
	artifacts := make(map[string][]byte)
	if !opts.Refresh {
		for _, format := range opts.Formats {
			cacheKey := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
			out, hit, err := r.Cache.Get(ctx, cacheKey)
			if err != nil || !hit {
				observability.Cache().OnCacheMiss(ctx, "artifact")
				break
			}
			artifacts[format] = out
		}
		if len(artifacts) == len(opts.Formats) {
			observability.Cache().OnCacheHit(ctx, "artifact")
			return artifacts, true, nil
		}
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	rendered, err := Render(data, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	// Cache each format
	for format, out := range rendered {
		cacheKey := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, cacheKey, out, cache.TTLArtifact); err == nil {
			observability.Cache().OnCacheSet(ctx, "artifact", len(out))
		}
	}

	return rendered, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, data *LayoutData, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, data, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
