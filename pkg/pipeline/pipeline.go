// Package pipeline provides the load → layout → render pipeline for netdiagram.
//
// The CLI, the API server and the file watcher all go through this package,
// so caching and instrumentation behave the same everywhere.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: read the topology, connections and flows documents into a snapshot
//  2. Layout: size and place every group and standalone device
//  3. Render: produce SVG, PNG, PDF, DOT or positioned JSON
//
// Layout and render results are cached by content hash. A layout depends only
// on the snapshot content (positions and selections excluded) and the
// geometry, so highlighting a flow re-renders without re-laying out.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Paths:   topology.DiscoverPaths("lab/topology.json"),
//	    Formats: []string{"svg", "png"},
//	})
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	snap, err := runner.Load(ctx, opts)
//	data, hit, err := runner.LayoutWithCacheInfo(ctx, snap, opts)
//	artifacts, hit, err := runner.RenderWithCacheInfo(ctx, data, opts)
package pipeline

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/netdiagram/pkg/cache"
	"github.com/matzehuels/netdiagram/pkg/layout"
	"github.com/matzehuels/netdiagram/pkg/topology"
)

// =============================================================================
// Default Values
// =============================================================================

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatDOT  = "dot"
	FormatJSON = "json"
)

// Style constants select the renderer.
const (
	StyleDiagram  = "diagram"
	StyleNodelink = "nodelink"
)

const (
	// DefaultStyle is the default renderer.
	DefaultStyle = StyleDiagram

	// DefaultScale is the PNG scale factor.
	DefaultScale = 2.0
)

// ValidFormats lists the supported output formats.
var ValidFormats = []string{FormatSVG, FormatPNG, FormatPDF, FormatDOT, FormatJSON}

// ValidStyles lists the supported renderers.
var ValidStyles = []string{StyleDiagram, StyleNodelink}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run.
type Options struct {
	// Load options
	Paths topology.Paths `json:"paths"`

	// Layout options. A zero Geometry means layout.DefaultGeometry.
	Geometry layout.Geometry `json:"geometry"`
	Refresh  bool            `json:"refresh,omitempty"`

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Style    string   `json:"style,omitempty"`
	Flow     string   `json:"flow,omitempty"` // flow ID to highlight
	Legend   bool     `json:"legend,omitempty"`
	Detailed bool     `json:"detailed,omitempty"` // nodelink labels list interfaces
	Scale    float64  `json:"scale,omitempty"`

	// Runtime options (not serialized)
	Logger   *log.Logger     `json:"-"`
	Reporter layout.Reporter `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Layout is the positioned snapshot with its canvas and diagnostics.
	Layout *LayoutData

	// TopologyHash identifies the layout input.
	TopologyHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	topology.Stats
	Diagnostics int
	LoadTime    time.Duration
	LayoutTime  time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !slices.Contains(ValidFormats, format) {
		return fmt.Errorf("invalid format: %q (must be one of: svg, png, pdf, dot, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateStyle checks that a style is valid.
func ValidateStyle(style string) error {
	if !slices.Contains(ValidStyles, style) {
		return fmt.Errorf("invalid style: %q (must be one of: diagram, nodelink)", style)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateForLoad checks that a topology path is set.
func (o *Options) ValidateForLoad() error {
	if o.Paths.Topology == "" {
		return fmt.Errorf("topology path is required")
	}
	o.setCommonDefaults()
	return nil
}

// SetLayoutDefaults fills in the default geometry.
func (o *Options) SetLayoutDefaults() {
	if o.Geometry == (layout.Geometry{}) {
		o.Geometry = layout.DefaultGeometry()
	}
	o.setCommonDefaults()
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Style == "" {
		o.Style = DefaultStyle
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	o.setCommonDefaults()
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetLayoutDefaults()
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	return ValidateStyle(o.Style)
}

// ValidateAndSetDefaults checks every stage's options. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	return o.ValidateForRender()
}

func (o *Options) setCommonDefaults() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if o.Reporter == nil {
		o.Reporter = layout.Discard
	}
}

// IsNodelink reports whether the Graphviz renderer is selected.
func (o *Options) IsNodelink() bool {
	return o.Style == StyleNodelink
}

// ArtifactKeyOpts returns cache key options for one output format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	opts := cache.ArtifactKeyOpts{
		Format: format,
		Style:  o.Style,
		Flow:   o.Flow,
		Legend: o.Legend,
	}
	if o.IsNodelink() || format == FormatDOT {
		opts.Detailed = o.Detailed
	}
	if format == FormatPNG {
		opts.Scale = o.Scale
	}
	return opts
}
