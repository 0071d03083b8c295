package pipeline

import (
	"fmt"

	"github.com/matzehuels/netdiagram/pkg/render"
	"github.com/matzehuels/netdiagram/pkg/render/diagram"
	"github.com/matzehuels/netdiagram/pkg/render/nodelink"
	"github.com/matzehuels/netdiagram/pkg/topology"
)

// Render generates output artifacts in the requested formats. When
// opts.Flow is set, that flow and its connections are highlighted on a copy
// of the snapshot.
func Render(data *LayoutData, opts Options) (map[string][]byte, error) {
	if opts.Flow != "" {
		snap := data.Snapshot.Clone()
		if err := snap.SelectFlow(opts.Flow); err != nil {
			return nil, err
		}
		data = &LayoutData{Snapshot: snap, Canvas: data.Canvas, Geometry: data.Geometry}
	}
	scene := data.Scene()

	var svg []byte
	svgOnce := func() ([]byte, error) {
		if svg != nil {
			return svg, nil
		}
		var err error
		svg, err = renderSVG(scene, opts)
		return svg, err
	}

	artifacts := make(map[string][]byte)
	for _, format := range opts.Formats {
		var (
			out []byte
			err error
		)

		switch format {
		case FormatSVG:
			out, err = svgOnce()
		case FormatPNG:
			if out, err = svgOnce(); err == nil {
				out, err = render.ToPNG(out, opts.Scale)
			}
		case FormatPDF:
			if out, err = svgOnce(); err == nil {
				out, err = render.ToPDF(out)
			}
		case FormatDOT:
			out = []byte(nodelink.ToDOT(scene, nodelink.Options{Detailed: opts.Detailed}))
		case FormatJSON:
			out, err = topology.MarshalJSON(data.Snapshot)
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = out
	}

	return artifacts, nil
}

func renderSVG(scene *Scene, opts Options) ([]byte, error) {
	if opts.IsNodelink() {
		return nodelink.RenderSVG(nodelink.ToDOT(scene, nodelink.Options{Detailed: opts.Detailed}))
	}
	return diagram.RenderSVG(scene, svgOptions(opts)...), nil
}

func svgOptions(opts Options) []diagram.SVGOption {
	var svgOpts []diagram.SVGOption
	if opts.Legend {
		svgOpts = append(svgOpts, diagram.WithLegend())
	}
	if opts.Flow != "" {
		svgOpts = append(svgOpts, diagram.WithConnectionLabels())
	}
	return svgOpts
}
