package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/netdiagram/pkg/layout"
	"github.com/matzehuels/netdiagram/pkg/pipeline"
)

// renderOpts holds the flags of the render command.
type renderOpts struct {
	inputFlags
	output   string   // output file (single format) or base path
	formats  []string // svg, png, pdf, dot, json
	style    string   // diagram or nodelink
	flow     string   // flow ID to highlight
	legend   bool     // draw the zone and flow legend
	detailed bool     // nodelink labels list interfaces
	scale    float64  // PNG scale factor
	noCache  bool
	refresh  bool
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		formatsStr string
		nodelink   bool
	)
	opts := renderOpts{scale: pipeline.DefaultScale}

	cmd := &cobra.Command{
		Use:   "render <topology>",
		Short: "Render a topology diagram",
		Long: `Render a topology diagram to SVG, PNG, PDF, DOT or JSON.

The diagram style draws group boxes, devices with interface glyphs colored by
zone, and connection lines between interfaces. The nodelink style pins the
same positions into a Graphviz graph. PNG and PDF output need rsvg-convert.

Use --flow to highlight one flow and the connections it traverses.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			opts.formats = parseFormats(formatsStr, cfg.Render.Formats)
			if opts.style == "" {
				opts.style = cfg.Render.Style
			}
			if nodelink {
				opts.style = pipeline.StyleNodelink
			}
			if err := pipeline.ValidateFormats(opts.formats); err != nil {
				return err
			}
			if err := pipeline.ValidateStyle(opts.style); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, pdf, dot, json (comma-separated)")
	cmd.Flags().StringVar(&opts.style, "style", "", "renderer: diagram (default), nodelink")
	cmd.Flags().BoolVar(&nodelink, "nodelink", false, "shorthand for --style nodelink")
	cmd.Flags().StringVar(&opts.flow, "flow", "", "highlight the flow with this ID")
	cmd.Flags().BoolVar(&opts.legend, "legend", false, "draw a zone and flow legend")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "list interfaces in nodelink labels")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG scale factor")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute even when cached")

	return cmd
}

// runRender runs the full pipeline and writes one file per format.
func (c *CLI) runRender(ctx context.Context, input string, opts renderOpts) error {
	logger := loggerFromContext(ctx)
	cfg, err := c.config()
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	diags := &layout.Collector{}
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s...", strings.Join(opts.formats, ", ")))
	spinner.Start()

	result, err := runner.Execute(ctx, pipeline.Options{
		Paths:    opts.paths(input),
		Geometry: cfg.Layout.Geometry(),
		Refresh:  opts.refresh,
		Formats:  opts.formats,
		Style:    opts.style,
		Flow:     opts.flow,
		Legend:   opts.legend,
		Detailed: opts.detailed,
		Scale:    opts.scale,
		Reporter: diags,
	})
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	var written []string
	for _, format := range opts.formats {
		path := outputPath(opts.output, input, format, len(opts.formats))
		if err := writeOutput(path, result.Artifacts[format]); err != nil {
			return err
		}
		logger.Debug("wrote artifact", "format", format, "bytes", len(result.Artifacts[format]))
		written = append(written, path)
	}

	if slices.Contains(written, "-") {
		return nil
	}
	printSuccess("Rendered %s", strings.Join(opts.formats, ", "))
	for _, p := range written {
		printFile(p)
	}
	printStats(result.Stats.Stats, result.CacheInfo.LayoutHit && result.CacheInfo.RenderHit)
	printDiagnostics(diags.Diagnostics())
	return nil
}

// basePath derives the base output path. Without an output it is the input
// without its extension; a known format extension on output is stripped.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidateFormat(strings.TrimPrefix(ext, ".")) == nil {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// outputPath returns where one format is written. A single format goes to
// output verbatim when given; "-" means stdout.
func outputPath(output, input, format string, count int) string {
	if count == 1 && output != "" {
		return output
	}
	return basePath(output, input) + "." + format
}

// writeOutput writes data to path, or to stdout when path is "-".
func writeOutput(path string, data []byte) error {
	var w io.Writer = stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
