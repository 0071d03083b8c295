package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/netdiagram/pkg/layout"
	"github.com/matzehuels/netdiagram/pkg/pipeline"
	"github.com/matzehuels/netdiagram/pkg/topology"
)

// layoutOpts holds the flags of the layout command.
type layoutOpts struct {
	inputFlags
	output  string
	noCache bool
	refresh bool
}

// layoutCommand creates the layout command for computing positions.
func (c *CLI) layoutCommand() *cobra.Command {
	var opts layoutOpts

	cmd := &cobra.Command{
		Use:   "layout <topology>",
		Short: "Compute a layout and write the positioned snapshot as JSON",
		Long: `Compute a layout and write the positioned snapshot as JSON.

The topology file holds devices, device groups and zones. Connections and
flows are read from connections.<ext> and flows.<ext> next to it when present,
or from the files given with --connections and --flows. JSON and YAML are
both accepted.

Group positions and sizes and standalone device positions are written into
the output. Results are cached by topology content.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute even when cached")

	return cmd
}

// runLayout loads the topology, computes the layout and writes output.
func (c *CLI) runLayout(ctx context.Context, input string, opts layoutOpts) error {
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
	popts := pipeline.Options{
		Paths:    opts.paths(input),
		Geometry: cfg.Layout.Geometry(),
		Refresh:  opts.refresh,
		Reporter: diags,
	}

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Loading %s...", filepath.Base(input)))
	spinner.Start()
	snap, err := runner.Load(ctx, popts)
	if err != nil {
		spinner.StopWithError("Load failed")
		return fmt.Errorf("load %s: %w", input, err)
	}

	spinner.Update("Computing layout...")
	data, cacheHit, err := runner.LayoutWithCacheInfo(ctx, snap, popts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := opts.output
	if outputPath == "" {
		outputPath = strings.TrimSuffix(input, filepath.Ext(input)) + ".layout.json"
	}
	if err := topology.WriteFile(outputPath, data.Snapshot); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete (%gx%g)", data.Canvas.Width, data.Canvas.Height)
	printFile(outputPath)
	printStats(snap.Stats(), cacheHit)
	printDiagnostics(diags.Diagnostics())
	printNewline()
	printNextStep("Render", appName+" render "+input)

	return nil
}
