package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/netdiagram/pkg/errors"
	"github.com/matzehuels/netdiagram/pkg/layout"
	"github.com/matzehuels/netdiagram/pkg/pipeline"
	"github.com/matzehuels/netdiagram/pkg/topology"
)

// validateCommand creates the validate command.
func (c *CLI) validateCommand() *cobra.Command {
	var (
		in     inputFlags
		strict bool
	)

	cmd := &cobra.Command{
		Use:   "validate <topology>",
		Short: "Check a topology for dangling references",
		Long: `Check a topology for dangling references.

Reports group members with no device, devices listed by more than one group,
connection endpoints that name an unknown device or interface, and flow labels
that match no connection. These never stop a layout; with --strict they fail
the command.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runValidate(cmd.Context(), in.paths(args[0]), strict)
		},
	}

	in.register(cmd)
	cmd.Flags().BoolVar(&strict, "strict", false, "exit with an error when problems are found")

	return cmd
}

func (c *CLI) runValidate(ctx context.Context, paths topology.Paths, strict bool) error {
	logger := loggerFromContext(ctx)
	p := newProgress(logger)
	snap, err := pipeline.Load(ctx, pipeline.Options{Paths: paths, Logger: logger})
	if err != nil {
		return err
	}

	diags := validateSnapshot(snap)
	p.done(fmt.Sprintf("Checked %d file(s)", len(paths.List())))
	if len(diags) == 0 {
		printSuccess("%s is valid", paths.Topology)
		printStats(snap.Stats(), false)
		return nil
	}

	printDiagnostics(diags)
	if strict {
		return errors.New(errors.ErrCodeInvalidInput, "%d problem(s) in %s", len(diags), paths.Topology)
	}
	return nil
}

// validateSnapshot returns every reference problem in snap as a diagnostic.
func validateSnapshot(snap *topology.Snapshot) []layout.Diagnostic {
	var c layout.Collector
	layout.ReportProblems(&c, topology.Validate(snap))
	return c.Diagnostics()
}
