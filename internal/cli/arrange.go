package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/netdiagram/pkg/layout"
	"github.com/matzehuels/netdiagram/pkg/pipeline"
)

// arrangeCommand creates the interactive arrange command.
func (c *CLI) arrangeCommand() *cobra.Command {
	var (
		in     inputFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "arrange <topology>",
		Short: "Move groups interactively in the terminal",
		Long: `Move groups interactively in the terminal.

The topology is laid out, then each group can be selected with tab and moved
with the arrow keys. Press a to auto-arrange, r to recompute group sizes and
w to write the positioned snapshot.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				output = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".layout.json"
			}
			return c.runArrange(cmd.Context(), in, args[0], output)
		},
	}

	in.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")

	return cmd
}

func (c *CLI) runArrange(ctx context.Context, in inputFlags, input, output string) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	logger := loggerFromContext(ctx)
	snap, err := pipeline.Load(ctx, pipeline.Options{Paths: in.paths(input), Logger: logger})
	if err != nil {
		return err
	}

	diags := &layout.Collector{}
	e := layout.New(
		layout.WithGeometry(cfg.Layout.Geometry()),
		layout.WithReporter(diags),
		layout.WithLogger(logger),
	)
	defer e.Close()
	e.Layout(snap)
	printDiagnostics(diags.Diagnostics())

	final, err := tea.NewProgram(NewArrangeModel(e, output), tea.WithContext(ctx)).Run()
	if err != nil {
		return fmt.Errorf("arrange: %w", err)
	}
	if m, ok := final.(ArrangeModel); ok && m.Written {
		printSuccess("Arrangement saved")
		printFile(output)
		return nil
	}
	printDetail("No changes written")
	return nil
}
