package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/netdiagram/pkg/pipeline"
	"github.com/matzehuels/netdiagram/pkg/storage"
	"github.com/matzehuels/netdiagram/pkg/topology"
)

// storeCommand creates the snapshot store command.
func (c *CLI) storeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Save and load named topology snapshots",
		Long: `Save and load named topology snapshots.

Snapshots are kept in SQLite by default, or in MongoDB when the storage
backend is "mongo". Only the topology is stored; positions are recomputed
when a snapshot is laid out again.`,
	}

	cmd.AddCommand(c.storeSaveCommand())
	cmd.AddCommand(c.storeLoadCommand())
	cmd.AddCommand(c.storeListCommand())
	cmd.AddCommand(c.storeDeleteCommand())

	return cmd
}

func (c *CLI) storeSaveCommand() *cobra.Command {
	var in inputFlags
	cmd := &cobra.Command{
		Use:   "save <name> <topology>",
		Short: "Store a topology under a name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			snap, err := pipeline.Load(ctx, pipeline.Options{Paths: in.paths(args[1]), Logger: loggerFromContext(ctx)})
			if err != nil {
				return err
			}
			return c.withStore(ctx, func(s storage.Store) error {
				if err := s.Save(ctx, args[0], snap); err != nil {
					return err
				}
				printSuccess("Saved %s", StyleHighlight.Render(args[0]))
				printStats(snap.Stats(), false)
				return nil
			})
		},
	}
	in.register(cmd)
	return cmd
}

func (c *CLI) storeLoadCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "load <name>",
		Short: "Write a stored topology to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withStore(ctx, func(s storage.Store) error {
				snap, err := s.Load(ctx, args[0])
				if err != nil {
					return err
				}
				path := output
				if path == "" {
					path = args[0] + ".json"
				}
				if err := topology.WriteFile(path, snap); err != nil {
					return fmt.Errorf("write %s: %w", path, err)
				}
				printSuccess("Loaded %s", StyleHighlight.Render(args[0]))
				printFile(path)
				printNewline()
				printNextStep("Lay out", appName+" layout "+path)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <name>.json)")
	return cmd
}

func (c *CLI) storeListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withStore(ctx, func(s storage.Store) error {
				entries, err := s.List(ctx)
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					printInfo("No stored snapshots")
					return nil
				}
				fmt.Fprintln(stdout, entryTable(entries, time.Now()))
				return nil
			})
		},
	}
}

func (c *CLI) storeDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <name>",
		Aliases: []string{"rm"},
		Short:   "Delete a stored snapshot",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withStore(ctx, func(s storage.Store) error {
				if err := s.Delete(ctx, args[0]); err != nil {
					return err
				}
				printSuccess("Deleted %s", StyleHighlight.Render(args[0]))
				return nil
			})
		},
	}
}

// withStore opens the configured store for the duration of fn.
func (c *CLI) withStore(ctx context.Context, fn func(storage.Store) error) error {
	s, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

// entryTable renders stored snapshots as a table.
func entryTable(entries []storage.Entry, now time.Time) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.Name,
			strconv.Itoa(e.Stats.Groups),
			strconv.Itoa(e.Stats.Devices),
			strconv.Itoa(e.Stats.Connections),
			strconv.Itoa(e.Stats.Flows),
			formatRelativeTime(e.UpdatedAt, now),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Name", "Groups", "Devices", "Connections", "Flows", "Updated").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 0:
				return lipgloss.NewStyle().Foreground(colorCyan)
			case col == 5:
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

// formatRelativeTime renders t relative to now for recent times.
func formatRelativeTime(t, now time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
