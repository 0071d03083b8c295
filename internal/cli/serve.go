package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/netdiagram/internal/server"
	"github.com/matzehuels/netdiagram/pkg/config"
	"github.com/matzehuels/netdiagram/pkg/storage"
	"github.com/matzehuels/netdiagram/pkg/topology"
)

// serveOpts holds the flags of the serve command.
type serveOpts struct {
	inputFlags
	addr     string
	watch    bool
	noWatch  bool
	snapshot string
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve [topology]",
		Short: "Serve a live layout over HTTP",
		Long: `Serve a live layout over HTTP.

The API under /api/v1 returns the current layout, accepts drags, auto-arrange
and flow selection, and renders the diagram as SVG. Layout and position
changes are pushed to clients over Server-Sent Events (/api/v1/events) and
WebSocket (/api/v1/ws); WebSocket clients can also drive drags with raw
pointer messages.

The topology files are watched and reloaded on change unless --no-watch is
given. Use --snapshot to serve a snapshot from the store instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			scfg := opts.serverConfig(cfg, c)
			if len(args) == 1 {
				scfg.Paths = opts.paths(args[0])
			}
			if opts.snapshot != "" {
				snap, err := c.loadSnapshot(cmd.Context(), opts.snapshot)
				if err != nil {
					return err
				}
				scfg.Snapshot = snap
			}
			return c.runServe(cmd.Context(), scfg)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "reload the topology files when they change")
	cmd.Flags().BoolVar(&opts.noWatch, "no-watch", false, "do not watch the topology files")
	cmd.Flags().StringVar(&opts.snapshot, "snapshot", "", "serve a stored snapshot by name")
	cmd.MarkFlagsMutuallyExclusive("watch", "no-watch")

	return cmd
}

// serverConfig merges the config file with command-line flags.
func (o *serveOpts) serverConfig(cfg *config.Config, c *CLI) server.Config {
	scfg := server.Config{
		Addr:            cfg.Server.Addr,
		Watch:           cfg.Server.Watch,
		Geometry:        cfg.Layout.Geometry(),
		CORSOrigins:     cfg.Server.CORSOrigins,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Logger:          c.Logger,
	}
	if o.addr != "" {
		scfg.Addr = o.addr
	}
	if o.watch {
		scfg.Watch = true
	}
	if o.noWatch {
		scfg.Watch = false
	}
	return scfg
}

func (c *CLI) loadSnapshot(ctx context.Context, name string) (*topology.Snapshot, error) {
	var snap *topology.Snapshot
	err := c.withStore(ctx, func(s storage.Store) error {
		var err error
		snap, err = s.Load(ctx, name)
		return err
	})
	return snap, err
}

func (c *CLI) runServe(ctx context.Context, cfg server.Config) error {
	if cfg.Paths.Topology == "" && cfg.Snapshot == nil {
		printInfo("No topology given; waiting for one to be posted")
	}
	printSuccess("Serving on %s", StyleHighlight.Render(cfg.Addr))
	if cfg.Watch && cfg.Paths.Topology != "" {
		printDetail("Watching %d file(s)", len(cfg.Paths.List()))
	}
	return server.New(cfg).Run(ctx)
}
