// Package cli implements the netdiagram command-line interface.
package cli

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/netdiagram/pkg/buildinfo"
	"github.com/matzehuels/netdiagram/pkg/cache"
	"github.com/matzehuels/netdiagram/pkg/config"
	"github.com/matzehuels/netdiagram/pkg/pipeline"
	"github.com/matzehuels/netdiagram/pkg/storage"
	"github.com/matzehuels/netdiagram/pkg/topology"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = "netdiagram"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// ConfigPath overrides the default config file location.
	ConfigPath string
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "netdiagram lays out and renders network topology diagrams",
		Long: `netdiagram turns a network topology (devices, groups, zones, connections
and flows) into a positioned diagram. Groups are packed by level, devices are
placed on a grid inside their group, and ungrouped devices are lined up below.

Layouts can be written as JSON, rendered to SVG, PNG, PDF or DOT, arranged
interactively in the terminal, or served over HTTP with live drag support.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "config file (default: "+config.DefaultPath()+")")

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.arrangeCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.storeCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// config loads the config file once.
func (c *CLI) config() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner backed by the configured cache.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	ch, err := newCache(ctx, cfg.Cache, noCache)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer
	if cfg.Cache.Prefix != "" {
		keyer = cache.NewScopedKeyer(nil, cfg.Cache.Prefix)
	}
	return pipeline.NewRunner(ch, keyer, c.Logger), nil
}

// newCache opens the configured cache backend. An unreachable file cache
// directory disables caching instead of failing the command.
func newCache(ctx context.Context, cfg config.CacheConfig, noCache bool) (cache.Cache, error) {
	if noCache || cfg.Backend == "none" {
		return cache.NewNullCache(), nil
	}
	if cfg.Backend == "redis" {
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	}
	dir, err := cacheDir(cfg)
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// cacheDir returns the configured file cache directory or the per-user
// default.
func cacheDir(cfg config.CacheConfig) (string, error) {
	if cfg.Dir != "" {
		return cfg.Dir, nil
	}
	return cache.DefaultDir()
}

// openStore opens the configured snapshot store.
func (c *CLI) openStore(ctx context.Context) (storage.Store, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	return storage.Open(ctx, cfg.Storage.StoreConfig())
}

// =============================================================================
// Input Flags
// =============================================================================

// inputFlags names the topology documents of a command.
type inputFlags struct {
	connections string
	flows       string
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.connections, "connections", "", "connections file (default: connections.<ext> next to the topology)")
	cmd.Flags().StringVar(&f.flows, "flows", "", "flows file (default: flows.<ext> next to the topology)")
}

// paths resolves the documents for a topology file. Explicit flags win over
// sibling discovery.
func (f *inputFlags) paths(topologyPath string) topology.Paths {
	p := topology.DiscoverPaths(topologyPath)
	if f.connections != "" {
		p.Connections = f.connections
	}
	if f.flows != "" {
		p.Flows = f.flows
	}
	return p
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
// An empty string yields the fallback.
func parseFormats(s string, fallback []string) []string {
	if s == "" {
		if len(fallback) == 0 {
			return []string{pipeline.FormatSVG}
		}
		return fallback
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
