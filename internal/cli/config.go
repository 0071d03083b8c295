package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/netdiagram/pkg/config"
)

// configCommand creates the config management command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the netdiagram configuration file",
	}

	cmd.AddCommand(c.configInitCommand())
	cmd.AddCommand(c.configShowCommand())
	cmd.AddCommand(c.configPathCommand())

	return cmd
}

func (c *CLI) configInitCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.configPath()
			if _, err := os.Stat(path); err == nil && !force {
				printWarning("Config already exists")
				printDetail("Use --force to overwrite %s", path)
				return nil
			}
			if err := config.Save(path, config.Default()); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			printSuccess("Wrote default config")
			printFile(path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}

func (c *CLI) configShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			printConfig(cfg)
			return nil
		},
	}
}

func (c *CLI) configPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(stdout, c.configPath())
		},
	}
}

// configPath returns the --config value or the default location.
func (c *CLI) configPath() string {
	if c.ConfigPath != "" {
		return c.ConfigPath
	}
	return config.DefaultPath()
}

func printConfig(cfg *config.Config) {
	g := cfg.Layout.Geometry()

	fmt.Fprintln(stdout, StyleTitle.Render("Layout"))
	printKeyValue("group spacing", formatFloat(g.GroupSpacingX))
	printKeyValue("level spacing", formatFloat(g.LevelSpacingY))
	printKeyValue("base margin", formatFloat(g.BaseMarginX)+" x "+formatFloat(g.BaseMarginY))
	printKeyValue("grid", formatFloat(g.GridX)+" x "+formatFloat(g.GridY))
	printKeyValue("standalone", formatFloat(g.StandaloneSpacing))
	printKeyValue("min canvas", formatFloat(g.MinCanvasWidth)+" x "+formatFloat(g.MinCanvasHeight))

	printNewline()
	fmt.Fprintln(stdout, StyleTitle.Render("Render"))
	printKeyValue("formats", strings.Join(cfg.Render.Formats, ", "))
	printKeyValue("style", cfg.Render.Style)

	printNewline()
	fmt.Fprintln(stdout, StyleTitle.Render("Server"))
	printKeyValue("addr", cfg.Server.Addr)
	printKeyValue("watch", strconv.FormatBool(cfg.Server.Watch))
	printKeyValue("shutdown", cfg.Server.ShutdownTimeout.String())

	printNewline()
	fmt.Fprintln(stdout, StyleTitle.Render("Cache"))
	printKeyValue("backend", cfg.Cache.Backend)
	switch cfg.Cache.Backend {
	case "redis":
		printKeyValue("redis", cfg.Cache.RedisAddr)
	case "file":
		if dir, err := cacheDir(cfg.Cache); err == nil {
			printKeyValue("dir", dir)
		}
	}

	printNewline()
	fmt.Fprintln(stdout, StyleTitle.Render("Storage"))
	printKeyValue("backend", cfg.Storage.Backend)
	if cfg.Storage.Backend == "mongo" {
		printKeyValue("database", cfg.Storage.Database+"."+cfg.Storage.Collection)
	} else {
		printKeyValue("path", cfg.Storage.Path)
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
