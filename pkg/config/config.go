// Package config loads netdiagram settings from a TOML file.
//
// The file lives at $XDG_CONFIG_HOME/netdiagram/config.toml (falling back to
// ~/.config). Every field is optional; a missing file or field keeps the
// value from [Default].
package config

import (
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/netdiagram/pkg/errors"
	"github.com/matzehuels/netdiagram/pkg/layout"
	"github.com/matzehuels/netdiagram/pkg/storage"
)

const appName = "netdiagram"

// Config holds all netdiagram settings.
type Config struct {
	Layout  LayoutConfig  `toml:"layout"`
	Render  RenderConfig  `toml:"render"`
	Server  ServerConfig  `toml:"server"`
	Cache   CacheConfig   `toml:"cache"`
	Storage StorageConfig `toml:"storage"`
}

// LayoutConfig overrides layout spacing. Zero keeps the built-in value.
type LayoutConfig struct {
	GroupSpacing      float64 `toml:"group_spacing"`
	LevelSpacing      float64 `toml:"level_spacing"`
	BaseMargin        float64 `toml:"base_margin"`
	GridX             float64 `toml:"grid_x"`
	GridY             float64 `toml:"grid_y"`
	StandaloneSpacing float64 `toml:"standalone_spacing"`
	MinCanvasWidth    float64 `toml:"min_canvas_width"`
	MinCanvasHeight   float64 `toml:"min_canvas_height"`
}

// RenderConfig controls the render command.
type RenderConfig struct {
	Formats []string `toml:"formats"` // svg, png, pdf, dot, json
	Style   string   `toml:"style"`   // diagram or nodelink
}

// ServerConfig controls the serve command.
type ServerConfig struct {
	Addr            string        `toml:"addr"`
	Watch           bool          `toml:"watch"`
	CORSOrigins     []string      `toml:"cors_origins"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

// CacheConfig selects the render cache.
type CacheConfig struct {
	Backend       string `toml:"backend"` // file, redis, none
	Dir           string `toml:"dir"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	Prefix        string `toml:"prefix"`
}

// StorageConfig selects the snapshot store.
type StorageConfig struct {
	Backend    string `toml:"backend"` // sqlite or mongo
	Path       string `toml:"path"`
	MongoURI   string `toml:"mongo_uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// Known backend and style names.
var (
	renderFormats   = []string{"svg", "png", "pdf", "dot", "json"}
	renderStyles    = []string{"diagram", "nodelink"}
	cacheBackends   = []string{"file", "redis", "none"}
	storageBackends = []string{storage.BackendSQLite, storage.BackendMongo}
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Render: RenderConfig{Formats: []string{"svg"}, Style: "diagram"},
		Server: ServerConfig{Addr: ":8080", Watch: true, ShutdownTimeout: 10 * time.Second},
		Cache:  CacheConfig{Backend: "file"},
		Storage: StorageConfig{
			Backend:    storage.BackendSQLite,
			Path:       filepath.Join(ConfigDir(), "snapshots.db"),
			Database:   storage.DefaultMongoDatabase,
			Collection: storage.DefaultMongoCollection,
		},
	}
}

// ConfigDir returns the netdiagram config directory path.
func ConfigDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, appName)
}

// DefaultPath returns the config file path used when none is given.
func DefaultPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config at path, or at DefaultPath when path is empty. A
// missing file yields the defaults. The result is validated.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path, or to DefaultPath when path is empty.
func Save(path string, cfg *Config) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// Validate checks enumerated fields and numeric ranges.
func (c *Config) Validate() error {
	for _, f := range c.Render.Formats {
		if !slices.Contains(renderFormats, f) {
			return errors.New(errors.ErrCodeInvalidConfig, "render.formats: unknown format %q", f)
		}
	}
	if c.Render.Style != "" && !slices.Contains(renderStyles, c.Render.Style) {
		return errors.New(errors.ErrCodeInvalidConfig, "render.style: unknown style %q", c.Render.Style)
	}
	if !slices.Contains(cacheBackends, c.Cache.Backend) {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.backend: unknown backend %q", c.Cache.Backend)
	}
	if c.Cache.Backend == "redis" && c.Cache.RedisAddr == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.redis_addr is required for the redis backend")
	}
	if !slices.Contains(storageBackends, c.Storage.Backend) {
		return errors.New(errors.ErrCodeInvalidConfig, "storage.backend: unknown backend %q", c.Storage.Backend)
	}
	for name, v := range map[string]float64{
		"group_spacing":      c.Layout.GroupSpacing,
		"level_spacing":      c.Layout.LevelSpacing,
		"base_margin":        c.Layout.BaseMargin,
		"grid_x":             c.Layout.GridX,
		"grid_y":             c.Layout.GridY,
		"standalone_spacing": c.Layout.StandaloneSpacing,
		"min_canvas_width":   c.Layout.MinCanvasWidth,
		"min_canvas_height":  c.Layout.MinCanvasHeight,
	} {
		if v < 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "layout.%s must not be negative", name)
		}
	}
	return nil
}

// Geometry applies the overrides to the default layout geometry.
func (l LayoutConfig) Geometry() layout.Geometry {
	g := layout.DefaultGeometry()
	set := func(dst *float64, v float64) {
		if v > 0 {
			*dst = v
		}
	}
	set(&g.GroupSpacingX, l.GroupSpacing)
	set(&g.LevelSpacingY, l.LevelSpacing)
	set(&g.BaseMarginX, l.BaseMargin)
	set(&g.BaseMarginY, l.BaseMargin)
	set(&g.GridX, l.GridX)
	set(&g.GridY, l.GridY)
	set(&g.StandaloneSpacing, l.StandaloneSpacing)
	set(&g.MinCanvasWidth, l.MinCanvasWidth)
	set(&g.MinCanvasHeight, l.MinCanvasHeight)
	return g
}

// StoreConfig converts to the storage package's config.
func (s StorageConfig) StoreConfig() storage.Config {
	return storage.Config{
		Backend:    s.Backend,
		Path:       s.Path,
		URI:        s.MongoURI,
		Database:   s.Database,
		Collection: s.Collection,
	}
}
