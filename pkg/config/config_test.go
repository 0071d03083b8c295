package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/netdiagram/pkg/errors"
)

func TestDefault(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	cfg := Default()

	if cfg.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %q, want :8080", cfg.Server.Addr)
	}
	if !cfg.Server.Watch {
		t.Error("default watch should be enabled")
	}
	if cfg.Cache.Backend != "file" {
		t.Errorf("Cache.Backend = %q, want file", cfg.Cache.Backend)
	}
	if cfg.Storage.Path != "/tmp/xdg/netdiagram/snapshots.db" {
		t.Errorf("Storage.Path = %q", cfg.Storage.Path)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

func TestConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/test-xdg")
	if dir := ConfigDir(); dir != "/tmp/test-xdg/netdiagram" {
		t.Errorf("ConfigDir() = %q, want /tmp/test-xdg/netdiagram", dir)
	}

	t.Setenv("XDG_CONFIG_HOME", "")
	home, _ := os.UserHomeDir()
	if dir, want := ConfigDir(), filepath.Join(home, ".config", "netdiagram"); dir != want {
		t.Errorf("ConfigDir() = %q, want %q", dir, want)
	}
}

func TestSaveAndLoad(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := Default()
	cfg.Layout.GroupSpacing = 40
	cfg.Render.Formats = []string{"svg", "png"}
	cfg.Server.ShutdownTimeout = 3 * time.Second

	if err := Save("", cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Layout.GroupSpacing != 40 {
		t.Errorf("GroupSpacing = %v, want 40", loaded.Layout.GroupSpacing)
	}
	if len(loaded.Render.Formats) != 2 {
		t.Errorf("Formats = %v, want [svg png]", loaded.Render.Formats)
	}
	if loaded.Server.ShutdownTimeout != 3*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 3s", loaded.Server.ShutdownTimeout)
	}
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Render.Style != "diagram" {
		t.Errorf("Render.Style = %q, want diagram", cfg.Render.Style)
	}
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[layout]
grid_x = 120

[server]
addr = "127.0.0.1:9000"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" || !cfg.Server.Watch {
		t.Errorf("Server = %+v, want addr override and default watch", cfg.Server)
	}

	g := cfg.Layout.Geometry()
	if g.GridX != 120 || g.GridY != 80 || g.GroupSpacingX != 20 {
		t.Errorf("Geometry() grid = %v/%v spacing %v, want 120/80 and 20", g.GridX, g.GridY, g.GroupSpacingX)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"syntax", "[layout\n"},
		{"format", "[render]\nformats = [\"gif\"]\n"},
		{"style", "[render]\nstyle = \"tower\"\n"},
		{"cache backend", "[cache]\nbackend = \"memcached\"\n"},
		{"redis without addr", "[cache]\nbackend = \"redis\"\n"},
		{"storage backend", "[storage]\nbackend = \"postgres\"\n"},
		{"negative spacing", "[layout]\ngroup_spacing = -5.0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tt.data), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("Load() error = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestStoreConfig(t *testing.T) {
	s := StorageConfig{Backend: "mongo", MongoURI: "mongodb://db", Database: "d", Collection: "c"}
	got := s.StoreConfig()
	if got.Backend != "mongo" || got.URI != "mongodb://db" || got.Database != "d" || got.Collection != "c" {
		t.Errorf("StoreConfig() = %+v", got)
	}
}
