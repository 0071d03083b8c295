package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/netdiagram/pkg/config"
	"github.com/matzehuels/netdiagram/pkg/layout"
	"github.com/matzehuels/netdiagram/pkg/storage"
	"github.com/matzehuels/netdiagram/pkg/topology"
)

const fixtureTopology = `{
  "devices": [
    {"hostname": "fw1", "interfaces": [{"name": "eth0", "zone": "dmz"}]},
    {"hostname": "sw1", "interfaces": [{"name": "eth0"}]},
    {"hostname": "laptop", "interfaces": [{"name": "wlan0"}]}
  ],
  "device_group": [{"name": "core", "devices": ["fw1", "sw1", "ghost"]}],
  "zones": [{"name": "dmz", "color": "#ff8800"}]
}`

const fixtureConnections = `{
  "connections": [{
    "source_device": "fw1", "source_interface": "eth0",
    "destination_device": "sw1", "destination_interface": "eth0",
    "label": "uplink"
  }]
}`

const fixtureFlows = `{
  "flows": [{"id": "f1", "name": "web", "source": "fw1", "destination": "sw1",
             "connection_labels": ["uplink"], "status": "approved"}]
}`

// writeFixture writes a topology with sibling connections and flows files
// and returns the topology path.
func writeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range map[string]string{
		"topology.json":    fixtureTopology,
		"connections.json": fixtureConnections,
		"flows.json":       fixtureFlows,
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return filepath.Join(dir, "topology.json")
}

// testConfig writes a config that disables caching and keeps the snapshot
// store in a temp dir, and returns its path.
func testConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_CACHE_HOME", dir)

	cfg := config.Default()
	cfg.Cache.Backend = "none"
	cfg.Storage.Path = filepath.Join(dir, "snapshots.db")
	path := filepath.Join(dir, "config.toml")
	if err := config.Save(path, cfg); err != nil {
		t.Fatalf("save config: %v", err)
	}
	return path
}

// runCLI executes the root command and returns what it printed.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	old := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = old })

	root := New(io.Discard, LogInfo).RootCommand()
	root.SetArgs(args)
	root.SetOut(&buf)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

func readSnapshot(t *testing.T, path string) *topology.Snapshot {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	var snap topology.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return &snap
}

// =============================================================================
// Helpers
// =============================================================================

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		fallback []string
		want     []string
	}{
		{"empty defaults to svg", "", nil, []string{"svg"}},
		{"empty uses fallback", "", []string{"png", "dot"}, []string{"png", "dot"}},
		{"single format", "svg", nil, []string{"svg"}},
		{"multiple formats", "svg,pdf,png", nil, []string{"svg", "pdf", "png"}},
		{"spaces trimmed", "svg, json", []string{"png"}, []string{"svg", "json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseFormats(tt.input, tt.fallback)
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("parseFormats(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestInputFlagsPaths(t *testing.T) {
	input := writeFixture(t)
	dir := filepath.Dir(input)

	var in inputFlags
	got := in.paths(input)
	if got.Connections != filepath.Join(dir, "connections.json") {
		t.Errorf("Connections = %q, want sibling connections.json", got.Connections)
	}
	if got.Flows != filepath.Join(dir, "flows.json") {
		t.Errorf("Flows = %q, want sibling flows.json", got.Flows)
	}

	in = inputFlags{connections: "links.yaml"}
	got = in.paths(input)
	if got.Connections != "links.yaml" {
		t.Errorf("Connections = %q, want links.yaml", got.Connections)
	}
	if got.Flows == "" {
		t.Error("Flows override dropped sibling discovery")
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		name   string
		output string
		input  string
		format string
		count  int
		want   string
	}{
		{"default single", "", "lab/top.json", "svg", 1, "lab/top.svg"},
		{"explicit single", "out.svg", "lab/top.json", "svg", 1, "out.svg"},
		{"stdout", "-", "lab/top.json", "dot", 1, "-"},
		{"default multiple", "", "lab/top.yaml", "png", 2, "lab/top.png"},
		{"base with known ext", "out/diagram.svg", "top.json", "pdf", 2, "out/diagram.pdf"},
		{"base without ext", "out/diagram", "top.json", "dot", 3, "out/diagram.dot"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := outputPath(tt.output, tt.input, tt.format, tt.count)
			if got != tt.want {
				t.Errorf("outputPath(%q, %q, %q, %d) = %q, want %q",
					tt.output, tt.input, tt.format, tt.count, got, tt.want)
			}
		})
	}
}

func TestValidateSnapshot(t *testing.T) {
	snap, err := topology.Load(topology.DiscoverPaths(writeFixture(t)))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	diags := validateSnapshot(snap)
	if len(diags) != 1 {
		t.Fatalf("validateSnapshot() = %v, want 1 diagnostic", diags)
	}
	if diags[0].Kind != layout.ReferenceMiss {
		t.Errorf("Kind = %v, want %v", diags[0].Kind, layout.ReferenceMiss)
	}
}

func TestFormatRelativeTime(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{5 * time.Minute, "5m ago"},
		{3 * time.Hour, "3h ago"},
		{2 * 24 * time.Hour, "2d ago"},
		{30 * 24 * time.Hour, "May 16, 2025"},
	}

	for _, tt := range tests {
		if got := formatRelativeTime(now.Add(-tt.ago), now); got != tt.want {
			t.Errorf("formatRelativeTime(-%v) = %q, want %q", tt.ago, got, tt.want)
		}
	}
}

func TestEntryTable(t *testing.T) {
	now := time.Now()
	out := entryTable([]storage.Entry{
		{Name: "lab", Stats: topology.Stats{Groups: 2, Devices: 5}, UpdatedAt: now},
		{Name: "prod", UpdatedAt: now.Add(-2 * time.Hour)},
	}, now)

	for _, want := range []string{"Name", "lab", "prod", "2h ago"} {
		if !strings.Contains(out, want) {
			t.Errorf("entryTable() missing %q:\n%s", want, out)
		}
	}
}

// =============================================================================
// Commands
// =============================================================================

func TestLayoutCommand(t *testing.T) {
	cfg := testConfig(t)
	input := writeFixture(t)
	output := filepath.Join(t.TempDir(), "positioned.json")

	out, err := runCLI(t, "--config", cfg, "layout", input, "-o", output)
	if err != nil {
		t.Fatalf("layout error: %v", err)
	}
	if !strings.Contains(out, "Layout complete") {
		t.Errorf("output missing success line:\n%s", out)
	}
	if !strings.Contains(out, "reference-miss") {
		t.Errorf("output missing diagnostic:\n%s", out)
	}

	snap := readSnapshot(t, output)
	core, ok := snap.Group("core")
	if !ok {
		t.Fatal("core group missing from output")
	}
	if core.X != 50 || core.Y != 50 {
		t.Errorf("core at (%g, %g), want (50, 50)", core.X, core.Y)
	}
	laptop, _ := snap.Device("laptop")
	if laptop.Y <= core.Y+core.Height {
		t.Errorf("standalone laptop y = %g, want below core (%g)", laptop.Y, core.Y+core.Height)
	}
}

func TestRenderCommand(t *testing.T) {
	cfg := testConfig(t)
	input := writeFixture(t)
	base := filepath.Join(t.TempDir(), "diagram")

	out, err := runCLI(t, "--config", cfg, "render", input, "-f", "svg,dot,json", "-o", base, "--flow", "f1")
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	for _, ext := range []string{".svg", ".dot", ".json"} {
		info, err := os.Stat(base + ext)
		if err != nil {
			t.Errorf("missing %s: %v", ext, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("%s is empty", ext)
		}
	}
	if !strings.Contains(out, "Rendered svg, dot, json") {
		t.Errorf("output missing success line:\n%s", out)
	}

	snap := readSnapshot(t, base+".json")
	if f, ok := snap.SelectedFlow(); !ok || f.ID != "f1" {
		t.Errorf("SelectedFlow() = %v, %v, want f1", f, ok)
	}
}

func TestRenderCommandRejectsFormat(t *testing.T) {
	cfg := testConfig(t)
	if _, err := runCLI(t, "--config", cfg, "render", writeFixture(t), "-f", "gif"); err == nil {
		t.Error("render -f gif succeeded, want error")
	}
}

func TestValidateCommand(t *testing.T) {
	cfg := testConfig(t)
	input := writeFixture(t)

	out, err := runCLI(t, "--config", cfg, "validate", input)
	if err != nil {
		t.Fatalf("validate error: %v", err)
	}
	if !strings.Contains(out, "ghost") {
		t.Errorf("output missing dangling member:\n%s", out)
	}

	if _, err := runCLI(t, "--config", cfg, "validate", "--strict", input); err == nil {
		t.Error("validate --strict succeeded, want error")
	}
}

func TestConfigCommands(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	path := filepath.Join(dir, "custom.toml")

	if _, err := runCLI(t, "--config", path, "config", "init"); err != nil {
		t.Fatalf("config init error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	out, err := runCLI(t, "--config", path, "config", "init")
	if err != nil {
		t.Fatalf("second config init error: %v", err)
	}
	if !strings.Contains(out, "already exists") {
		t.Errorf("second init output = %q, want warning", out)
	}

	out, err = runCLI(t, "--config", path, "config", "show")
	if err != nil {
		t.Fatalf("config show error: %v", err)
	}
	for _, want := range []string{"Layout", "sqlite", ":8080"} {
		if !strings.Contains(out, want) {
			t.Errorf("config show missing %q:\n%s", want, out)
		}
	}

	out, err = runCLI(t, "--config", path, "config", "path")
	if err != nil {
		t.Fatalf("config path error: %v", err)
	}
	if strings.TrimSpace(out) != path {
		t.Errorf("config path = %q, want %q", strings.TrimSpace(out), path)
	}
}

func TestStoreCommands(t *testing.T) {
	cfg := testConfig(t)
	input := writeFixture(t)

	if _, err := runCLI(t, "--config", cfg, "store", "save", "lab", input); err != nil {
		t.Fatalf("store save error: %v", err)
	}

	out, err := runCLI(t, "--config", cfg, "store", "list")
	if err != nil {
		t.Fatalf("store list error: %v", err)
	}
	if !strings.Contains(out, "lab") {
		t.Errorf("store list missing lab:\n%s", out)
	}

	loaded := filepath.Join(t.TempDir(), "lab.json")
	if _, err := runCLI(t, "--config", cfg, "store", "load", "lab", "-o", loaded); err != nil {
		t.Fatalf("store load error: %v", err)
	}
	snap := readSnapshot(t, loaded)
	if got := snap.Stats().Devices; got != 3 {
		t.Errorf("loaded devices = %d, want 3", got)
	}
	if core, _ := snap.Group("core"); core.X != 0 {
		t.Errorf("loaded core x = %g, want positions stripped", core.X)
	}

	if _, err := runCLI(t, "--config", cfg, "store", "delete", "lab"); err != nil {
		t.Fatalf("store delete error: %v", err)
	}
	if _, err := runCLI(t, "--config", cfg, "store", "delete", "lab"); err == nil {
		t.Error("second delete succeeded, want not found")
	}
}

func TestCompletionCommand(t *testing.T) {
	out, err := runCLI(t, "completion", "bash")
	if err != nil {
		t.Fatalf("completion error: %v", err)
	}
	if !strings.Contains(out, "netdiagram") {
		t.Error("bash completion does not mention netdiagram")
	}
}
