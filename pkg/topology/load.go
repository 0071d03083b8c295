package topology

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/netdiagram/pkg/errors"
)

// Format identifies a document encoding.
type Format string

// Supported document formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension. Anything other than
// .yaml or .yml is treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// =============================================================================
// Source Documents
// =============================================================================

// TopologyFile is the shape of the topology document.
type TopologyFile struct {
	Devices []Device      `json:"devices" yaml:"devices"`
	Groups  []DeviceGroup `json:"device_group" yaml:"device_group"`
	Zones   []Zone        `json:"zones" yaml:"zones"`
}

// ConnectionsFile is the shape of the connections document.
type ConnectionsFile struct {
	Connections []Connection `json:"connections" yaml:"connections"`
}

// FlowsFile is the shape of the flows document.
type FlowsFile struct {
	Flows []Flow `json:"flows" yaml:"flows"`
}

// Paths locates the three source documents. Connections and Flows are
// optional; an empty path skips that document.
type Paths struct {
	Topology    string
	Connections string
	Flows       string
}

// DiscoverPaths returns Paths for a topology file, filling in sibling
// connections.* and flows.* files with the same extension when they exist.
func DiscoverPaths(topologyPath string) Paths {
	p := Paths{Topology: topologyPath}
	dir, ext := filepath.Dir(topologyPath), filepath.Ext(topologyPath)
	if c := filepath.Join(dir, "connections"+ext); fileExists(c) {
		p.Connections = c
	}
	if f := filepath.Join(dir, "flows"+ext); fileExists(f) {
		p.Flows = f
	}
	return p
}

// List returns the non-empty paths, topology first.
func (p Paths) List() []string {
	var out []string
	for _, s := range []string{p.Topology, p.Connections, p.Flows} {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// =============================================================================
// Loading
// =============================================================================

// Load reads the documents named by p and merges them into one snapshot.
func Load(p Paths) (*Snapshot, error) {
	if p.Topology == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "topology path is required")
	}

	var top TopologyFile
	if err := readFile(p.Topology, &top); err != nil {
		return nil, err
	}

	var conns ConnectionsFile
	if p.Connections != "" {
		if err := readFile(p.Connections, &conns); err != nil {
			return nil, err
		}
	}

	var flows FlowsFile
	if p.Flows != "" {
		if err := readFile(p.Flows, &flows); err != nil {
			return nil, err
		}
	}

	return Merge(top, conns, flows), nil
}

// Merge combines the three documents into a snapshot. Every connection and
// flow starts unselected, and nil slices become empty so that the JSON
// output always carries every array.
func Merge(top TopologyFile, conns ConnectionsFile, flows FlowsFile) *Snapshot {
	s := &Snapshot{
		Devices:     nonNil(top.Devices),
		Groups:      nonNil(top.Groups),
		Zones:       nonNil(top.Zones),
		Connections: nonNil(conns.Connections),
		Flows:       nonNil(flows.Flows),
	}
	for i := range s.Devices {
		s.Devices[i].Interfaces = nonNil(s.Devices[i].Interfaces)
	}
	for i := range s.Groups {
		s.Groups[i].Devices = nonNil(s.Groups[i].Devices)
	}
	for i := range s.Connections {
		s.Connections[i].Selected = false
	}
	for i := range s.Flows {
		s.Flows[i].Selected = false
		s.Flows[i].ConnectionLabels = nonNil(s.Flows[i].ConnectionLabels)
	}
	return s
}

// ReadSnapshot decodes an already merged snapshot (as written by WriteJSON).
func ReadSnapshot(r io.Reader, format Format) (*Snapshot, error) {
	var s Snapshot
	if err := decode(r, format, &s); err != nil {
		return nil, err
	}
	merged := Merge(
		TopologyFile{Devices: s.Devices, Groups: s.Groups, Zones: s.Zones},
		ConnectionsFile{Connections: s.Connections},
		FlowsFile{Flows: s.Flows},
	)
	return merged, nil
}

// Decode decodes a single source document of the given format into v.
func Decode(data []byte, format Format, v any) error {
	return decode(bytes.NewReader(data), format, v)
}

func decode(r io.Reader, format Format, v any) error {
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(v); err != nil && err != io.EOF {
			return errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode yaml")
		}
	case FormatJSON, "":
		if err := json.NewDecoder(r).Decode(v); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode json")
		}
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q", format)
	}
	return nil
}

func readFile(path string, v any) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if err := decode(f, FormatFromPath(path), v); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// =============================================================================
// Writing
// =============================================================================

// MarshalJSON encodes the snapshot, positions included, as indented JSON.
func MarshalJSON(s *Snapshot) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// WriteJSON writes the snapshot as indented JSON to w.
func WriteJSON(w io.Writer, s *Snapshot) error {
	data, err := MarshalJSON(s)
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// WriteFile writes the snapshot to path, as YAML when the extension says so
// and as JSON otherwise.
func WriteFile(path string, s *Snapshot) error {
	var (
		data []byte
		err  error
	)
	if FormatFromPath(path) == FormatYAML {
		data, err = yaml.Marshal(s)
	} else {
		data, err = MarshalJSON(s)
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
