package nodelink

import (
	"strings"
	"testing"

	"github.com/matzehuels/netdiagram/pkg/layout"
	"github.com/matzehuels/netdiagram/pkg/topology"
)

func laidOut(t *testing.T) *layout.Engine {
	t.Helper()
	snap := &topology.Snapshot{
		Devices: []topology.Device{
			{Hostname: "fw1", Interfaces: []topology.Interface{{Name: "eth0", IP: "10.0.0.1", Zone: "dmz"}}},
			{Hostname: "sw1", Interfaces: []topology.Interface{{Name: "ge0"}}},
			{Hostname: "laptop"},
		},
		Groups: []topology.DeviceGroup{{Name: "core", Devices: []string{"fw1", "sw1"}}},
		Connections: []topology.Connection{
			{SourceDevice: "fw1", SourceInterface: "eth0", DestinationDevice: "sw1", DestinationInterface: "ge0", Label: "uplink", Selected: true},
			{SourceDevice: "fw1", SourceInterface: "eth0", DestinationDevice: "ghost", DestinationInterface: "x", Label: "dangling"},
		},
	}
	e := layout.New()
	t.Cleanup(e.Close)
	e.Layout(snap)
	return e
}

func TestToDOT_Basic(t *testing.T) {
	dot := ToDOT(laidOut(t), Options{})

	if !strings.Contains(dot, "graph G {") {
		t.Error("ToDOT() output missing graph declaration")
	}
	if !strings.Contains(dot, `"fw1" [label="fw1", pos="110,895!", width=1.25`) {
		t.Errorf("ToDOT() fw1 node not pinned to its center:\n%s", dot)
	}
	if !strings.Contains(dot, `tooltip="group: core"`) {
		t.Error("ToDOT() output missing group tooltip")
	}
	if !strings.Contains(dot, `"fw1" -- "sw1" [label="uplink", taillabel="eth0", headlabel="ge0", color="#8A2BE2", penwidth=2]`) {
		t.Errorf("ToDOT() output missing selected edge:\n%s", dot)
	}
	if strings.Contains(dot, "ghost") {
		t.Error("ToDOT() emitted an edge to an unknown device")
	}
}

func TestToDOT_Detailed(t *testing.T) {
	dot := ToDOT(laidOut(t), Options{Detailed: true})

	if !strings.Contains(dot, `label="fw1\neth0 10.0.0.1 [dmz]"`) {
		t.Errorf("ToDOT() detailed label missing interface info:\n%s", dot)
	}
	if !strings.Contains(dot, `label="laptop"`) {
		t.Error("ToDOT() detailed label for a device without interfaces should be its hostname")
	}
}

func TestToDOT_NoSnapshot(t *testing.T) {
	e := layout.New()
	defer e.Close()

	dot := ToDOT(e, Options{})
	if strings.Contains(dot, "--") || !strings.HasSuffix(dot, "}\n") {
		t.Errorf("ToDOT() without snapshot = %q", dot)
	}
}

func TestFmtLabel(t *testing.T) {
	ifaces := []topology.Interface{{Name: "eth0"}, {Name: "eth1", Zone: "lan"}}
	tests := []struct {
		detailed bool
		want     string
	}{
		{false, "fw1"},
		{true, "fw1\neth0\neth1 [lan]"},
	}
	for _, tt := range tests {
		if got := fmtLabel("fw1", ifaces, tt.detailed); got != tt.want {
			t.Errorf("fmtLabel(detailed=%v) = %q, want %q", tt.detailed, got, tt.want)
		}
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	got := string(normalizeViewBox(in))
	if !strings.HasPrefix(got, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 50.00" width="100" height="50">`) {
		t.Errorf("normalizeViewBox() = %s", got)
	}

	plain := []byte("<svg></svg>")
	if got := normalizeViewBox(plain); string(got) != string(plain) {
		t.Errorf("normalizeViewBox() without viewBox = %s, want unchanged", got)
	}
}
