package diagram_test

import (
	"bytes"
	"fmt"

	"github.com/matzehuels/netdiagram/pkg/layout"
	"github.com/matzehuels/netdiagram/pkg/render/diagram"
	"github.com/matzehuels/netdiagram/pkg/topology"
)

func ExampleRenderSVG() {
	snap := &topology.Snapshot{
		Devices: []topology.Device{
			{Hostname: "fw1", Interfaces: []topology.Interface{{Name: "eth0", Zone: "dmz"}}},
		},
		Groups: []topology.DeviceGroup{{Name: "edge", Devices: []string{"fw1"}}},
		Zones:  []topology.Zone{{Name: "dmz", Color: "#dc3545"}},
	}

	engine := layout.New()
	engine.Layout(snap)

	svg := diagram.RenderSVG(engine, diagram.WithLegend())
	fmt.Println(bytes.HasPrefix(svg, []byte("<svg")))
	fmt.Println(bytes.Contains(svg, []byte(`fill="#dc3545"`)))
	// Output:
	// true
	// true
}
