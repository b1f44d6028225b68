// Package export renders plan results for operators: indented tree text,
// node configuration commands, GeoJSON for mapping tools, and YAML.
package export

import (
	"fmt"
	"strings"

	"github.com/gridsignal/loraplan/internal/model"
)

// RenderTree returns an indented text rendering of the planned tree,
// rooted at the gateway, with per-node parent and frequency annotations.
func RenderTree(result *model.PlanResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Gateway (%.4f, %.4f)  freq down: %d\n",
		result.Gateway.Coordinate.Lat, result.Gateway.Coordinate.Lon,
		result.Frequencies.GatewayDownlink,
	)
	for _, child := range result.Tree.ChildrenOf(model.GatewayID) {
		renderNode(&b, result, child, 1)
	}

	if len(result.Unreachable) > 0 {
		fmt.Fprintf(&b, "\nUnreachable (%d):\n", len(result.Unreachable))
		for _, name := range result.Unreachable {
			if n := nodeByName(result, name); n != nil {
				fmt.Fprintf(&b, "  - %s (%.4f, %.4f)\n", name, n.Coordinate.Lat, n.Coordinate.Lon)
			} else {
				fmt.Fprintf(&b, "  - %s\n", name)
			}
		}
	}
	return b.String()
}

func renderNode(b *strings.Builder, result *model.PlanResult, name string, depth int) {
	indent := strings.Repeat("    ", depth)
	line := fmt.Sprintf("%s└── %s  parent: %s", indent, name, result.Tree.Parent[name])
	if up, ok := result.Frequencies.Uplink[name]; ok {
		line += fmt.Sprintf(", freq up: %d", up)
	}
	if down, ok := result.Frequencies.Downlink[name]; ok {
		line += fmt.Sprintf(", freq down: %d", down)
	}
	b.WriteString(line + "\n")
	for _, child := range result.Tree.ChildrenOf(name) {
		renderNode(b, result, child, depth+1)
	}
}

func nodeByName(result *model.PlanResult, name string) *model.Node {
	for i := range result.Nodes {
		if result.Nodes[i].Name == name {
			return &result.Nodes[i]
		}
	}
	return nil
}
