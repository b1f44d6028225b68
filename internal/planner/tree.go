package planner

import (
	"github.com/gridsignal/loraplan/internal/model"
)

// BuildTree runs the capacity-constrained breadth-first attachment over a
// feasibility graph and returns the resulting tree plus the nodes it
// never reached.
//
// The policy is greedy "first reachable within capacity": the FIFO
// frontier starts at the gateway, each dequeued identity walks its
// neighbors in recorded order, and a neighbor is attached only while the
// current identity is below its fan-out cap. The result is deterministic
// for a fixed graph but is not a shortest-path tree, and must stay that
// way: deployed networks were planned with exactly this expansion.
func BuildTree(state *model.NetworkState, g *Graph, cfg Config) (*model.Tree, []string) {
	tree := model.NewTree()

	queue := []string{model.GatewayID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		limit := cfg.childCap(current, model.GatewayID)
		for _, neighbor := range g.Neighbors(current) {
			// The gateway is the root; it is never re-attached.
			if neighbor == model.GatewayID || tree.Attached(neighbor) {
				continue
			}
			if limit > 0 && len(tree.ChildrenOf(current)) >= limit {
				continue
			}
			tree.Attach(current, neighbor)
			queue = append(queue, neighbor)
		}
	}

	var unreachable []string
	for _, n := range state.Nodes {
		if !tree.Attached(n.Name) {
			unreachable = append(unreachable, n.Name)
		}
	}
	return tree, unreachable
}
