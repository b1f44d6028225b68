package planner

import (
	"github.com/gridsignal/loraplan/internal/model"
)

// AssignFrequencies walks the tree breadth-first from the gateway's
// children and produces the channel plan: each node's uplink is its
// parent's downlink, and every node with children draws the next unused
// channel from the front of the shared pool.
//
// The gateway's downlink is the fixed configured channel and does not
// come from the pool. Under ExhaustFail (the default) a drained pool
// aborts with *FrequencyExhaustedError naming the unserved node; under
// ExhaustSkip the node and its whole subtree are recorded as skipped and
// the walk continues.
func AssignFrequencies(tree *model.Tree, cfg Config) (model.FrequencyPlan, error) {
	plan := model.FrequencyPlan{
		GatewayDownlink: cfg.GatewayDownlink,
		Uplink:          make(map[string]int),
		Downlink:        make(map[string]int),
	}
	pool := cfg.Pool()

	queue := append([]string(nil), tree.ChildrenOf(model.GatewayID)...)
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		parent := tree.Parent[current]
		parentDown, parentServed := plan.Downlink[parent], true
		if parent == model.GatewayID {
			parentDown = plan.GatewayDownlink
		} else if _, ok := plan.Downlink[parent]; !ok {
			parentServed = false
		}

		if parentServed {
			plan.Uplink[current] = parentDown
		} else {
			// Parent was skipped on exhaustion; this node has no channel
			// to listen on either.
			plan.Skipped = append(plan.Skipped, current)
		}

		if children := tree.ChildrenOf(current); len(children) > 0 && parentServed {
			if len(pool) == 0 {
				if cfg.OnExhaustion == ExhaustSkip {
					plan.Skipped = append(plan.Skipped, current)
				} else {
					return plan, &FrequencyExhaustedError{
						Node:       current,
						Unassigned: len(tree.Order) - len(plan.Uplink),
					}
				}
			} else {
				plan.Downlink[current] = pool[0]
				pool = pool[1:]
			}
		}

		queue = append(queue, tree.ChildrenOf(current)...)
	}

	return plan, nil
}
