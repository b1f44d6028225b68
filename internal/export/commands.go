package export

import (
	"fmt"

	"github.com/gridsignal/loraplan/internal/model"
)

// ConfigCommands generates the per-node configuration commands for a
// planned network, in breadth-first attachment order. Only attached
// nodes are configured; nodes without a downlink omit the FREQ_DOWN
// field.
func ConfigCommands(result *model.PlanResult) []string {
	cmds := make([]string, 0, len(result.Tree.Order))
	for _, name := range result.Tree.Order {
		cmd := fmt.Sprintf("CONFIG_NODE %s: PARENT=%s", name, result.Tree.Parent[name])
		if up, ok := result.Frequencies.Uplink[name]; ok {
			cmd += fmt.Sprintf(", FREQ_UP=%d", up)
		}
		if down, ok := result.Frequencies.Downlink[name]; ok {
			cmd += fmt.Sprintf(", FREQ_DOWN=%d", down)
		}
		cmds = append(cmds, cmd)
	}
	return cmds
}
