package planner

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// ErrNoGateway is returned when planning is attempted before a gateway
// position has been set.
var ErrNoGateway = eris.New("planner: no gateway configured")

// ErrUnknownNode is returned when a failed-connection pair references an
// identity that is neither the gateway nor an existing node.
var ErrUnknownNode = eris.New("planner: unknown node")

// FrequencyExhaustedError reports that the shared downlink pool drained
// before every branching node was served.
type FrequencyExhaustedError struct {
	// Node is the identity that could not be allocated a downlink.
	Node string

	// Unassigned counts the attached nodes left without a complete
	// frequency assignment when the run aborted.
	Unassigned int
}

func (e *FrequencyExhaustedError) Error() string {
	return fmt.Sprintf("planner: frequency pool exhausted at node %s (%d nodes unassigned)", e.Node, e.Unassigned)
}
