package planner

// ExhaustionPolicy selects how the frequency assigner reacts when the
// shared pool runs dry before every branching node is served.
type ExhaustionPolicy string

const (
	// ExhaustFail aborts the run and reports the node that could not be
	// served. This is the default: skipping leaves downstream nodes with
	// unset uplink frequencies, which is unrecoverable.
	ExhaustFail ExhaustionPolicy = "fail"

	// ExhaustSkip leaves the node without a downlink and keeps walking,
	// recording the skipped subtree in the result.
	ExhaustSkip ExhaustionPolicy = "skip"
)

// Config carries every tunable of the planning pipeline.
type Config struct {
	// GatewayThresholdKm is the inclusive maximum distance for a direct
	// gateway link.
	GatewayThresholdKm float64

	// NodeThresholdKm is the exclusive maximum distance for a
	// node-to-node link. The inclusive-vs-exclusive asymmetry with the
	// gateway threshold is deliberate and must not be "fixed".
	NodeThresholdKm float64

	// MaxChildren caps the fan-out of every relay node.
	MaxChildren int

	// GatewayMaxChildren caps the gateway's fan-out; 0 means unlimited.
	GatewayMaxChildren int

	// FreqPoolMin and FreqPoolMax bound the shared downlink channel pool,
	// inclusive on both ends. The pool is consumed front-to-back and
	// rebuilt fresh every run.
	FreqPoolMin int
	FreqPoolMax int

	// GatewayDownlink is the gateway's fixed downlink channel, from the
	// 3-bit gateway range (0-7), never drawn from the shared pool.
	GatewayDownlink int

	// OnExhaustion selects the pool-exhaustion policy.
	OnExhaustion ExhaustionPolicy
}

// DefaultConfig returns the stock planning parameters.
func DefaultConfig() Config {
	return Config{
		GatewayThresholdKm: 5,
		NodeThresholdKm:    5,
		MaxChildren:        4,
		GatewayMaxChildren: 0,
		FreqPoolMin:        16,
		FreqPoolMax:        30,
		GatewayDownlink:    3,
		OnExhaustion:       ExhaustFail,
	}
}

// Pool materializes the downlink channel pool in allocation order.
func (c Config) Pool() []int {
	if c.FreqPoolMax < c.FreqPoolMin {
		return nil
	}
	pool := make([]int, 0, c.FreqPoolMax-c.FreqPoolMin+1)
	for f := c.FreqPoolMin; f <= c.FreqPoolMax; f++ {
		pool = append(pool, f)
	}
	return pool
}

// childCap returns the fan-out limit for an identity; 0 means unlimited.
func (c Config) childCap(id string, gatewayID string) int {
	if id == gatewayID {
		return c.GatewayMaxChildren
	}
	return c.MaxChildren
}
