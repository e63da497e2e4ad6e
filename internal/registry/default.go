package registry

import "github.com/Cloud-Harvest/CloudHarvestAgent/internal/chain"

// RegisterDefaults registers the two reference blueprints shipped with
// this module, so the agent is runnable and testable with no external
// plugin: a "task/noop" chain that completes immediately, and a
// "chain/sleep" chain that runs for a configurable duration.
func RegisterDefaults(r *Registry) {
	r.Register(Descriptor{
		Category: "task",
		Name:     "noop",
		Class:    "NoopChain",
		Config:   map[string]any{},
		Factory:  chain.NewNoopChain,
	})
	r.Register(Descriptor{
		Category: "chain",
		Name:     "sleep",
		Class:    "SleepChain",
		Config:   map[string]any{"duration_seconds": 0},
		Factory:  chain.NewSleepChainFactory(),
	})
}
