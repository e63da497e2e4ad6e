package chain

import "time"

// NoopChain completes immediately. Useful as the simplest possible
// admitted chain in tests and as a smoke-test blueprint in the
// registry's default catalog.
type NoopChain struct {
	*base
}

// NewNoopChain is a Factory for NoopChain. It ignores config.
func NewNoopChain(config map[string]any) (TaskChain, error) {
	return &NoopChain{base: newBase()}, nil
}

func (c *NoopChain) Run() {
	c.setStart(time.Now())
	c.setStatus(StatusRunning)
	c.setStatus(StatusComplete)
	c.setEnd(time.Now())
}

func (c *NoopChain) DetailedProgress() map[string]any {
	return map[string]any{"message": "noop"}
}

func (c *NoopChain) RedisStruct() map[string]any {
	return c.redisStruct(c.DetailedProgress())
}

var _ TaskChain = (*NoopChain)(nil)
