package chain

import (
	"time"
)

// SleepChain runs for a configured duration, checking for termination
// requests at a fixed granularity. It exists as a reference blueprint
// exercising long-running, interruptible work in tests (timeout
// escalation, graceful shutdown with a mixed-duration chain set).
type SleepChain struct {
	*base

	duration time.Duration
	tick     time.Duration
}

// NewSleepChainFactory builds a Factory reading "duration_seconds" (an
// int or float64) from config, defaulting to zero if absent.
func NewSleepChainFactory() Factory {
	return func(config map[string]any) (TaskChain, error) {
		d := 0.0
		switch v := config["duration_seconds"].(type) {
		case float64:
			d = v
		case int:
			d = float64(v)
		case int64:
			d = float64(v)
		}
		return &SleepChain{
			base:     newBase(),
			duration: time.Duration(d * float64(time.Second)),
			tick:     100 * time.Millisecond,
		}, nil
	}
}

func (c *SleepChain) Run() {
	c.setStart(time.Now())
	c.setStatus(StatusRunning)

	deadline := time.Now().Add(c.duration)
	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()

	for {
		if !time.Now().Before(deadline) {
			c.setStatus(StatusComplete)
			c.setEnd(time.Now())
			return
		}
		select {
		case <-c.terminated():
			c.setEnd(time.Now())
			return
		case <-ticker.C:
		}
	}
}

func (c *SleepChain) DetailedProgress() map[string]any {
	remaining := c.duration - time.Since(c.Start())
	if remaining < 0 {
		remaining = 0
	}
	return map[string]any{"remaining_seconds": remaining.Seconds()}
}

func (c *SleepChain) RedisStruct() map[string]any {
	return c.redisStruct(c.DetailedProgress())
}

var _ TaskChain = (*SleepChain)(nil)
