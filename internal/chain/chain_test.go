package chain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopChainRunsToCompletion(t *testing.T) {
	c, err := NewNoopChain(nil)
	require.NoError(t, err)

	c.Run()

	assert.Equal(t, StatusComplete, c.Status())
	assert.False(t, c.Start().IsZero())
	assert.False(t, c.End().IsZero())
}

func TestSleepChainCompletesAfterDuration(t *testing.T) {
	factory := NewSleepChainFactory()
	c, err := factory(map[string]any{"duration_seconds": 0.2})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		c.Run()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sleep chain did not complete in time")
	}

	assert.Equal(t, StatusComplete, c.Status())
}

func TestSleepChainTerminatesEarly(t *testing.T) {
	factory := NewSleepChainFactory()
	c, err := factory(map[string]any{"duration_seconds": 10.0})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		c.Run()
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	c.Terminate()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sleep chain did not terminate promptly")
	}

	assert.Equal(t, StatusTerminating, c.Status())
}

func TestRedisStructCarriesProgress(t *testing.T) {
	c, err := NewNoopChain(nil)
	require.NoError(t, err)
	c.SetID("task-1")
	c.SetParent("parent-1")
	c.SetResultsSilo("harvest-task-results")

	c.Run()

	rec := c.RedisStruct()
	assert.Equal(t, "task-1", rec["id"])
	assert.Equal(t, "parent-1", rec["parent"])
	assert.Equal(t, "harvest-task-results", rec["results_silo"])
	assert.Equal(t, "complete", rec["status"])
	assert.Equal(t, "noop", rec["message"])
}
