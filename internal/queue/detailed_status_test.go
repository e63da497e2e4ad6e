package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cloud-Harvest/CloudHarvestAgent/internal/chain"
)

func TestDetailedStatusHistogram(t *testing.T) {
	q, _, _ := newTestQueue(t, Config{MaxChains: 2})
	q.startTime = time.Now().Add(-5 * time.Second)

	c, err := chain.NewNoopChain(nil)
	require.NoError(t, err)
	q.registerChain("c1", &runningChain{chain: c, done: make(chan struct{})})

	status := q.DetailedStatus()
	assert.Equal(t, 2, status["max_chains"])
	hist, ok := status["chain_status"].(map[string]int)
	require.True(t, ok)
	assert.Equal(t, 1, hist["initialized"])

	// Zero-valued codes are still present, so the key set is stable
	// across snapshots.
	for _, code := range []string{"running", "complete", "error", "terminating"} {
		count, present := hist[code]
		assert.True(t, present, code)
		assert.Equal(t, 0, count, code)
	}
	assert.GreaterOrEqual(t, status["duration"].(float64), 5.0)
}
