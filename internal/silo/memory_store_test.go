package silo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreListFIFOWithinPriority(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.LPush(ctx, "queue::5", "t1"))
	require.NoError(t, s.LPush(ctx, "queue::5", "t2"))
	require.NoError(t, s.LPush(ctx, "queue::5", "t3"))

	n, err := s.LLen(ctx, "queue::5")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	// rpop against lpush gives FIFO: oldest push (t1) pops first.
	v, err := s.RPop(ctx, "queue::5")
	require.NoError(t, err)
	assert.Equal(t, "t1", v)

	v, err = s.RPop(ctx, "queue::5")
	require.NoError(t, err)
	assert.Equal(t, "t2", v)

	v, err = s.RPop(ctx, "queue::5")
	require.NoError(t, err)
	assert.Equal(t, "t3", v)

	_, err = s.RPop(ctx, "queue::5")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreHashRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.HSetAll(ctx, "harvest-nodes/agent-1", map[string]string{
		"name": "agent-1",
		"role": "agent",
	}))
	require.NoError(t, s.HSet(ctx, "harvest-nodes/agent-1", "ip", "10.0.0.1"))

	all, err := s.HGetAll(ctx, "harvest-nodes/agent-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"name": "agent-1", "role": "agent", "ip": "10.0.0.1"}, all)

	v, err := s.HGet(ctx, "harvest-nodes/agent-1", "role")
	require.NoError(t, err)
	assert.Equal(t, "agent", v)

	_, err = s.HGet(ctx, "harvest-nodes/agent-1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	require.NoError(t, s.SetEx(ctx, "harvest-tasks/abc", `{"status":"running"}`, 5*time.Second))

	ttl, ok := s.TTL("harvest-tasks/abc")
	require.True(t, ok)
	assert.Equal(t, 5*time.Second, ttl)

	s.now = func() time.Time { return fixed.Add(10 * time.Second) }

	_, err := s.Get(ctx, "harvest-tasks/abc")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreScan(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.HSet(ctx, "harvest-templates/aws/ec2", "class", "CollectEC2Task"))
	require.NoError(t, s.HSet(ctx, "harvest-templates/aws/rds", "class", "CollectRDSTask"))
	require.NoError(t, s.Set(ctx, "harvest-nodes/agent-1", "..."))

	keys, err := s.Scan(ctx, "harvest-templates/*", 100)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"harvest-templates/aws/ec2", "harvest-templates/aws/rds"}, keys)
}
