package heartbeat

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cloud-Harvest/CloudHarvestAgent/internal/registry"
	"github.com/Cloud-Harvest/CloudHarvestAgent/internal/silo"
)

type fakeQueueStatus struct{}

func (fakeQueueStatus) DetailedStatus() map[string]any {
	return map[string]any{"status": "running"}
}

func TestHeartbeatPublishesNodeRecordWithTTL(t *testing.T) {
	ctx := context.Background()
	reg := registry.New()
	registry.RegisterDefaults(reg)
	reg.Register(registry.Descriptor{Category: "template_aws", Name: "ec2", Class: "CollectEC2Task"})

	nodes := silo.NewMemoryStore()
	templates := silo.NewMemoryStore()

	hb := New(Config{
		NodeName:             "node-1",
		Port:                 8500,
		CheckRate:            50 * time.Millisecond,
		ExpirationMultiplier: 3,
	}, reg, fakeQueueStatus{}, Metadata{Version: "1.0.0"}, nodes, templates, zerolog.Nop())

	hb.Start()
	defer hb.Stop()

	require.Eventually(t, func() bool {
		_, err := nodes.HGet(ctx, "node-1", "name")
		return err == nil
	}, time.Second, 10*time.Millisecond)

	fields, err := nodes.HGetAll(ctx, "node-1")
	require.NoError(t, err)
	assert.Equal(t, "node-1", fields["name"])
	assert.Equal(t, "agent", fields["role"])

	ttl, ok := nodes.TTL("node-1")
	require.True(t, ok)
	assert.True(t, ttl > 0 && ttl <= 3*time.Second)

	_, err = templates.HGetAll(ctx, "aws/ec2")
	require.NoError(t, err)
}

func TestHeartbeatStopLetsRecordExpire(t *testing.T) {
	ctx := context.Background()
	reg := registry.New()
	nodes := silo.NewMemoryStore()
	templates := silo.NewMemoryStore()

	hb := New(Config{
		NodeName:             "node-2",
		CheckRate:            20 * time.Millisecond,
		ExpirationMultiplier: 1,
	}, reg, fakeQueueStatus{}, Metadata{}, nodes, templates, zerolog.Nop())

	hb.Start()
	require.Eventually(t, func() bool {
		_, err := nodes.HGet(ctx, "node-2", "name")
		return err == nil
	}, time.Second, 10*time.Millisecond)

	hb.Stop()

	ttl, ok := nodes.TTL("node-2")
	require.True(t, ok)
	assert.True(t, ttl <= time.Second)
}

func TestShortCategoryStripsPrefix(t *testing.T) {
	assert.Equal(t, "aws", shortCategory("template_aws"))
	assert.Equal(t, "task", shortCategory("task"))
}
