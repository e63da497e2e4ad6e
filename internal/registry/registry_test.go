package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindExactMatch(t *testing.T) {
	r := New()
	RegisterDefaults(r)

	d, ok := r.Find("task", "noop")
	require.True(t, ok)
	assert.Equal(t, "NoopChain", d.Class)

	_, ok = r.Find("task", "missing")
	assert.False(t, ok)
}

func TestFindByCategoryGlob(t *testing.T) {
	r := New()
	r.Register(Descriptor{Category: "template_aws", Name: "ec2", Class: "CollectEC2Task"})
	r.Register(Descriptor{Category: "template_gcp", Name: "compute", Class: "CollectComputeTask"})
	r.Register(Descriptor{Category: "task", Name: "noop", Class: "NoopChain"})

	matched, err := r.FindByCategory("template_*")
	require.NoError(t, err)
	require.Len(t, matched, 2)
	assert.Equal(t, "template_aws", matched[0].Category)
	assert.Equal(t, "template_gcp", matched[1].Category)
}

func TestRegisterReplacesExisting(t *testing.T) {
	r := New()
	r.Register(Descriptor{Category: "task", Name: "noop", Class: "V1"})
	r.Register(Descriptor{Category: "task", Name: "noop", Class: "V2"})

	d, ok := r.Find("task", "noop")
	require.True(t, ok)
	assert.Equal(t, "V2", d.Class)
}

func TestAllSortedByCategoryThenName(t *testing.T) {
	r := New()
	RegisterDefaults(r)

	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, "chain/sleep", all[0].Category+"/"+all[0].Name)
	assert.Equal(t, "task/noop", all[1].Category+"/"+all[1].Name)
}
