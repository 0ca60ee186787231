package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourcePoolCanFit(t *testing.T) {
	tests := []struct {
		name   string
		pool   ResourcePool
		cpu    float64
		memory int64
		fits   bool
	}{
		{
			name:   "empty pool",
			pool:   NewResourcePool(4, 8192),
			cpu:    1,
			memory: 1024,
			fits:   true,
		},
		{
			name:   "exact boundary is inclusive",
			pool:   ResourcePool{TotalCPU: 4, UsedCPU: 2, TotalMemory: 8192, UsedMemory: 4096},
			cpu:    2,
			memory: 4096,
			fits:   true,
		},
		{
			name:   "cpu just over",
			pool:   ResourcePool{TotalCPU: 4, UsedCPU: 2, TotalMemory: 8192, UsedMemory: 4096},
			cpu:    2.01,
			memory: 1,
			fits:   false,
		},
		{
			name:   "memory just over",
			pool:   ResourcePool{TotalCPU: 4, UsedCPU: 2, TotalMemory: 8192, UsedMemory: 4096},
			cpu:    0.5,
			memory: 4097,
			fits:   false,
		},
		{
			name:   "zero capacity",
			pool:   ResourcePool{},
			cpu:    0.1,
			memory: 1,
			fits:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.fits, tt.pool.CanFit(tt.cpu, tt.memory))
		})
	}
}

func TestResourcePoolReserveRelease(t *testing.T) {
	pool := NewResourcePool(4, 8192)

	pool.Reserve(1.5, 1024)
	pool.Reserve(0.5, 512)
	assert.InDelta(t, 2.0, pool.UsedCPU, 1e-9)
	assert.Equal(t, int64(1536), pool.UsedMemory)
	assert.InDelta(t, 2.0, pool.AvailableCPU(), 1e-9)
	assert.Equal(t, int64(6656), pool.AvailableMemory())

	pool.Release(1.5, 1024)
	pool.Release(0.5, 512)
	assert.Zero(t, pool.UsedCPU)
	assert.Zero(t, pool.UsedMemory)
}

func TestResourcePoolReleaseAbsorbsFloatDrift(t *testing.T) {
	pool := NewResourcePool(4, 8192)
	pool.Reserve(0.1, 1)
	pool.Reserve(0.2, 1)

	pool.Release(0.2, 1)
	pool.Release(0.1, 1)

	assert.GreaterOrEqual(t, pool.UsedCPU, 0.0)
	assert.Zero(t, pool.UsedMemory)
}

func TestResourcePoolReleaseUnderflowPanics(t *testing.T) {
	pool := NewResourcePool(4, 8192)
	pool.Reserve(1, 1024)

	assert.Panics(t, func() { pool.Release(2, 1024) })
	assert.Panics(t, func() { pool.Release(1, 2048) })
}

func TestResourcePoolFractions(t *testing.T) {
	pool := ResourcePool{TotalCPU: 4, UsedCPU: 1, TotalMemory: 8192, UsedMemory: 4096}
	assert.InDelta(t, 0.25, pool.CPUFraction(), 1e-9)
	assert.InDelta(t, 0.5, pool.MemoryFraction(), 1e-9)
	assert.InDelta(t, 37.5, pool.Utilization(), 1e-9)

	var empty ResourcePool
	assert.Zero(t, empty.CPUFraction())
	assert.Zero(t, empty.MemoryFraction())
	assert.Zero(t, empty.Utilization())
}

func TestNodePodList(t *testing.T) {
	node := &Node{ID: "node-1"}
	node.AddPod("a")
	node.AddPod("b")
	node.AddPod("c")

	assert.True(t, node.HasPod("b"))
	require.True(t, node.RemovePod("b"))
	assert.Equal(t, []string{"a", "c"}, node.PodIDs)
	assert.False(t, node.RemovePod("b"))
	assert.False(t, node.HasPod("b"))
}

func TestNewNodeInfoCopiesPodIDs(t *testing.T) {
	node := &Node{
		ID:        "node-1",
		Name:      "Worker-1",
		Resources: ResourcePool{TotalCPU: 4, UsedCPU: 2, TotalMemory: 8192, UsedMemory: 2048},
		PodIDs:    []string{"a"},
	}

	info := NewNodeInfo(node)
	info.PodIDs[0] = "mutated"

	assert.Equal(t, "a", node.PodIDs[0])
	assert.InDelta(t, 50.0, info.CPUPercent, 1e-9)
	assert.InDelta(t, 25.0, info.MemoryPercent, 1e-9)
	assert.Equal(t, int64(6144), info.AvailableMemory)
}

func TestPolicy(t *testing.T) {
	for _, p := range Policies {
		assert.True(t, p.Valid(), p)
	}
	assert.False(t, Policy("round-robin").Valid())
	assert.Equal(t, "Spread (Balanced)", PolicySpread.DisplayName())
	assert.Equal(t, "Bin Packing (Efficient)", PolicyBinPack.DisplayName())
	assert.Equal(t, "Random", PolicyRandom.DisplayName())
	assert.Equal(t, "custom", Policy("custom").DisplayName())
}

func TestFormatMemory(t *testing.T) {
	assert.Equal(t, "512 MB", FormatMemory(512))
	assert.Equal(t, "1.0 GB", FormatMemory(1024))
	assert.Equal(t, "8.0 GB", FormatMemory(8192))
	assert.Equal(t, "1.5 GB", FormatMemory(1536))
}
