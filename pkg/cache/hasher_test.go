package cache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"maxflow/pkg/solverapi"
)

func diamond() *solverapi.Network {
	return &solverapi.Network{
		Nodes: []int64{1, 2, 3, 4},
		Arcs: []solverapi.Arc{
			{From: 1, To: 2, Capacity: 10},
			{From: 1, To: 3, Capacity: 5},
			{From: 2, To: 4, Capacity: 8},
			{From: 3, To: 4, Capacity: 7},
			{From: 2, To: 3, Capacity: 3},
		},
		Source: 1,
		Target: 4,
	}
}

func TestNetworkHash(t *testing.T) {
	base := NetworkHash(diamond())
	assert.Len(t, base, 32)
	assert.Equal(t, base, NetworkHash(diamond()), "hash must be deterministic")
	assert.Empty(t, NetworkHash(nil))

	t.Run("node order ignored", func(t *testing.T) {
		n := diamond()
		n.Nodes = []int64{4, 3, 2, 1}
		assert.Equal(t, base, NetworkHash(n))
	})

	t.Run("arc order matters", func(t *testing.T) {
		n := diamond()
		n.Arcs[0], n.Arcs[1] = n.Arcs[1], n.Arcs[0]
		assert.NotEqual(t, base, NetworkHash(n))
	})

	t.Run("tiny capacity change", func(t *testing.T) {
		n := diamond()
		n.Arcs[2].Capacity = 8.0000001
		assert.NotEqual(t, base, NetworkHash(n))
	})

	t.Run("terminals", func(t *testing.T) {
		n := diamond()
		n.Target = 3
		assert.NotEqual(t, base, NetworkHash(n))
	})

	t.Run("input not mutated", func(t *testing.T) {
		n := diamond()
		n.Nodes = []int64{4, 1, 3, 2}
		NetworkHash(n)
		assert.Equal(t, []int64{4, 1, 3, 2}, n.Nodes)
	})
}

func TestBuildSolveKey(t *testing.T) {
	key := BuildSolveKey("abc", solverapi.ModeMinCut, 1e-9)
	assert.Equal(t, "maxflow:solve:MIN_CUT:1e-09:abc", key)
	assert.True(t, strings.HasPrefix(key, keyPrefix))
	assert.NotEqual(t, key, BuildSolveKey("abc", solverapi.ModeMaxFlow, 1e-9))
	assert.NotEqual(t, key, BuildSolveKey("abc", solverapi.ModeMinCut, 0))
}
