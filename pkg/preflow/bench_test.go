package preflow

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"

	"maxflow/pkg/network"
)

// gridNetwork builds an n x n grid with right and down arcs; source is the
// top-left corner and target the bottom-right one.
func gridNetwork(n int, rnd *rand.Rand) (*network.Digraph, network.ArcMap[int64]) {
	var specs []arcSpec
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			id := i*n + j
			if j < n-1 {
				specs = append(specs, arcSpec{id, id + 1, 1 + rnd.Int64N(100)})
			}
			if i < n-1 {
				specs = append(specs, arcSpec{id, id + n, 1 + rnd.Int64N(100)})
			}
		}
	}
	return buildInt(n*n, specs)
}

func benchmarkRun(b *testing.B, g *network.Digraph, caps network.ArcMap[int64], minCut bool) {
	ctx := context.Background()
	target := g.NodeCount() - 1

	b.ReportAllocs()
	for b.Loop() {
		p, err := New[int64](g, caps, 0, target)
		if err != nil {
			b.Fatal(err)
		}
		if minCut {
			err = p.RunMinCut(ctx)
		} else {
			err = p.Run(ctx)
		}
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRun_Grid(b *testing.B) {
	for _, n := range []int{10, 30, 100} {
		g, caps := gridNetwork(n, rand.New(rand.NewPCG(1, uint64(n))))
		b.Run(fmt.Sprintf("%dx%d", n, n), func(b *testing.B) {
			benchmarkRun(b, g, caps, false)
		})
	}
}

func BenchmarkRunMinCut_Grid(b *testing.B) {
	for _, n := range []int{30, 100} {
		g, caps := gridNetwork(n, rand.New(rand.NewPCG(1, uint64(n))))
		b.Run(fmt.Sprintf("%dx%d", n, n), func(b *testing.B) {
			benchmarkRun(b, g, caps, true)
		})
	}
}

func BenchmarkRun_Random(b *testing.B) {
	for _, size := range []struct{ nodes, arcs int }{{1000, 5000}, {10000, 50000}} {
		g, caps := randomNetwork(rand.New(rand.NewPCG(7, uint64(size.nodes))), size.nodes, size.arcs, 1000)
		b.Run(fmt.Sprintf("n=%d/m=%d", size.nodes, size.arcs), func(b *testing.B) {
			benchmarkRun(b, g, caps, false)
		})
	}
}
