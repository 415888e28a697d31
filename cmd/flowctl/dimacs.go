package main

import (
	"fmt"
	"os"

	"maxflow/pkg/network"
	"maxflow/pkg/solverapi"
)

func readProblem(path string) (*network.Problem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p, err := network.ReadDIMACS(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// toNetwork переводит задачу в формат API; id узлов совпадают с DIMACS (с 1)
func toNetwork(p *network.Problem) *solverapi.Network {
	g := p.Graph
	n := &solverapi.Network{
		Nodes:  make([]int64, g.NodeCount()),
		Arcs:   make([]solverapi.Arc, g.ArcCount()),
		Source: dimacsID(p.Source),
		Target: dimacsID(p.Target),
	}
	for i := range n.Nodes {
		n.Nodes[i] = dimacsID(i)
	}
	for a := range n.Arcs {
		n.Arcs[a] = solverapi.Arc{
			From:     dimacsID(g.Tail(a)),
			To:       dimacsID(g.Head(a)),
			Capacity: p.Capacity[a],
		}
	}
	return n
}

func dimacsID(node int) int64 { return int64(node) + 1 }
