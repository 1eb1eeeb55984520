package plexus

import (
	gographs "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"
)

// Neighborhood returns the ids within hops undirected steps of startID,
// start node included. Hops 0 yields exactly the singleton start node.
// Unknown ids or negative hop counts yield an empty set.
//
// The result grows monotonically with hops and stabilizes once hops
// reaches the start node's eccentricity.
func Neighborhood(g *Graph, startID string, hops int) map[string]bool {
	out := make(map[string]bool)
	start := g.IndexOf(startID)
	if start < 0 || hops < 0 {
		return out
	}
	out[startID] = true
	if hops == 0 {
		return out
	}

	// Canonical indices double as gonum node ids.
	ug := simple.NewUndirectedGraph()
	for i := range g.Nodes {
		ug.AddNode(simple.Node(int64(i)))
	}
	for _, e := range g.Edges {
		if e.si == e.ti {
			continue // self loops don't extend a neighborhood
		}
		ug.SetEdge(simple.Edge{F: simple.Node(int64(e.si)), T: simple.Node(int64(e.ti))})
	}

	// BFS visits nodes in non-decreasing depth order, so stopping at the
	// first node past the hop limit leaves exactly the wanted set visited.
	bf := traverse.BreadthFirst{}
	bf.Walk(ug, simple.Node(int64(start)), func(n gographs.Node, d int) bool {
		if d > hops {
			return true
		}
		out[g.Nodes[int(n.ID())].ID] = true
		return false
	})
	return out
}
