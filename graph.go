package plexus

import (
	"math"
	"sort"
)

// Node is a single element of an attribution graph: a feature, a token
// position, an output logit, or a supernode merged from several features.
//
// ID and Kind are fixed at parse time. The simulation mutates Pos and Vel in
// place; everything else is read-only after load.
type Node struct {
	ID   string
	Kind NodeKind

	// Layer is the ordinal layer the node belongs to. Valid only when
	// HasLayer is true (tokens and some logits carry no layer).
	Layer    int
	HasLayer bool

	// Size drives the rendered radius. Parse assigns 1 when absent;
	// supernodes carry their member count.
	Size float64

	Pos Vec2
	Vel Vec2

	// FX, FY fix the node's position while Pinned is true. Pinned nodes
	// skip integration but still exert forces on others.
	FX, FY float64
	Pinned bool

	// Members lists the original feature ids folded into a supernode.
	// Empty for every other kind.
	Members []string

	// Meta carries opaque per-node annotations from the source file
	// (human-readable labels, activation stats, ...).
	Meta map[string]string
}

// Radius returns the node's rendered radius in world units.
func (n *Node) Radius() float64 {
	if n.Size <= 1 {
		return baseNodeRadius
	}
	return baseNodeRadius * math.Sqrt(n.Size)
}

// baseNodeRadius is the world-space radius of a size-1 node.
const baseNodeRadius = 5.0

// Edge is a weighted influence relation between two nodes. Weight is signed:
// positive edges promote, negative edges suppress.
type Edge struct {
	Source string
	Target string
	Weight float64

	// si and ti are the indices of Source and Target in Graph.Nodes,
	// resolved once by buildIndices so the hot loops never hash ids.
	si, ti int
}

// Graph is the canonical node/edge set produced by Parse. Node and edge
// order is preserved from the input; hit-testing and top-K tie-breaks
// depend on it.
type Graph struct {
	Nodes []*Node
	Edges []*Edge

	// Layers holds the sorted distinct layer ordinals present in the graph.
	Layers []int

	byID     map[string]int
	outgoing [][]int // node index -> indices into Edges
	incoming [][]int
}

// NewGraph builds a graph from already-validated nodes and edges.
// Every edge endpoint must resolve to a node; Parse guarantees this.
func NewGraph(nodes []*Node, edges []*Edge) *Graph {
	g := &Graph{Nodes: nodes, Edges: edges}
	g.buildIndices()
	return g
}

// buildIndices computes the id index, per-node incidence lists, and the
// distinct layer set.
func (g *Graph) buildIndices() {
	g.byID = make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		g.byID[n.ID] = i
	}

	g.outgoing = make([][]int, len(g.Nodes))
	g.incoming = make([][]int, len(g.Nodes))
	for ei, e := range g.Edges {
		e.si = g.byID[e.Source]
		e.ti = g.byID[e.Target]
		g.outgoing[e.si] = append(g.outgoing[e.si], ei)
		g.incoming[e.ti] = append(g.incoming[e.ti], ei)
	}

	seen := make(map[int]bool)
	g.Layers = g.Layers[:0]
	for _, n := range g.Nodes {
		if n.HasLayer && !seen[n.Layer] {
			seen[n.Layer] = true
			g.Layers = append(g.Layers, n.Layer)
		}
	}
	sort.Ints(g.Layers)
}

// NodeByID returns the node with the given id, or nil.
func (g *Graph) NodeByID(id string) *Node {
	if i, ok := g.byID[id]; ok {
		return g.Nodes[i]
	}
	return nil
}

// IndexOf returns the canonical index of the node id, or -1.
func (g *Graph) IndexOf(id string) int {
	if i, ok := g.byID[id]; ok {
		return i
	}
	return -1
}

// Outgoing returns the edges leaving the node at index i.
// The returned slice aliases internal storage; do not modify.
func (g *Graph) Outgoing(i int) []*Edge {
	out := make([]*Edge, 0, len(g.outgoing[i]))
	for _, ei := range g.outgoing[i] {
		out = append(out, g.Edges[ei])
	}
	return out
}

// Incoming returns the edges entering the node at index i.
func (g *Graph) Incoming(i int) []*Edge {
	in := make([]*Edge, 0, len(g.incoming[i]))
	for _, ei := range g.incoming[i] {
		in = append(in, g.Edges[ei])
	}
	return in
}

// Neighbors appends the node indices adjacent to i (undirected) to buf and
// returns it. A neighbor reachable through several edges appears once.
func (g *Graph) Neighbors(i int, buf []int) []int {
	seen := make(map[int]bool)
	for _, ei := range g.outgoing[i] {
		j := g.Edges[ei].ti
		if j != i && !seen[j] {
			seen[j] = true
			buf = append(buf, j)
		}
	}
	for _, ei := range g.incoming[i] {
		j := g.Edges[ei].si
		if j != i && !seen[j] {
			seen[j] = true
			buf = append(buf, j)
		}
	}
	return buf
}

// Bounds returns the bounding rectangle of all node positions, grown by the
// largest node radius. Returns a unit rect centered on the origin for an
// empty graph so the viewport never degenerates.
func (g *Graph) Bounds() Rect {
	if len(g.Nodes) == 0 {
		return Rect{X: -0.5, Y: -0.5, Width: 1, Height: 1}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	maxR := 0.0
	for _, n := range g.Nodes {
		minX = math.Min(minX, n.Pos.X)
		minY = math.Min(minY, n.Pos.Y)
		maxX = math.Max(maxX, n.Pos.X)
		maxY = math.Max(maxY, n.Pos.Y)
		maxR = math.Max(maxR, n.Radius())
	}
	r := Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
	r.X -= maxR
	r.Y -= maxR
	r.Width += 2 * maxR
	r.Height += 2 * maxR
	if r.Width <= 0 {
		r.Width = 1
	}
	if r.Height <= 0 {
		r.Height = 1
	}
	return r
}

// Pin fixes the node at its current position (or the given coordinates).
func (n *Node) Pin(x, y float64) {
	n.FX = x
	n.FY = y
	n.Pos = Vec2{X: x, Y: y}
	n.Pinned = true
}

// Unpin releases a fixed node back to the simulation.
func (n *Node) Unpin() {
	n.Pinned = false
	n.Vel = Vec2{}
}
