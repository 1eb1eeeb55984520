package plexus

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func assertNear(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > epsilon {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func mkNode(id string, kind NodeKind) *Node {
	return &Node{ID: id, Kind: kind, Size: 1}
}

func mkLayerNode(id string, kind NodeKind, layer int) *Node {
	n := mkNode(id, kind)
	n.Layer = layer
	n.HasLayer = true
	return n
}

func mkEdge(src, tgt string, w float64) *Edge {
	return &Edge{Source: src, Target: tgt, Weight: w}
}

// chainGraph builds A→B→C→D plus an unconnected E.
func chainGraph() *Graph {
	return NewGraph(
		[]*Node{
			mkNode("A", KindFeature),
			mkNode("B", KindFeature),
			mkNode("C", KindFeature),
			mkNode("D", KindFeature),
			mkNode("E", KindFeature),
		},
		[]*Edge{
			mkEdge("A", "B", 0.9),
			mkEdge("B", "C", 0.5),
			mkEdge("C", "D", 0.2),
		},
	)
}

// --- Index building ---

func TestGraphLookup(t *testing.T) {
	g := chainGraph()

	if g.IndexOf("A") != 0 || g.IndexOf("E") != 4 {
		t.Errorf("IndexOf = %d, %d, want 0, 4", g.IndexOf("A"), g.IndexOf("E"))
	}
	if g.IndexOf("missing") != -1 {
		t.Errorf("IndexOf(missing) = %d, want -1", g.IndexOf("missing"))
	}
	if n := g.NodeByID("C"); n == nil || n.ID != "C" {
		t.Errorf("NodeByID(C) = %v", n)
	}
	if g.NodeByID("missing") != nil {
		t.Error("NodeByID(missing) should be nil")
	}
}

func TestGraphIncidence(t *testing.T) {
	g := chainGraph()

	out := g.Outgoing(g.IndexOf("B"))
	if len(out) != 1 || out[0].Target != "C" {
		t.Errorf("Outgoing(B) = %v", out)
	}
	in := g.Incoming(g.IndexOf("B"))
	if len(in) != 1 || in[0].Source != "A" {
		t.Errorf("Incoming(B) = %v", in)
	}
	if len(g.Outgoing(g.IndexOf("E"))) != 0 || len(g.Incoming(g.IndexOf("E"))) != 0 {
		t.Error("unconnected node should have no incident edges")
	}

	// Resolved indices must match the id map.
	for _, e := range g.Edges {
		if e.si != g.IndexOf(e.Source) || e.ti != g.IndexOf(e.Target) {
			t.Errorf("edge %s→%s has indices %d,%d", e.Source, e.Target, e.si, e.ti)
		}
	}
}

func TestNeighborsDeduplicated(t *testing.T) {
	// Two parallel edges A→B plus B→A: B is still a single neighbor of A.
	g := NewGraph(
		[]*Node{mkNode("A", KindFeature), mkNode("B", KindFeature)},
		[]*Edge{mkEdge("A", "B", 0.5), mkEdge("A", "B", 0.1), mkEdge("B", "A", 0.2)},
	)
	nbrs := g.Neighbors(0, nil)
	if len(nbrs) != 1 || nbrs[0] != 1 {
		t.Errorf("Neighbors(A) = %v, want [1]", nbrs)
	}
}

func TestLayersSortedDistinct(t *testing.T) {
	g := NewGraph([]*Node{
		mkLayerNode("a", KindFeature, 7),
		mkLayerNode("b", KindFeature, 2),
		mkLayerNode("c", KindFeature, 7),
		mkNode("d", KindToken), // no layer
	}, nil)

	if len(g.Layers) != 2 || g.Layers[0] != 2 || g.Layers[1] != 7 {
		t.Errorf("Layers = %v, want [2 7]", g.Layers)
	}
}

// --- Bounds ---

func TestBoundsEmptyGraph(t *testing.T) {
	g := NewGraph(nil, nil)
	b := g.Bounds()
	want := Rect{X: -0.5, Y: -0.5, Width: 1, Height: 1}
	if b != want {
		t.Errorf("Bounds() = %+v, want %+v", b, want)
	}
}

func TestBoundsIncludesRadius(t *testing.T) {
	a := mkNode("a", KindFeature)
	a.Pos = Vec2{X: -10, Y: 0}
	b := mkNode("b", KindFeature)
	b.Pos = Vec2{X: 10, Y: 5}
	g := NewGraph([]*Node{a, b}, nil)

	r := g.Bounds()
	assertNear(t, "Bounds.X", r.X, -10-baseNodeRadius)
	assertNear(t, "Bounds.Y", r.Y, 0-baseNodeRadius)
	assertNear(t, "Bounds.Width", r.Width, 20+2*baseNodeRadius)
	assertNear(t, "Bounds.Height", r.Height, 5+2*baseNodeRadius)
}

// --- Nodes ---

func TestNodeRadiusScalesWithSize(t *testing.T) {
	n := mkNode("a", KindFeature)
	assertNear(t, "radius size 1", n.Radius(), baseNodeRadius)

	n.Size = 4
	assertNear(t, "radius size 4", n.Radius(), 2*baseNodeRadius)

	n.Size = 0 // defensive: parse never produces this
	assertNear(t, "radius size 0", n.Radius(), baseNodeRadius)
}

func TestPinUnpin(t *testing.T) {
	n := mkNode("a", KindFeature)
	n.Vel = Vec2{X: 3, Y: 4}
	n.Pin(12, 34)

	if !n.Pinned {
		t.Fatal("node should be pinned")
	}
	if n.Pos.X != 12 || n.Pos.Y != 34 || n.FX != 12 || n.FY != 34 {
		t.Errorf("Pin moved node to %+v (FX=%v FY=%v)", n.Pos, n.FX, n.FY)
	}

	n.Unpin()
	if n.Pinned {
		t.Error("node should be unpinned")
	}
	if n.Vel != (Vec2{}) {
		t.Errorf("Unpin should zero velocity, got %+v", n.Vel)
	}
}

func TestNodeKindNames(t *testing.T) {
	cases := []struct {
		kind NodeKind
		want string
	}{
		{KindFeature, "feature"},
		{KindToken, "token"},
		{KindLogit, "logit"},
		{KindSupernode, "super"},
	}
	for _, c := range cases {
		if got := c.kind.String(); got != c.want {
			t.Errorf("%d.String() = %q, want %q", c.kind, got, c.want)
		}
	}
	if !KindLogit.Terminal() || KindFeature.Terminal() {
		t.Error("only logits should be terminal")
	}
}
