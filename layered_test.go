package plexus

import "testing"

func layeredTestGraph() *Graph {
	return NewGraph([]*Node{
		mkLayerNode("a", KindFeature, 2),
		mkLayerNode("b", KindFeature, 7),
		mkLayerNode("c", KindFeature, 7),
		mkLayerNode("d", KindFeature, 7),
		mkNode("t", KindToken), // layerless
	}, nil)
}

func TestLayeredColumnsByLayerOrdinal(t *testing.T) {
	g := layeredTestGraph()
	ApplyLayeredLayout(g)

	assertNear(t, "layer 2 column x", g.NodeByID("a").Pos.X, 0)
	assertNear(t, "layer 7 column x", g.NodeByID("b").Pos.X, layerSpacing)
	assertNear(t, "layerless column x", g.NodeByID("t").Pos.X, 2*layerSpacing)
}

func TestLayeredRowsCentered(t *testing.T) {
	g := layeredTestGraph()
	ApplyLayeredLayout(g)

	// Three nodes in the layer-7 column, canonical order b, c, d.
	assertNear(t, "b.y", g.NodeByID("b").Pos.Y, -rowSpacing)
	assertNear(t, "c.y", g.NodeByID("c").Pos.Y, 0)
	assertNear(t, "d.y", g.NodeByID("d").Pos.Y, rowSpacing)

	// Single-node columns sit on the axis.
	assertNear(t, "a.y", g.NodeByID("a").Pos.Y, 0)
}

func TestLayeredSkipsPinned(t *testing.T) {
	g := layeredTestGraph()
	g.NodeByID("c").Pin(99, -99)
	ApplyLayeredLayout(g)

	if g.NodeByID("c").Pos != (Vec2{X: 99, Y: -99}) {
		t.Errorf("pinned node moved to %v", g.NodeByID("c").Pos)
	}
	// The pinned node still occupies its row; d keeps its slot.
	assertNear(t, "d.y", g.NodeByID("d").Pos.Y, rowSpacing)
}

func TestLayeredDeterministic(t *testing.T) {
	g1 := layeredTestGraph()
	g2 := layeredTestGraph()
	ApplyLayeredLayout(g1)
	ApplyLayeredLayout(g2)
	for i := range g1.Nodes {
		if g1.Nodes[i].Pos != g2.Nodes[i].Pos {
			t.Fatalf("node %d differs: %v vs %v", i, g1.Nodes[i].Pos, g2.Nodes[i].Pos)
		}
	}
}

func TestLayeredEmptyAndNil(t *testing.T) {
	ApplyLayeredLayout(nil) // must not panic
	ApplyLayeredLayout(NewGraph(nil, nil))
}

func TestLayeredZeroesVelocity(t *testing.T) {
	g := layeredTestGraph()
	g.NodeByID("a").Vel = Vec2{X: 5, Y: 5}
	ApplyLayeredLayout(g)
	if g.NodeByID("a").Vel != (Vec2{}) {
		t.Errorf("velocity not cleared: %v", g.NodeByID("a").Vel)
	}
}
