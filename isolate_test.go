package plexus

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"
)

func setEqual(got map[string]bool, want ...string) bool {
	if len(got) != len(want) {
		return false
	}
	for _, id := range want {
		if !got[id] {
			return false
		}
	}
	return true
}

func TestNeighborhoodHops(t *testing.T) {
	g := chainGraph() // A→B→C→D, unconnected E

	cases := []struct {
		hops int
		want []string
	}{
		{0, []string{"A"}},
		{1, []string{"A", "B"}},
		{2, []string{"A", "B", "C"}},
		{3, []string{"A", "B", "C", "D"}},
		{10, []string{"A", "B", "C", "D"}}, // E is unreachable
	}
	for _, c := range cases {
		got := Neighborhood(g, "A", c.hops)
		if !setEqual(got, c.want...) {
			t.Errorf("Neighborhood(A, %d) = %v, want %v", c.hops, got, c.want)
		}
	}
}

func TestNeighborhoodIgnoresEdgeDirection(t *testing.T) {
	g := chainGraph()
	// C has an incoming edge from B and an outgoing edge to D: one hop
	// reaches both.
	if got := Neighborhood(g, "C", 1); !setEqual(got, "B", "C", "D") {
		t.Errorf("Neighborhood(C, 1) = %v, want {B C D}", got)
	}
}

func TestNeighborhoodUnknownAndNegative(t *testing.T) {
	g := chainGraph()
	if got := Neighborhood(g, "missing", 2); len(got) != 0 {
		t.Errorf("unknown id gave %v", got)
	}
	if got := Neighborhood(g, "A", -1); len(got) != 0 {
		t.Errorf("negative hops gave %v", got)
	}
}

func TestNeighborhoodSelfLoop(t *testing.T) {
	g := NewGraph(
		[]*Node{mkNode("A", KindFeature), mkNode("B", KindFeature)},
		[]*Edge{mkEdge("A", "A", 1)},
	)
	if got := Neighborhood(g, "A", 5); !setEqual(got, "A") {
		t.Errorf("self loop extended the neighborhood: %v", got)
	}
}

// TestNeighborhoodProperties checks monotonic growth with the hop count and
// stabilization once every reachable node is included.
func TestNeighborhoodProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 12).Draw(t, "n")
		nodes := make([]*Node, n)
		for i := range nodes {
			nodes[i] = mkNode(fmt.Sprintf("n%d", i), KindFeature)
		}
		edgeCount := rapid.IntRange(0, 24).Draw(t, "edges")
		edges := make([]*Edge, 0, edgeCount)
		for i := 0; i < edgeCount; i++ {
			s := rapid.IntRange(0, n-1).Draw(t, "s")
			d := rapid.IntRange(0, n-1).Draw(t, "d")
			edges = append(edges, mkEdge(nodes[s].ID, nodes[d].ID, 1))
		}
		g := NewGraph(nodes, edges)
		start := nodes[rapid.IntRange(0, n-1).Draw(t, "start")].ID

		prev := Neighborhood(g, start, 0)
		if !setEqual(prev, start) {
			t.Fatalf("hops 0 = %v, want singleton %q", prev, start)
		}
		for hops := 1; hops <= n; hops++ {
			cur := Neighborhood(g, start, hops)
			for id := range prev {
				if !cur[id] {
					t.Fatalf("hops %d lost %q present at hops %d", hops, id, hops-1)
				}
			}
			prev = cur
		}

		// n-1 hops reach everything reachable; further hops change nothing.
		if more := Neighborhood(g, start, n+5); len(more) != len(prev) {
			t.Fatalf("neighborhood grew past diameter: %d vs %d", len(more), len(prev))
		}
	})
}
