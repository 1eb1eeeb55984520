package plexus

import (
	"strings"
	"testing"
)

func hasNote(notes []string, substr string) bool {
	for _, n := range notes {
		if strings.Contains(n, substr) {
			return true
		}
	}
	return false
}

// --- Flat shape ---

func TestParseFlatShape(t *testing.T) {
	data := []byte(`{
		"nodes": [
			{"id": "f1", "type": "feature", "layer": 3},
			{"id": "t1", "type": "token"},
			{"id": "l1", "type": "logit", "layer": 12},
			{"id": "x1"}
		],
		"edges": [
			{"source": "f1", "target": "l1", "weight": 0.8},
			{"source": "t1", "target": "f1", "weight": -0.4}
		]
	}`)

	g, notes, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) != 0 {
		t.Errorf("unexpected notes: %v", notes)
	}
	if len(g.Nodes) != 4 || len(g.Edges) != 2 {
		t.Fatalf("got %d nodes, %d edges", len(g.Nodes), len(g.Edges))
	}

	f1 := g.NodeByID("f1")
	if f1.Kind != KindFeature || !f1.HasLayer || f1.Layer != 3 {
		t.Errorf("f1 = %+v", f1)
	}
	if g.NodeByID("t1").Kind != KindToken {
		t.Error("t1 should be a token")
	}
	if g.NodeByID("t1").HasLayer {
		t.Error("t1 carries no layer")
	}
	if g.NodeByID("l1").Kind != KindLogit {
		t.Error("l1 should be a logit")
	}
	// Unknown/missing type defaults to feature.
	if g.NodeByID("x1").Kind != KindFeature {
		t.Error("x1 should default to feature")
	}
	if g.Edges[1].Weight != -0.4 {
		t.Errorf("signed weight lost: %v", g.Edges[1].Weight)
	}
}

func TestParseOrderPreserved(t *testing.T) {
	data := []byte(`{
		"nodes": [{"id": "z"}, {"id": "a"}, {"id": "m"}],
		"edges": [
			{"source": "m", "target": "a", "weight": 1},
			{"source": "z", "target": "m", "weight": 2}
		]
	}`)
	g, _, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range []string{"z", "a", "m"} {
		if g.Nodes[i].ID != want {
			t.Errorf("Nodes[%d] = %s, want %s", i, g.Nodes[i].ID, want)
		}
	}
	if g.Edges[0].Source != "m" || g.Edges[1].Source != "z" {
		t.Error("edge order not preserved")
	}
}

// --- Supernode snapshot shape ---

func TestParseSupernodeSnapshot(t *testing.T) {
	data := []byte(`{
		"nodes": [
			{"id": "s1", "members": ["f1", "f2", "f3"], "layer": 5},
			{"id": "s2", "members": ["f4"], "size": 9}
		],
		"edges": [{"source": "s1", "target": "s2", "weight": 0.3}]
	}`)

	g, _, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}

	s1 := g.NodeByID("s1")
	if s1.Kind != KindSupernode {
		t.Fatalf("s1.Kind = %v, want supernode", s1.Kind)
	}
	if len(s1.Members) != 3 {
		t.Errorf("s1.Members = %v", s1.Members)
	}
	// Size defaults to the member count when absent.
	assertNear(t, "s1.Size", s1.Size, 3)
	// Explicit size wins.
	assertNear(t, "s2.Size", g.NodeByID("s2").Size, 9)
}

func TestParseDeclaredSuperType(t *testing.T) {
	data := []byte(`{"nodes": [{"id": "s", "type": "super"}], "edges": []}`)
	g, _, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if g.NodeByID("s").Kind != KindSupernode {
		t.Error("declared super type should map to supernode")
	}
}

// --- Links alias ---

func TestParseLinksAlias(t *testing.T) {
	data := []byte(`{
		"nodes": [{"id": "a"}, {"id": "b"}],
		"links": [{"source": "a", "target": "b", "weight": 1}]
	}`)

	g, notes, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Edges) != 1 {
		t.Fatalf("links not used as edges: %d edges", len(g.Edges))
	}
	if !hasNote(notes, "using 'links' as edges") {
		t.Errorf("missing alias note, got %v", notes)
	}
}

func TestParseEdgesWinOverLinks(t *testing.T) {
	data := []byte(`{
		"nodes": [{"id": "a"}, {"id": "b"}],
		"edges": [{"source": "a", "target": "b", "weight": 1}],
		"links": [{"source": "b", "target": "a", "weight": 2}]
	}`)
	g, notes, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Edges) != 1 || g.Edges[0].Source != "a" {
		t.Errorf("edges should take precedence, got %v", g.Edges)
	}
	if hasNote(notes, "links") {
		t.Errorf("no alias note expected, got %v", notes)
	}
}

// --- Degraded inputs ---

func TestParseDanglingEdgeDropped(t *testing.T) {
	data := []byte(`{
		"nodes": [{"id": "A"}, {"id": "B"}],
		"edges": [
			{"source": "A", "target": "B", "weight": 1},
			{"source": "A", "target": "Z", "weight": 1},
			{"source": "Z", "target": "B", "weight": 1}
		]
	}`)

	g, notes, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Edges) != 1 || g.Edges[0].Target != "B" {
		t.Fatalf("kept edges = %v", g.Edges)
	}
	if !hasNote(notes, `edge A→Z dropped: unknown target "Z"`) {
		t.Errorf("missing target note, got %v", notes)
	}
	if !hasNote(notes, `edge Z→B dropped: unknown source "Z"`) {
		t.Errorf("missing source note, got %v", notes)
	}
}

func TestParseDuplicateAndEmptyIDs(t *testing.T) {
	data := []byte(`{
		"nodes": [{"id": "a"}, {"id": ""}, {"id": "a"}, {"id": "b"}],
		"edges": []
	}`)

	g, notes, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Nodes) != 2 {
		t.Fatalf("got %d nodes, want 2", len(g.Nodes))
	}
	if !hasNote(notes, "node with empty id dropped") {
		t.Errorf("missing empty-id note, got %v", notes)
	}
	if !hasNote(notes, `duplicate node "a" dropped`) {
		t.Errorf("missing duplicate note, got %v", notes)
	}
}

func TestParseMissingSections(t *testing.T) {
	g, notes, err := Parse([]byte(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Nodes) != 0 || len(g.Edges) != 0 {
		t.Error("empty document should give an empty graph")
	}
	if !hasNote(notes, "no nodes found; defaulting to empty list") {
		t.Errorf("missing nodes note, got %v", notes)
	}
	if !hasNote(notes, "no edges found; defaulting to empty list") {
		t.Errorf("missing edges note, got %v", notes)
	}
}

func TestParseInvalidJSON(t *testing.T) {
	if _, _, err := Parse([]byte(`{not json`)); err == nil {
		t.Fatal("expected an error for malformed JSON")
	}
}

func TestParseMetaCarried(t *testing.T) {
	data := []byte(`{
		"nodes": [{"id": "f", "type": "feature", "meta": {"label": "cat detector"}}],
		"edges": []
	}`)
	g, _, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if g.NodeByID("f").Meta["label"] != "cat detector" {
		t.Errorf("meta lost: %v", g.NodeByID("f").Meta)
	}
}
