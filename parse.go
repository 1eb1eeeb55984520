package plexus

import (
	"fmt"

	"github.com/goccy/go-json"
)

// rawNode covers both accepted node shapes: the flat feature list
// ({id, type, layer, meta}) and the supernode snapshot
// ({id, members, layer, size}).
type rawNode struct {
	ID      string            `json:"id"`
	Type    string            `json:"type"`
	Layer   *int              `json:"layer"`
	Meta    map[string]string `json:"meta"`
	Members []string          `json:"members"`
	Size    float64           `json:"size"`
}

type rawEdge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight float64 `json:"weight"`
}

type rawGraph struct {
	Step  *int      `json:"step"`
	Nodes []rawNode `json:"nodes"`
	Edges []rawEdge `json:"edges"`
	Links []rawEdge `json:"links"`
}

// Parse normalizes raw graph JSON into a canonical Graph.
//
// Two input shapes are accepted: a flat feature/edge list, and a supernode
// snapshot (nodes carrying members/size). "links" is accepted as an alias
// for "edges". A single bad edge never fails the parse: edges with a
// dangling endpoint are dropped, each recorded as one human-readable note.
// Node and edge order is preserved from the input.
func Parse(data []byte) (*Graph, []string, error) {
	var raw rawGraph
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("parse graph: %w", err)
	}

	var notes []string

	edges := raw.Edges
	if edges == nil && raw.Links != nil {
		edges = raw.Links
		notes = append(notes, "using 'links' as edges")
	}
	if raw.Nodes == nil {
		notes = append(notes, "no nodes found; defaulting to empty list")
	}
	if edges == nil {
		notes = append(notes, "no edges found; defaulting to empty list")
	}

	nodes := make([]*Node, 0, len(raw.Nodes))
	seen := make(map[string]bool, len(raw.Nodes))
	for _, rn := range raw.Nodes {
		if rn.ID == "" {
			notes = append(notes, "node with empty id dropped")
			continue
		}
		if seen[rn.ID] {
			notes = append(notes, fmt.Sprintf("duplicate node %q dropped", rn.ID))
			continue
		}
		seen[rn.ID] = true
		nodes = append(nodes, buildNode(rn))
	}

	kept := make([]*Edge, 0, len(edges))
	for _, re := range edges {
		if !seen[re.Source] {
			notes = append(notes, fmt.Sprintf(
				"edge %s→%s dropped: unknown source %q", re.Source, re.Target, re.Source))
			continue
		}
		if !seen[re.Target] {
			notes = append(notes, fmt.Sprintf(
				"edge %s→%s dropped: unknown target %q", re.Source, re.Target, re.Target))
			continue
		}
		kept = append(kept, &Edge{Source: re.Source, Target: re.Target, Weight: re.Weight})
	}

	return NewGraph(nodes, kept), notes, nil
}

// buildNode converts a raw node into the canonical tagged variant.
// The kind is decided here and never changes afterwards.
func buildNode(rn rawNode) *Node {
	n := &Node{
		ID:   rn.ID,
		Kind: kindOf(rn),
		Size: rn.Size,
		Meta: rn.Meta,
	}
	if rn.Layer != nil {
		n.Layer = *rn.Layer
		n.HasLayer = true
	}
	if n.Kind == KindSupernode {
		n.Members = rn.Members
		if n.Size == 0 {
			n.Size = float64(len(rn.Members))
		}
	}
	if n.Size <= 0 {
		n.Size = 1
	}
	return n
}

// kindOf maps the wire "type" field to a NodeKind. Nodes carrying a members
// list are supernodes regardless of the declared type (snapshot shape omits
// the type field entirely).
func kindOf(rn rawNode) NodeKind {
	if len(rn.Members) > 0 {
		return KindSupernode
	}
	switch rn.Type {
	case "token":
		return KindToken
	case "logit":
		return KindLogit
	case "super", "supernode":
		return KindSupernode
	default:
		return KindFeature
	}
}
