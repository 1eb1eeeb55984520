package plexus

// Layered layout: a deterministic alternative to the force solver that
// arranges nodes in layer columns, useful for attribution graphs where the
// layer ordering itself is the point. In-layer order follows canonical
// input order, so the result is stable across runs by construction.

const (
	layerSpacing = 140.0 // horizontal distance between layer columns
	rowSpacing   = 40.0  // vertical distance between nodes in a column
)

// ApplyLayeredLayout positions every unpinned node on a layer grid:
// column by layer ordinal (layerless nodes in a trailing column), row by
// canonical order within the column, each column vertically centered.
func ApplyLayeredLayout(g *Graph) {
	if g == nil || len(g.Nodes) == 0 {
		return
	}

	// Map each distinct layer to a column index; layerless nodes go last.
	col := make(map[int]int, len(g.Layers))
	for i, layer := range g.Layers {
		col[layer] = i
	}
	layerless := len(g.Layers)

	// Count rows per column for centering.
	rows := make([]int, layerless+1)
	for _, n := range g.Nodes {
		rows[columnOf(n, col, layerless)]++
	}

	next := make([]int, layerless+1)
	for _, n := range g.Nodes {
		c := columnOf(n, col, layerless)
		r := next[c]
		next[c]++
		if n.Pinned {
			continue
		}
		n.Pos = Vec2{
			X: float64(c) * layerSpacing,
			Y: (float64(r) - float64(rows[c]-1)/2) * rowSpacing,
		}
		n.Vel = Vec2{}
	}
}

func columnOf(n *Node, col map[int]int, layerless int) int {
	if n.HasLayer {
		return col[n.Layer]
	}
	return layerless
}
