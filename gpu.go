package plexus

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// pointSpriteShaderSrc renders node quads as circular point sprites.
// Vertex SrcX/SrcY carry quad-local coordinates in [-1, 1]; the fragment
// stage masks the quad to a circle with a soft edge. Vertex color carries
// the node color.
const pointSpriteShaderSrc = `//kage:unit pixels
package main

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	d := length(src)
	if d > 1.0 {
		return vec4(0)
	}
	a := 1.0 - smoothstep(0.85, 1.0, d)
	return color * a
}
`

// maxQuadsPerBatch keeps indices within uint16 range.
const maxQuadsPerBatch = 16000

// gpuNodes is the optional GPU node path: positions, sizes, and colors are
// uploaded as vertex attributes and drawn as point sprites in one call per
// batch. Construction is lazy; a failed shader compile marks the path
// permanently unavailable and the renderer falls back to raster nodes.
type gpuNodes struct {
	shader *ebiten.Shader
	failed bool

	verts []ebiten.Vertex
	inds  []uint32
}

func newGPUNodes() *gpuNodes {
	g := &gpuNodes{}
	shader, err := ebiten.NewShader([]byte(pointSpriteShaderSrc))
	if err != nil {
		// Fallback is silent: the raster path takes over.
		g.failed = true
		return g
	}
	g.shader = shader
	return g
}

// draw renders all visible nodes as point sprites. Returns false when the
// shader is unavailable, in which case the caller's raster path applies.
func (g *gpuNodes) draw(screen *ebiten.Image, e *Engine, theme Theme) bool {
	if g.failed {
		return false
	}

	scale := (e.viewport.ScaleX() + e.viewport.ScaleY()) / 2
	g.verts = g.verts[:0]
	g.inds = g.inds[:0]
	quads := 0

	flush := func() {
		if len(g.inds) == 0 {
			return
		}
		op := &ebiten.DrawTrianglesShaderOptions{}
		screen.DrawTrianglesShader32(g.verts, g.inds, g.shader, op)
		g.verts = g.verts[:0]
		g.inds = g.inds[:0]
		quads = 0
	}

	for _, n := range e.graph.Nodes {
		if !e.controller.visible(n) {
			continue
		}
		sx, sy := e.viewport.WorldToScreen(n.Pos.X, n.Pos.Y)
		r := float32(n.Radius() * scale)
		col := nodeThemeColor(n, theme)
		cr := float32(col.R * col.A)
		cg := float32(col.G * col.A)
		cb := float32(col.B * col.A)
		ca := float32(col.A)

		base := uint32(len(g.verts))
		x, y := float32(sx), float32(sy)
		g.verts = append(g.verts,
			ebiten.Vertex{DstX: x - r, DstY: y - r, SrcX: -1, SrcY: -1, ColorR: cr, ColorG: cg, ColorB: cb, ColorA: ca},
			ebiten.Vertex{DstX: x + r, DstY: y - r, SrcX: 1, SrcY: -1, ColorR: cr, ColorG: cg, ColorB: cb, ColorA: ca},
			ebiten.Vertex{DstX: x + r, DstY: y + r, SrcX: 1, SrcY: 1, ColorR: cr, ColorG: cg, ColorB: cb, ColorA: ca},
			ebiten.Vertex{DstX: x - r, DstY: y + r, SrcX: -1, SrcY: 1, ColorR: cr, ColorG: cg, ColorB: cb, ColorA: ca},
		)
		g.inds = append(g.inds, base, base+1, base+2, base, base+2, base+3)

		quads++
		if quads >= maxQuadsPerBatch {
			flush()
		}
	}
	flush()
	return true
}

func nodeThemeColor(n *Node, theme Theme) Color {
	switch n.Kind {
	case KindToken:
		return theme.NodeToken
	case KindLogit:
		return theme.NodeLogit
	case KindSupernode:
		return theme.NodeSuper
	default:
		return theme.NodeFeature
	}
}
