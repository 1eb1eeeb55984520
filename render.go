package plexus

import (
	"fmt"
	"math"
	"sort"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	text "github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"
)

// labelFace is the bitmap face used for node labels and overlay messages.
var labelFace = text.NewGoXFace(basicfont.Face7x13)

// Theme holds the colors that affect rendering correctness. Exact styling
// beyond this is host territory.
type Theme struct {
	Background   Color
	EdgePositive Color
	EdgeNegative Color
	NodeFeature  Color
	NodeToken    Color
	NodeLogit    Color
	NodeSuper    Color
	Highlight    Color
	ClickStroke  Color
	Label        Color
}

func lightTheme() Theme {
	return Theme{
		Background:   Color{0.98, 0.98, 0.97, 1},
		EdgePositive: Color{0.22, 0.48, 0.75, 1},
		EdgeNegative: Color{0.82, 0.30, 0.25, 1},
		NodeFeature:  Color{0.35, 0.56, 0.80, 1},
		NodeToken:    Color{0.45, 0.45, 0.45, 1},
		NodeLogit:    Color{0.85, 0.62, 0.20, 1},
		NodeSuper:    Color{0.49, 0.35, 0.70, 1},
		Highlight:    Color{0.95, 0.75, 0.10, 1},
		ClickStroke:  Color{0.10, 0.10, 0.10, 1},
		Label:        Color{0.15, 0.15, 0.15, 1},
	}
}

func darkTheme() Theme {
	t := lightTheme()
	t.Background = Color{0.09, 0.10, 0.12, 1}
	t.NodeToken = Color{0.72, 0.72, 0.72, 1}
	t.ClickStroke = Color{0.95, 0.95, 0.95, 1}
	t.Label = Color{0.88, 0.88, 0.88, 1}
	return t
}

// bulkEdgeOpacity is the global opacity of the bulk edge pass; highlight
// layers draw at full opacity on top.
const bulkEdgeOpacity = 0.35

// vectorNode is the retained per-node style element. Styles mutate on
// selection changes without repainting the bulk surface; positions are
// read live from the graph at draw time.
type vectorNode struct {
	idx         int
	fill        Color
	stroke      Color
	strokeWidth float32
}

// Renderer draws the graph with a hybrid strategy:
//
//   - bulk edges on an offscreen raster surface redrawn only when marked
//     stale (data, viewport, or debounced movement), not every frame;
//   - hover and click highlight subsets on their own smaller surfaces so
//     frequent highlight changes never touch the bulk surface;
//   - nodes as retained vector elements while the node count stays at or
//     below Options.VectorNodeThreshold, folded into the bulk raster pass
//     above it;
//   - an optional GPU point-sprite path (gpu.go) that silently falls back
//     to the vector/raster path when shader compilation fails.
type Renderer struct {
	e     *Engine
	theme Theme

	bulk  *ebiten.Image
	hover *ebiten.Image
	click *ebiten.Image

	bulkStale      bool
	highlightStale bool

	vecNodes []vectorNode
	vecStale bool

	gpu *gpuNodes

	// Debug enables the frame-rate and count overlay.
	Debug bool
}

func newRenderer(e *Engine) *Renderer {
	return &Renderer{
		e:              e,
		theme:          lightTheme(),
		bulkStale:      true,
		highlightStale: true,
		vecStale:       true,
	}
}

// SetTheme overrides the derived theme. SetOptions resets it from DarkMode.
func (r *Renderer) SetTheme(t Theme) { r.theme = t }

func (r *Renderer) markBulkStale()      { r.bulkStale = true }
func (r *Renderer) markHighlightStale() { r.highlightStale = true; r.vecStale = true }

// adoptGPU installs the shader path outcome. A failed compile invalidates
// the bulk surface so the next bulk pass picks the nodes up.
func (r *Renderer) adoptGPU(g *gpuNodes) {
	r.gpu = g
	if g.failed {
		r.bulkStale = true
	}
}

// foldNodesIntoBulk reports whether the bulk raster pass must paint the
// nodes: above the retained-vector threshold with no working shader path.
func (r *Renderer) foldNodesIntoBulk() bool {
	if len(r.e.graph.Nodes) <= r.e.opts.VectorNodeThreshold {
		return false
	}
	return !r.e.opts.EnableGPUPath || (r.gpu != nil && r.gpu.failed)
}

// Draw composites the current frame onto screen. All interaction state
// for this frame has already been applied by Engine.Step.
func (r *Renderer) Draw(screen *ebiten.Image) {
	if r.e.opts.DarkMode {
		r.theme = darkTheme()
	} else {
		r.theme = lightTheme()
	}

	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
	vw, vh := r.e.viewport.SurfaceSize()
	if int(vw) != w || int(vh) != h {
		r.e.Resize(float64(w), float64(h))
	}
	r.ensureSurfaces(w, h)

	screen.Fill(r.theme.Background.toRGBA())

	if len(r.e.graph.Nodes) == 0 {
		r.drawEmptyState(screen)
		return
	}

	// Resolve the shader path before the bulk pass: a failed compile must
	// invalidate the bulk surface so this same frame folds the nodes into
	// the raster pass instead of drawing them with neither.
	if len(r.e.graph.Nodes) > r.e.opts.VectorNodeThreshold && r.e.opts.EnableGPUPath && r.gpu == nil {
		r.adoptGPU(newGPUNodes())
	}

	if r.bulkStale {
		r.redrawBulk()
		r.bulkStale = false
	}
	if r.highlightStale {
		r.redrawHighlights()
		r.highlightStale = false
	}

	var op ebiten.DrawImageOptions
	screen.DrawImage(r.bulk, &op)
	screen.DrawImage(r.hover, &op)
	screen.DrawImage(r.click, &op)

	if len(r.e.graph.Nodes) <= r.e.opts.VectorNodeThreshold {
		r.drawVectorNodes(screen)
	} else if r.e.opts.EnableGPUPath && r.gpu != nil && !r.gpu.failed {
		r.gpu.draw(screen, r.e, r.theme)
	}

	if r.e.opts.ShowLabels {
		r.drawLabels(screen)
	}
	if r.Debug {
		r.drawDebug(screen)
	}
}

func (r *Renderer) ensureSurfaces(w, h int) {
	if r.bulk != nil && r.bulk.Bounds().Dx() == w && r.bulk.Bounds().Dy() == h {
		return
	}
	r.bulk = ebiten.NewImage(w, h)
	r.hover = ebiten.NewImage(w, h)
	r.click = ebiten.NewImage(w, h)
	r.bulkStale = true
	r.highlightStale = true
}

// --- Bulk pass ---

// redrawBulk repaints the offscreen edge surface. Edges paint in ascending
// stroke width so thicker, more salient edges land last and stay visible.
func (r *Renderer) redrawBulk() {
	r.bulk.Clear()

	edges := r.e.VisibleEdges()
	sorted := make([]*Edge, len(edges))
	copy(sorted, edges)
	sort.SliceStable(sorted, func(a, b int) bool {
		return edgeWidth(sorted[a]) < edgeWidth(sorted[b])
	})

	for _, ed := range sorted {
		a := r.e.graph.Nodes[ed.si]
		b := r.e.graph.Nodes[ed.ti]
		x0, y0 := r.e.viewport.WorldToScreen(a.Pos.X, a.Pos.Y)
		x1, y1 := r.e.viewport.WorldToScreen(b.Pos.X, b.Pos.Y)
		col := r.edgeColor(ed).WithAlpha(bulkEdgeOpacity)
		vector.StrokeLine(r.bulk,
			float32(x0), float32(y0), float32(x1), float32(y1),
			edgeWidth(ed), col.toRGBA(), true)
	}

	if r.foldNodesIntoBulk() {
		scale := (r.e.viewport.ScaleX() + r.e.viewport.ScaleY()) / 2
		for _, n := range r.e.graph.Nodes {
			if !r.e.controller.visible(n) {
				continue
			}
			sx, sy := r.e.viewport.WorldToScreen(n.Pos.X, n.Pos.Y)
			vector.DrawFilledCircle(r.bulk,
				float32(sx), float32(sy), float32(n.Radius()*scale),
				r.nodeColor(n).toRGBA(), true)
		}
	}
}

// edgeWidth maps |weight| to a stroke width in pixels.
func edgeWidth(e *Edge) float32 {
	w := math.Abs(e.Weight)
	if w > 1 {
		w = 1
	}
	return float32(0.5 + 2.5*w)
}

// edgeColor picks the signed base color, fades it toward the background
// for weak edges, and substitutes light gray when the result's luminance
// crosses the configured threshold (a near-white edge on a near-white
// background would otherwise vanish).
func (r *Renderer) edgeColor(e *Edge) Color {
	base := r.theme.EdgePositive
	if e.Weight < 0 {
		base = r.theme.EdgeNegative
	}
	w := math.Abs(e.Weight)
	if w > 1 {
		w = 1
	}
	fade := 1 - w // weak edges wash toward white
	col := Color{
		R: base.R + (1-base.R)*fade*0.7,
		G: base.G + (1-base.G)*fade*0.7,
		B: base.B + (1-base.B)*fade*0.7,
		A: base.A,
	}
	if col.Luminance() > r.e.opts.EdgeOpacityThreshold {
		return ColorLightGray
	}
	return col
}

func (r *Renderer) nodeColor(n *Node) Color {
	switch n.Kind {
	case KindToken:
		return r.theme.NodeToken
	case KindLogit:
		return r.theme.NodeLogit
	case KindSupernode:
		return r.theme.NodeSuper
	default:
		return r.theme.NodeFeature
	}
}

// --- Highlight passes ---

// redrawHighlights repaints the hover and click surfaces. These are the
// only surfaces touched on the hover-change cadence.
func (r *Renderer) redrawHighlights() {
	r.hover.Clear()
	r.click.Clear()

	sel := r.e.controller.Selection()
	if sel.HoveredID != "" {
		r.strokeIncident(r.hover, sel.HoveredID)
		r.strokeTrace(r.hover, sel.Trace)
	}
	if sel.ClickedID != "" {
		r.strokeIncident(r.click, sel.ClickedID)
	}
}

// strokeIncident draws all edges touching the node at full opacity.
func (r *Renderer) strokeIncident(dst *ebiten.Image, id string) {
	idx := r.e.graph.IndexOf(id)
	if idx < 0 {
		return
	}
	for _, ed := range r.e.VisibleEdges() {
		if ed.si != idx && ed.ti != idx {
			continue
		}
		a := r.e.graph.Nodes[ed.si]
		b := r.e.graph.Nodes[ed.ti]
		x0, y0 := r.e.viewport.WorldToScreen(a.Pos.X, a.Pos.Y)
		x1, y1 := r.e.viewport.WorldToScreen(b.Pos.X, b.Pos.Y)
		vector.StrokeLine(dst,
			float32(x0), float32(y0), float32(x1), float32(y1),
			edgeWidth(ed)+0.5, r.edgeColor(ed).toRGBA(), true)
	}
}

// strokeTrace draws the hover attribution path in the highlight color.
func (r *Renderer) strokeTrace(dst *ebiten.Image, trace []string) {
	for i := 0; i+1 < len(trace); i++ {
		a := r.e.graph.NodeByID(trace[i])
		b := r.e.graph.NodeByID(trace[i+1])
		if a == nil || b == nil {
			continue
		}
		x0, y0 := r.e.viewport.WorldToScreen(a.Pos.X, a.Pos.Y)
		x1, y1 := r.e.viewport.WorldToScreen(b.Pos.X, b.Pos.Y)
		vector.StrokeLine(dst,
			float32(x0), float32(y0), float32(x1), float32(y1),
			3, r.theme.Highlight.toRGBA(), true)
	}
}

// --- Node passes ---

// rebuildVectorStyles refreshes the retained style elements. Only styles
// change here; geometry is derived from live positions at draw time.
func (r *Renderer) rebuildVectorStyles() {
	sel := r.e.controller.Selection()
	r.vecNodes = r.vecNodes[:0]
	for i, n := range r.e.graph.Nodes {
		if !r.e.controller.visible(n) {
			continue
		}
		vn := vectorNode{idx: i, fill: r.nodeColor(n)}
		switch {
		case n.ID == sel.ClickedID:
			vn.stroke = r.theme.ClickStroke
			vn.strokeWidth = 2.5
		case n.ID == sel.HoveredID || sel.Lasso[n.ID]:
			vn.stroke = r.theme.Highlight
			vn.strokeWidth = 2
		case sel.Pinned[n.ID]:
			vn.stroke = r.theme.ClickStroke
			vn.strokeWidth = 1
		}
		r.vecNodes = append(r.vecNodes, vn)
	}
	r.vecStale = false
}

func (r *Renderer) drawVectorNodes(screen *ebiten.Image) {
	if r.vecStale {
		r.rebuildVectorStyles()
	}
	scale := (r.e.viewport.ScaleX() + r.e.viewport.ScaleY()) / 2
	for _, vn := range r.vecNodes {
		n := r.e.graph.Nodes[vn.idx]
		sx, sy := r.e.viewport.WorldToScreen(n.Pos.X, n.Pos.Y)
		rad := float32(n.Radius() * scale)
		vector.DrawFilledCircle(screen, float32(sx), float32(sy), rad, vn.fill.toRGBA(), true)
		if vn.strokeWidth > 0 {
			vector.StrokeCircle(screen, float32(sx), float32(sy), rad+1, vn.strokeWidth, vn.stroke.toRGBA(), true)
		}
	}
}

func (r *Renderer) drawLabels(screen *ebiten.Image) {
	col := r.theme.Label.toRGBA()
	scale := (r.e.viewport.ScaleX() + r.e.viewport.ScaleY()) / 2
	for _, n := range r.e.graph.Nodes {
		if !r.e.controller.visible(n) {
			continue
		}
		sx, sy := r.e.viewport.WorldToScreen(n.Pos.X, n.Pos.Y)
		op := &text.DrawOptions{}
		op.GeoM.Translate(sx+n.Radius()*scale+3, sy-labelFace.Metrics().HAscent/2)
		op.ColorScale.ScaleWithColor(col)
		text.Draw(screen, n.ID, labelFace, op)
	}
}

// --- Overlays ---

func (r *Renderer) drawEmptyState(screen *ebiten.Image) {
	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
	msg := "no graph loaded"
	tw, th := text.Measure(msg, labelFace, 0)
	op := &text.DrawOptions{}
	op.GeoM.Translate(float64(w)/2-tw/2, float64(h)/2-th/2)
	op.ColorScale.ScaleWithColor(r.theme.Label.toRGBA())
	text.Draw(screen, msg, labelFace, op)
}

func (r *Renderer) drawDebug(screen *ebiten.Image) {
	msg := fmt.Sprintf("fps %.0f  nodes %d  edges %d  alpha %.3f",
		ebiten.ActualFPS(), len(r.e.graph.Nodes), len(r.e.graph.Edges), r.e.sim.Alpha())
	ebitenutil.DebugPrintAt(screen, msg, 4, 4)
}
