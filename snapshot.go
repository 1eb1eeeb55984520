package plexus

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"git.sr.ht/~sbinet/gg"
	svg "github.com/ajstarks/svgo"
)

// SnapshotOptions controls static frame export.
type SnapshotOptions struct {
	Path   string // output path; format inferred from extension when Format empty
	Format string // "png" or "svg" (case-insensitive)
	Width  int    // pixel width, defaults to 1200
	Height int    // pixel height, defaults to 900
}

// SaveSnapshot renders the current graph, viewport, and selection to a
// static PNG or SVG file. It runs off the frame loop and reads only the
// last committed positions.
func (e *Engine) SaveSnapshot(opts SnapshotOptions) error {
	if opts.Path == "" {
		return fmt.Errorf("snapshot: output path is required")
	}
	if opts.Width <= 0 {
		opts.Width = 1200
	}
	if opts.Height <= 0 {
		opts.Height = 900
	}

	format := strings.ToLower(strings.TrimPrefix(opts.Format, "."))
	if format == "" {
		switch strings.ToLower(filepath.Ext(opts.Path)) {
		case ".png":
			format = "png"
		default:
			format = "svg"
		}
	}

	// A private viewport maps the current world rect onto the snapshot
	// surface without disturbing the live one.
	vp := NewViewport(float64(opts.Width), float64(opts.Height))
	vp.SetWorld(e.viewport.World())

	theme := lightTheme()
	if e.opts.DarkMode {
		theme = darkTheme()
	}

	switch format {
	case "png":
		return e.snapshotPNG(opts, vp, theme)
	case "svg":
		return e.snapshotSVG(opts, vp, theme)
	default:
		return fmt.Errorf("snapshot: unsupported format %q (want png or svg)", format)
	}
}

// sortedVisibleEdges applies the same ascending width order the live bulk
// pass uses, so snapshots match the screen.
func (e *Engine) sortedVisibleEdges() []*Edge {
	edges := e.VisibleEdges()
	sorted := make([]*Edge, len(edges))
	copy(sorted, edges)
	sort.SliceStable(sorted, func(a, b int) bool {
		return edgeWidth(sorted[a]) < edgeWidth(sorted[b])
	})
	return sorted
}

func snapshotEdgeColor(e *Engine, theme Theme, ed *Edge) Color {
	base := theme.EdgePositive
	if ed.Weight < 0 {
		base = theme.EdgeNegative
	}
	w := math.Abs(ed.Weight)
	if w > 1 {
		w = 1
	}
	fade := 1 - w
	col := Color{
		R: base.R + (1-base.R)*fade*0.7,
		G: base.G + (1-base.G)*fade*0.7,
		B: base.B + (1-base.B)*fade*0.7,
		A: base.A,
	}
	if col.Luminance() > e.opts.EdgeOpacityThreshold {
		return ColorLightGray
	}
	return col
}

func (e *Engine) snapshotPNG(opts SnapshotOptions, vp *Viewport, theme Theme) error {
	dc := gg.NewContext(opts.Width, opts.Height)
	dc.SetRGB(theme.Background.R, theme.Background.G, theme.Background.B)
	dc.Clear()

	scale := (vp.ScaleX() + vp.ScaleY()) / 2

	for _, ed := range e.sortedVisibleEdges() {
		a := e.graph.Nodes[ed.si]
		b := e.graph.Nodes[ed.ti]
		x0, y0 := vp.WorldToScreen(a.Pos.X, a.Pos.Y)
		x1, y1 := vp.WorldToScreen(b.Pos.X, b.Pos.Y)
		col := snapshotEdgeColor(e, theme, ed)
		dc.SetRGBA(col.R, col.G, col.B, bulkEdgeOpacity)
		dc.SetLineWidth(float64(edgeWidth(ed)))
		dc.DrawLine(x0, y0, x1, y1)
		dc.Stroke()
	}

	for _, n := range e.graph.Nodes {
		if !e.controller.visible(n) {
			continue
		}
		sx, sy := vp.WorldToScreen(n.Pos.X, n.Pos.Y)
		col := nodeThemeColor(n, theme)
		dc.SetRGB(col.R, col.G, col.B)
		dc.DrawCircle(sx, sy, n.Radius()*scale)
		dc.Fill()
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	return dc.SavePNG(opts.Path)
}

func (e *Engine) snapshotSVG(opts SnapshotOptions, vp *Viewport, theme Theme) error {
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	f, err := os.Create(opts.Path)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	defer f.Close()

	canvas := svg.New(f)
	canvas.Start(opts.Width, opts.Height)
	canvas.Rect(0, 0, opts.Width, opts.Height, "fill:"+hexColor(theme.Background))

	scale := (vp.ScaleX() + vp.ScaleY()) / 2

	for _, ed := range e.sortedVisibleEdges() {
		a := e.graph.Nodes[ed.si]
		b := e.graph.Nodes[ed.ti]
		x0, y0 := vp.WorldToScreen(a.Pos.X, a.Pos.Y)
		x1, y1 := vp.WorldToScreen(b.Pos.X, b.Pos.Y)
		col := snapshotEdgeColor(e, theme, ed)
		canvas.Line(int(x0), int(y0), int(x1), int(y1),
			fmt.Sprintf("stroke:%s;stroke-width:%.1f;stroke-opacity:%.2f",
				hexColor(col), edgeWidth(ed), bulkEdgeOpacity))
	}

	for _, n := range e.graph.Nodes {
		if !e.controller.visible(n) {
			continue
		}
		sx, sy := vp.WorldToScreen(n.Pos.X, n.Pos.Y)
		canvas.Circle(int(sx), int(sy), int(math.Max(1, n.Radius()*scale)),
			"fill:"+hexColor(nodeThemeColor(n, theme)))
	}

	canvas.End()
	return nil
}

func hexColor(c Color) string {
	return fmt.Sprintf("#%02x%02x%02x",
		int(clamp01(c.R)*255), int(clamp01(c.G)*255), int(clamp01(c.B)*255))
}
