package plexus

import "math"

// ControllerState identifies what the active pointer gesture currently is.
type ControllerState uint8

const (
	StateIdle           ControllerState = iota // no button held
	StatePanning                               // plain drag on empty space
	StateBoxZooming                            // drag with the box-zoom modifier
	StateDraggingNode                          // drag that started on a node
	StateLassoSelecting                        // freehand path in lasso mode
)

// Interaction defaults.
const (
	// hitTolerancePx is the minimum pick distance in pixels; small nodes
	// are still selectable at this range.
	hitTolerancePx = 8.0
	// minBoxZoomPx is the minimum box-zoom extent per axis; smaller boxes
	// are treated as aborted gestures.
	minBoxZoomPx = 8.0
	// clickSlopPx is the movement threshold below which press+release
	// counts as a click rather than a drag.
	clickSlopPx = 4.0
)

// Selection is the transient interaction state read by the renderer.
// Pinned survives double-click resets; everything else is transient.
type Selection struct {
	HoveredID string
	ClickedID string
	// Pinned holds ids the user fixed in place explicitly.
	Pinned map[string]bool
	// Isolated holds the visible subset while neighborhood isolation is
	// active. Empty means no isolation.
	Isolated map[string]bool
	// Lasso holds ids captured by lasso selections.
	Lasso map[string]bool
	// Trace is the hover attribution path, hovered node first.
	Trace []string
}

func newSelection() *Selection {
	return &Selection{
		Pinned:   make(map[string]bool),
		Isolated: make(map[string]bool),
		Lasso:    make(map[string]bool),
	}
}

// clearTransient drops everything except user pins.
func (sel *Selection) clearTransient() {
	sel.HoveredID = ""
	sel.ClickedID = ""
	sel.Isolated = make(map[string]bool)
	sel.Lasso = make(map[string]bool)
	sel.Trace = nil
}

// Callbacks notify the host application of interaction outcomes.
// Nil fields are skipped. All callbacks fire synchronously inside the
// event that caused them, before the frame's draw pass.
type Callbacks struct {
	OnHover               func(*Node) // nil Node when the pointer leaves all nodes
	OnClick               func(*Node) // nil Node for background clicks
	OnDragEnd             func(*Node)
	OnBoxZoom             func(Rect) // the new world rectangle
	OnLassoSelect         func([]*Node)
	OnNeighborhoodIsolate func(*Node, int)
}

// Controller is the pointer state machine. It disambiguates pan, node drag,
// box-zoom, and lasso from a single pointer stream plus modifier keys, and
// owns the selection state.
//
// The controller consumes abstract events (PointerDown/Move/Up, Wheel,
// DoubleClick) in screen space; the ebiten adapter in host.go feeds it from
// real devices, and tests feed it directly or through a Script.
type Controller struct {
	graph    *Graph
	viewport *Viewport
	sel      *Selection

	callbacks Callbacks

	state     ControllerState
	lassoMode bool

	// BoxZoomModifier is the modifier that turns a drag into a box-zoom.
	BoxZoomModifier KeyModifiers

	startX, startY float64 // screen position at pointer-down
	lastX, lastY   float64
	moved          bool // exceeded the click slop since pointer-down

	dragIdx       int // node index while DraggingNode, else -1
	dragWasPinned bool

	lassoPath []Vec2 // screen-space freehand path

	// Internal hooks wired by Engine: highlight invalidation, bulk surface
	// invalidation, and simulation reheat after a drag.
	onHighlight func()
	onView      func()
	reheat      func()
}

// NewController creates an idle controller over the given graph and viewport.
func NewController(g *Graph, v *Viewport) *Controller {
	return &Controller{
		graph:           g,
		viewport:        v,
		sel:             newSelection(),
		BoxZoomModifier: ModShift,
		dragIdx:         -1,
	}
}

// SetGraph swaps the graph (after a data reload) and drops selection state
// that refers to nodes that no longer exist.
func (c *Controller) SetGraph(g *Graph) {
	c.graph = g
	c.state = StateIdle
	c.dragIdx = -1
	keep := func(set map[string]bool) {
		for id := range set {
			if g.NodeByID(id) == nil {
				delete(set, id)
			}
		}
	}
	keep(c.sel.Pinned)
	c.sel.clearTransient()
}

// SetCallbacks installs the host callback set.
func (c *Controller) SetCallbacks(cb Callbacks) { c.callbacks = cb }

// Selection returns the live selection state. The renderer reads it every
// frame; hosts must treat it as read-only.
func (c *Controller) Selection() *Selection { return c.sel }

// State returns the current gesture state.
func (c *Controller) State() ControllerState { return c.state }

// SetLassoMode toggles lasso capture for subsequent pointer-downs.
func (c *Controller) SetLassoMode(on bool) { c.lassoMode = on }

// LassoMode reports whether lasso capture is active.
func (c *Controller) LassoMode() bool { return c.lassoMode }

// --- Hit testing ---

// HitTest returns the index of the node under the screen point, or -1.
// A node qualifies when the screen distance to its center is within
// max(hitTolerancePx, its screen radius); among qualifying nodes the
// nearest wins and equal distances resolve to the first in canonical
// order (strict improvement comparison).
func (c *Controller) HitTest(sx, sy float64) int {
	if c.graph == nil {
		return -1
	}
	scale := (c.viewport.ScaleX() + c.viewport.ScaleY()) / 2
	best := -1
	bestDist := math.Inf(1)
	for i, n := range c.graph.Nodes {
		if !c.visible(n) {
			continue
		}
		nx, ny := c.viewport.WorldToScreen(n.Pos.X, n.Pos.Y)
		dx := sx - nx
		dy := sy - ny
		dist := math.Sqrt(dx*dx + dy*dy)
		limit := math.Max(hitTolerancePx, n.Radius()*scale)
		if dist <= limit && dist < bestDist {
			best = i
			bestDist = dist
		}
	}
	return best
}

// visible applies neighborhood isolation to hit-testing and rendering.
func (c *Controller) visible(n *Node) bool {
	if len(c.sel.Isolated) == 0 {
		return true
	}
	return c.sel.Isolated[n.ID]
}

// --- Pointer events ---

// PointerDown begins a gesture. The decision order is: box-zoom modifier,
// lasso mode, node hit, then pan.
func (c *Controller) PointerDown(sx, sy float64, button MouseButton, mods KeyModifiers) {
	if c.state != StateIdle {
		return
	}
	c.startX, c.startY = sx, sy
	c.lastX, c.lastY = sx, sy
	c.moved = false

	switch {
	case mods&c.BoxZoomModifier != 0:
		c.state = StateBoxZooming
	case c.lassoMode:
		c.state = StateLassoSelecting
		c.lassoPath = append(c.lassoPath[:0], Vec2{X: sx, Y: sy})
	default:
		if idx := c.HitTest(sx, sy); idx >= 0 {
			c.state = StateDraggingNode
			c.dragIdx = idx
			n := c.graph.Nodes[idx]
			c.dragWasPinned = n.Pinned
			n.Pin(n.Pos.X, n.Pos.Y)
		} else {
			c.state = StatePanning
		}
	}
}

// PointerMove advances the active gesture, or updates hover when idle.
func (c *Controller) PointerMove(sx, sy float64, mods KeyModifiers) {
	dx := sx - c.lastX
	dy := sy - c.lastY
	if math.Abs(sx-c.startX) > clickSlopPx || math.Abs(sy-c.startY) > clickSlopPx {
		c.moved = true
	}

	switch c.state {
	case StateIdle:
		c.updateHover(sx, sy)
	case StatePanning:
		c.viewport.Pan(dx, dy)
		c.fireView()
	case StateBoxZooming:
		// Corners tracked via startX/lastX; nothing else to do per move.
	case StateDraggingNode:
		wx, wy := c.viewport.ScreenToWorld(sx, sy)
		c.graph.Nodes[c.dragIdx].Pin(wx, wy)
		if c.reheat != nil {
			c.reheat()
		}
		c.fireView()
	case StateLassoSelecting:
		c.lassoPath = append(c.lassoPath, Vec2{X: sx, Y: sy})
	}

	c.lastX, c.lastY = sx, sy
}

// PointerUp completes the gesture and returns to Idle.
func (c *Controller) PointerUp(sx, sy float64, mods KeyModifiers) {
	state := c.state
	c.state = StateIdle

	switch state {
	case StatePanning:
		if !c.moved {
			c.setClicked(-1)
		}
	case StateBoxZooming:
		c.finishBoxZoom(sx, sy)
	case StateDraggingNode:
		c.finishNodeDrag(sx, sy)
	case StateLassoSelecting:
		c.finishLasso()
	}
}

// Wheel applies an anchored zoom. dy > 0 zooms out.
func (c *Controller) Wheel(sx, sy, dy float64) {
	if dy == 0 {
		return
	}
	factor := math.Pow(wheelZoomBase, dy)
	if c.viewport.Zoom(sx, sy, factor) {
		c.fireView()
	}
}

// wheelZoomBase is the per-wheel-notch zoom factor.
const wheelZoomBase = 1.1

// DoubleClick resets the viewport to the padded data bounds and clears all
// transient selection state. User pins survive.
func (c *Controller) DoubleClick(sx, sy float64) {
	c.viewport.Reset()
	c.sel.clearTransient()
	c.fireHighlight()
	c.fireView()
}

// --- Gesture completion ---

func (c *Controller) finishBoxZoom(sx, sy float64) {
	if math.Abs(sx-c.startX) < minBoxZoomPx || math.Abs(sy-c.startY) < minBoxZoomPx {
		return
	}
	if c.viewport.BoxZoom(c.startX, c.startY, sx, sy) {
		if c.callbacks.OnBoxZoom != nil {
			c.callbacks.OnBoxZoom(c.viewport.World())
		}
		c.fireView()
	}
}

func (c *Controller) finishNodeDrag(sx, sy float64) {
	idx := c.dragIdx
	c.dragIdx = -1
	if idx < 0 {
		return
	}
	n := c.graph.Nodes[idx]

	if !c.moved {
		// Press and release within the slop: a click, not a drag.
		if !c.dragWasPinned && !c.sel.Pinned[n.ID] {
			n.Unpin()
		}
		c.setClicked(idx)
		return
	}

	// The drag pin is kept only for user-pinned nodes.
	if !c.sel.Pinned[n.ID] {
		n.Unpin()
	}
	if c.reheat != nil {
		c.reheat()
	}
	if c.callbacks.OnDragEnd != nil {
		c.callbacks.OnDragEnd(n)
	}
	c.fireView()
}

func (c *Controller) finishLasso() {
	if len(c.lassoPath) < 3 {
		c.lassoPath = c.lassoPath[:0]
		return
	}
	var picked []*Node
	for _, n := range c.graph.Nodes {
		if !c.visible(n) {
			continue
		}
		sx, sy := c.viewport.WorldToScreen(n.Pos.X, n.Pos.Y)
		if pointInPolygon(sx, sy, c.lassoPath) {
			c.sel.Lasso[n.ID] = true
			picked = append(picked, n)
		}
	}
	c.lassoPath = c.lassoPath[:0]
	if len(picked) > 0 {
		c.fireHighlight()
	}
	if c.callbacks.OnLassoSelect != nil {
		c.callbacks.OnLassoSelect(picked)
	}
}

// pointInPolygon runs the standard ray-casting test against a freehand
// path treated as a closed polygon.
func pointInPolygon(x, y float64, poly []Vec2) bool {
	inside := false
	n := len(poly)
	j := n - 1
	for i := 0; i < n; i++ {
		xi, yi := poly[i].X, poly[i].Y
		xj, yj := poly[j].X, poly[j].Y
		if (yi > y) != (yj > y) &&
			x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
		j = i
	}
	return inside
}

// --- Hover and selection ---

func (c *Controller) updateHover(sx, sy float64) {
	idx := c.HitTest(sx, sy)
	var id string
	if idx >= 0 {
		id = c.graph.Nodes[idx].ID
	}
	if id == c.sel.HoveredID {
		return
	}
	c.sel.HoveredID = id
	if idx >= 0 {
		c.sel.Trace = c.traceFrom(idx)
	} else {
		c.sel.Trace = nil
	}
	c.fireHighlight()
	if c.callbacks.OnHover != nil {
		if idx >= 0 {
			c.callbacks.OnHover(c.graph.Nodes[idx])
		} else {
			c.callbacks.OnHover(nil)
		}
	}
}

func (c *Controller) setClicked(idx int) {
	var id string
	if idx >= 0 {
		id = c.graph.Nodes[idx].ID
	}
	if id != c.sel.ClickedID {
		c.sel.ClickedID = id
		c.fireHighlight()
	}
	if c.callbacks.OnClick != nil {
		if idx >= 0 {
			c.callbacks.OnClick(c.graph.Nodes[idx])
		} else {
			c.callbacks.OnClick(nil)
		}
	}
}

// traceFrom walks the attribution path from a node: repeatedly follow the
// strongest outgoing edge by |weight| (first in canonical order on ties),
// stopping on a revisit or a terminal kind. The hovered node comes first.
func (c *Controller) traceFrom(start int) []string {
	visited := make(map[int]bool)
	path := []string{c.graph.Nodes[start].ID}
	visited[start] = true

	cur := start
	for !c.graph.Nodes[cur].Kind.Terminal() {
		next := -1
		best := 0.0
		for _, e := range c.graph.Outgoing(cur) {
			if w := math.Abs(e.Weight); w > best {
				best = w
				next = e.ti
			}
		}
		if next < 0 || visited[next] {
			break
		}
		visited[next] = true
		path = append(path, c.graph.Nodes[next].ID)
		cur = next
	}
	return path
}

// TogglePin flips a node in and out of the user-pinned set. Pinning fixes
// it at its current position immediately.
func (c *Controller) TogglePin(id string) {
	n := c.graph.NodeByID(id)
	if n == nil {
		return
	}
	if c.sel.Pinned[id] {
		delete(c.sel.Pinned, id)
		n.Unpin()
	} else {
		c.sel.Pinned[id] = true
		n.Pin(n.Pos.X, n.Pos.Y)
	}
	c.fireHighlight()
}

// Isolate restricts the visible graph to the H-hop neighborhood of the
// node. Hops 0 keeps exactly the start node. No-op for unknown ids.
func (c *Controller) Isolate(id string, hops int) {
	idx := c.graph.IndexOf(id)
	if idx < 0 || hops < 0 {
		return
	}
	c.sel.Isolated = Neighborhood(c.graph, id, hops)
	c.fireHighlight()
	c.fireView()
	if c.callbacks.OnNeighborhoodIsolate != nil {
		c.callbacks.OnNeighborhoodIsolate(c.graph.Nodes[idx], hops)
	}
}

// ClearIsolation restores the full node/edge set.
func (c *Controller) ClearIsolation() {
	if len(c.sel.Isolated) == 0 {
		return
	}
	c.sel.Isolated = make(map[string]bool)
	c.fireHighlight()
	c.fireView()
}

func (c *Controller) fireHighlight() {
	if c.onHighlight != nil {
		c.onHighlight()
	}
}

func (c *Controller) fireView() {
	if c.onView != nil {
		c.onView()
	}
}
