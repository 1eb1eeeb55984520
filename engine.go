package plexus

import (
	"fmt"
	"time"
)

// Options is the recognized engine configuration, shareable via state.go.
type Options struct {
	// EdgeOpacityThreshold is the luminance above which an edge color is
	// substituted with light gray so it stays visible on light backgrounds.
	EdgeOpacityThreshold float64 `json:"edgeOpacityThreshold"`
	// Layout selects the position solver.
	Layout LayoutMode `json:"layout"`
	// ShowLabels draws node id labels next to vector nodes.
	ShowLabels bool `json:"showLabels"`
	// DarkMode flips the background/foreground theme.
	DarkMode bool `json:"darkMode"`
	// NeighborhoodHops is the hop count used by isolation shortcuts.
	NeighborhoodHops int `json:"neighborhoodHops"`
	// TopKEdges caps the rendered edge count; 0 means no cap.
	TopKEdges int `json:"topKEdges"`
	// EnableGPUPath turns on the point-sprite shader path for nodes.
	EnableGPUPath bool `json:"enableGpuPath"`

	// VectorNodeThreshold is the node count up to which nodes are kept as
	// retained vector elements; above it they fold into the raster pass.
	VectorNodeThreshold int `json:"-"`
	// DebounceWindow coalesces bulk-surface redraw requests.
	DebounceWindow time.Duration `json:"-"`
	// Sim tunes the force solver.
	Sim SimConfig `json:"-"`
}

// DefaultOptions returns the configuration the reference viewer ships with.
func DefaultOptions() Options {
	return Options{
		EdgeOpacityThreshold: 0.92,
		Layout:               LayoutForce,
		ShowLabels:           false,
		DarkMode:             false,
		NeighborhoodHops:     2,
		TopKEdges:            0,
		EnableGPUPath:        false,
		VectorNodeThreshold:  600,
		DebounceWindow:       40 * time.Millisecond,
	}
}

// Engine owns one visualization instance: the canonical graph, the force
// solver, the viewport, the interaction controller, and the renderer. No
// module-level shared state exists; instances are independent and die
// together with their graph and selection when released.
//
// The engine never schedules itself. The host calls Step once per frame
// (the ebiten adapter in host.go does this from Update); rendering happens
// when the host calls Renderer().Draw. Interaction mutations applied during
// a Step are always visible to that frame's draw pass.
type Engine struct {
	opts Options

	graph      *Graph
	notes      []string
	sim        *Simulation
	viewport   *Viewport
	controller *Controller
	renderer   *Renderer
	debounce   *Debouncer

	worker   *simWorker
	inflight bool
	gen      uint64

	pendingNodes []*Node
	pendingLinks []*Edge
}

// NewEngine creates an engine with an empty graph.
func NewEngine(opts Options) *Engine {
	if opts.VectorNodeThreshold == 0 {
		opts.VectorNodeThreshold = DefaultOptions().VectorNodeThreshold
	}
	if opts.DebounceWindow == 0 {
		opts.DebounceWindow = DefaultOptions().DebounceWindow
	}

	e := &Engine{
		opts:     opts,
		graph:    NewGraph(nil, nil),
		sim:      NewSimulation(opts.Sim),
		viewport: NewViewport(800, 600),
		debounce: NewDebouncer(opts.DebounceWindow),
		worker:   newSimWorker(),
	}
	e.controller = NewController(e.graph, e.viewport)
	e.renderer = newRenderer(e)
	e.controller.onHighlight = e.renderer.markHighlightStale
	e.controller.onView = e.renderer.markBulkStale
	e.controller.reheat = e.sim.Reheat
	e.sim.SetGraph(e.graph)
	return e
}

// Close releases the background worker. The engine must not be stepped
// afterwards.
func (e *Engine) Close() {
	if e.worker != nil {
		e.worker.stop()
		e.worker = nil
	}
}

// Options returns the current configuration.
func (e *Engine) Options() Options { return e.opts }

// SetOptions replaces the configuration and schedules a redraw. Fields
// excluded from the share-state encoding (VectorNodeThreshold,
// DebounceWindow, Sim) arrive zeroed after a decode; zero values keep the
// live configuration instead of being installed verbatim.
func (e *Engine) SetOptions(opts Options) {
	if opts.VectorNodeThreshold == 0 {
		opts.VectorNodeThreshold = e.opts.VectorNodeThreshold
	}
	if opts.DebounceWindow == 0 {
		opts.DebounceWindow = e.opts.DebounceWindow
	}
	if opts.Sim == (SimConfig{}) {
		opts.Sim = e.opts.Sim
	}
	e.opts = opts
	e.debounce.Window = opts.DebounceWindow
	if e.opts.Layout == LayoutLayered {
		ApplyLayeredLayout(e.graph)
		e.refreshBounds()
	}
	e.debounce.Trigger()
	e.renderer.markBulkStale()
	e.renderer.markHighlightStale()
}

// Graph returns the canonical graph.
func (e *Engine) Graph() *Graph { return e.graph }

// Notes returns the parse warnings from the last load.
func (e *Engine) Notes() []string { return e.notes }

// Viewport returns the camera.
func (e *Engine) Viewport() *Viewport { return e.viewport }

// Controller returns the interaction state machine.
func (e *Engine) Controller() *Controller { return e.controller }

// Renderer returns the hybrid renderer.
func (e *Engine) Renderer() *Renderer { return e.renderer }

// Selection returns the live selection state.
func (e *Engine) Selection() *Selection { return e.controller.Selection() }

// SetCallbacks installs host callbacks.
func (e *Engine) SetCallbacks(cb Callbacks) { e.controller.SetCallbacks(cb) }

// --- Data loading ---

// LoadJSON parses raw graph JSON and installs the result.
func (e *Engine) LoadJSON(data []byte) error {
	g, notes, err := Parse(data)
	if err != nil {
		return err
	}
	e.notes = notes
	e.install(g)
	return nil
}

// SetNodes stages a replacement node set. The graph rebuilds when SetLinks
// follows; calling SetLinks first works symmetrically.
func (e *Engine) SetNodes(nodes []*Node) {
	e.pendingNodes = nodes
	e.rebuildFromPending()
}

// SetLinks stages a replacement edge set. Edges with endpoints missing from
// the node set are dropped with a recorded note, mirroring Parse.
func (e *Engine) SetLinks(edges []*Edge) {
	e.pendingLinks = edges
	e.rebuildFromPending()
}

func (e *Engine) rebuildFromPending() {
	nodes := e.pendingNodes
	if nodes == nil {
		nodes = e.graph.Nodes
	}
	ids := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		ids[n.ID] = true
	}

	links := e.pendingLinks
	if links == nil {
		links = e.graph.Edges
	}
	kept := make([]*Edge, 0, len(links))
	var notes []string
	for _, l := range links {
		if !ids[l.Source] {
			notes = append(notes, fmt.Sprintf("edge %s→%s dropped: unknown source %q", l.Source, l.Target, l.Source))
			continue
		}
		if !ids[l.Target] {
			notes = append(notes, fmt.Sprintf("edge %s→%s dropped: unknown target %q", l.Source, l.Target, l.Target))
			continue
		}
		kept = append(kept, l)
	}
	e.notes = notes
	e.install(NewGraph(nodes, kept))
}

// install swaps in a new graph. Any in-flight background result becomes
// stale: its generation no longer matches and it is discarded on arrival.
func (e *Engine) install(g *Graph) {
	e.gen++
	e.inflight = false
	e.graph = g
	e.sim.SetGraph(g)
	e.controller.SetGraph(g)
	if e.opts.Layout == LayoutLayered {
		ApplyLayeredLayout(g)
	}
	e.refreshBounds()
	e.viewport.Reset()
	e.debounce.Trigger()
	e.renderer.markBulkStale()
	e.renderer.markHighlightStale()
}

func (e *Engine) refreshBounds() {
	e.viewport.SetDataBounds(e.graph.Bounds())
}

// --- Simulation control ---

// Start lets Step advance the force solver.
func (e *Engine) Start() { e.sim.Start() }

// Stop freezes the solver. Alpha and velocities keep their values and the
// last-committed positions stay; a later Start resumes from them. Typical
// use: pausing while a remote refresh is pending.
func (e *Engine) Stop() { e.sim.Stop() }

// Step advances the engine by one frame: it applies any finished
// background result, advances viewport animation, runs (or delegates) one
// simulation tick, and releases a due debounced redraw. dt is the frame
// delta in seconds.
func (e *Engine) Step(dt float64) {
	// Background results commit only here, never mid-frame.
	if r, ok := e.worker.poll(); ok {
		e.inflight = false
		if r.gen == e.gen {
			e.applyResult(r)
		}
	}

	if e.viewport.anim != nil {
		e.viewport.update(float32(dt))
		e.renderer.markBulkStale()
		e.renderer.markHighlightStale()
	}

	if e.opts.Layout == LayoutForce && e.sim.Running() && !e.sim.Settled() {
		if len(e.graph.Nodes) > backgroundThreshold {
			e.delegateTick()
		} else {
			e.sim.Tick()
			e.afterMovement()
		}
	}

	if e.debounce.Due() {
		e.renderer.markBulkStale()
	}
}

func (e *Engine) delegateTick() {
	if e.inflight {
		return
	}
	nodes, edges := snapshotGraph(e.graph)
	cfg := e.opts.Sim
	e.inflight = e.worker.submit(simRequest{
		nodes:      nodes,
		edges:      edges,
		cfg:        cfg,
		alpha:      e.sim.Alpha(),
		iterations: workerBatchTicks,
		gen:        e.gen,
	})
}

// applyResult commits worker positions atomically: every node updates in
// the same frame, before the draw pass reads any of them.
func (e *Engine) applyResult(r simResult) {
	if len(r.pos) != len(e.graph.Nodes) {
		return
	}
	for i, n := range e.graph.Nodes {
		if n.Pinned {
			continue // the live pin wins over a stale snapshot position
		}
		n.Pos = r.pos[i]
	}
	e.sim.setAlpha(r.alpha)
	e.afterMovement()
}

func (e *Engine) afterMovement() {
	e.refreshBounds()
	e.debounce.Trigger()
	e.renderer.markHighlightStale()
}

// Resize updates the render surface dimensions. The redraw that follows
// uses the latest committed positions; a resize can never observe a
// half-applied tick because ticks and resizes both happen on the frame
// path.
func (e *Engine) Resize(pixelW, pixelH float64) {
	e.viewport.SetSurfaceSize(pixelW, pixelH)
	e.renderer.markBulkStale()
	e.renderer.markHighlightStale()
}

// VisibleEdges returns the edges the renderer should draw this frame:
// the top-K cap first, then the isolation filter.
func (e *Engine) VisibleEdges() []*Edge {
	edges := e.graph.Edges
	if e.opts.TopKEdges > 0 {
		edges = TopKEdges(edges, e.opts.TopKEdges)
	}
	iso := e.controller.Selection().Isolated
	if len(iso) == 0 {
		return edges
	}
	kept := edges[:0:0]
	for _, ed := range edges {
		if iso[ed.Source] && iso[ed.Target] {
			kept = append(kept, ed)
		}
	}
	return kept
}
