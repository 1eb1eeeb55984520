package plexus

import (
	"math"
	"sort"
	"time"
)

// --- Top-K edge capping ---

// TopKEdges returns the k edges of greatest |weight|. The result has
// exactly min(k, len(edges)) entries; ties keep original order (stable
// sort), and the returned slice itself preserves input order among the
// kept edges so downstream width-sorting stays deterministic.
func TopKEdges(edges []*Edge, k int) []*Edge {
	if k < 0 {
		k = 0
	}
	if k >= len(edges) {
		out := make([]*Edge, len(edges))
		copy(out, edges)
		return out
	}

	idx := make([]int, len(edges))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return math.Abs(edges[idx[a]].Weight) > math.Abs(edges[idx[b]].Weight)
	})
	idx = idx[:k]
	sort.Ints(idx)

	out := make([]*Edge, 0, k)
	for _, i := range idx {
		out = append(out, edges[i])
	}
	return out
}

// --- Render debouncing ---

// Debouncer coalesces bursts of change notifications into a single render.
// A new Trigger inside the window cancels and reschedules the pending
// fire instead of stacking work. The clock is injected so tests control
// time; there are no timers inside.
type Debouncer struct {
	Window time.Duration
	now    func() time.Time

	pending  bool
	deadline time.Time
}

// NewDebouncer creates a debouncer with the given window.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{Window: window, now: time.Now}
}

// Trigger schedules (or reschedules) a fire one window from now.
func (d *Debouncer) Trigger() {
	d.pending = true
	d.deadline = d.now().Add(d.Window)
}

// Due consumes and reports a pending fire whose window has elapsed.
func (d *Debouncer) Due() bool {
	if d.pending && !d.now().Before(d.deadline) {
		d.pending = false
		return true
	}
	return false
}

// Pending reports whether a fire is scheduled.
func (d *Debouncer) Pending() bool { return d.pending }

// --- Background force computation ---

// backgroundThreshold is the node count above which the O(n²) tick is
// routed to the worker instead of running inline on the frame path.
const backgroundThreshold = 1500

// workerBatchTicks is how many ticks each snapshot round-trip advances.
const workerBatchTicks = 10

// simRequest is the snapshot sent to the worker. Nodes and edges are
// private clones: no mutable state is shared across the boundary.
type simRequest struct {
	nodes      []*Node
	edges      []*Edge
	cfg        SimConfig
	alpha      float64
	iterations int
	gen        uint64
}

// simResult carries updated positions back. gen echoes the request so the
// engine can discard results that a data change made stale.
type simResult struct {
	pos   []Vec2
	alpha float64
	gen   uint64
}

// simWorker runs simulation tick batches off the frame path. Communication
// is one-shot message passing: one request in flight at a time, one result
// out, applied atomically at the next step boundary.
type simWorker struct {
	req  chan simRequest
	res  chan simResult
	quit chan struct{}
}

func newSimWorker() *simWorker {
	w := &simWorker{
		req:  make(chan simRequest, 1),
		res:  make(chan simResult, 1),
		quit: make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *simWorker) run() {
	for {
		select {
		case <-w.quit:
			return
		case req := <-w.req:
			g := NewGraph(req.nodes, req.edges)
			s := NewSimulation(req.cfg)
			s.SetGraph(g)
			s.setAlpha(req.alpha)
			s.Start()
			s.TickN(req.iterations)

			pos := make([]Vec2, len(g.Nodes))
			for i, n := range g.Nodes {
				pos[i] = n.Pos
			}
			select {
			case w.res <- simResult{pos: pos, alpha: s.Alpha(), gen: req.gen}:
			case <-w.quit:
				return
			}
		}
	}
}

// submit hands a snapshot to the worker. Returns false if one is already
// in flight.
func (w *simWorker) submit(req simRequest) bool {
	select {
	case w.req <- req:
		return true
	default:
		return false
	}
}

// poll returns a finished result without blocking.
func (w *simWorker) poll() (simResult, bool) {
	select {
	case r := <-w.res:
		return r, true
	default:
		return simResult{}, false
	}
}

func (w *simWorker) stop() { close(w.quit) }

// snapshotGraph clones the parts of a graph the integrator needs. The
// clones share nothing mutable with the originals.
func snapshotGraph(g *Graph) ([]*Node, []*Edge) {
	nodes := make([]*Node, len(g.Nodes))
	for i, n := range g.Nodes {
		nodes[i] = &Node{
			ID:     n.ID,
			Kind:   n.Kind,
			Size:   n.Size,
			Pos:    n.Pos,
			Vel:    n.Vel,
			FX:     n.FX,
			FY:     n.FY,
			Pinned: n.Pinned,
		}
	}
	edges := make([]*Edge, len(g.Edges))
	for i, e := range g.Edges {
		edges[i] = &Edge{Source: e.Source, Target: e.Target, Weight: e.Weight}
	}
	return nodes, edges
}
