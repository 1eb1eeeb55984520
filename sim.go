package plexus

import (
	"hash/fnv"
	"math"
)

// SimConfig tunes the force solver. Zero values are replaced by defaults
// in NewSimulation.
type SimConfig struct {
	// Repulsion scales the inverse-square pairwise repulsion force.
	Repulsion float64
	// SpringLength is the rest length of edge springs in world units.
	SpringLength float64
	// SpringStrength scales spring attraction along edges.
	SpringStrength float64
	// CollidePadding is added to the radius sum when separating overlaps.
	CollidePadding float64
	// CenterStrength pulls every node weakly toward Center.
	CenterStrength float64
	// Center is the world point the centering force aims at.
	Center Vec2
	// Bounds, when non-zero, pushes nodes that stray outside back in.
	Bounds Rect
	// VelocityDecay damps velocity each tick (0..1, applied as v *= decay).
	VelocityDecay float64
	// DT is the integration step.
	DT float64
	// AlphaDecay is the geometric temperature decay per tick.
	AlphaDecay float64
	// AlphaMin is the settle threshold.
	AlphaMin float64
}

// Simulation defaults, chosen to settle a few-hundred-node graph in a couple
// of hundred ticks.
const (
	defaultRepulsion      = 1200.0
	defaultSpringLength   = 60.0
	defaultSpringStrength = 0.08
	defaultCollidePad     = 2.0
	defaultCenterStrength = 0.015
	defaultVelocityDecay  = 0.6
	defaultDT             = 1.0
	defaultAlphaDecay     = 0.0228
	defaultAlphaMin       = 0.001

	// minDistance floors pairwise distances so near-coincident nodes don't
	// produce unbounded forces.
	minDistance = 1e-2
)

// Simulation is a discrete-time integrator producing node positions.
//
// It never schedules itself: the host calls Tick (directly or through
// Engine.Step) once per frame, which makes runs fully deterministic and
// testable. Stopping freezes alpha and velocities but keeps the last
// committed positions; a later Start resumes from that frozen state.
type Simulation struct {
	cfg   SimConfig
	graph *Graph

	alpha   float64
	running bool

	forces []Vec2 // scratch, one per node
}

// NewSimulation creates a stopped simulation with defaulted config.
func NewSimulation(cfg SimConfig) *Simulation {
	if cfg.Repulsion == 0 {
		cfg.Repulsion = defaultRepulsion
	}
	if cfg.SpringLength == 0 {
		cfg.SpringLength = defaultSpringLength
	}
	if cfg.SpringStrength == 0 {
		cfg.SpringStrength = defaultSpringStrength
	}
	if cfg.CollidePadding == 0 {
		cfg.CollidePadding = defaultCollidePad
	}
	if cfg.CenterStrength == 0 {
		cfg.CenterStrength = defaultCenterStrength
	}
	if cfg.VelocityDecay == 0 {
		cfg.VelocityDecay = defaultVelocityDecay
	}
	if cfg.DT == 0 {
		cfg.DT = defaultDT
	}
	if cfg.AlphaDecay == 0 {
		cfg.AlphaDecay = defaultAlphaDecay
	}
	if cfg.AlphaMin == 0 {
		cfg.AlphaMin = defaultAlphaMin
	}
	return &Simulation{cfg: cfg, alpha: 1}
}

// SetGraph attaches a graph and assigns deterministic initial positions to
// nodes that have none (both coordinates exactly zero and not pinned).
func (s *Simulation) SetGraph(g *Graph) {
	s.graph = g
	s.forces = make([]Vec2, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.Pos.X == 0 && n.Pos.Y == 0 && !n.Pinned {
			n.Pos = SeedPosition(n.ID, n.Layer, n.HasLayer)
		}
	}
	s.alpha = 1
}

// SeedPosition returns the deterministic initial position for a node.
//
// The position is a pure function of (id, layer): an FNV-1a hash of the id
// picks an angle, the layer picks a ring radius. Identical inputs produce
// bit-identical positions across runs, which visual regression tests
// depend on. No randomness is involved.
func SeedPosition(id string, layer int, hasLayer bool) Vec2 {
	h := fnv.New64a()
	h.Write([]byte(id))
	sum := h.Sum64()

	angle := float64(sum%1_000_000) / 1_000_000 * 2 * math.Pi
	radius := 120.0
	if hasLayer {
		radius = 60.0 + 45.0*float64(layer)
	} else {
		// Spread layerless nodes over a band so they don't start on one ring.
		radius = 120.0 + float64((sum>>20)%64)
	}
	return Vec2{X: radius * math.Cos(angle), Y: radius * math.Sin(angle)}
}

// Start lets Tick advance the integrator again. Positions are untouched.
func (s *Simulation) Start() { s.running = true }

// Stop freezes the simulation. Alpha and velocities keep their current
// values; positions stay as last committed.
func (s *Simulation) Stop() { s.running = false }

// Running reports whether Tick will advance the integrator.
func (s *Simulation) Running() bool { return s.running }

// Alpha returns the current temperature.
func (s *Simulation) Alpha() float64 { return s.alpha }

// Reheat resets alpha to 1 so a settled layout starts moving again
// (used after drags and data changes).
func (s *Simulation) Reheat() { s.alpha = 1 }

// setAlpha restores a carried-over temperature (background worker round
// trips keep alpha continuous across snapshots).
func (s *Simulation) setAlpha(a float64) { s.alpha = a }

// Settled reports whether alpha has decayed below the threshold.
// A settled simulation may idle: Tick becomes a no-op.
func (s *Simulation) Settled() bool { return s.alpha < s.cfg.AlphaMin }

// Tick advances the integrator by one step. No-op when stopped, settled,
// or no graph is attached.
func (s *Simulation) Tick() {
	if !s.running || s.graph == nil || s.Settled() {
		return
	}
	s.step()
	s.alpha *= 1 - s.cfg.AlphaDecay
}

// TickN runs n ticks. Used by the background worker, which integrates a
// snapshot in isolation.
func (s *Simulation) TickN(n int) {
	for i := 0; i < n; i++ {
		s.Tick()
	}
}

// step accumulates all forces and integrates unpinned nodes.
func (s *Simulation) step() {
	g := s.graph
	nodes := g.Nodes
	for i := range s.forces {
		s.forces[i] = Vec2{}
	}

	s.applyRepulsion(nodes)
	s.applySprings(g)
	s.applyCollision(nodes)
	s.applyCentering(nodes)
	s.applyBoundary(nodes)

	decay := s.cfg.VelocityDecay
	dt := s.cfg.DT * s.alpha
	for i, n := range nodes {
		if n.Pinned {
			// Drag-fixed and user-pinned nodes hold position but still
			// contributed forces above.
			n.Pos = Vec2{X: n.FX, Y: n.FY}
			n.Vel = Vec2{}
			continue
		}
		n.Vel.X = n.Vel.X*decay + s.forces[i].X*dt
		n.Vel.Y = n.Vel.Y*decay + s.forces[i].Y*dt
		n.Pos.X += n.Vel.X
		n.Pos.Y += n.Vel.Y
	}
}

// applyRepulsion accumulates pairwise inverse-square repulsion with a
// distance floor. O(n²); the governor routes large graphs to the
// background worker rather than running this inline.
func (s *Simulation) applyRepulsion(nodes []*Node) {
	k := s.cfg.Repulsion
	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			dx := nodes[j].Pos.X - nodes[i].Pos.X
			dy := nodes[j].Pos.Y - nodes[i].Pos.Y
			d2 := dx*dx + dy*dy
			if d2 < minDistance*minDistance {
				// Coincident nodes: deterministic nudge along the index axis.
				dx, dy = minDistance, 0
				d2 = minDistance * minDistance
			}
			d := math.Sqrt(d2)
			f := k / d2
			fx := f * dx / d
			fy := f * dy / d
			s.forces[i].X -= fx
			s.forces[i].Y -= fy
			s.forces[j].X += fx
			s.forces[j].Y += fy
		}
	}
}

// applySprings pulls edge endpoints toward the rest length. Stronger edges
// (larger |weight|) pull harder.
func (s *Simulation) applySprings(g *Graph) {
	for _, e := range g.Edges {
		a := g.Nodes[e.si]
		b := g.Nodes[e.ti]
		dx := b.Pos.X - a.Pos.X
		dy := b.Pos.Y - a.Pos.Y
		d := math.Sqrt(dx*dx + dy*dy)
		if d < minDistance {
			d = minDistance
		}
		w := math.Abs(e.Weight)
		if w > 1 {
			w = 1
		}
		f := s.cfg.SpringStrength * (d - s.cfg.SpringLength) * (0.5 + 0.5*w)
		fx := f * dx / d
		fy := f * dy / d
		s.forces[e.si].X += fx
		s.forces[e.si].Y += fy
		s.forces[e.ti].X -= fx
		s.forces[e.ti].Y -= fy
	}
}

// applyCollision separates overlapping nodes proportionally to how deeply
// their radii (plus padding) interpenetrate.
func (s *Simulation) applyCollision(nodes []*Node) {
	for i := 0; i < len(nodes); i++ {
		ri := nodes[i].Radius() + s.cfg.CollidePadding
		for j := i + 1; j < len(nodes); j++ {
			minD := ri + nodes[j].Radius() + s.cfg.CollidePadding
			dx := nodes[j].Pos.X - nodes[i].Pos.X
			dy := nodes[j].Pos.Y - nodes[i].Pos.Y
			d2 := dx*dx + dy*dy
			if d2 >= minD*minD {
				continue
			}
			d := math.Sqrt(d2)
			if d < minDistance {
				d, dx, dy = minDistance, minDistance, 0
			}
			overlap := (minD - d) / d * 0.5
			fx := dx * overlap
			fy := dy * overlap
			s.forces[i].X -= fx
			s.forces[i].Y -= fy
			s.forces[j].X += fx
			s.forces[j].Y += fy
		}
	}
}

// applyCentering pulls every node weakly toward the configured center.
func (s *Simulation) applyCentering(nodes []*Node) {
	k := s.cfg.CenterStrength
	cx, cy := s.cfg.Center.X, s.cfg.Center.Y
	for i, n := range nodes {
		s.forces[i].X += (cx - n.Pos.X) * k
		s.forces[i].Y += (cy - n.Pos.Y) * k
	}
}

// boundaryStrength scales the push-back on nodes outside Bounds.
const boundaryStrength = 0.3

// applyBoundary pushes nodes that left the configured rectangle back inside.
// Disabled while Bounds is the zero rect.
func (s *Simulation) applyBoundary(nodes []*Node) {
	b := s.cfg.Bounds
	if b.Width <= 0 || b.Height <= 0 {
		return
	}
	for i, n := range nodes {
		if n.Pos.X < b.X {
			s.forces[i].X += (b.X - n.Pos.X) * boundaryStrength
		} else if n.Pos.X > b.X+b.Width {
			s.forces[i].X += (b.X + b.Width - n.Pos.X) * boundaryStrength
		}
		if n.Pos.Y < b.Y {
			s.forces[i].Y += (b.Y - n.Pos.Y) * boundaryStrength
		} else if n.Pos.Y > b.Y+b.Height {
			s.forces[i].Y += (b.Y + b.Height - n.Pos.Y) * boundaryStrength
		}
	}
}
