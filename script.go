package plexus

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// scriptStep represents a single action in an interaction script.
type scriptStep struct {
	Action string  `json:"action"`
	Label  string  `json:"label,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	FromX  float64 `json:"fromX,omitempty"`
	FromY  float64 `json:"fromY,omitempty"`
	ToX    float64 `json:"toX,omitempty"`
	ToY    float64 `json:"toY,omitempty"`
	Dy     float64 `json:"dy,omitempty"`
	Frames int     `json:"frames,omitempty"`
	Mods   string  `json:"mods,omitempty"` // comma-separated: shift,ctrl,alt,meta
}

// scriptFile is the top-level JSON structure for an interaction script.
type scriptFile struct {
	Steps []scriptStep `json:"steps"`
}

// pointerEvent is a primitive event queued for replay, one per frame.
type pointerEvent struct {
	kind string // "down", "move", "up", "wheel", "doubleclick"
	x, y float64
	dy   float64
	mods KeyModifiers
}

// ScriptRunner replays a JSON interaction script against an engine, one
// primitive pointer event per frame. It makes interaction sequences
// reproducible: the same script against the same data always walks the
// controller through the same states.
//
// Supported actions: down, move, up, click, drag, wheel, doubleclick,
// lasso (toggles lasso mode), wait, snapshot (writes Label as a file path).
type ScriptRunner struct {
	steps     []scriptStep
	cursor    int
	waitCount int
	queue     []pointerEvent
	done      bool
	err       error
}

// LoadScript parses a JSON interaction script.
func LoadScript(jsonData []byte) (*ScriptRunner, error) {
	var script scriptFile
	if err := json.Unmarshal(jsonData, &script); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("parse script: no steps")
	}
	return &ScriptRunner{steps: script.Steps}, nil
}

// Done reports whether every step has been executed.
func (r *ScriptRunner) Done() bool { return r.done }

// Err returns the first error a step produced, if any.
func (r *ScriptRunner) Err() error { return r.err }

// Step advances the script by one frame. Call it once per engine step,
// before Engine.Step, so the frame observes the event's effects.
func (r *ScriptRunner) Step(e *Engine) {
	if r.done {
		return
	}
	// Drain queued primitive events first, one per frame.
	if len(r.queue) > 0 {
		ev := r.queue[0]
		r.queue = r.queue[1:]
		r.deliver(e, ev)
		r.checkDone()
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		r.checkDone()
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++
	mods := parseMods(st.Mods)

	switch st.Action {
	case "down":
		r.queue = append(r.queue, pointerEvent{kind: "down", x: st.X, y: st.Y, mods: mods})
	case "move":
		r.queue = append(r.queue, pointerEvent{kind: "move", x: st.X, y: st.Y, mods: mods})
	case "up":
		r.queue = append(r.queue, pointerEvent{kind: "up", x: st.X, y: st.Y, mods: mods})
	case "click":
		r.queue = append(r.queue,
			pointerEvent{kind: "down", x: st.X, y: st.Y, mods: mods},
			pointerEvent{kind: "up", x: st.X, y: st.Y, mods: mods})
	case "drag":
		frames := st.Frames
		if frames < 2 {
			frames = 2
		}
		r.queue = append(r.queue, pointerEvent{kind: "down", x: st.FromX, y: st.FromY, mods: mods})
		for i := 1; i <= frames; i++ {
			t := float64(i) / float64(frames)
			r.queue = append(r.queue, pointerEvent{
				kind: "move",
				x:    st.FromX + (st.ToX-st.FromX)*t,
				y:    st.FromY + (st.ToY-st.FromY)*t,
				mods: mods,
			})
		}
		r.queue = append(r.queue, pointerEvent{kind: "up", x: st.ToX, y: st.ToY, mods: mods})
	case "wheel":
		r.queue = append(r.queue, pointerEvent{kind: "wheel", x: st.X, y: st.Y, dy: st.Dy})
	case "doubleclick":
		r.queue = append(r.queue, pointerEvent{kind: "doubleclick", x: st.X, y: st.Y})
	case "lasso":
		c := e.Controller()
		c.SetLassoMode(!c.LassoMode())
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
	case "snapshot":
		if st.Label != "" {
			if err := e.SaveSnapshot(SnapshotOptions{Path: st.Label}); err != nil && r.err == nil {
				r.err = err
			}
		}
	default:
		if r.err == nil {
			r.err = fmt.Errorf("script: unknown action %q", st.Action)
		}
	}

	// The first generated event lands on the same frame as its step.
	if len(r.queue) > 0 {
		ev := r.queue[0]
		r.queue = r.queue[1:]
		r.deliver(e, ev)
	}

	r.checkDone()
}

func (r *ScriptRunner) deliver(e *Engine, ev pointerEvent) {
	c := e.Controller()
	switch ev.kind {
	case "down":
		c.PointerDown(ev.x, ev.y, MouseButtonLeft, ev.mods)
	case "move":
		c.PointerMove(ev.x, ev.y, ev.mods)
	case "up":
		c.PointerUp(ev.x, ev.y, ev.mods)
	case "wheel":
		c.Wheel(ev.x, ev.y, ev.dy)
	case "doubleclick":
		c.DoubleClick(ev.x, ev.y)
	}
}

func (r *ScriptRunner) checkDone() {
	if r.cursor >= len(r.steps) && r.waitCount == 0 && len(r.queue) == 0 {
		r.done = true
	}
}

// parseMods decodes a comma-separated modifier list.
func parseMods(s string) KeyModifiers {
	var mods KeyModifiers
	for _, part := range strings.Split(s, ",") {
		switch strings.TrimSpace(strings.ToLower(part)) {
		case "shift":
			mods |= ModShift
		case "ctrl", "control":
			mods |= ModCtrl
		case "alt":
			mods |= ModAlt
		case "meta", "cmd":
			mods |= ModMeta
		}
	}
	return mods
}
