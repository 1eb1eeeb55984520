package plexus

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// doubleClickTicks is the maximum gap between presses counted as a
// double-click, in update ticks (~330ms at 60 TPS).
const doubleClickTicks = 20

// doubleClickSlopPx is the maximum distance between the two presses.
const doubleClickSlopPx = 6.0

// Host adapts an Engine to ebiten: it reads the real pointer and keyboard,
// feeds the controller, steps the engine once per update, and draws. All
// interaction state mutates inside Update, before Draw reads it.
//
// Keyboard shortcuts are host-level conveniences:
//
//	L       toggle lasso mode
//	P       pin/unpin the hovered node
//	I       isolate the hovered node's neighborhood
//	Escape  clear isolation
//	R       animated viewport reset
//	F3      toggle the debug overlay
type Host struct {
	engine *Engine

	tick          int
	prevLeft      bool
	lastClickTick int
	lastClickX    float64
	lastClickY    float64

	prevKeys map[ebiten.Key]bool
}

// NewHost wraps an engine in an ebiten.Game.
func NewHost(e *Engine) *Host {
	return &Host{engine: e, lastClickTick: -doubleClickTicks, prevKeys: make(map[ebiten.Key]bool)}
}

// RunConfig configures the window for Run.
type RunConfig struct {
	Title  string
	Width  int
	Height int
}

// Run opens a window and drives the engine until the window closes.
func Run(e *Engine, cfg RunConfig) error {
	if cfg.Width <= 0 {
		cfg.Width = 1024
	}
	if cfg.Height <= 0 {
		cfg.Height = 768
	}
	if cfg.Title == "" {
		cfg.Title = "plexus"
	}
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	return ebiten.RunGame(NewHost(e))
}

// Update implements ebiten.Game.
func (h *Host) Update() error {
	h.tick++
	h.feedPointer()
	h.feedKeys()
	h.engine.Step(1.0 / float64(ebiten.TPS()))
	return nil
}

// Draw implements ebiten.Game.
func (h *Host) Draw(screen *ebiten.Image) {
	h.engine.Renderer().Draw(screen)
}

// Layout implements ebiten.Game.
func (h *Host) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

func (h *Host) feedPointer() {
	c := h.engine.Controller()
	mx, my := ebiten.CursorPosition()
	sx, sy := float64(mx), float64(my)
	mods := readModifiers()

	left := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	switch {
	case left && !h.prevLeft:
		if h.tick-h.lastClickTick <= doubleClickTicks &&
			absf(sx-h.lastClickX) <= doubleClickSlopPx &&
			absf(sy-h.lastClickY) <= doubleClickSlopPx {
			c.DoubleClick(sx, sy)
			h.lastClickTick = -doubleClickTicks
		} else {
			c.PointerDown(sx, sy, MouseButtonLeft, mods)
			h.lastClickTick = h.tick
			h.lastClickX, h.lastClickY = sx, sy
		}
	case !left && h.prevLeft:
		c.PointerUp(sx, sy, mods)
	default:
		c.PointerMove(sx, sy, mods)
	}
	h.prevLeft = left

	if _, wy := ebiten.Wheel(); wy != 0 {
		// Wheel up zooms in (shrinks the world rect).
		c.Wheel(sx, sy, -wy)
	}
}

func (h *Host) feedKeys() {
	c := h.engine.Controller()
	sel := h.engine.Selection()

	if h.justPressed(ebiten.KeyL) {
		c.SetLassoMode(!c.LassoMode())
	}
	if h.justPressed(ebiten.KeyP) && sel.HoveredID != "" {
		c.TogglePin(sel.HoveredID)
	}
	if h.justPressed(ebiten.KeyI) && sel.HoveredID != "" {
		c.Isolate(sel.HoveredID, h.engine.Options().NeighborhoodHops)
	}
	if h.justPressed(ebiten.KeyEscape) {
		c.ClearIsolation()
	}
	if h.justPressed(ebiten.KeyR) {
		h.engine.Viewport().AnimateReset(0.35)
		h.engine.Renderer().markBulkStale()
	}
	if h.justPressed(ebiten.KeyF3) {
		h.engine.Renderer().Debug = !h.engine.Renderer().Debug
	}
}

func (h *Host) justPressed(k ebiten.Key) bool {
	pressed := ebiten.IsKeyPressed(k)
	was := h.prevKeys[k]
	h.prevKeys[k] = pressed
	return pressed && !was
}

// readModifiers reads the current keyboard modifier state.
func readModifiers() KeyModifiers {
	var mods KeyModifiers
	if ebiten.IsKeyPressed(ebiten.KeyShift) || ebiten.IsKeyPressed(ebiten.KeyShiftLeft) || ebiten.IsKeyPressed(ebiten.KeyShiftRight) {
		mods |= ModShift
	}
	if ebiten.IsKeyPressed(ebiten.KeyControl) || ebiten.IsKeyPressed(ebiten.KeyControlLeft) || ebiten.IsKeyPressed(ebiten.KeyControlRight) {
		mods |= ModCtrl
	}
	if ebiten.IsKeyPressed(ebiten.KeyAlt) || ebiten.IsKeyPressed(ebiten.KeyAltLeft) || ebiten.IsKeyPressed(ebiten.KeyAltRight) {
		mods |= ModAlt
	}
	if ebiten.IsKeyPressed(ebiten.KeyMeta) || ebiten.IsKeyPressed(ebiten.KeyMetaLeft) || ebiten.IsKeyPressed(ebiten.KeyMetaRight) {
		mods |= ModMeta
	}
	return mods
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
