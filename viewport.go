package plexus

import (
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// viewAnim holds active tweens for an animated viewport transition.
type viewAnim struct {
	x, y, w, h *gween.Tween
	done       bool
}

// Viewport maps the world rectangle onto the render surface.
//
// Scale is computed independently per axis (scaleX = pixelWidth/worldWidth,
// likewise for Y). On a non-square surface this distorts circles into
// ellipses. The behavior is deliberate: it matches the observed reference
// viewer and layouts tuned against it, so it is kept for compatibility
// rather than silently replaced with uniform scaling.
type Viewport struct {
	world  Rect // current world rectangle, always non-degenerate
	pixelW float64
	pixelH float64

	// MarginX and MarginY are the fractional paddings Reset applies around
	// the data bounds, per axis.
	MarginX float64
	MarginY float64

	dataBounds Rect

	viewMatrix    [6]float64
	invViewMatrix [6]float64
	dirty         bool

	anim *viewAnim
}

// Default fractional reset margins.
const (
	defaultMarginX = 0.05
	defaultMarginY = 0.08
)

// NewViewport creates a viewport over a unit world rect with the given
// surface size in device pixels.
func NewViewport(pixelW, pixelH float64) *Viewport {
	if pixelW <= 0 {
		pixelW = 1
	}
	if pixelH <= 0 {
		pixelH = 1
	}
	return &Viewport{
		world:   Rect{X: -0.5, Y: -0.5, Width: 1, Height: 1},
		pixelW:  pixelW,
		pixelH:  pixelH,
		MarginX: defaultMarginX,
		MarginY: defaultMarginY,
		dirty:   true,
	}
}

// World returns the current world rectangle.
func (v *Viewport) World() Rect { return v.world }

// SurfaceSize returns the render surface size in device pixels.
func (v *Viewport) SurfaceSize() (w, h float64) { return v.pixelW, v.pixelH }

// SetSurfaceSize updates the device pixel dimensions after a resize.
// The world rectangle is untouched; the next draw simply remaps it.
func (v *Viewport) SetSurfaceSize(pixelW, pixelH float64) {
	if pixelW <= 0 || pixelH <= 0 {
		return
	}
	v.pixelW = pixelW
	v.pixelH = pixelH
	v.dirty = true
}

// SetDataBounds records the data bounding box Reset restores to.
func (v *Viewport) SetDataBounds(bounds Rect) {
	v.dataBounds = bounds
}

// SetWorld replaces the world rectangle outright. Degenerate rectangles
// (width or height ≤ 0, or non-finite) are rejected and the previous
// viewport is retained; the return value reports acceptance.
func (v *Viewport) SetWorld(r Rect) bool {
	if !validRect(r) {
		return false
	}
	v.world = r
	v.anim = nil
	v.dirty = true
	return true
}

func validRect(r Rect) bool {
	if r.Width <= 0 || r.Height <= 0 {
		return false
	}
	return !math.IsNaN(r.X) && !math.IsNaN(r.Y) &&
		!math.IsInf(r.X, 0) && !math.IsInf(r.Y, 0) &&
		!math.IsInf(r.Width, 0) && !math.IsInf(r.Height, 0)
}

// ScaleX returns pixels per world unit on the X axis.
func (v *Viewport) ScaleX() float64 { return v.pixelW / v.world.Width }

// ScaleY returns pixels per world unit on the Y axis.
func (v *Viewport) ScaleY() float64 { return v.pixelH / v.world.Height }

// Pan shifts the viewport by a screen-space delta (in pixels), converted to
// world units through the inverse per-axis scale. Dragging right moves the
// world rectangle left, keeping content under the pointer.
func (v *Viewport) Pan(dxScreen, dyScreen float64) {
	v.world.X -= dxScreen / v.ScaleX()
	v.world.Y -= dyScreen / v.ScaleY()
	v.anim = nil
	v.dirty = true
}

// Zoom scales the world rectangle by factor (>1 zooms out, <1 zooms in)
// while keeping the world point under the screen anchor exactly under that
// anchor afterwards. A factor that would collapse or blow up the rectangle
// is rejected, retaining the previous viewport.
func (v *Viewport) Zoom(anchorScreenX, anchorScreenY, factor float64) bool {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return false
	}
	wx, wy := v.ScreenToWorld(anchorScreenX, anchorScreenY)

	next := Rect{
		Width:  v.world.Width * factor,
		Height: v.world.Height * factor,
	}
	// Reposition so the anchor's world point stays under the same pixel:
	// screenX = (wx - minX) * pixelW/newWidth  ⇒  minX = wx - anchorX*newWidth/pixelW.
	next.X = wx - anchorScreenX/v.pixelW*next.Width
	next.Y = wy - anchorScreenY/v.pixelH*next.Height

	if !validRect(next) {
		return false
	}
	v.world = next
	v.anim = nil
	v.dirty = true
	return true
}

// BoxZoom maps two screen corners to world coordinates and replaces the
// viewport rectangle with their bounding box. Returns false (previous
// viewport retained) if the corners produce a degenerate rectangle.
func (v *Viewport) BoxZoom(sx0, sy0, sx1, sy1 float64) bool {
	wx0, wy0 := v.ScreenToWorld(sx0, sy0)
	wx1, wy1 := v.ScreenToWorld(sx1, sy1)
	r := Rect{
		X:      math.Min(wx0, wx1),
		Y:      math.Min(wy0, wy1),
		Width:  math.Abs(wx1 - wx0),
		Height: math.Abs(wy1 - wy0),
	}
	return v.SetWorld(r)
}

// Reset restores the viewport to the data bounds padded by the fractional
// margins. Calling it twice in a row yields the same rectangle as once.
func (v *Viewport) Reset() {
	target := v.resetRect()
	if validRect(target) {
		v.world = target
		v.anim = nil
		v.dirty = true
	}
}

func (v *Viewport) resetRect() Rect {
	b := v.dataBounds
	if b.Width <= 0 || b.Height <= 0 {
		b = Rect{X: -0.5, Y: -0.5, Width: 1, Height: 1}
	}
	return b.Pad(v.MarginX, v.MarginY)
}

// AnimateReset tweens the viewport to the reset rectangle over duration
// seconds. The tween is advanced by update, which the engine calls once
// per Step; there are no timers inside the viewport itself.
func (v *Viewport) AnimateReset(duration float32) {
	target := v.resetRect()
	if !validRect(target) {
		return
	}
	v.anim = &viewAnim{
		x: gween.New(float32(v.world.X), float32(target.X), duration, ease.OutQuad),
		y: gween.New(float32(v.world.Y), float32(target.Y), duration, ease.OutQuad),
		w: gween.New(float32(v.world.Width), float32(target.Width), duration, ease.OutQuad),
		h: gween.New(float32(v.world.Height), float32(target.Height), duration, ease.OutQuad),
	}
}

// update advances an in-flight viewport animation. Called from Engine.Step.
func (v *Viewport) update(dt float32) {
	if v.anim == nil {
		return
	}
	x, _ := v.anim.x.Update(dt)
	y, _ := v.anim.y.Update(dt)
	w, _ := v.anim.w.Update(dt)
	h, done := v.anim.h.Update(dt)
	next := Rect{X: float64(x), Y: float64(y), Width: float64(w), Height: float64(h)}
	if validRect(next) {
		v.world = next
		v.dirty = true
	}
	if done {
		v.anim = nil
	}
}

// computeViewMatrix recomputes the cached world→screen matrix if dirty.
func (v *Viewport) computeViewMatrix() [6]float64 {
	if !v.dirty {
		return v.viewMatrix
	}
	v.dirty = false

	sx := v.ScaleX()
	sy := v.ScaleY()
	v.viewMatrix = [6]float64{sx, 0, 0, sy, -v.world.X * sx, -v.world.Y * sy}
	v.invViewMatrix = invertAffine(v.viewMatrix)
	return v.viewMatrix
}

// WorldToScreen converts world coordinates to screen coordinates.
func (v *Viewport) WorldToScreen(wx, wy float64) (sx, sy float64) {
	v.computeViewMatrix()
	return transformPoint(v.viewMatrix, wx, wy)
}

// ScreenToWorld converts screen coordinates to world coordinates.
func (v *Viewport) ScreenToWorld(sx, sy float64) (wx, wy float64) {
	v.computeViewMatrix()
	return transformPoint(v.invViewMatrix, sx, sy)
}
