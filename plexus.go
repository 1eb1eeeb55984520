package plexus

import "image/color"

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
type Color struct {
	R, G, B, A float64
}

// Common colors used by the default theme.
var (
	ColorWhite     = Color{1, 1, 1, 1}
	ColorLightGray = Color{0.78, 0.78, 0.78, 1}
)

// toRGBA converts to a standard 8-bit color (premultiplied by A).
func (c Color) toRGBA() color.RGBA {
	return color.RGBA{
		R: uint8(clamp01(c.R*c.A) * 255),
		G: uint8(clamp01(c.G*c.A) * 255),
		B: uint8(clamp01(c.B*c.A) * 255),
		A: uint8(clamp01(c.A) * 255),
	}
}

// Luminance returns the relative luminance of the color, ignoring alpha.
func (c Color) Luminance() float64 {
	return 0.299*c.R + 0.587*c.G + 0.114*c.B
}

// WithAlpha returns a copy of the color with its alpha multiplied by a.
func (c Color) WithAlpha(a float64) Color {
	c.A *= a
	return c
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Vec2 is a 2D vector used for positions, velocities, and offsets.
type Vec2 struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Intersects reports whether r and other overlap.
// Adjacent rectangles (sharing only an edge) are considered intersecting.
func (r Rect) Intersects(other Rect) bool {
	return r.X <= other.X+other.Width &&
		r.X+r.Width >= other.X &&
		r.Y <= other.Y+other.Height &&
		r.Y+r.Height >= other.Y
}

// Pad returns the rectangle grown by fractional margins on each axis.
// A margin of 0.1 adds 10% of the width on the left and right.
func (r Rect) Pad(marginX, marginY float64) Rect {
	px := r.Width * marginX
	py := r.Height * marginY
	return Rect{X: r.X - px, Y: r.Y - py, Width: r.Width + 2*px, Height: r.Height + 2*py}
}

// NodeKind distinguishes the variant of a graph node. It is fixed at parse
// time and never changes afterwards.
type NodeKind uint8

const (
	KindFeature   NodeKind = iota // an interpretable feature
	KindToken                     // an input token position
	KindLogit                     // an output logit (terminal for traces)
	KindSupernode                 // a merged cluster of feature nodes
)

// String returns the wire name of the kind, matching the JSON "type" field.
func (k NodeKind) String() string {
	switch k {
	case KindFeature:
		return "feature"
	case KindToken:
		return "token"
	case KindLogit:
		return "logit"
	case KindSupernode:
		return "super"
	default:
		return "unknown"
	}
}

// Terminal reports whether a hover trace stops at this kind.
func (k NodeKind) Terminal() bool {
	return k == KindLogit
}

// MouseButton identifies a mouse button.
type MouseButton uint8

const (
	MouseButtonLeft   MouseButton = iota // primary (left) mouse button
	MouseButtonRight                     // secondary (right) mouse button
	MouseButtonMiddle                    // middle mouse button
)

// KeyModifiers is a bitmask of keyboard modifier keys.
// Values can be combined with bitwise OR (e.g. ModShift | ModCtrl).
type KeyModifiers uint8

const (
	ModShift KeyModifiers = 1 << iota // Shift key
	ModCtrl                           // Control key
	ModAlt                            // Alt / Option key
	ModMeta                           // Meta / Command / Windows key
)

// LayoutMode selects the position solver used for nodes without pins.
type LayoutMode uint8

const (
	LayoutForce   LayoutMode = iota // iterative force-directed solver
	LayoutLayered                   // deterministic layer/column placement
)
