package geometry

import "math"

// Scale holds the per-axis display scale of a canvas relative to its design
// size, plus the uniform scale used for attributes that must keep their
// proportion under rotation.
type Scale struct {
	X       float64
	Y       float64
	Uniform float64
}

// CanvasScale returns the scale mapping template design coordinates to
// display pixels. Bounds scale per axis; rotation-sensitive magnitudes
// (font size, letter spacing, corner radius) use the smaller axis scale so
// they never overflow the tighter dimension.
func CanvasScale(displayW, displayH, designW, designH float64) Scale {
	sx := displayW / designW
	sy := displayH / designH
	return Scale{X: sx, Y: sy, Uniform: math.Min(sx, sy)}
}

// Box is an axis-aligned design-space rectangle, the original unrotated
// bounds of a theme layer.
type Box struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Placement is the display-space position of a theme layer. The box is the
// element's unrotated bounds after per-axis scaling; Rotation is applied
// last, pivoting on (CenterX, CenterY). Scaling after rotating would skew
// the shape, so the renderer must honor this ordering.
type Placement struct {
	X        float64
	Y        float64
	Width    float64
	Height   float64
	Rotation float64
	Uniform  float64
}

// CenterX returns the horizontal pivot of the placed element.
func (p Placement) CenterX() float64 { return p.X + p.Width/2 }

// CenterY returns the vertical pivot of the placed element.
func (p Placement) CenterY() float64 { return p.Y + p.Height/2 }

// LayerPlacement maps a theme layer's original design-space box into display
// space. Bounds scale per axis; the returned Uniform factor is what the
// renderer applies to rotation-sensitive magnitudes before rotating.
func LayerPlacement(box Box, rotation float64, s Scale) Placement {
	return Placement{
		X:        box.X * s.X,
		Y:        box.Y * s.Y,
		Width:    box.Width * s.X,
		Height:   box.Height * s.Y,
		Rotation: rotation,
		Uniform:  s.Uniform,
	}
}
