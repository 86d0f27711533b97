package geometry

import "math"

// Adjustments are the user-controlled transform parameters for one slot.
// Scale is a multiplier on top of the cover-fit base size (domain >= 1;
// the caller clamps the upper bound). TranslateX and TranslateY pan the
// photo within its cropped overflow, each in [-0.5, 0.5]. Rotation is in
// degrees, applied about the frame center.
type Adjustments struct {
	Scale      float64 `json:"scale"`
	TranslateX float64 `json:"translateX"`
	TranslateY float64 `json:"translateY"`
	Rotation   float64 `json:"rotation"`
}

// DefaultAdjustments returns the identity adjustments applied on first capture.
func DefaultAdjustments() Adjustments {
	return Adjustments{Scale: 1}
}

// RenderTransform is the device-pixel placement of a photo within its frame.
// Width and Height are the scaled photo size. OffsetX and OffsetY shift the
// photo center relative to the frame center. Rotation is in degrees.
type RenderTransform struct {
	Width    float64
	Height   float64
	OffsetX  float64
	OffsetY  float64
	Rotation float64
}

// CoverFit returns the base size that makes an image exactly cover a frame.
// The image's limiting dimension stretches to the frame; the other axis
// overshoots and is cropped by the renderer.
func CoverFit(imageW, imageH, frameW, frameH float64) (baseW, baseH float64) {
	imageAspect := imageW / imageH
	frameAspect := frameW / frameH

	if imageAspect > frameAspect {
		baseH = frameH
		baseW = baseH * imageAspect
	} else {
		baseW = frameW
		baseH = baseW / imageAspect
	}
	return baseW, baseH
}

// Transform computes the render transform for a photo in a frame under the
// given adjustments.
//
// At scale 1 with zero translation the photo exactly covers the frame. For
// any translate in [-0.5, 0.5] the offset never exceeds half the excess on
// that axis, so the photo edge never retreats inside the frame edge.
func Transform(imageW, imageH, frameW, frameH float64, adj Adjustments) RenderTransform {
	baseW, baseH := CoverFit(imageW, imageH, frameW, frameH)

	scaledW := baseW * adj.Scale
	scaledH := baseH * adj.Scale

	excessX := math.Max(0, scaledW-frameW)
	excessY := math.Max(0, scaledH-frameH)

	return RenderTransform{
		Width:    scaledW,
		Height:   scaledH,
		OffsetX:  adj.TranslateX * excessX,
		OffsetY:  adj.TranslateY * excessY,
		Rotation: adj.Rotation,
	}
}
