package template

import "github.com/jackhunterking/beautycanvas/pkg/errors"

// BackgroundType tags a BackgroundInfo variant.
type BackgroundType string

// Background variants. An AI background removal yields a transparent
// background; a replacement yields solid or gradient.
const (
	BackgroundSolid       BackgroundType = "solid"
	BackgroundGradient    BackgroundType = "gradient"
	BackgroundTransparent BackgroundType = "transparent"
)

// SolidFill is the payload of a solid background.
type SolidFill struct {
	Color string `json:"color"`
}

// GradientFill is the payload of a gradient background. Angle is in degrees,
// measured clockwise from a left-to-right gradient.
type GradientFill struct {
	StartColor string  `json:"startColor"`
	EndColor   string  `json:"endColor"`
	Angle      float64 `json:"angle"`
}

// BackgroundInfo is a tagged variant describing what an AI enhancement did to
// a photo's background. Exactly one payload is populated, matching the tag;
// the transparent variant carries no payload.
type BackgroundInfo struct {
	Type     BackgroundType `json:"type"`
	Solid    *SolidFill     `json:"solid,omitempty"`
	Gradient *GradientFill  `json:"gradient,omitempty"`
}

// NewSolidBackground constructs a solid background variant.
func NewSolidBackground(color string) BackgroundInfo {
	return BackgroundInfo{Type: BackgroundSolid, Solid: &SolidFill{Color: color}}
}

// NewGradientBackground constructs a gradient background variant.
func NewGradientBackground(start, end string, angle float64) BackgroundInfo {
	return BackgroundInfo{
		Type:     BackgroundGradient,
		Gradient: &GradientFill{StartColor: start, EndColor: end, Angle: angle},
	}
}

// NewTransparentBackground constructs a transparent background variant.
func NewTransparentBackground() BackgroundInfo {
	return BackgroundInfo{Type: BackgroundTransparent}
}

// Validate enforces the exactly-one-payload-matching-the-tag invariant.
func (b BackgroundInfo) Validate() error {
	switch b.Type {
	case BackgroundSolid:
		if b.Solid == nil || b.Gradient != nil {
			return errors.New(errors.ErrCodeValidation, "solid background must carry exactly the solid payload")
		}
	case BackgroundGradient:
		if b.Gradient == nil || b.Solid != nil {
			return errors.New(errors.ErrCodeValidation, "gradient background must carry exactly the gradient payload")
		}
	case BackgroundTransparent:
		if b.Solid != nil || b.Gradient != nil {
			return errors.New(errors.ErrCodeValidation, "transparent background carries no payload")
		}
	default:
		return errors.New(errors.ErrCodeValidation, "unknown background type %q", b.Type)
	}
	return nil
}
