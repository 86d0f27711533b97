package template

import (
	"github.com/jackhunterking/beautycanvas/pkg/errors"
	"github.com/jackhunterking/beautycanvas/pkg/geometry"
)

// LayerKind tags a ThemeLayer variant.
type LayerKind string

// Theme layer kinds.
const (
	LayerShape LayerKind = "shape"
	LayerText  LayerKind = "text"
)

// ShapeFields is the payload of a shape layer. CornerRadius is in design
// units and scales uniformly with the canvas.
type ShapeFields struct {
	Color        string  `json:"color" toml:"color"`
	CornerRadius float64 `json:"cornerRadius" toml:"corner_radius"`
}

// TextFields is the payload of a text layer. FontSize and LetterSpacing are
// in design units and scale uniformly with the canvas.
type TextFields struct {
	Text          string  `json:"text" toml:"text"`
	FontFamily    string  `json:"fontFamily" toml:"font_family"`
	FontSize      float64 `json:"fontSize" toml:"font_size"`
	LetterSpacing float64 `json:"letterSpacing" toml:"letter_spacing"`
	Color         string  `json:"color" toml:"color"`
}

// ThemeLayer is a template-authored decorative element, recolorable without a
// remote re-render. It is a tagged variant sharing placement fields; exactly
// one of Shape or Text is populated, matching Kind.
type ThemeLayer struct {
	Kind     LayerKind `json:"kind" toml:"kind"`
	X        float64   `json:"x" toml:"x"`
	Y        float64   `json:"y" toml:"y"`
	Width    float64   `json:"width" toml:"width"`
	Height   float64   `json:"height" toml:"height"`
	Rotation float64   `json:"rotation" toml:"rotation"`
	Opacity  float64   `json:"opacity" toml:"opacity"`

	Shape *ShapeFields `json:"shape,omitempty" toml:"shape"`
	Text  *TextFields  `json:"text,omitempty" toml:"text"`
}

// NewShapeLayer constructs a shape layer variant.
func NewShapeLayer(box geometry.Box, rotation, opacity float64, fields ShapeFields) ThemeLayer {
	return ThemeLayer{
		Kind: LayerShape,
		X:    box.X, Y: box.Y, Width: box.Width, Height: box.Height,
		Rotation: rotation,
		Opacity:  opacity,
		Shape:    &fields,
	}
}

// NewTextLayer constructs a text layer variant.
func NewTextLayer(box geometry.Box, rotation, opacity float64, fields TextFields) ThemeLayer {
	return ThemeLayer{
		Kind: LayerText,
		X:    box.X, Y: box.Y, Width: box.Width, Height: box.Height,
		Rotation: rotation,
		Opacity:  opacity,
		Text:     &fields,
	}
}

// Box returns the layer's original unrotated design-space bounds.
func (l ThemeLayer) Box() geometry.Box {
	return geometry.Box{X: l.X, Y: l.Y, Width: l.Width, Height: l.Height}
}

// Validate enforces the exactly-one-payload-matching-the-tag invariant and
// checks the shared placement fields.
func (l ThemeLayer) Validate() error {
	switch l.Kind {
	case LayerShape:
		if l.Shape == nil || l.Text != nil {
			return errors.New(errors.ErrCodeValidation, "shape layer must carry exactly the shape payload")
		}
	case LayerText:
		if l.Text == nil || l.Shape != nil {
			return errors.New(errors.ErrCodeValidation, "text layer must carry exactly the text payload")
		}
	default:
		return errors.New(errors.ErrCodeValidation, "unknown layer kind %q", l.Kind)
	}

	if l.Width < 0 || l.Height < 0 {
		return errors.New(errors.ErrCodeValidation, "layer has negative size")
	}
	// Opacity must be explicit: a zero value is indistinguishable from an
	// omitted field, and an invisible layer is authored by removing it.
	if l.Opacity <= 0 || l.Opacity > 1 {
		return errors.New(errors.ErrCodeValidation, "layer opacity %v out of range (0, 1]", l.Opacity)
	}
	return nil
}
