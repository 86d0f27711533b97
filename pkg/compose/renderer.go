// Package compose renders a template plus captured slot photos into a
// finished image.
//
// Layering is deterministic, bottom to top: background fill, captured
// photos at their computed transforms, the frame overlay, theme layers,
// then caller-supplied overlays. A slot with no captured photo contributes
// nothing; placeholder art is the UI's business.
package compose

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fogleman/gg"

	"github.com/jackhunterking/beautycanvas/pkg/errors"
	"github.com/jackhunterking/beautycanvas/pkg/fonts"
	"github.com/jackhunterking/beautycanvas/pkg/geometry"
	"github.com/jackhunterking/beautycanvas/pkg/observability"
	"github.com/jackhunterking/beautycanvas/pkg/slot"
	"github.com/jackhunterking/beautycanvas/pkg/template"

	"github.com/disintegration/imaging"
)

// defaultTextColor is used for text layers when neither a theme color nor a
// layer color is set.
const defaultTextColor = "#1a1a1a"

// =============================================================================
// Overlays
// =============================================================================

// OverlayKind discriminates caller-supplied overlay variants.
type OverlayKind string

// Overlay kinds.
const (
	OverlayText  OverlayKind = "text"
	OverlayImage OverlayKind = "image"
)

// Overlay is a caller-supplied element drawn above everything else: a
// caption, a logo, a date stamp. Coordinates are display-space pixels.
// Exactly one payload is populated, matching Kind.
type Overlay struct {
	Kind  OverlayKind   `json:"kind"`
	X     float64       `json:"x"`
	Y     float64       `json:"y"`
	Text  *TextOverlay  `json:"text,omitempty"`
	Image *ImageOverlay `json:"image,omitempty"`
}

// TextOverlay is the payload of a text overlay. X/Y anchor its center.
type TextOverlay struct {
	Text       string  `json:"text"`
	FontFamily string  `json:"fontFamily,omitempty"`
	FontSize   float64 `json:"fontSize"`
	Color      string  `json:"color"`
}

// ImageOverlay is the payload of an image overlay. X/Y anchor its top-left
// corner; the image is resized to Width x Height.
type ImageOverlay struct {
	URI    string  `json:"uri"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Validate checks the tag/payload pairing.
func (o Overlay) Validate() error {
	switch o.Kind {
	case OverlayText:
		if o.Text == nil || o.Image != nil {
			return errors.New(errors.ErrCodeValidation, "text overlay requires exactly the text payload")
		}
	case OverlayImage:
		if o.Image == nil || o.Text != nil {
			return errors.New(errors.ErrCodeValidation, "image overlay requires exactly the image payload")
		}
	default:
		return errors.New(errors.ErrCodeValidation, "unknown overlay kind %q", o.Kind)
	}
	return nil
}

// =============================================================================
// Renderer
// =============================================================================

// RenderInput is one render request.
type RenderInput struct {
	// Template supplies geometry, background, frame art, and theme layers.
	Template *template.Template

	// Slots maps slot ids to captured photo state, typically a store
	// snapshot. Slots absent from the map render nothing.
	Slots map[string]slot.SlotData

	// Width and Height are the output size in pixels. Zero means the
	// template's design size.
	Width  int
	Height int

	// ThemeColor, when set, recolors theme layers: shape layers render
	// only under an active theme color, text layers adopt it.
	ThemeColor string

	// Overlays are drawn last, in order.
	Overlays []Overlay
}

// Renderer composites templates and photos into PNG output.
type Renderer struct {
	source ImageSource
	logger *log.Logger
}

// NewRenderer creates a renderer resolving images through source.
func NewRenderer(source ImageSource, logger *log.Logger) *Renderer {
	if logger == nil {
		logger = log.Default()
	}
	return &Renderer{source: source, logger: logger}
}

// Render composites one frame and returns PNG bytes.
func (r *Renderer) Render(ctx context.Context, in RenderInput) ([]byte, error) {
	start := time.Now()

	if in.Template == nil {
		return nil, errors.New(errors.ErrCodeValidation, "template is required")
	}
	if err := in.Template.Validate(); err != nil {
		return nil, err
	}
	for i, o := range in.Overlays {
		if err := o.Validate(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeValidation, err, "overlay %d", i)
		}
	}

	tpl := in.Template
	w, h := in.Width, in.Height
	if w <= 0 {
		w = int(tpl.DesignWidth)
	}
	if h <= 0 {
		h = int(tpl.DesignHeight)
	}

	dc := gg.NewContext(w, h)
	scale := geometry.CanvasScale(float64(w), float64(h), tpl.DesignWidth, tpl.DesignHeight)

	r.drawBackground(dc, tpl, w, h)

	if err := r.drawPhotos(ctx, dc, tpl, in.Slots, scale); err != nil {
		return nil, err
	}
	if err := r.drawFrameOverlay(ctx, dc, tpl, w, h); err != nil {
		return nil, err
	}
	if err := r.drawThemeLayers(dc, tpl, in.ThemeColor, scale); err != nil {
		return nil, err
	}
	if err := r.drawOverlays(ctx, dc, in.Overlays); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode render output")
	}

	elapsed := time.Since(start)
	r.logger.Debug("rendered frame",
		"template", tpl.ID, "size", fmt.Sprintf("%dx%d", w, h), "duration", elapsed)
	observability.Render().OnRender(ctx, tpl.ID, len(in.Slots), elapsed, nil)

	return buf.Bytes(), nil
}

// drawBackground fills the canvas, or leaves it transparent when the
// template names no color.
func (r *Renderer) drawBackground(dc *gg.Context, tpl *template.Template, w, h int) {
	if tpl.BackgroundColor == "" {
		return
	}
	cl, err := parseHexColor(tpl.BackgroundColor)
	if err != nil {
		r.logger.Warn("bad background color, leaving transparent",
			"template", tpl.ID, "color", tpl.BackgroundColor)
		return
	}
	dc.SetColor(cl)
	dc.DrawRectangle(0, 0, float64(w), float64(h))
	dc.Fill()
}

// drawPhotos renders each captured slot photo at its transform, clipped to
// its frame.
func (r *Renderer) drawPhotos(ctx context.Context, dc *gg.Context, tpl *template.Template, slots map[string]slot.SlotData, scale geometry.Scale) error {
	for _, s := range tpl.Slots {
		data, ok := slots[s.ID]
		if !ok || data.URI == "" {
			continue
		}

		img, err := r.source.Image(ctx, data.URI)
		if err != nil {
			return errors.Wrap(errors.GetCode(err), err, "slot %s", s.ID)
		}

		frame := s.Frame(tpl.DesignWidth, tpl.DesignHeight)
		fx, fy := frame.X*scale.X, frame.Y*scale.Y
		fw, fh := frame.Width*scale.X, frame.Height*scale.Y

		b := img.Bounds()
		tr := geometry.Transform(float64(b.Dx()), float64(b.Dy()), fw, fh, data.Adjustments)
		resized := imaging.Resize(img, roundPx(tr.Width), roundPx(tr.Height), imaging.Lanczos)

		cx, cy := fx+fw/2, fy+fh/2

		dc.Push()
		dc.DrawRectangle(fx, fy, fw, fh)
		dc.Clip()
		if tr.Rotation != 0 {
			dc.RotateAbout(gg.Radians(tr.Rotation), cx, cy)
		}
		dc.DrawImageAnchored(resized, int(math.Round(cx+tr.OffsetX)), int(math.Round(cy+tr.OffsetY)), 0.5, 0.5)
		dc.Pop()
	}
	return nil
}

// drawFrameOverlay stretches the template's frame art over the whole canvas.
func (r *Renderer) drawFrameOverlay(ctx context.Context, dc *gg.Context, tpl *template.Template, w, h int) error {
	if tpl.FrameOverlayURI == "" {
		return nil
	}
	img, err := r.source.Image(ctx, tpl.FrameOverlayURI)
	if err != nil {
		return errors.Wrap(errors.GetCode(err), err, "frame overlay")
	}
	dc.DrawImage(imaging.Resize(img, w, h, imaging.Lanczos), 0, 0)
	return nil
}

// drawThemeLayers renders template decorations. Shape layers only render
// under an active theme color; text layers always render, themed when a
// color is set.
func (r *Renderer) drawThemeLayers(dc *gg.Context, tpl *template.Template, themeColor string, scale geometry.Scale) error {
	for i, l := range tpl.Layers {
		p := geometry.LayerPlacement(l.Box(), l.Rotation, scale)

		switch l.Kind {
		case template.LayerShape:
			if themeColor == "" {
				continue
			}
			if err := r.drawShape(dc, l, p, themeColor); err != nil {
				return errors.Wrap(errors.ErrCodeValidation, err, "theme layer %d", i)
			}

		case template.LayerText:
			cl := themeColor
			if cl == "" {
				cl = l.Text.Color
			}
			if cl == "" {
				cl = defaultTextColor
			}
			if err := r.drawText(dc, l, p, cl); err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "theme layer %d", i)
			}
		}
	}
	return nil
}

func (r *Renderer) drawShape(dc *gg.Context, l template.ThemeLayer, p geometry.Placement, hex string) error {
	cl, err := parseHexColor(hex)
	if err != nil {
		return err
	}

	dc.Push()
	if p.Rotation != 0 {
		dc.RotateAbout(gg.Radians(p.Rotation), p.CenterX(), p.CenterY())
	}
	dc.SetColor(withOpacity(cl, l.Opacity))
	radius := l.Shape.CornerRadius * p.Uniform
	if radius > 0 {
		dc.DrawRoundedRectangle(p.X, p.Y, p.Width, p.Height, radius)
	} else {
		dc.DrawRectangle(p.X, p.Y, p.Width, p.Height)
	}
	dc.Fill()
	dc.Pop()
	return nil
}

func (r *Renderer) drawText(dc *gg.Context, l template.ThemeLayer, p geometry.Placement, hex string) error {
	cl, err := parseHexColor(hex)
	if err != nil {
		return err
	}
	face, err := fonts.Face(l.Text.FontFamily, l.Text.FontSize*p.Uniform)
	if err != nil {
		return err
	}

	dc.Push()
	if p.Rotation != 0 {
		dc.RotateAbout(gg.Radians(p.Rotation), p.CenterX(), p.CenterY())
	}
	dc.SetFontFace(face)
	dc.SetColor(withOpacity(cl, l.Opacity))

	spacing := l.Text.LetterSpacing * p.Uniform
	if spacing > 0 {
		r.drawSpacedString(dc, l.Text.Text, p.CenterX(), p.CenterY(), spacing)
	} else {
		dc.DrawStringAnchored(l.Text.Text, p.CenterX(), p.CenterY(), 0.5, 0.5)
	}
	dc.Pop()
	return nil
}

// drawSpacedString renders text with extra per-rune spacing, centered on
// (cx, cy). The face must already be set on dc.
func (r *Renderer) drawSpacedString(dc *gg.Context, s string, cx, cy, spacing float64) {
	runes := []rune(s)
	if len(runes) == 0 {
		return
	}

	total := spacing * float64(len(runes)-1)
	for _, ch := range runes {
		w, _ := dc.MeasureString(string(ch))
		total += w
	}

	x := cx - total/2
	for _, ch := range runes {
		w, _ := dc.MeasureString(string(ch))
		dc.DrawStringAnchored(string(ch), x+w/2, cy, 0.5, 0.5)
		x += w + spacing
	}
}

// drawOverlays renders caller overlays in order, above everything else.
func (r *Renderer) drawOverlays(ctx context.Context, dc *gg.Context, overlays []Overlay) error {
	for i, o := range overlays {
		switch o.Kind {
		case OverlayText:
			cl, err := parseHexColor(coalesce(o.Text.Color, defaultTextColor))
			if err != nil {
				return errors.Wrap(errors.ErrCodeValidation, err, "overlay %d", i)
			}
			face, err := fonts.Face(o.Text.FontFamily, o.Text.FontSize)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "overlay %d", i)
			}
			dc.SetFontFace(face)
			dc.SetColor(cl)
			dc.DrawStringAnchored(o.Text.Text, o.X, o.Y, 0.5, 0.5)

		case OverlayImage:
			img, err := r.source.Image(ctx, o.Image.URI)
			if err != nil {
				return errors.Wrap(errors.GetCode(err), err, "overlay %d", i)
			}
			resized := imaging.Resize(img, roundPx(o.Image.Width), roundPx(o.Image.Height), imaging.Lanczos)
			dc.DrawImage(resized, int(math.Round(o.X)), int(math.Round(o.Y)))
		}
	}
	return nil
}

// =============================================================================
// Helpers
// =============================================================================

func roundPx(v float64) int {
	n := int(math.Round(v))
	if n < 1 {
		n = 1
	}
	return n
}

func coalesce(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// parseHexColor parses #rgb and #rrggbb colors.
func parseHexColor(s string) (color.RGBA, error) {
	var c color.RGBA
	c.A = 0xff

	hexByte := func(b byte) (byte, bool) {
		switch {
		case b >= '0' && b <= '9':
			return b - '0', true
		case b >= 'a' && b <= 'f':
			return b - 'a' + 10, true
		case b >= 'A' && b <= 'F':
			return b - 'A' + 10, true
		}
		return 0, false
	}

	if len(s) == 0 || s[0] != '#' {
		return c, errors.New(errors.ErrCodeValidation, "color %q is not a hex color", s)
	}
	digits := s[1:]

	switch len(digits) {
	case 3:
		for i, dst := range []*uint8{&c.R, &c.G, &c.B} {
			v, ok := hexByte(digits[i])
			if !ok {
				return c, errors.New(errors.ErrCodeValidation, "color %q is not a hex color", s)
			}
			*dst = v*16 + v
		}
	case 6:
		for i, dst := range []*uint8{&c.R, &c.G, &c.B} {
			hi, ok1 := hexByte(digits[i*2])
			lo, ok2 := hexByte(digits[i*2+1])
			if !ok1 || !ok2 {
				return c, errors.New(errors.ErrCodeValidation, "color %q is not a hex color", s)
			}
			*dst = hi*16 + lo
		}
	default:
		return c, errors.New(errors.ErrCodeValidation, "color %q is not a hex color", s)
	}
	return c, nil
}

func withOpacity(c color.RGBA, opacity float64) color.RGBA {
	if opacity >= 1 {
		return c
	}
	c.A = uint8(math.Round(opacity * 255))
	return c
}
