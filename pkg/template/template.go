// Package template defines the designer-authored, read-only side of a
// composition: slot geometry, decorative theme layers, and background
// descriptors. Templates are supplied by an external design service; this
// package only models and validates them.
//
// BackgroundInfo and ThemeLayer are tagged variants. Exactly one payload may
// be populated, matching the tag, and validation is enforced at construction
// and again before render rather than by ad-hoc nil checks at use sites.
package template

import (
	"context"

	"github.com/jackhunterking/beautycanvas/pkg/errors"
	"github.com/jackhunterking/beautycanvas/pkg/geometry"
)

// Slot is a named placement in a template's design grid where one user photo
// is displayed. Width and Height are in design units; XPercent and YPercent
// position the slot's top-left corner as a percentage of the design size.
type Slot struct {
	ID       string  `json:"id" toml:"id"`
	Width    float64 `json:"width" toml:"width"`
	Height   float64 `json:"height" toml:"height"`
	XPercent float64 `json:"xPercent" toml:"x_percent"`
	YPercent float64 `json:"yPercent" toml:"y_percent"`
}

// Frame returns the slot's design-space rectangle for a template design size.
func (s Slot) Frame(designW, designH float64) geometry.Box {
	return geometry.Box{
		X:      s.XPercent / 100 * designW,
		Y:      s.YPercent / 100 * designH,
		Width:  s.Width,
		Height: s.Height,
	}
}

// Template is one designer-authored composition layout.
type Template struct {
	ID              string       `json:"id" toml:"id"`
	Name            string       `json:"name" toml:"name"`
	DesignWidth     float64      `json:"designWidth" toml:"design_width"`
	DesignHeight    float64      `json:"designHeight" toml:"design_height"`
	BackgroundColor string       `json:"backgroundColor" toml:"background_color"`
	FrameOverlayURI string       `json:"frameOverlayUri,omitempty" toml:"frame_overlay_uri"`
	Slots           []Slot       `json:"slots" toml:"slots"`
	Layers          []ThemeLayer `json:"layers,omitempty" toml:"layers"`
}

// Slot returns the slot with the given id, or false when the template does
// not define one.
func (t *Template) Slot(id string) (Slot, bool) {
	for _, s := range t.Slots {
		if s.ID == id {
			return s, true
		}
	}
	return Slot{}, false
}

// Validate checks the template's structural invariants, including every
// layer's tag/payload pairing.
func (t *Template) Validate() error {
	if t.ID == "" {
		return errors.New(errors.ErrCodeValidation, "template id cannot be empty")
	}
	if t.DesignWidth <= 0 || t.DesignHeight <= 0 {
		return errors.New(errors.ErrCodeValidation, "template %q has non-positive design size", t.ID)
	}
	seen := make(map[string]bool, len(t.Slots))
	for _, s := range t.Slots {
		if err := errors.ValidateSlotID(s.ID); err != nil {
			return err
		}
		if seen[s.ID] {
			return errors.New(errors.ErrCodeValidation, "template %q has duplicate slot %q", t.ID, s.ID)
		}
		seen[s.ID] = true
		if s.Width <= 0 || s.Height <= 0 {
			return errors.New(errors.ErrCodeValidation, "slot %q has non-positive size", s.ID)
		}
	}
	for i := range t.Layers {
		if err := t.Layers[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Provider supplies templates by id. Implementations are read-only; the
// slot/job core never mutates a template.
type Provider interface {
	Template(ctx context.Context, id string) (*Template, error)
}

// StaticProvider serves a fixed set of templates from memory. Intended for
// tests and for the CLI's bundled templates.
type StaticProvider struct {
	templates map[string]*Template
}

// NewStaticProvider creates a provider over the given templates.
// Each template must validate.
func NewStaticProvider(templates ...*Template) (*StaticProvider, error) {
	m := make(map[string]*Template, len(templates))
	for _, t := range templates {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		m[t.ID] = t
	}
	return &StaticProvider{templates: m}, nil
}

// Template returns the template with the given id.
func (p *StaticProvider) Template(_ context.Context, id string) (*Template, error) {
	t, ok := p.templates[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "template %q not found", id)
	}
	return t, nil
}
