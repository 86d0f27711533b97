// Package project persists composed projects: the unified per-slot state
// blob, canvas appearance, and overlays, plus the migration path from two
// generations of legacy schema.
package project

import (
	"time"

	"github.com/jackhunterking/beautycanvas/pkg/compose"
	"github.com/jackhunterking/beautycanvas/pkg/enhance"
	"github.com/jackhunterking/beautycanvas/pkg/geometry"
	"github.com/jackhunterking/beautycanvas/pkg/slot"
	"github.com/jackhunterking/beautycanvas/pkg/template"
)

// Legacy slot ids used by the oldest schema generation, which stored exactly
// one before and one after image.
const (
	LegacySlotBefore = "before"
	LegacySlotAfter  = "after"
)

// Project is one saved composition. Slots is the unified per-slot blob;
// the remaining captured_* and *_image_url columns are two retained legacy
// generations, read during migration and never written by new saves.
type Project struct {
	ID         string `bson:"_id" json:"id"`
	UserID     string `bson:"user_id" json:"userId"`
	TemplateID string `bson:"template_id" json:"templateId"`
	ThemeColor string `bson:"theme_color,omitempty" json:"themeColor,omitempty"`

	Slots    map[string]slot.SlotData `bson:"slot_data,omitempty" json:"slotData,omitempty"`
	Overlays []compose.Overlay        `bson:"overlays,omitempty" json:"overlays,omitempty"`

	// Legacy generation 2: per-slot columns.
	CapturedImageURLs        map[string]string                  `bson:"captured_image_urls,omitempty" json:"captured_image_urls,omitempty"`
	CapturedImageAdjustments map[string]geometry.Adjustments    `bson:"captured_image_adjustments,omitempty" json:"captured_image_adjustments,omitempty"`
	CapturedImageBackgrounds map[string]template.BackgroundInfo `bson:"captured_image_backgrounds,omitempty" json:"captured_image_backgrounds,omitempty"`

	// Legacy generation 1: single before/after pair.
	BeforeImageURL string `bson:"before_image_url,omitempty" json:"before_image_url,omitempty"`
	AfterImageURL  string `bson:"after_image_url,omitempty" json:"after_image_url,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// Migrate fills Slots from legacy columns when the unified blob is empty.
// It reports whether a reconstruction happened.
//
// The legacy schema never recorded enhancement history, so history is
// inferred from the stored background type alone: a transparent background
// means the photo had its background removed, solid or gradient means it was
// replaced. Best effort, not authoritative.
func (p *Project) Migrate() bool {
	if len(p.Slots) > 0 {
		return false
	}

	if len(p.CapturedImageURLs) > 0 {
		p.Slots = make(map[string]slot.SlotData, len(p.CapturedImageURLs))
		for id, url := range p.CapturedImageURLs {
			if url == "" {
				continue
			}
			p.Slots[id] = p.legacySlot(id, url)
		}
		return len(p.Slots) > 0
	}

	if p.BeforeImageURL != "" || p.AfterImageURL != "" {
		p.Slots = make(map[string]slot.SlotData, 2)
		if p.BeforeImageURL != "" {
			p.Slots[LegacySlotBefore] = p.legacySlot(LegacySlotBefore, p.BeforeImageURL)
		}
		if p.AfterImageURL != "" {
			p.Slots[LegacySlotAfter] = p.legacySlot(LegacySlotAfter, p.AfterImageURL)
		}
		return true
	}

	return false
}

func (p *Project) legacySlot(id, url string) slot.SlotData {
	data := slot.SlotData{
		URI:         url,
		Adjustments: geometry.DefaultAdjustments(),
		AI:          slot.AIMetadata{OriginalURI: url},
	}
	if adj, ok := p.CapturedImageAdjustments[id]; ok {
		data.Adjustments = adj
	}
	if bg, ok := p.CapturedImageBackgrounds[id]; ok {
		b := bg
		data.AI.Background = &b
		switch bg.Type {
		case template.BackgroundTransparent:
			data.AI.EnhancementsApplied = []string{enhance.FeatureBackgroundRemove}
			data.AI.TransparentPNGURL = url
		case template.BackgroundSolid, template.BackgroundGradient:
			data.AI.EnhancementsApplied = []string{enhance.FeatureBackgroundReplace}
		}
	}
	return data
}
