// Package slot owns the canonical per-slot image state: the captured photo,
// the user's geometry adjustments, the AI enhancement metadata, and the
// UI-visible state machine for each slot.
//
// The store hands out value copies and replaces whole SlotData records
// atomically on every mutation. Partial field writes that could race a
// concurrent reader are structurally impossible: mutators build a new record
// and swap it in under the lock.
//
// Callers are expected to serialize mutation sources per slot (one in-flight
// enhancement or gesture stream at a time); the store protects its own
// consistency but does not arbitrate between competing writers.
package slot

import (
	"github.com/jackhunterking/beautycanvas/pkg/geometry"
	"github.com/jackhunterking/beautycanvas/pkg/template"
)

// AIMetadata records what the enhancement pipeline has done to a slot.
// OriginalURI is set once at capture and never changes afterwards, so the
// pre-enhancement photo stays recoverable. EnhancementsApplied is an
// ordered, append-only log: reapplying the same feature appends again, the
// log is a full history rather than a set.
type AIMetadata struct {
	OriginalURI         string                   `json:"originalUri"`
	EnhancementsApplied []string                 `json:"enhancementsApplied"`
	TransparentPNGURL   string                   `json:"transparentPngUrl,omitempty"`
	Background          *template.BackgroundInfo `json:"backgroundInfo,omitempty"`
}

// SlotData is the canonical state of one captured slot. URI always points at
// the currently displayed image, the original capture or the latest
// enhancement output.
type SlotData struct {
	URI         string               `json:"uri"`
	Width       float64              `json:"width"`
	Height      float64              `json:"height"`
	Adjustments geometry.Adjustments `json:"adjustments"`
	AI          AIMetadata           `json:"ai"`
}

// clone returns a deep copy so stored records never alias caller memory.
func (d *SlotData) clone() *SlotData {
	c := *d
	c.AI.EnhancementsApplied = append([]string(nil), d.AI.EnhancementsApplied...)
	if d.AI.Background != nil {
		bg := *d.AI.Background
		c.AI.Background = &bg
	}
	return &c
}

// State is the UI-visible lifecycle phase of a slot.
type State string

// Slot states.
const (
	StateEmpty      State = "empty"
	StateCapturing  State = "capturing"
	StateProcessing State = "processing"
	StateUploading  State = "uploading"
	StateReady      State = "ready"
	StateError      State = "error"
)

// StateInfo is the ephemeral, never-persisted per-slot status shown to the
// UI. Progress is in [0, 1] and only meaningful for processing/uploading.
type StateInfo struct {
	State        State   `json:"state"`
	ErrorMessage string  `json:"errorMessage,omitempty"`
	Progress     float64 `json:"progress,omitempty"`
}

// AIResult is the outcome of one completed enhancement job, as applied back
// into slot state.
type AIResult struct {
	URI               string                   `json:"uri"`
	FeatureKey        string                   `json:"featureKey"`
	TransparentPNGURL string                   `json:"transparentPngUrl,omitempty"`
	Background        *template.BackgroundInfo `json:"backgroundInfo,omitempty"`
}

// AdjustmentsPatch is a partial update to a slot's adjustments. Nil fields
// are left unchanged.
type AdjustmentsPatch struct {
	Scale      *float64 `json:"scale,omitempty"`
	TranslateX *float64 `json:"translateX,omitempty"`
	TranslateY *float64 `json:"translateY,omitempty"`
	Rotation   *float64 `json:"rotation,omitempty"`
}

func (p AdjustmentsPatch) apply(adj geometry.Adjustments) geometry.Adjustments {
	if p.Scale != nil {
		adj.Scale = *p.Scale
	}
	if p.TranslateX != nil {
		adj.TranslateX = *p.TranslateX
	}
	if p.TranslateY != nil {
		adj.TranslateY = *p.TranslateY
	}
	if p.Rotation != nil {
		adj.Rotation = *p.Rotation
	}
	return adj
}
