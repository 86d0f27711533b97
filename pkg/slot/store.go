package slot

import (
	"sync"

	"github.com/jackhunterking/beautycanvas/pkg/errors"
	"github.com/jackhunterking/beautycanvas/pkg/geometry"
	"github.com/jackhunterking/beautycanvas/pkg/template"
)

// Store holds the slot state for one open project, keyed by slot id.
// All methods are safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	template *template.Template
	slots    map[string]*SlotData
	states   map[string]StateInfo
}

// NewStore creates a store bound to a template. Every slot the template
// defines starts empty.
func NewStore(t *template.Template) *Store {
	states := make(map[string]StateInfo, len(t.Slots))
	for _, s := range t.Slots {
		states[s.ID] = StateInfo{State: StateEmpty}
	}
	return &Store{
		template: t,
		slots:    make(map[string]*SlotData, len(t.Slots)),
		states:   states,
	}
}

// Template returns the template this store is bound to.
func (s *Store) Template() *template.Template { return s.template }

// CaptureImage creates the slot's SlotData from a fresh capture or import.
// It fails with a VALIDATION error when the template defines no geometry for
// slotID. The original URI is pinned in AI metadata so later enhancements
// never lose the source photo.
func (s *Store) CaptureImage(slotID, uri string, width, height float64) error {
	if err := errors.ValidateURL(uri); err != nil {
		return err
	}
	if _, ok := s.template.Slot(slotID); !ok {
		return errors.New(errors.ErrCodeValidation, "no geometry defined for slot %q", slotID)
	}
	if width <= 0 || height <= 0 {
		return errors.New(errors.ErrCodeValidation, "captured image for slot %q has non-positive size", slotID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.slots[slotID] = &SlotData{
		URI:         uri,
		Width:       width,
		Height:      height,
		Adjustments: geometry.DefaultAdjustments(),
		AI: AIMetadata{
			OriginalURI:         uri,
			EnhancementsApplied: []string{},
		},
	}
	s.states[slotID] = StateInfo{State: StateReady}
	return nil
}

// UpdateAdjustments merges a partial adjustment update into the slot.
// Unknown slot ids are a no-op: gesture events can legitimately arrive after
// a slot was cleared.
func (s *Store) UpdateAdjustments(slotID string, patch AdjustmentsPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.slots[slotID]
	if !ok || cur == nil {
		return
	}

	next := cur.clone()
	next.Adjustments = patch.apply(cur.Adjustments)
	s.slots[slotID] = next
}

// ApplyAIResult maps a completed enhancement back into slot state: the
// displayed URI becomes the enhancement output, the feature key is appended
// to the history log, and transparent-PNG/background metadata is recorded
// when the result carries it.
func (s *Store) ApplyAIResult(slotID string, result AIResult) error {
	if result.Background != nil {
		if err := result.Background.Validate(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.slots[slotID]
	if !ok || cur == nil {
		return errors.New(errors.ErrCodeValidation, "no captured image in slot %q", slotID)
	}

	next := cur.clone()
	next.URI = result.URI
	next.AI.EnhancementsApplied = append(next.AI.EnhancementsApplied, result.FeatureKey)
	if result.TransparentPNGURL != "" {
		next.AI.TransparentPNGURL = result.TransparentPNGURL
	}
	if result.Background != nil {
		bg := *result.Background
		next.AI.Background = &bg
	}

	s.slots[slotID] = next
	s.states[slotID] = StateInfo{State: StateReady}
	return nil
}

// ClearSlot resets the slot to empty. Historical job records live in the
// enhancement job store and are not touched.
func (s *Store) ClearSlot(slotID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.slots, slotID)
	if _, ok := s.states[slotID]; ok {
		s.states[slotID] = StateInfo{State: StateEmpty}
	}
}

// Slot returns a copy of the slot's data, or false when the slot is empty or
// unknown.
func (s *Store) Slot(slotID string) (SlotData, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.slots[slotID]
	if !ok || d == nil {
		return SlotData{}, false
	}
	return *d.clone(), true
}

// Snapshot returns a copy of all populated slots, for rendering and saving.
func (s *Store) Snapshot() map[string]SlotData {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]SlotData, len(s.slots))
	for id, d := range s.slots {
		if d != nil {
			out[id] = *d.clone()
		}
	}
	return out
}

// Restore replaces the store's contents with previously persisted slot data,
// used when reloading a saved project. Slots absent from data become empty.
func (s *Store) Restore(data map[string]SlotData) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.slots = make(map[string]*SlotData, len(data))
	for _, ts := range s.template.Slots {
		if d, ok := data[ts.ID]; ok {
			dd := d
			s.slots[ts.ID] = dd.clone()
			s.states[ts.ID] = StateInfo{State: StateReady}
		} else {
			s.states[ts.ID] = StateInfo{State: StateEmpty}
		}
	}
}

// SetState updates the ephemeral UI state for a slot. Unknown slots are a
// no-op.
func (s *Store) SetState(slotID string, info StateInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.states[slotID]; !ok {
		return
	}
	s.states[slotID] = info
}

// StateOf returns the ephemeral UI state for a slot. Unknown slots report
// empty.
func (s *Store) StateOf(slotID string) StateInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, ok := s.states[slotID]
	if !ok {
		return StateInfo{State: StateEmpty}
	}
	return info
}
