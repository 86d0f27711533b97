package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jackhunterking/beautycanvas/pkg/compose"
	"github.com/jackhunterking/beautycanvas/pkg/enhance"
	"github.com/jackhunterking/beautycanvas/pkg/errors"
	"github.com/jackhunterking/beautycanvas/pkg/project"
	"github.com/jackhunterking/beautycanvas/pkg/slot"
	"github.com/jackhunterking/beautycanvas/pkg/template"
)

// sessionFrom extracts the caller's session from headers. Validation happens
// in the project layer; this only lifts the values off the wire.
func sessionFrom(r *http.Request) project.Session {
	return project.Session{
		UserID: r.Header.Get("X-User-ID"),
		Token:  strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "),
	}
}

// =============================================================================
// Slots
// =============================================================================

type captureRequest struct {
	URI    string  `json:"uri"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	slotID := chi.URLParam(r, "slotID")

	var req captureRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.store.CaptureImage(slotID, req.URI, req.Width, req.Height); err != nil {
		s.writeError(w, err)
		return
	}
	s.store.SetState(slotID, slot.StateInfo{State: slot.StateReady})

	data, _ := s.store.Slot(slotID)
	s.writeJSON(w, http.StatusOK, data)
}

func (s *Server) handleAdjustments(w http.ResponseWriter, r *http.Request) {
	slotID := chi.URLParam(r, "slotID")

	var patch slot.AdjustmentsPatch
	if err := decodeBody(r, &patch); err != nil {
		s.writeError(w, err)
		return
	}
	s.store.UpdateAdjustments(slotID, patch)

	// Unknown slots are a silent no-op by contract.
	if data, ok := s.store.Slot(slotID); ok {
		s.writeJSON(w, http.StatusOK, data)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAIResult(w http.ResponseWriter, r *http.Request) {
	slotID := chi.URLParam(r, "slotID")

	var result slot.AIResult
	if err := decodeBody(r, &result); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.store.ApplyAIResult(slotID, result); err != nil {
		s.writeError(w, err)
		return
	}
	s.store.SetState(slotID, slot.StateInfo{State: slot.StateReady})

	data, _ := s.store.Slot(slotID)
	s.writeJSON(w, http.StatusOK, data)
}

func (s *Server) handleClearSlot(w http.ResponseWriter, r *http.Request) {
	s.store.ClearSlot(chi.URLParam(r, "slotID"))
	w.WriteHeader(http.StatusNoContent)
}

type slotResponse struct {
	Data  *slot.SlotData `json:"data,omitempty"`
	State slot.StateInfo `json:"state"`
}

func (s *Server) handleGetSlot(w http.ResponseWriter, r *http.Request) {
	slotID := chi.URLParam(r, "slotID")

	resp := slotResponse{State: s.store.StateOf(slotID)}
	if data, ok := s.store.Slot(slotID); ok {
		resp.Data = &data
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// Enhancements
// =============================================================================

type submitEnhancementRequest struct {
	SlotID     string            `json:"slotId"`
	FeatureKey string            `json:"featureKey"`
	ImageURL   string            `json:"imageUrl,omitempty"`
	Params     map[string]string `json:"params,omitempty"`
}

type submitEnhancementResponse struct {
	JobID  string         `json:"jobId"`
	Status enhance.Status `json:"status"`
}

func (s *Server) handleSubmitEnhancement(w http.ResponseWriter, r *http.Request) {
	var req submitEnhancementRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	imageURL := req.ImageURL
	if imageURL == "" {
		data, ok := s.store.Slot(req.SlotID)
		if !ok {
			s.writeError(w, errors.New(errors.ErrCodeValidation,
				"slot %s has no captured image to enhance", req.SlotID))
			return
		}
		imageURL = data.URI
	}

	job, err := s.enhancer.Submit(r.Context(), enhance.SubmitRequest{
		UserID:     sessionFrom(r).UserID,
		SlotID:     req.SlotID,
		FeatureKey: req.FeatureKey,
		ImageURL:   imageURL,
		Params:     req.Params,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.store.SetState(req.SlotID, slot.StateInfo{State: slot.StateProcessing})
	s.writeJSON(w, http.StatusAccepted, submitEnhancementResponse{JobID: job.ID, Status: job.Status})
}

func (s *Server) handlePollEnhancement(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	res, err := s.enhancer.Poll(r.Context(), jobID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.applyTerminal(r.Context(), jobID, res)
	s.writeJSON(w, http.StatusOK, res)
}

// applyTerminal folds a terminal poll result back into slot state. Gated on
// the slot still being in processing, so repeat polls of a cached terminal
// answer never append to the enhancement log twice.
func (s *Server) applyTerminal(ctx context.Context, jobID string, res *enhance.PollResult) {
	if !res.Status.Terminal() {
		return
	}

	job, err := s.enhancer.Job(ctx, jobID)
	if err != nil || job.SlotID == "" {
		return
	}
	if s.store.StateOf(job.SlotID).State != slot.StateProcessing {
		return
	}

	switch res.Status {
	case enhance.StatusCompleted:
		result := slot.AIResult{
			URI:        res.OutputURL,
			FeatureKey: job.FeatureKey,
		}
		// Background removal always yields a transparent PNG.
		if job.FeatureKey == enhance.FeatureBackgroundRemove {
			result.TransparentPNGURL = res.OutputURL
			bg := template.NewTransparentBackground()
			result.Background = &bg
		}
		if err := s.store.ApplyAIResult(job.SlotID, result); err != nil {
			s.logger.Error("apply enhancement result", "job", jobID, "error", err)
			return
		}
		s.store.SetState(job.SlotID, slot.StateInfo{State: slot.StateReady})

	case enhance.StatusFailed:
		s.store.SetState(job.SlotID, slot.StateInfo{
			State:        slot.StateError,
			ErrorMessage: res.Error,
		})
	}
}

// =============================================================================
// Projects
// =============================================================================

type saveProjectRequest struct {
	TemplateID string            `json:"templateId,omitempty"`
	ThemeColor string            `json:"themeColor,omitempty"`
	Overlays   []compose.Overlay `json:"overlays,omitempty"`
}

func (s *Server) handleSaveProject(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")

	var req saveProjectRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	templateID := req.TemplateID
	if templateID == "" {
		templateID = s.store.Template().ID
	}

	saved, err := s.saver.Save(r.Context(), sessionFrom(r), project.SaveInput{
		ProjectID:  projectID,
		TemplateID: templateID,
		ThemeColor: req.ThemeColor,
		Slots:      s.store.Snapshot(),
		Overlays:   req.Overlays,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.saver.Load(r.Context(), sessionFrom(r), chi.URLParam(r, "projectID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

// handleOpenProject loads a saved project and restores its slot data into the
// editing session, replacing whatever was being edited.
func (s *Server) handleOpenProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.saver.Load(r.Context(), sessionFrom(r), chi.URLParam(r, "projectID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.store.Restore(p.Slots)
	s.writeJSON(w, http.StatusOK, p)
}

// =============================================================================
// Credits
// =============================================================================

func (s *Server) handleCredits(w http.ResponseWriter, r *http.Request) {
	bal, err := s.ledger.Balance(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, bal)
}

// =============================================================================
// Render
// =============================================================================

type renderRequest struct {
	Width      int               `json:"width,omitempty"`
	Height     int               `json:"height,omitempty"`
	ThemeColor string            `json:"themeColor,omitempty"`
	Overlays   []compose.Overlay `json:"overlays,omitempty"`
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	png, err := s.renderer.Render(r.Context(), compose.RenderInput{
		Template:   s.store.Template(),
		Slots:      s.store.Snapshot(),
		Width:      req.Width,
		Height:     req.Height,
		ThemeColor: req.ThemeColor,
		Overlays:   req.Overlays,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		s.logger.Error("write render response", "error", err)
	}
}
