// Package api exposes the editing core over HTTP: slot mutation for the UI
// layer, enhancement submit/poll for the UI's polling loop, project save and
// load, and credit balances.
package api

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/jackhunterking/beautycanvas/pkg/compose"
	"github.com/jackhunterking/beautycanvas/pkg/credits"
	"github.com/jackhunterking/beautycanvas/pkg/enhance"
	"github.com/jackhunterking/beautycanvas/pkg/errors"
	"github.com/jackhunterking/beautycanvas/pkg/project"
	"github.com/jackhunterking/beautycanvas/pkg/slot"
	"github.com/jackhunterking/beautycanvas/pkg/template"
)

// Server wires the editing core to an HTTP surface. One server owns one
// editing session: a slot store bound to the active template.
type Server struct {
	store    *slot.Store
	renderer *compose.Renderer
	enhancer *enhance.Service
	saver    *project.Saver
	ledger   *credits.Ledger
	logger   *log.Logger
}

// Options configures a Server.
type Options struct {
	// Template is the active editing template. Required.
	Template *template.Template

	// Renderer composites previews. Required.
	Renderer *compose.Renderer

	// Enhancer runs enhancement jobs. Required.
	Enhancer *enhance.Service

	// Saver persists projects. Required.
	Saver *project.Saver

	// Ledger reports credit balances. Required.
	Ledger *credits.Ledger

	// Logger receives request logs. Defaults to log.Default().
	Logger *log.Logger
}

// ValidateAndSetDefaults validates options and fills in defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Template == nil {
		return errors.New(errors.ErrCodeValidation, "template is required")
	}
	if err := o.Template.Validate(); err != nil {
		return err
	}
	if o.Renderer == nil {
		return errors.New(errors.ErrCodeValidation, "renderer is required")
	}
	if o.Enhancer == nil {
		return errors.New(errors.ErrCodeValidation, "enhancement service is required")
	}
	if o.Saver == nil {
		return errors.New(errors.ErrCodeValidation, "project saver is required")
	}
	if o.Ledger == nil {
		return errors.New(errors.ErrCodeValidation, "credit ledger is required")
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	return nil
}

// NewServer creates a Server from options.
func NewServer(opts Options) (*Server, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	return &Server{
		store:    slot.NewStore(opts.Template),
		renderer: opts.Renderer,
		enhancer: opts.Enhancer,
		saver:    opts.Saver,
		ledger:   opts.Ledger,
		logger:   opts.Logger,
	}, nil
}

// Router returns the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestLogger)

	r.Route("/slots/{slotID}", func(r chi.Router) {
		r.Post("/capture", s.handleCapture)
		r.Patch("/adjustments", s.handleAdjustments)
		r.Post("/ai-result", s.handleAIResult)
		r.Delete("/", s.handleClearSlot)
		r.Get("/", s.handleGetSlot)
	})

	r.Post("/enhancements", s.handleSubmitEnhancement)
	r.Get("/enhancements/{jobID}", s.handlePollEnhancement)

	r.Route("/projects/{projectID}", func(r chi.Router) {
		r.Post("/save", s.handleSaveProject)
		r.Post("/open", s.handleOpenProject)
		r.Get("/", s.handleGetProject)
	})

	r.Get("/credits/{userID}", s.handleCredits)
	r.Post("/render", s.handleRender)

	return r
}
