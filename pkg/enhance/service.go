package enhance

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/jackhunterking/beautycanvas/pkg/credits"
	"github.com/jackhunterking/beautycanvas/pkg/errors"
	"github.com/jackhunterking/beautycanvas/pkg/observability"
)

// =============================================================================
// Defaults
// =============================================================================

// DefaultJobTimeout is how long a job may sit non-terminal before a poll
// fails it. Measured from submission, not from the first poll.
const DefaultJobTimeout = 120 * time.Second

// transientStatuses are the HTTP statuses the queue's edge produces while a
// request is still being routed or retried. A poll that sees one reports
// still-processing and mutates nothing, so the caller simply polls again.
var transientStatuses = map[int]bool{
	400: true, // edge rejects the status probe before the request is registered
	405: true,
	408: true,
	429: true,
	500: true,
	502: true,
	503: true,
	504: true,
}

// =============================================================================
// Service
// =============================================================================

// Service owns the enhancement job lifecycle: credit-checked submission to
// the remote queue and the caller-driven poll that walks a job to a terminal
// state exactly once.
type Service struct {
	queue   QueueClient
	jobs    JobStore
	ledger  *credits.Ledger
	catalog Catalog
	timeout time.Duration
	now     func() time.Time
	logger  *log.Logger
}

// ServiceOptions configures a Service.
type ServiceOptions struct {
	// Queue talks to the remote enhancement API. Required.
	Queue QueueClient

	// Jobs persists job records. Required.
	Jobs JobStore

	// Ledger meters credits. Required.
	Ledger *credits.Ledger

	// Catalog maps feature keys to models and costs.
	// Defaults to DefaultCatalog().
	Catalog Catalog

	// Timeout bounds how long a job may stay non-terminal.
	// Defaults to DefaultJobTimeout.
	Timeout time.Duration

	// Logger receives structured job events. Defaults to log.Default().
	Logger *log.Logger
}

// ValidateAndSetDefaults validates options and fills in defaults.
func (o *ServiceOptions) ValidateAndSetDefaults() error {
	if o.Queue == nil {
		return errors.New(errors.ErrCodeValidation, "queue client is required")
	}
	if o.Jobs == nil {
		return errors.New(errors.ErrCodeValidation, "job store is required")
	}
	if o.Ledger == nil {
		return errors.New(errors.ErrCodeValidation, "credit ledger is required")
	}
	if o.Catalog == nil {
		o.Catalog = DefaultCatalog()
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultJobTimeout
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	return nil
}

// NewService creates a Service from options.
func NewService(opts ServiceOptions) (*Service, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	return &Service{
		queue:   opts.Queue,
		jobs:    opts.Jobs,
		ledger:  opts.Ledger,
		catalog: opts.Catalog,
		timeout: opts.Timeout,
		now:     time.Now,
		logger:  opts.Logger,
	}, nil
}

// SetClock overrides the service's clock. Test hook.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// =============================================================================
// Submit
// =============================================================================

// SubmitRequest describes one enhancement to run.
type SubmitRequest struct {
	UserID     string
	SlotID     string
	FeatureKey string
	ImageURL   string
	Params     map[string]string
}

// Submit checks the user's balance, enqueues the enhancement remotely, and
// stores the job record. Credits are only checked here; the deduction
// happens when the job completes.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*Job, error) {
	if err := errors.ValidateSlotID(req.SlotID); err != nil {
		return nil, err
	}
	if err := errors.ValidateURL(req.ImageURL); err != nil {
		return nil, err
	}

	feature, err := s.catalog.Lookup(req.FeatureKey)
	if err != nil {
		return nil, err
	}

	if err := s.ledger.Check(ctx, req.UserID, feature.Cost); err != nil {
		return nil, err
	}

	requestID, err := s.queue.Submit(ctx, feature.ModelID, SubmitInput{
		ImageURL: req.ImageURL,
		Params:   req.Params,
	})
	if err != nil {
		return nil, err
	}

	job := &Job{
		ID:              uuid.NewString(),
		UserID:          req.UserID,
		SlotID:          req.SlotID,
		FeatureKey:      feature.Key,
		Status:          StatusQueued,
		RemoteRequestID: requestID,
		ModelID:         feature.ModelID,
		InputURL:        req.ImageURL,
		CreatedAt:       s.now(),
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}

	s.logger.Info("enhancement submitted",
		"job", job.ID, "feature", feature.Key, "model", feature.ModelID, "slot", req.SlotID)
	observability.Jobs().OnSubmit(ctx, job.ID, feature.Key)

	return job, nil
}

// =============================================================================
// Poll
// =============================================================================

// Poll advances the job identified by jobID by one remote observation and
// returns what the caller's polling loop should see.
//
// Terminal jobs answer from the store without touching the network, so a
// completed or failed result survives any number of late polls. Non-terminal
// jobs are checked against the timeout first, then against one remote status
// fetch, whose HTTP status decides everything:
//
//   - transient statuses (edge noise, rate limits, upstream 5xx) report
//     still-processing and change nothing
//   - other non-2xx statuses fail the job permanently
//   - 2xx bodies either advance the status, fail the job, or complete it
//     when an output URL is present
//
// Completion deducts the feature's cost exactly once per job.
func (s *Service) Poll(ctx context.Context, jobID string) (*PollResult, error) {
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if job.Status.Terminal() {
		observability.Jobs().OnPoll(ctx, job.ID, string(job.Status), false)
		return resultOf(job), nil
	}

	if s.now().Sub(job.CreatedAt) > s.timeout {
		return s.fail(ctx, job.ID, errors.ErrCodeTimeout,
			"enhancement timed out after %s", s.timeout)
	}

	remote, err := s.queue.Status(ctx, job.ModelID, job.RemoteRequestID)
	if err != nil {
		// Transport failure: same treatment as a transient HTTP status.
		s.logger.Debug("poll transport failure", "job", job.ID, "error", err)
		observability.Jobs().OnPoll(ctx, job.ID, string(job.Status), true)
		return resultOf(job), nil
	}

	if transientStatuses[remote.HTTPStatus] {
		s.logger.Debug("poll transient status", "job", job.ID, "http", remote.HTTPStatus)
		observability.Jobs().OnPoll(ctx, job.ID, string(job.Status), true)
		return resultOf(job), nil
	}

	if remote.HTTPStatus < 200 || remote.HTTPStatus > 299 {
		return s.fail(ctx, job.ID, errors.ErrCodePermanentRemote,
			"%s", (&errors.RemoteStatusError{StatusCode: remote.HTTPStatus, Message: remote.ErrorMessage}).Error())
	}

	switch {
	case remote.Status == RemoteFailed:
		msg := remote.ErrorMessage
		if msg == "" {
			msg = "enhancement failed"
		}
		return s.fail(ctx, job.ID, errors.ErrCodePermanentRemote, "%s", msg)

	case remote.OutputURL != "":
		return s.complete(ctx, job.ID, remote.OutputURL)

	case remote.Status == RemoteInProgress:
		job, err = s.jobs.Update(ctx, job.ID, func(j *Job) error {
			j.advance(StatusProcessing)
			return nil
		})
		if err != nil {
			return nil, err
		}
		observability.Jobs().OnPoll(ctx, job.ID, string(job.Status), false)
		return resultOf(job), nil

	default:
		// IN_QUEUE, an unknown vocabulary word, or a 2xx with no usable
		// body: still processing as far as the caller is concerned.
		observability.Jobs().OnPoll(ctx, job.ID, string(job.Status), false)
		return resultOf(job), nil
	}
}

// complete transitions the job to completed and deducts its cost. The store
// update is single-flight, and the deduction is idempotent per job id, so
// concurrent completing polls charge once.
func (s *Service) complete(ctx context.Context, jobID, outputURL string) (*PollResult, error) {
	job, err := s.jobs.Update(ctx, jobID, func(j *Job) error {
		if j.Status.Terminal() {
			return nil
		}
		now := s.now()
		j.Status = StatusCompleted
		j.OutputURL = outputURL
		j.CompletedAt = &now
		j.ProcessingTime = now.Sub(j.CreatedAt)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// A racing poll may have failed the job first; never charge for that.
	if job.Status == StatusCompleted {
		feature, ferr := s.catalog.Lookup(job.FeatureKey)
		if ferr == nil {
			if _, derr := s.ledger.Deduct(ctx, job.UserID, job.ID, feature.Cost); derr != nil {
				s.logger.Error("credit deduction failed", "job", job.ID, "error", derr)
			}
		}
	}

	s.logger.Info("enhancement completed",
		"job", job.ID, "duration", job.ProcessingTime, "output", job.OutputURL != "")
	observability.Jobs().OnTerminal(ctx, job.ID, string(job.Status), job.ProcessingTime)

	return resultOf(job), nil
}

// fail transitions the job to failed with the given error. Already-terminal
// jobs are left untouched.
func (s *Service) fail(ctx context.Context, jobID string, code errors.Code, format string, args ...any) (*PollResult, error) {
	cause := errors.New(code, format, args...)

	job, err := s.jobs.Update(ctx, jobID, func(j *Job) error {
		if j.Status.Terminal() {
			return nil
		}
		now := s.now()
		j.Status = StatusFailed
		j.ErrorCode = string(code)
		j.ErrorMessage = cause.Message
		j.CompletedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Warn("enhancement failed", "job", job.ID, "code", job.ErrorCode, "error", job.ErrorMessage)
	observability.Jobs().OnTerminal(ctx, job.ID, string(job.Status), s.now().Sub(job.CreatedAt))

	return resultOf(job), nil
}

// Job returns the stored record for a job id.
func (s *Service) Job(ctx context.Context, jobID string) (*Job, error) {
	return s.jobs.Get(ctx, jobID)
}
