package enhance

import (
	"context"
	"sync"

	"github.com/jackhunterking/beautycanvas/pkg/errors"
)

// JobStore persists job records keyed by job id. Terminal results live here,
// which is what makes them fetchable after a caller abandons its polling
// loop.
type JobStore interface {
	// Create stores a new job record.
	Create(ctx context.Context, job *Job) error

	// Get returns the job with the given id, or a JOB_NOT_FOUND error.
	Get(ctx context.Context, id string) (*Job, error)

	// Update atomically reads the job, applies fn, and persists the result.
	// Concurrent updates for the same job are serialized, which is what
	// keeps a terminal transition single-flight.
	Update(ctx context.Context, id string, fn func(*Job) error) (*Job, error)
}

// MemoryJobStore is an in-process job store for development and tests.
type MemoryJobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
}

// NewMemoryJobStore creates an empty memory job store.
func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{jobs: make(map[string]*Job)}
}

func cloneJob(j *Job) *Job {
	c := *j
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

// Create stores a new job record.
func (s *MemoryJobStore) Create(_ context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID]; exists {
		return errors.New(errors.ErrCodeInternal, "job %s already exists", job.ID)
	}
	s.jobs[job.ID] = cloneJob(job)
	return nil
}

// Get returns the job with the given id.
func (s *MemoryJobStore) Get(_ context.Context, id string) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeJobNotFound, "job %s not found", id)
	}
	return cloneJob(j), nil
}

// Update applies fn atomically to the job.
func (s *MemoryJobStore) Update(_ context.Context, id string, fn func(*Job) error) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeJobNotFound, "job %s not found", id)
	}

	work := cloneJob(j)
	if err := fn(work); err != nil {
		return nil, err
	}
	s.jobs[id] = work
	return cloneJob(work), nil
}

var _ JobStore = (*MemoryJobStore)(nil)
