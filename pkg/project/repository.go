package project

import (
	"context"
	"sort"
	"sync"

	"github.com/jackhunterking/beautycanvas/pkg/compose"
	"github.com/jackhunterking/beautycanvas/pkg/errors"
	"github.com/jackhunterking/beautycanvas/pkg/slot"
)

// Repository persists project records keyed by project id.
type Repository interface {
	// Get returns the project with the given id, or PROJECT_NOT_FOUND.
	Get(ctx context.Context, id string) (*Project, error)

	// Put writes the record, replacing any existing one with the same id.
	// Concurrent Puts for the same id are last-writer-wins.
	Put(ctx context.Context, p *Project) error

	// List returns the user's projects, newest first.
	List(ctx context.Context, userID string) ([]*Project, error)

	// Delete removes a project. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error
}

// MemoryRepository is an in-process repository for development and tests.
type MemoryRepository struct {
	mu       sync.RWMutex
	projects map[string]*Project
}

// NewMemoryRepository creates an empty memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{projects: make(map[string]*Project)}
}

func cloneProject(p *Project) *Project {
	c := *p
	if p.Slots != nil {
		c.Slots = make(map[string]slot.SlotData, len(p.Slots))
		for id, d := range p.Slots {
			d.AI.EnhancementsApplied = append([]string(nil), d.AI.EnhancementsApplied...)
			if d.AI.Background != nil {
				bg := *d.AI.Background
				d.AI.Background = &bg
			}
			c.Slots[id] = d
		}
	}
	c.Overlays = append([]compose.Overlay(nil), p.Overlays...)
	return &c
}

// Get returns the project with the given id.
func (r *MemoryRepository) Get(_ context.Context, id string) (*Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.projects[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeProjectNotFound, "project %s not found", id)
	}
	return cloneProject(p), nil
}

// Put writes the record.
func (r *MemoryRepository) Put(_ context.Context, p *Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projects[p.ID] = cloneProject(p)
	return nil
}

// List returns the user's projects, newest first.
func (r *MemoryRepository) List(_ context.Context, userID string) ([]*Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Project
	for _, p := range r.projects {
		if p.UserID == userID {
			out = append(out, cloneProject(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// Delete removes a project.
func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.projects, id)
	return nil
}

var _ Repository = (*MemoryRepository)(nil)
