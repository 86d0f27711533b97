package credits

import (
	"context"
	"sync"
)

// MemoryStore is an in-process credit store for development and tests.
// Updates are serialized per user by a single store-wide mutex; contention
// is negligible at the scale this backend is meant for.
type MemoryStore struct {
	mu       sync.Mutex
	accounts map[string]*Account
}

// NewMemoryStore creates an empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: make(map[string]*Account)}
}

func cloneAccount(a *Account) *Account {
	c := *a
	if a.ChargedJobs != nil {
		c.ChargedJobs = make(map[string]bool, len(a.ChargedJobs))
		for k, v := range a.ChargedJobs {
			c.ChargedJobs[k] = v
		}
	}
	return &c
}

// Update applies fn atomically to the user's account.
func (s *MemoryStore) Update(_ context.Context, userID string, fn func(*Account) error) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[userID]
	if !ok {
		acct = &Account{}
	}
	work := cloneAccount(acct)
	if err := fn(work); err != nil {
		return nil, err
	}
	s.accounts[userID] = work
	return cloneAccount(work), nil
}

// Get reads the user's account.
func (s *MemoryStore) Get(_ context.Context, userID string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[userID]
	if !ok {
		return &Account{}, nil
	}
	return cloneAccount(acct), nil
}

var _ Store = (*MemoryStore)(nil)
