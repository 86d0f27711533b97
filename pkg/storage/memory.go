package storage

import (
	"context"
	"sync"

	"github.com/jackhunterking/beautycanvas/pkg/errors"
)

// Memory is an in-process uploader for tests. It records every upload and
// counts calls per path so tests can assert upload deduplication.
type Memory struct {
	mu      sync.Mutex
	baseURL string
	objects map[string][]byte
	calls   map[string]int
}

// NewMemory creates a memory uploader serving objects under baseURL.
func NewMemory(baseURL string) *Memory {
	return &Memory{
		baseURL: baseURL,
		objects: make(map[string][]byte),
		calls:   make(map[string]int),
	}
}

// Upload stores data under path and returns baseURL/path.
func (m *Memory) Upload(_ context.Context, data []byte, path string) (string, error) {
	if err := errors.ValidateStoragePath(path); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.objects[path] = append([]byte(nil), data...)
	m.calls[path]++
	return m.baseURL + "/" + path, nil
}

// Object returns the stored bytes for a path.
func (m *Memory) Object(path string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[path]
	return b, ok
}

// UploadCount returns the total number of Upload calls across all paths.
func (m *Memory) UploadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}

var _ Uploader = (*Memory)(nil)
