// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers register hooks
// at startup to receive events about enhancement-job lifecycles, upload
// batches, and renders.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, DataDog, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetJobHooks(&myJobHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Jobs().OnSubmit(ctx, jobID, featureKey)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Job Hooks
// =============================================================================

// JobHooks receives events from the enhancement job lifecycle.
type JobHooks interface {
	// OnSubmit records a job submitted to the remote queue.
	OnSubmit(ctx context.Context, jobID, featureKey string)

	// OnPoll records one poll observation, with the status reported to the caller.
	OnPoll(ctx context.Context, jobID, status string, transient bool)

	// OnTerminal records a job reaching a terminal state.
	OnTerminal(ctx context.Context, jobID, status string, duration time.Duration)
}

// =============================================================================
// Persistence Hooks
// =============================================================================

// PersistenceHooks receives events from project saves and uploads.
type PersistenceHooks interface {
	// OnUpload records one object upload.
	OnUpload(ctx context.Context, path string, size int, duration time.Duration, err error)

	// OnSave records a whole project save.
	OnSave(ctx context.Context, projectID string, uploads int, duration time.Duration, err error)
}

// =============================================================================
// Render Hooks
// =============================================================================

// RenderHooks receives events from the compositing renderer.
type RenderHooks interface {
	// OnRender records one composited render.
	OnRender(ctx context.Context, templateID string, slots int, duration time.Duration, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopJobHooks is a no-op implementation of JobHooks.
type NoopJobHooks struct{}

func (NoopJobHooks) OnSubmit(context.Context, string, string)                 {}
func (NoopJobHooks) OnPoll(context.Context, string, string, bool)             {}
func (NoopJobHooks) OnTerminal(context.Context, string, string, time.Duration) {}

// NoopPersistenceHooks is a no-op implementation of PersistenceHooks.
type NoopPersistenceHooks struct{}

func (NoopPersistenceHooks) OnUpload(context.Context, string, int, time.Duration, error)  {}
func (NoopPersistenceHooks) OnSave(context.Context, string, int, time.Duration, error)    {}

// NoopRenderHooks is a no-op implementation of RenderHooks.
type NoopRenderHooks struct{}

func (NoopRenderHooks) OnRender(context.Context, string, int, time.Duration, error) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	jobHooks         JobHooks         = NoopJobHooks{}
	persistenceHooks PersistenceHooks = NoopPersistenceHooks{}
	renderHooks      RenderHooks      = NoopRenderHooks{}
	hooksMu          sync.RWMutex
)

// SetJobHooks registers custom job hooks.
// This should be called once at application startup before any job operations.
func SetJobHooks(h JobHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		jobHooks = h
	}
}

// SetPersistenceHooks registers custom persistence hooks.
// This should be called once at application startup before any saves.
func SetPersistenceHooks(h PersistenceHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		persistenceHooks = h
	}
}

// SetRenderHooks registers custom render hooks.
// This should be called once at application startup before any renders.
func SetRenderHooks(h RenderHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		renderHooks = h
	}
}

// Jobs returns the registered job hooks.
func Jobs() JobHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return jobHooks
}

// Persistence returns the registered persistence hooks.
func Persistence() PersistenceHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return persistenceHooks
}

// Render returns the registered render hooks.
func Render() RenderHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return renderHooks
}
