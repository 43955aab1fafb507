// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about layout computation, rendering, cache operations, and
// size observation.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetLayoutHooks(&myLayoutHooks{})
//	    observability.SetObserverHooks(&myObserverHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Layout().OnLayoutStart(ctx, count)
//	// ... compute ...
//	observability.Layout().OnLayoutComplete(ctx, shape, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Layout Hooks
// =============================================================================

// LayoutHooks receives events from the layout/render pipeline.
type LayoutHooks interface {
	// Layout events
	OnLayoutStart(ctx context.Context, count int)
	OnLayoutComplete(ctx context.Context, shape string, duration time.Duration, err error)

	// Render events
	OnRenderStart(ctx context.Context, formats []string)
	OnRenderComplete(ctx context.Context, formats []string, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// Observer Hooks
// =============================================================================

// ObserverHooks receives events from size observers.
type ObserverHooks interface {
	// OnRecompute records a layout recomputation triggered by a size or
	// participant change.
	OnRecompute(seq uint64, count int, width, height float64)

	// OnSubscribe and OnUnsubscribe track live subscriptions.
	OnSubscribe(id string)
	OnUnsubscribe(id string)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopLayoutHooks is a no-op implementation of LayoutHooks.
type NoopLayoutHooks struct{}

func (NoopLayoutHooks) OnLayoutStart(context.Context, int)                               {}
func (NoopLayoutHooks) OnLayoutComplete(context.Context, string, time.Duration, error)   {}
func (NoopLayoutHooks) OnRenderStart(context.Context, []string)                          {}
func (NoopLayoutHooks) OnRenderComplete(context.Context, []string, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopObserverHooks is a no-op implementation of ObserverHooks.
type NoopObserverHooks struct{}

func (NoopObserverHooks) OnRecompute(uint64, int, float64, float64) {}
func (NoopObserverHooks) OnSubscribe(string)                        {}
func (NoopObserverHooks) OnUnsubscribe(string)                      {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	layoutHooks   LayoutHooks   = NoopLayoutHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	observerHooks ObserverHooks = NoopObserverHooks{}
	hooksMu       sync.RWMutex
)

// SetLayoutHooks registers custom layout hooks.
// This should be called once at application startup before any pipeline operations.
func SetLayoutHooks(h LayoutHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		layoutHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetObserverHooks registers custom observer hooks.
func SetObserverHooks(h ObserverHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		observerHooks = h
	}
}

// Layout returns the registered layout hooks.
func Layout() LayoutHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return layoutHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Observer returns the registered observer hooks.
func Observer() ObserverHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return observerHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	layoutHooks = NoopLayoutHooks{}
	cacheHooks = NoopCacheHooks{}
	observerHooks = NoopObserverHooks{}
}
