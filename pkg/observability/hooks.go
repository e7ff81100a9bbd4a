// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about runs, registry lookups, cache operations, and HTTP calls.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Tracing is separate: [Setup] installs an OpenTelemetry tracer provider when
// TYPESCOUT_OTEL_ENDPOINT is set, and [StartSpan] creates spans against the
// global provider (a no-op when tracing is disabled).
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetRunHooks(&myRunHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Run().OnStageStart(ctx, "verify")
//	// ... do work ...
//	observability.Run().OnStageComplete(ctx, "verify", duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Run Hooks
// =============================================================================

// RunHooks receives events from the check/install engine.
type RunHooks interface {
	// Stage events (manifest, candidates, verify, select, install)
	OnStageStart(ctx context.Context, stage string)
	OnStageComplete(ctx context.Context, stage string, duration time.Duration, err error)

	// OnLookup records one registry existence query.
	OnLookup(ctx context.Context, name string, found bool, duration time.Duration, err error)

	// OnInstall records the package manager invocation.
	OnInstall(ctx context.Context, manager string, count int, duration time.Duration, err error)
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
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopRunHooks is a no-op implementation of RunHooks.
type NoopRunHooks struct{}

func (NoopRunHooks) OnStageStart(context.Context, string)                          {}
func (NoopRunHooks) OnStageComplete(context.Context, string, time.Duration, error) {}
func (NoopRunHooks) OnLookup(context.Context, string, bool, time.Duration, error)  {}
func (NoopRunHooks) OnInstall(context.Context, string, int, time.Duration, error)  {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	runHooks   RunHooks   = NoopRunHooks{}
	cacheHooks CacheHooks = NoopCacheHooks{}
	httpHooks  HTTPHooks  = NoopHTTPHooks{}
	hooksMu    sync.RWMutex
)

// SetRunHooks registers custom run hooks.
// This should be called once at application startup before any run starts.
func SetRunHooks(h RunHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		runHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Run returns the registered run hooks.
func Run() RunHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return runHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	runHooks = NoopRunHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
