// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about classification, tree expansion, popups, snapshot
// storage, and dump server requests.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Dump hooks take no context: classification and expansion run
// synchronously inside an activation event and never block.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetDumpHooks(&myDumpHooks{})
//	    observability.SetStoreHooks(&myStoreHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Dump().OnExpand(kindName, len(children), time.Since(start))
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Dump Hooks
// =============================================================================

// PopupEvent identifies a transition of the transient popup.
type PopupEvent string

// Popup lifecycle events.
const (
	PopupShown    PopupEvent = "shown"
	PopupReplaced PopupEvent = "replaced"
	PopupDisposed PopupEvent = "disposed"
)

// DumpHooks receives events from the dump tree.
type DumpHooks interface {
	// OnClassify records a value resolved to a kind.
	OnClassify(kind string)

	// OnExpand records the first expansion of a container node.
	// Re-expansions served from the cache are not reported.
	OnExpand(kind string, children int, duration time.Duration)

	// OnPopup records a popup lifecycle transition.
	OnPopup(event PopupEvent)
}

// =============================================================================
// Store Hooks
// =============================================================================

// StoreHooks receives events from snapshot store operations.
type StoreHooks interface {
	// OnSave records a snapshot write.
	OnSave(ctx context.Context, backend string, size int, err error)

	// OnLoad records a snapshot read.
	OnLoad(ctx context.Context, backend string, found bool, err error)

	// OnDelete records a snapshot removal.
	OnDelete(ctx context.Context, backend string, err error)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the dump server.
type HTTPHooks interface {
	// OnRequest records an incoming HTTP request.
	OnRequest(ctx context.Context, method, route string)

	// OnResponse records a completed HTTP response.
	OnResponse(ctx context.Context, method, route string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopDumpHooks is a no-op implementation of DumpHooks.
type NoopDumpHooks struct{}

func (NoopDumpHooks) OnClassify(string)                   {}
func (NoopDumpHooks) OnExpand(string, int, time.Duration) {}
func (NoopDumpHooks) OnPopup(PopupEvent)                  {}

// NoopStoreHooks is a no-op implementation of StoreHooks.
type NoopStoreHooks struct{}

func (NoopStoreHooks) OnSave(context.Context, string, int, error)  {}
func (NoopStoreHooks) OnLoad(context.Context, string, bool, error) {}
func (NoopStoreHooks) OnDelete(context.Context, string, error)     {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	dumpHooks  DumpHooks  = NoopDumpHooks{}
	storeHooks StoreHooks = NoopStoreHooks{}
	httpHooks  HTTPHooks  = NoopHTTPHooks{}
	hooksMu    sync.RWMutex
)

// SetDumpHooks registers custom dump hooks.
// This should be called once at application startup before any dumps are built.
func SetDumpHooks(h DumpHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		dumpHooks = h
	}
}

// SetStoreHooks registers custom store hooks.
// This should be called once at application startup before any store operations.
func SetStoreHooks(h StoreHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storeHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before the server starts.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Dump returns the registered dump hooks.
func Dump() DumpHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return dumpHooks
}

// Store returns the registered store hooks.
func Store() StoreHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storeHooks
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
	dumpHooks = NoopDumpHooks{}
	storeHooks = NoopStoreHooks{}
	httpHooks = NoopHTTPHooks{}
}
