package aggregator

import (
	"context"
	"sync/atomic"
	"time"

	"mcpbridge/pkg/logging"

	"golang.org/x/sync/singleflight"
)

// LoadFunc produces a fresh registry from scratch. It must not fail; see
// Bootstrapper.Bootstrap.
type LoadFunc func(ctx context.Context) *Registry

// Manager owns the process-wide registry. Readers always see a complete
// registry: a rebootstrap builds the new registry off to the side and swaps
// it in atomically. The replaced registry stays usable by requests that
// acquired it and is closed when the last of them releases it.
type Manager struct {
	current atomic.Pointer[Registry]
	group   singleflight.Group
	load    LoadFunc
	closed  atomic.Bool
}

// NewManager creates a Manager with no registry. The first Acquire or
// Rebootstrap builds one with load.
func NewManager(load LoadFunc) *Manager {
	return &Manager{load: load}
}

// Current returns the current registry or nil if none has been built.
func (m *Manager) Current() *Registry {
	return m.current.Load()
}

// Acquire returns the current registry, bootstrapping synchronously when
// there is none. The caller must call release when done; until then the
// registry's clients stay open even if a rebootstrap replaces it.
//
// After Close, Acquire returns an empty registry and never bootstraps.
func (m *Manager) Acquire(ctx context.Context) (registry *Registry, release func()) {
	for {
		if m.closed.Load() {
			r := emptyRegistry()
			r.acquire()
			return r, r.release
		}
		r := m.current.Load()
		if r == nil {
			logging.Info("Aggregator", "No registry available, bootstrapping")
			r = m.Rebootstrap(ctx)
		}
		if r.acquire() {
			return r, r.release
		}
		// Closed between load and acquire; the replacement is already in
		// place unless the manager was closed.
		if m.current.Load() == r {
			m.current.CompareAndSwap(r, nil)
		}
	}
}

// Rebootstrap builds a new registry and swaps it in. Concurrent calls share
// one bootstrap run. The run is detached from ctx cancellation so that a
// disconnecting caller does not leave other waiters with a partial result.
//
// After Close no transport is connected and the empty registry is returned.
func (m *Manager) Rebootstrap(ctx context.Context) *Registry {
	v, _, _ := m.group.Do("bootstrap", func() (interface{}, error) {
		if m.closed.Load() {
			return emptyRegistry(), nil
		}
		next := m.load(context.WithoutCancel(ctx))
		if m.closed.Load() {
			logging.Debug("Aggregator", "Manager closed during bootstrap, discarding registry")
			next.retire()
			return emptyRegistry(), nil
		}
		if prev := m.current.Swap(next); prev != nil {
			prev.retire()
		}
		// Close ran between the check and the swap.
		if m.closed.Load() && m.current.CompareAndSwap(next, nil) {
			next.retire()
		}
		return next, nil
	})
	return v.(*Registry)
}

// Close retires the current registry and leaves the manager permanently
// empty. Later calls to Acquire and Rebootstrap connect nothing.
func (m *Manager) Close() {
	m.closed.Store(true)
	if prev := m.current.Swap(nil); prev != nil {
		prev.retire()
	}
}

func emptyRegistry() *Registry {
	return newRegistry(nil, nil, nil, time.Now())
}
