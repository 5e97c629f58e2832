package aggregator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"mcpbridge/internal/mcpserver"
	"mcpbridge/pkg/logging"

	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/sync/errgroup"
)

// Registry is the read-only result of one bootstrap run: the hosted
// descriptors, the state of every non-hosted transport, and the connected
// clients with their tools.
//
// A Registry is never mutated after Bootstrap returns it. Rebootstrapping
// produces a new Registry; the previous one stays usable until Close.
type Registry struct {
	hosted         []mcpserver.HostedDescriptor
	states         []ConnectionState
	clients        map[string]mcpserver.MCPClient
	tools          []ExposedTool
	configErrors   []string
	bootstrappedAt time.Time

	nameTracker *NameTracker

	// Leases keep clients open while requests use a retired registry.
	leaseMu sync.Mutex
	leases  int
	retired bool
	closed  bool
}

// newRegistry assembles a registry from per-transport results. results must
// be in declaration order.
func newRegistry(hosted []mcpserver.HostedDescriptor, results []connectResult, configErrors []string, at time.Time) *Registry {
	r := &Registry{
		hosted:         hosted,
		states:         make([]ConnectionState, 0, len(results)),
		clients:        make(map[string]mcpserver.MCPClient),
		configErrors:   configErrors,
		bootstrappedAt: at,
		nameTracker:    NewNameTracker(),
	}

	for _, res := range results {
		r.states = append(r.states, res.state)
		if res.state.Status != StatusConnected {
			continue
		}
		r.clients[res.state.Name] = res.client
		for _, tool := range res.tools {
			r.tools = append(r.tools, ExposedTool{
				Name:   r.nameTracker.GetExposedToolName(res.state.Name, tool.Name),
				Server: res.state.Name,
				Tool:   tool,
			})
		}
	}
	return r
}

// Hosted returns the hosted descriptors in declaration order.
func (r *Registry) Hosted() []mcpserver.HostedDescriptor {
	return append([]mcpserver.HostedDescriptor(nil), r.hosted...)
}

// States returns the connection state of every non-hosted transport in
// declaration order.
func (r *Registry) States() []ConnectionState {
	return append([]ConnectionState(nil), r.states...)
}

// Tools returns the tools of all connected transports.
func (r *Registry) Tools() []ExposedTool {
	return append([]ExposedTool(nil), r.tools...)
}

// Client returns the connected client for name.
func (r *Registry) Client(name string) (mcpserver.MCPClient, bool) {
	c, ok := r.clients[name]
	return c, ok
}

// Connected returns the number of connected transports.
func (r *Registry) Connected() int {
	return len(r.clients)
}

// Count is the number of usable providers: every hosted descriptor plus
// every connected transport.
func (r *Registry) Count() int {
	return len(r.hosted) + len(r.clients)
}

// BootstrappedAt is when the bootstrap run that produced r finished.
func (r *Registry) BootstrappedAt() time.Time {
	return r.bootstrappedAt
}

// CallTool calls the tool exposed as exposedName on its owning transport.
// It returns the owning server and original tool name alongside the result.
func (r *Registry) CallTool(ctx context.Context, exposedName string, args map[string]interface{}) (server, tool string, result *mcp.CallToolResult, err error) {
	server, tool, err = r.nameTracker.ResolveName(exposedName)
	if err != nil {
		return "", "", nil, err
	}

	client, ok := r.clients[server]
	if !ok {
		return server, tool, nil, fmt.Errorf("transport %s is not connected", server)
	}

	logging.Debug("Aggregator", "Calling %s on %s (exposed as %s)", tool, server, exposedName)
	result, err = client.CallTool(ctx, tool, args)
	return server, tool, result, err
}

// Ping checks every connected transport concurrently, each bounded by
// timeout. Results follow declaration order. Failed transports are not
// pinged; a failing ping does not change the registry.
func (r *Registry) Ping(ctx context.Context, timeout time.Duration) []PingResult {
	results := make([]PingResult, 0, len(r.clients))
	for _, st := range r.states {
		if st.Status == StatusConnected {
			results = append(results, PingResult{Name: st.Name, Kind: st.Kind})
		}
	}

	var g errgroup.Group
	for i := range results {
		res := &results[i]
		client := r.clients[res.Name]
		g.Go(func() error {
			pingCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			start := time.Now()
			err := client.Ping(pingCtx)
			res.LatencyMs = time.Since(start).Milliseconds()
			if err != nil {
				logging.Debug("Aggregator", "Ping %s failed: %v", res.Name, err)
				res.Error = err.Error()
				return nil
			}
			res.OK = true
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Snapshot returns the diagnostics view of r.
func (r *Registry) Snapshot() Snapshot {
	s := Snapshot{
		Hosted:         make([]HostedInfo, 0, len(r.hosted)),
		Streamable:     append([]ConnectionState{}, r.states...),
		Count:          r.Count(),
		Connected:      r.Connected(),
		ConfigErrors:   append([]string{}, r.configErrors...),
		BootstrappedAt: r.bootstrappedAt,
	}
	for _, h := range r.hosted {
		s.Hosted = append(s.Hosted, HostedInfo{Label: h.Label, URL: h.URL, Kind: mcpserver.KindHosted})
	}
	for _, st := range r.states {
		if st.Status == StatusFailed {
			s.Failed++
		}
	}
	return s
}

// acquire takes a lease. It fails once the registry has been closed.
func (r *Registry) acquire() bool {
	r.leaseMu.Lock()
	defer r.leaseMu.Unlock()
	if r.closed {
		return false
	}
	r.leases++
	return true
}

// release returns a lease, closing a retired registry when its last lease
// is returned.
func (r *Registry) release() {
	r.leaseMu.Lock()
	r.leases--
	closeNow := r.retired && r.leases == 0 && !r.closed
	if closeNow {
		r.closed = true
	}
	r.leaseMu.Unlock()

	if closeNow {
		_ = r.closeClients()
	}
}

// retire marks the registry replaced. Its clients are closed as soon as no
// leases are outstanding.
func (r *Registry) retire() {
	r.leaseMu.Lock()
	r.retired = true
	closeNow := r.leases == 0 && !r.closed
	if closeNow {
		r.closed = true
	}
	r.leaseMu.Unlock()

	if closeNow {
		_ = r.closeClients()
	}
}

// Close closes every connected client regardless of outstanding leases.
// It is safe to call more than once.
func (r *Registry) Close() error {
	r.leaseMu.Lock()
	if r.closed {
		r.leaseMu.Unlock()
		return nil
	}
	r.closed = true
	r.leaseMu.Unlock()

	return r.closeClients()
}

func (r *Registry) closeClients() error {
	var errs []error
	for name, c := range r.clients {
		if err := c.Close(); err != nil {
			logging.Warn("Aggregator", "Error closing transport %s: %v", name, err)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
