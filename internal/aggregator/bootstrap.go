package aggregator

import (
	"context"
	"fmt"
	"time"

	"mcpbridge/internal/config"
	"mcpbridge/internal/mcpserver"
	"mcpbridge/internal/metrics"
	"mcpbridge/pkg/logging"

	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/sync/errgroup"
)

// ClientBuilder builds a client from a descriptor without performing I/O.
// *mcpserver.Factory implements it.
type ClientBuilder interface {
	Build(d mcpserver.Descriptor) (mcpserver.MCPClient, error)
}

// BootstrapOptions configures a Bootstrapper.
type BootstrapOptions struct {
	// ConnectTimeout bounds each transport's connect and tool listing.
	ConnectTimeout time.Duration
	// Concurrency limits parallel connects. Zero or less means unlimited.
	Concurrency int
	Metrics     *metrics.Metrics
}

// Bootstrapper connects every non-hosted transport once and assembles a
// Registry. A transport that fails to build, connect, or list its tools is
// recorded as failed; it never stops the other transports.
type Bootstrapper struct {
	builder ClientBuilder
	opts    BootstrapOptions
	now     func() time.Time
}

// NewBootstrapper creates a Bootstrapper that builds clients with builder.
func NewBootstrapper(builder ClientBuilder, opts BootstrapOptions) *Bootstrapper {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = config.DefaultConnectTimeout
	}
	return &Bootstrapper{builder: builder, opts: opts, now: time.Now}
}

type connectResult struct {
	state  ConnectionState
	client mcpserver.MCPClient
	tools  []mcp.Tool
}

// Bootstrap connects all transports in set and returns the resulting
// registry. It never fails: per-transport errors are recorded in the
// registry's connection states and configErrs are carried into its
// diagnostics. Canceling ctx fails the transports still connecting.
func (b *Bootstrapper) Bootstrap(ctx context.Context, set mcpserver.DescriptorSet, configErrs *config.ConfigurationErrorCollection) *Registry {
	descriptors := set.Connectable()
	results := make([]connectResult, len(descriptors))

	logging.Info("Bootstrap", "Bootstrapping %d hosted and %d connectable transports", len(set.Hosted), len(descriptors))

	var g errgroup.Group
	if b.opts.Concurrency > 0 {
		g.SetLimit(b.opts.Concurrency)
	}
	for i, d := range descriptors {
		g.Go(func() error {
			// Each goroutine owns results[i]; the order of completion does
			// not affect the final state set.
			results[i] = b.connect(ctx, d)
			return nil
		})
	}
	_ = g.Wait()

	var messages []string
	if configErrs != nil {
		for _, e := range configErrs.Errors {
			messages = append(messages, e.Error())
		}
	}

	registry := newRegistry(set.Hosted, results, messages, b.now())
	snap := registry.Snapshot()
	b.opts.Metrics.RecordBootstrap(snap.Connected, snap.Failed)

	logging.Info("Bootstrap", "Bootstrap complete: %d connected, %d failed, %d hosted, %d tools",
		snap.Connected, snap.Failed, len(set.Hosted), len(registry.tools))
	return registry
}

// connect runs the full connect sequence for one transport.
func (b *Bootstrapper) connect(ctx context.Context, d mcpserver.Descriptor) (res connectResult) {
	res.state = ConnectionState{
		Name:    d.Name(),
		Kind:    d.Kind(),
		Locator: d.Locator(),
		Status:  StatusPending,
	}

	defer func() {
		if r := recover(); r != nil {
			res.fail(fmt.Errorf("panic during connect: %v", r))
		}
		if res.state.Status == StatusFailed {
			logging.Warn("Bootstrap", "Transport %s (%s) failed: %s", res.state.Name, res.state.Kind, res.state.Error)
		}
		b.opts.Metrics.RecordConnect(string(res.state.Kind), string(res.state.Status))
	}()

	client, err := b.builder.Build(d)
	if err != nil {
		res.fail(err)
		return res
	}
	res.client = client

	connectCtx, cancel := context.WithTimeout(ctx, b.opts.ConnectTimeout)
	defer cancel()

	if err := client.Connect(connectCtx); err != nil {
		res.fail(err)
		return res
	}

	tools, err := client.ListTools(connectCtx)
	if err != nil {
		res.fail(&mcpserver.ConnectionError{Name: d.Name(), Kind: d.Kind(), Err: err})
		return res
	}

	now := b.now()
	res.tools = tools
	res.state.Status = StatusConnected
	res.state.ToolCount = len(tools)
	res.state.ConnectedAt = &now

	logging.Info("Bootstrap", "Connected %s (%s) with %d tools", d.Name(), d.Kind(), len(tools))
	return res
}

// fail marks the result failed and releases any client.
func (res *connectResult) fail(err error) {
	if res.client != nil {
		if closeErr := res.client.Close(); closeErr != nil {
			logging.Debug("Bootstrap", "Error closing failed transport %s: %v", res.state.Name, closeErr)
		}
		res.client = nil
	}
	res.tools = nil
	res.state.Status = StatusFailed
	res.state.Error = err.Error()
}
