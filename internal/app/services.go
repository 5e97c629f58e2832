package app

import (
	"context"
	"fmt"
	"sync/atomic"

	"mcpbridge/internal/agent"
	"mcpbridge/internal/aggregator"
	"mcpbridge/internal/config"
	"mcpbridge/internal/linear"
	"mcpbridge/internal/mcpserver"
	"mcpbridge/internal/metrics"
	"mcpbridge/internal/mutation"
	"mcpbridge/internal/server"
	"mcpbridge/pkg/logging"
)

// transportKeys are the configuration keys of the three transport lists.
var transportKeys = []string{"mcp.hosted", "mcp.streamable", "mcp.stdio"}

// Services holds the components of a running bridge.
//
// The transport lists are the only part of the configuration that can change
// at runtime. They are kept behind an atomic pointer read by every bootstrap,
// so a reload followed by Manager.Rebootstrap picks up the new lists while
// requests keep using the previous registry until it is swapped.
type Services struct {
	Metrics  *metrics.Metrics
	Manager  *aggregator.Manager
	Linear   *linear.Client
	Verifier *mutation.Verifier
	Engine   agent.Engine
	Server   *server.Server

	factory    *mcpserver.Factory
	transports atomic.Pointer[config.TransportsConfig]
}

// InitializeServices wires every component from cfg. No transport is
// contacted here; the first bootstrap happens on serve startup or on the
// first request that needs the registry.
func InitializeServices(cfg config.Config) *Services {
	s := &Services{
		Metrics: metrics.New(),
		factory: mcpserver.NewFactory(mcpserver.ClientOptions{}),
	}
	transports := cfg.Transports
	s.transports.Store(&transports)

	s.Manager = aggregator.NewManager(s.load)
	s.Linear = linear.NewClient(cfg.Linear)
	s.Verifier = mutation.NewVerifier(s.Linear, mutation.OptionsFromConfig(cfg.Verify, s.Metrics))
	s.Engine = agent.NewOpenAI(agent.OptionsFromConfig(cfg, s.Metrics))

	s.Server = server.New(server.Options{
		AgentName:     cfg.Agent.Name,
		BodyLimit:     cfg.Server.BodyLimit,
		Manager:       s.Manager,
		Engine:        s.Engine,
		Verifier:      s.Verifier,
		Comments:      s.Linear,
		CommentsLimit: cfg.Verify.SampleSize,
		Metrics:       s.Metrics,
	})

	logging.Debug("Services", "Services initialized for agent %q", cfg.Agent.Name)
	return s
}

// CheckTransports parses the current transport lists without connecting
// anything and returns the rejected entries, or nil when every entry is valid.
func (s *Services) CheckTransports() error {
	_, configErrs := mcpserver.ParseDescriptors(s.Transports())
	if configErrs.HasErrors() {
		return configErrs
	}
	return nil
}

// Transports returns the transport lists used by the next bootstrap.
func (s *Services) Transports() config.TransportsConfig {
	return *s.transports.Load()
}

// Reload re-reads the configuration at path and rebootstraps when the
// transport lists changed. A configuration that fails to load leaves the
// current registry untouched. Settings outside the transport lists are only
// applied on restart.
func (s *Services) Reload(ctx context.Context, path string) error {
	next, err := config.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("failed to reload configuration: %w", err)
	}

	if s.Transports() == next.Transports {
		logging.Debug("Services", "Configuration changed but transports are unchanged, keeping current registry")
		return nil
	}

	transports := next.Transports
	s.transports.Store(&transports)
	logging.Info("Services", "Transport configuration changed, rebootstrapping")
	s.Manager.Rebootstrap(ctx)
	return nil
}

// Close releases every open transport.
func (s *Services) Close() {
	s.Manager.Close()
}

// load is the aggregator.LoadFunc of the manager: parse the current lists
// and connect every transport once.
func (s *Services) load(ctx context.Context) *aggregator.Registry {
	transports := s.Transports()
	set, configErrs := mcpserver.ParseDescriptors(transports)
	if configErrs.HasErrors() {
		logging.Warn("Services", "%s", configErrs.GetSummary())
	}
	for _, key := range transportKeys {
		source := config.EnvVar(key)
		s.Metrics.RecordRejectedEntries(source, len(configErrs.GetErrorsBySource(source)))
	}

	bootstrapper := aggregator.NewBootstrapper(s.factory, aggregator.BootstrapOptions{
		ConnectTimeout: transports.ConnectTimeout,
		Concurrency:    transports.ConnectConcurrency,
		Metrics:        s.Metrics,
	})
	return bootstrapper.Bootstrap(ctx, set, configErrs)
}
