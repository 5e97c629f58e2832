package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"mcpbridge/internal/aggregator"
	"mcpbridge/internal/config"
	"mcpbridge/pkg/logging"
)

// Application is the bridge process: its configuration and the services
// built from it.
//
// The Application follows a two-phase initialization pattern:
//  1. Bootstrap phase: load configuration, initialize logging, wire services
//  2. Execution phase: serve HTTP, or answer a one-shot command
//
// Example usage:
//
//	cfg := app.NewConfig(false, false, "/etc/mcpbridge/config.yaml")
//	application, err := app.NewApplication(cfg)
//	if err != nil {
//	    return fmt.Errorf("failed to create application: %w", err)
//	}
//	return application.Run(ctx)
type Application struct {
	config   *Config
	services *Services
}

// NewApplication loads the configuration, initializes logging and wires the
// services. No transport is contacted yet.
func NewApplication(cfg *Config) (*Application, error) {
	var logOutput io.Writer = os.Stderr
	if cfg.Silent {
		logOutput = io.Discard
	}
	logging.InitForCLI(logLevel(cfg.Debug), logOutput)

	bridgeCfg, err := config.LoadConfig(cfg.ConfigPath)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to load configuration")
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg.Bridge = &bridgeCfg

	// Re-initialize now that the configured format and level are known.
	logging.Init(logLevel(cfg.Debug || bridgeCfg.Log.Debug), logging.ParseFormat(bridgeCfg.Log.Format), logOutput)

	if bridgeCfg.OpenAI.APIKey == "" {
		logging.Warn("Bootstrap", "%s is not set; /run will fail until it is", config.EnvVar("openai.api_key"))
	}
	if bridgeCfg.Linear.APIKey == "" {
		logging.Warn("Bootstrap", "%s is not set; Linear endpoints will fail until it is", config.EnvVar("linear.api_key"))
	}

	return &Application{
		config:   cfg,
		services: InitializeServices(bridgeCfg),
	}, nil
}

// Run serves the HTTP surface until the process is signaled or ctx is done.
func (a *Application) Run(ctx context.Context) error {
	return runServe(ctx, a.config, a.services)
}

// Registry bootstraps the transports once and returns the resulting
// registry. Call Close when done with it.
func (a *Application) Registry(ctx context.Context) *aggregator.Registry {
	return a.services.Manager.Rebootstrap(ctx)
}

// Services exposes the wired components.
func (a *Application) Services() *Services {
	return a.services
}

// Close releases every open transport.
func (a *Application) Close() {
	a.services.Close()
}

func logLevel(debug bool) logging.LogLevel {
	if debug {
		return logging.LevelDebug
	}
	return logging.LevelInfo
}
