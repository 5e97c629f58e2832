package app

import (
	"mcpbridge/internal/config"
)

// Config holds the command line settings that control how the bridge is
// bootstrapped. Everything else comes from the configuration file and the
// environment through config.LoadConfig.
type Config struct {
	// Debug enables debug level logging regardless of the loaded
	// configuration.
	Debug bool

	// Silent discards all log output. Used by one-shot commands whose
	// stdout is the product.
	Silent bool

	// ConfigPath points to an optional YAML configuration file. When set,
	// the serve command watches it and rebootstraps the transports after
	// it changes.
	ConfigPath string

	// Bridge is the loaded configuration. It is populated by NewApplication.
	Bridge *config.Config
}

// NewConfig creates a new application configuration.
func NewConfig(debug, silent bool, configPath string) *Config {
	return &Config{
		Debug:      debug,
		Silent:     silent,
		ConfigPath: configPath,
	}
}
