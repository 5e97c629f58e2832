package config

import (
	"fmt"
	"strings"

	"mcpbridge/pkg/logging"

	"github.com/spf13/viper"
)

// envBindings maps configuration keys to the environment variables that set
// them. The variable names are the public configuration surface of the bridge.
var envBindings = map[string]string{
	"openai.api_key":          "OPENAI_API_KEY",
	"openai.base_url":         "OPENAI_BASE_URL",
	"openai.model":            "OPENAI_MODEL",
	"openai.timeout":          "OPENAI_TIMEOUT",
	"mcp.hosted":              "MCP_HOSTED_LABELS_URLS",
	"mcp.streamable":          "MCP_STREAMABLE_URLS",
	"mcp.stdio":               "MCP_STDIO_COMMANDS",
	"mcp.connect_timeout":     "MCP_CONNECT_TIMEOUT",
	"mcp.connect_concurrency": "MCP_CONNECT_CONCURRENCY",
	"agent.name":              "AGENT_NAME",
	"agent.instructions":      "AGENT_INSTRUCTIONS",
	"agent.max_turns":         "AGENT_MAX_TURNS",
	"linear.api_key":          "LINEAR_API_KEY",
	"linear.api_url":          "LINEAR_API_URL",
	"linear.auth_scheme":      "LINEAR_AUTH_SCHEME",
	"linear.timeout":          "LINEAR_TIMEOUT",
	"linear.max_retries":      "LINEAR_MAX_RETRIES",
	"server.port":             "PORT",
	"server.body_limit":       "BODY_LIMIT",
	"server.shutdown_timeout": "SHUTDOWN_TIMEOUT",
	"verify.attempts":         "VERIFY_ATTEMPTS",
	"verify.sample_size":      "VERIFY_SAMPLE_SIZE",
	"verify.attempt_timeout":  "VERIFY_ATTEMPT_TIMEOUT",
	"verify.initial_backoff":  "VERIFY_INITIAL_BACKOFF",
	"verify.max_backoff":      "VERIFY_MAX_BACKOFF",
	"log.format":              "LOG_FORMAT",
	"log.debug":               "DEBUG",
}

// EnvVar returns the environment variable bound to a configuration key.
func EnvVar(key string) string {
	return envBindings[key]
}

// LoadConfig builds the configuration from defaults, an optional config file
// and the environment, in increasing order of precedence.
//
// An empty path means no file is read. A non-empty path that cannot be read
// or parsed is an error.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("failed to bind %s to %s: %w", key, env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if !strings.Contains(path, ".") {
			v.SetConfigType("yaml")
		}
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("error loading config from %s: %w", path, err)
		}
		logging.Info("ConfigLoader", "Loaded configuration from %s", path)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode configuration: %w", err)
	}

	cfg = cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := GetDefaultConfig()

	v.SetDefault("openai.base_url", d.OpenAI.BaseURL)
	v.SetDefault("openai.model", d.OpenAI.Model)
	v.SetDefault("openai.timeout", d.OpenAI.Timeout)

	v.SetDefault("mcp.hosted", "")
	v.SetDefault("mcp.streamable", "")
	v.SetDefault("mcp.stdio", "")
	v.SetDefault("mcp.connect_timeout", d.Transports.ConnectTimeout)
	v.SetDefault("mcp.connect_concurrency", d.Transports.ConnectConcurrency)

	v.SetDefault("agent.name", d.Agent.Name)
	v.SetDefault("agent.instructions", d.Agent.Instructions)
	v.SetDefault("agent.max_turns", d.Agent.MaxTurns)

	v.SetDefault("linear.api_key", "")
	v.SetDefault("linear.api_url", d.Linear.APIURL)
	v.SetDefault("linear.auth_scheme", d.Linear.AuthScheme)
	v.SetDefault("linear.timeout", d.Linear.Timeout)
	v.SetDefault("linear.max_retries", d.Linear.MaxRetries)

	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.body_limit", d.Server.BodyLimit)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)

	v.SetDefault("verify.attempts", d.Verify.Attempts)
	v.SetDefault("verify.sample_size", d.Verify.SampleSize)
	v.SetDefault("verify.attempt_timeout", d.Verify.AttemptTimeout)
	v.SetDefault("verify.initial_backoff", d.Verify.InitialBackoff)
	v.SetDefault("verify.max_backoff", d.Verify.MaxBackoff)

	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.debug", d.Log.Debug)
}
