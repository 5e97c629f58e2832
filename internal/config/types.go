package config

import "time"

// Config is the complete runtime configuration of the bridge. It is built
// once at startup by LoadConfig and passed explicitly to the components that
// need it; nothing else reads the environment.
type Config struct {
	OpenAI     OpenAIConfig     `mapstructure:"openai" yaml:"openai"`
	Transports TransportsConfig `mapstructure:"mcp" yaml:"mcp"`
	Agent      AgentConfig      `mapstructure:"agent" yaml:"agent"`
	Linear     LinearConfig     `mapstructure:"linear" yaml:"linear"`
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
	Verify     VerifyConfig     `mapstructure:"verify" yaml:"verify"`
	Log        LogConfig        `mapstructure:"log" yaml:"log"`
}

// OpenAIConfig configures the reasoning engine backend.
type OpenAIConfig struct {
	APIKey  string        `mapstructure:"api_key" yaml:"api_key"`
	BaseURL string        `mapstructure:"base_url" yaml:"base_url"`
	Model   string        `mapstructure:"model" yaml:"model"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// TransportsConfig holds the raw, comma separated tool-provider lists exactly
// as supplied by the operator. They are parsed by mcpserver.ParseDescriptors.
type TransportsConfig struct {
	// Hosted is a list of label=url pairs executed by the remote backend.
	Hosted string `mapstructure:"hosted" yaml:"hosted"`
	// Streamable is a list of streamable-http endpoint URLs.
	Streamable string `mapstructure:"streamable" yaml:"streamable"`
	// Stdio is a list of command lines spawned as child processes.
	Stdio string `mapstructure:"stdio" yaml:"stdio"`
	// ConnectTimeout bounds each individual connect attempt.
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout"`
	// ConnectConcurrency caps how many transports connect at once.
	ConnectConcurrency int `mapstructure:"connect_concurrency" yaml:"connect_concurrency"`
}

// AgentConfig describes the single agent exposed over /run.
type AgentConfig struct {
	Name         string `mapstructure:"name" yaml:"name"`
	Instructions string `mapstructure:"instructions" yaml:"instructions"`
	MaxTurns     int    `mapstructure:"max_turns" yaml:"max_turns"`
}

// LinearConfig configures the issue-tracker used for verified writes.
type LinearConfig struct {
	APIKey string `mapstructure:"api_key" yaml:"api_key"`
	APIURL string `mapstructure:"api_url" yaml:"api_url"`
	// AuthScheme selects how the credential is presented: "raw" sends it as
	// the Authorization header value, "bearer" sends it as an OAuth token.
	AuthScheme string        `mapstructure:"auth_scheme" yaml:"auth_scheme"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxRetries int           `mapstructure:"max_retries" yaml:"max_retries"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Port            int           `mapstructure:"port" yaml:"port"`
	BodyLimit       string        `mapstructure:"body_limit" yaml:"body_limit"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// VerifyConfig bounds the read-back phase of verified writes.
type VerifyConfig struct {
	Attempts       int           `mapstructure:"attempts" yaml:"attempts"`
	SampleSize     int           `mapstructure:"sample_size" yaml:"sample_size"`
	AttemptTimeout time.Duration `mapstructure:"attempt_timeout" yaml:"attempt_timeout"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff" yaml:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff" yaml:"max_backoff"`
}

// LogConfig configures pkg/logging.
type LogConfig struct {
	Format string `mapstructure:"format" yaml:"format"`
	Debug  bool   `mapstructure:"debug" yaml:"debug"`
}
