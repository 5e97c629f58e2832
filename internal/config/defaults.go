package config

import "time"

const (
	DefaultAgentName         = "Mapache MCP Bridge"
	DefaultAgentInstructions = "Use MCP tools when available. Prefer precise tool calls over guesses."
	DefaultAgentMaxTurns     = 10

	DefaultOpenAIBaseURL    = "https://api.openai.com/v1"
	DefaultOpenAIModel      = "gpt-4.1"
	DefaultOpenAITimeout    = 5 * time.Minute
	DefaultOpenAIMaxRetries = 2

	DefaultConnectTimeout     = 15 * time.Second
	DefaultConnectConcurrency = 4

	DefaultLinearAPIURL     = "https://api.linear.app/graphql"
	DefaultLinearAuthScheme = AuthSchemeRaw
	DefaultLinearTimeout    = 30 * time.Second
	DefaultLinearMaxRetries = 2

	DefaultPort            = 3000
	DefaultBodyLimit       = "4M"
	DefaultShutdownTimeout = 10 * time.Second

	DefaultVerifyAttempts       = 3
	DefaultVerifySampleSize     = 20
	DefaultVerifyAttemptTimeout = 10 * time.Second
	DefaultVerifyInitialBackoff = 250 * time.Millisecond
	DefaultVerifyMaxBackoff     = 2 * time.Second
)

// Credential schemes for LinearConfig.AuthScheme.
const (
	AuthSchemeRaw    = "raw"
	AuthSchemeBearer = "bearer"
)

// GetDefaultConfig returns the configuration used when nothing is set.
func GetDefaultConfig() Config {
	return Config{
		OpenAI: OpenAIConfig{
			BaseURL: DefaultOpenAIBaseURL,
			Model:   DefaultOpenAIModel,
			Timeout: DefaultOpenAITimeout,
		},
		Transports: TransportsConfig{
			ConnectTimeout:     DefaultConnectTimeout,
			ConnectConcurrency: DefaultConnectConcurrency,
		},
		Agent: AgentConfig{
			Name:         DefaultAgentName,
			Instructions: DefaultAgentInstructions,
			MaxTurns:     DefaultAgentMaxTurns,
		},
		Linear: LinearConfig{
			APIURL:     DefaultLinearAPIURL,
			AuthScheme: DefaultLinearAuthScheme,
			Timeout:    DefaultLinearTimeout,
			MaxRetries: DefaultLinearMaxRetries,
		},
		Server: ServerConfig{
			Port:            DefaultPort,
			BodyLimit:       DefaultBodyLimit,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Verify: VerifyConfig{
			Attempts:       DefaultVerifyAttempts,
			SampleSize:     DefaultVerifySampleSize,
			AttemptTimeout: DefaultVerifyAttemptTimeout,
			InitialBackoff: DefaultVerifyInitialBackoff,
			MaxBackoff:     DefaultVerifyMaxBackoff,
		},
		Log: LogConfig{
			Format: "text",
		},
	}
}
