package agent

import (
	"context"
	"errors"

	"mcpbridge/internal/aggregator"
	"mcpbridge/internal/mcpserver"

	"github.com/mark3labs/mcp-go/mcp"
)

// ErrMissingAPIKey is returned by Run when no backend credential is set.
var ErrMissingAPIKey = errors.New("OPENAI_API_KEY not set")

// Toolset is the view of the tool registry used by the engine.
// *aggregator.Registry implements it.
type Toolset interface {
	Hosted() []mcpserver.HostedDescriptor
	Tools() []aggregator.ExposedTool
	CallTool(ctx context.Context, exposedName string, args map[string]interface{}) (server, tool string, result *mcp.CallToolResult, err error)
}

// Engine runs a single prompt to completion.
type Engine interface {
	Run(ctx context.Context, prompt string, tools Toolset) (*Result, error)
}

// Result is the final answer of a run.
type Result struct {
	Output     string      `json:"output"`
	ToolEvents []ToolEvent `json:"toolEvents"`
	Citations  []Citation  `json:"citations"`
}

// Tool event types.
const (
	// EventHostedCall is a call the backend made to a hosted MCP server.
	EventHostedCall = "mcp_call"
	// EventLocalCall is a call the bridge made to a connected transport.
	EventLocalCall = "function_call"
)

// ToolEvent records one tool call made during a run.
type ToolEvent struct {
	Type      string `json:"type"`
	Server    string `json:"server"`
	Tool      string `json:"tool"`
	Arguments string `json:"arguments,omitempty"`
	Output    string `json:"output,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Citation is a URL the backend cited in its answer.
type Citation struct {
	URL        string `json:"url"`
	Title      string `json:"title,omitempty"`
	StartIndex int    `json:"startIndex"`
	EndIndex   int    `json:"endIndex"`
}

// ProviderError is an error response from the backend.
type ProviderError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *ProviderError) Error() string {
	if e.Type != "" {
		return "openai: " + e.Type + ": " + e.Message
	}
	return "openai: " + e.Message
}
