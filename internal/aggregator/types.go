package aggregator

import (
	"time"

	"mcpbridge/internal/mcpserver"

	"github.com/mark3labs/mcp-go/mcp"
)

// Status is the connection status of a non-hosted transport.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConnected Status = "connected"
	StatusFailed    Status = "failed"
)

// ConnectionState is the per-transport outcome of one bootstrap run.
// Error is set if and only if Status is StatusFailed.
type ConnectionState struct {
	Name        string         `json:"name"`
	Kind        mcpserver.Kind `json:"kind"`
	Locator     string         `json:"locator"`
	Status      Status         `json:"status"`
	Error       string         `json:"error,omitempty"`
	ToolCount   int            `json:"toolCount"`
	ConnectedAt *time.Time     `json:"connectedAt,omitempty"`
}

// PingResult is the outcome of pinging one connected transport.
type PingResult struct {
	Name      string         `json:"name"`
	Kind      mcpserver.Kind `json:"kind"`
	OK        bool           `json:"ok"`
	LatencyMs int64          `json:"latencyMs"`
	Error     string         `json:"error,omitempty"`
}

// HostedInfo is the diagnostics view of a hosted descriptor. Hosted
// providers are executed by the reasoning backend and are always available.
type HostedInfo struct {
	Label string         `json:"label"`
	URL   string         `json:"url"`
	Kind  mcpserver.Kind `json:"kind"`
}

// ExposedTool is a tool of a connected transport as offered to the
// reasoning engine.
type ExposedTool struct {
	// Name is the server-prefixed name the backend calls the tool by.
	Name   string
	Server string
	Tool   mcp.Tool
}

// Snapshot is the diagnostics view of a Registry.
type Snapshot struct {
	Hosted []HostedInfo `json:"hosted"`
	// Streamable lists every non-hosted transport, streamable-http and stdio.
	Streamable     []ConnectionState `json:"streamable"`
	Count          int               `json:"count"`
	Connected      int               `json:"connected"`
	Failed         int               `json:"failed"`
	ConfigErrors   []string          `json:"configErrors"`
	BootstrappedAt time.Time         `json:"bootstrappedAt"`
}
