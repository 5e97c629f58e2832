package mcpserver

import (
	"context"
	"fmt"
	"net/http"

	"mcpbridge/pkg/logging"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
)

// StreamableHTTPClient implements the MCPClient interface using StreamableHTTP transport.
// It connects to remote MCP servers using HTTP with streaming support.
type StreamableHTTPClient struct {
	baseMCPClient
	descriptor StreamableDescriptor
	headers    map[string]string
	httpClient *http.Client
}

// NewStreamableHTTPClient creates a streamable-http client for d. No network
// traffic happens until Connect is called.
func NewStreamableHTTPClient(d StreamableDescriptor, headers map[string]string, httpClient *http.Client) *StreamableHTTPClient {
	if headers == nil {
		headers = make(map[string]string)
	}
	return &StreamableHTTPClient{
		descriptor: d,
		headers:    headers,
		httpClient: httpClient,
	}
}

func (c *StreamableHTTPClient) Name() string           { return c.descriptor.Name() }
func (c *StreamableHTTPClient) Kind() Kind             { return KindStreamable }
func (c *StreamableHTTPClient) Descriptor() Descriptor { return c.descriptor }

// Connect establishes the session and performs the protocol handshake
func (c *StreamableHTTPClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return nil
	}

	logging.Debug("StreamableHTTPClient", "Creating StreamableHTTP client for URL: %s", c.descriptor.URL)

	var opts []transport.StreamableHTTPCOption
	if len(c.headers) > 0 {
		opts = append(opts, transport.WithHTTPHeaders(c.headers))
	}
	if c.httpClient != nil {
		opts = append(opts, transport.WithHTTPBasicClient(c.httpClient))
	}

	mcpClient, err := client.NewStreamableHttpClient(c.descriptor.URL, opts...)
	if err != nil {
		return connectionError(c, fmt.Errorf("failed to create StreamableHTTP client: %w", err))
	}

	initResult, err := mcpClient.Initialize(ctx, initializeRequest())
	if err != nil {
		mcpClient.Close()
		return connectionError(c, fmt.Errorf("failed to initialize MCP protocol: %w", err))
	}

	c.client = mcpClient
	c.connected = true

	logging.Debug("StreamableHTTPClient", "%s initialized. Server: %s, Version: %s",
		c.Name(), initResult.ServerInfo.Name, initResult.ServerInfo.Version)

	return nil
}

// Close cleanly shuts down the client connection
func (c *StreamableHTTPClient) Close() error {
	return c.closeClient()
}

// ListTools returns all available tools from the server
func (c *StreamableHTTPClient) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	return c.listTools(ctx)
}

// CallTool executes a specific tool and returns the result
func (c *StreamableHTTPClient) CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	return c.callTool(ctx, name, args)
}

// Ping checks if the server is responsive
func (c *StreamableHTTPClient) Ping(ctx context.Context) error {
	return c.ping(ctx)
}
