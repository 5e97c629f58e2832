package mcpserver

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"mcpbridge/pkg/logging"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

// DefaultStdioInitTimeout is the default timeout for stdio client initialization.
// This covers the time needed to start the subprocess and complete the MCP handshake.
const DefaultStdioInitTimeout = 10 * time.Second

// StdioClient implements the MCPClient interface using stdio transport.
// It manages a local subprocess that communicates via stdin/stdout.
type StdioClient struct {
	baseMCPClient
	descriptor StdioDescriptor
	env        map[string]string
}

// NewStdioClient creates a stdio client for d. No process is started until
// Connect is called.
func NewStdioClient(d StdioDescriptor, env map[string]string) *StdioClient {
	return &StdioClient{
		descriptor: d,
		env:        env,
	}
}

func (c *StdioClient) Name() string           { return c.descriptor.Name() }
func (c *StdioClient) Kind() Kind             { return KindStdio }
func (c *StdioClient) Descriptor() Descriptor { return c.descriptor }

// Connect starts the subprocess and performs the protocol handshake.
func (c *StdioClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return nil
	}

	logging.Debug("StdioClient", "Starting %s: %s %v", c.Name(), c.descriptor.Command, c.descriptor.Args)

	var envStrings []string
	for k, v := range c.env {
		envStrings = append(envStrings, fmt.Sprintf("%s=%s", k, v))
	}

	// Create stdio client - it will start the process
	mcpClient, err := client.NewStdioMCPClient(c.descriptor.Command, envStrings, c.descriptor.Args...)
	if err != nil {
		return connectionError(c, fmt.Errorf("failed to start process: %w", err))
	}

	// The child blocks once its stderr pipe fills, so drain it into the log.
	if stderr, ok := client.GetStderr(mcpClient); ok {
		go c.drainStderr(stderr)
	}

	initCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		initCtx, cancel = context.WithTimeout(ctx, DefaultStdioInitTimeout)
		defer cancel()
	}

	initResult, err := mcpClient.Initialize(initCtx, initializeRequest())
	if err != nil {
		if closeErr := mcpClient.Close(); closeErr != nil {
			logging.Debug("StdioClient", "Error closing failed client for %s: %v", c.Name(), closeErr)
		}
		return connectionError(c, fmt.Errorf("failed to initialize MCP protocol: %w", err))
	}

	c.client = mcpClient
	c.connected = true

	logging.Debug("StdioClient", "%s initialized. Server: %s, Version: %s, tools: %t",
		c.Name(), initResult.ServerInfo.Name, initResult.ServerInfo.Version, initResult.Capabilities.Tools != nil)

	return nil
}

func (c *StdioClient) drainStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		logging.Debug("StdioClient", "[%s stderr] %s", c.Name(), scanner.Text())
	}
}

// Close cleanly shuts down the client connection and the subprocess
func (c *StdioClient) Close() error {
	return c.closeClient()
}

// ListTools returns all available tools from the server
func (c *StdioClient) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	return c.listTools(ctx)
}

// CallTool executes a specific tool and returns the result
func (c *StdioClient) CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	return c.callTool(ctx, name, args)
}

// Ping checks if the server is responsive
func (c *StdioClient) Ping(ctx context.Context) error {
	return c.ping(ctx)
}
