// Package config provides the explicit configuration object for mcpbridge.
//
// Configuration is resolved once at startup, in increasing precedence:
//
//  1. Built-in defaults (GetDefaultConfig)
//  2. An optional YAML file passed with --config
//  3. Environment variables
//
// The environment variables are the primary interface, e.g.
//
//	OPENAI_API_KEY          reasoning engine credential
//	MCP_HOSTED_LABELS_URLS  linear=https://mcp.linear.app/mcp,docs=https://...
//	MCP_STREAMABLE_URLS     https://tools.example.com/mcp
//	MCP_STDIO_COMMANDS      npx -y @modelcontextprotocol/server-filesystem ./data
//	AGENT_NAME, AGENT_INSTRUCTIONS
//	LINEAR_API_KEY, LINEAR_AUTH_SCHEME (raw|bearer)
//	PORT
//
// The transport lists are kept as raw strings here; parsing them into
// descriptors is the job of the mcpserver package, which reports malformed
// entries as ConfigurationError values instead of failing.
//
// Missing credentials are not validation errors. A bridge without
// LINEAR_API_KEY still serves /run, and one without OPENAI_API_KEY still
// serves verified writes.
package config
