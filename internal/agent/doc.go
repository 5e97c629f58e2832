// Package agent runs prompts against the reasoning backend with the tools of
// the current registry.
//
// The backend is the OpenAI Responses API. Hosted descriptors are declared
// as remote MCP tools that the backend calls itself. Tools of connected
// streamable-http and stdio transports are declared as function tools; when
// the backend asks for one, the engine calls it through the registry and
// sends the result back, until the backend answers without further calls
// or the turn limit is reached.
package agent
