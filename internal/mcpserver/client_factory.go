package mcpserver

import (
	"fmt"
	"net/http"
)

// ClientOptions carries settings shared by all clients built by a Factory.
type ClientOptions struct {
	// Env is added to the environment of stdio child processes.
	Env map[string]string
	// Headers are sent with every streamable-http request.
	Headers map[string]string
	// HTTPClient, when set, replaces the default client for streamable-http.
	HTTPClient *http.Client
}

// Factory builds MCP clients from descriptors. Building performs no I/O;
// connecting is left to the caller so connect failures can be isolated per
// transport.
type Factory struct {
	opts ClientOptions
}

// NewFactory creates a Factory with the given options.
func NewFactory(opts ClientOptions) *Factory {
	return &Factory{opts: opts}
}

// Build creates the client for d.
//
// Supported descriptors:
//   - StreamableDescriptor: a StreamableHTTPClient
//   - StdioDescriptor: a StdioClient
//
// HostedDescriptor yields ErrHostedNotConnectable.
func (f *Factory) Build(d Descriptor) (MCPClient, error) {
	switch d := d.(type) {
	case StreamableDescriptor:
		if d.URL == "" {
			return nil, fmt.Errorf("url is required for %s transport %s", KindStreamable, d.Name())
		}
		return NewStreamableHTTPClient(d, f.opts.Headers, f.opts.HTTPClient), nil

	case StdioDescriptor:
		if d.Command == "" {
			return nil, fmt.Errorf("command is required for %s transport %s", KindStdio, d.Name())
		}
		return NewStdioClient(d, f.opts.Env), nil

	case HostedDescriptor:
		return nil, fmt.Errorf("%s: %w", d.Name(), ErrHostedNotConnectable)

	default:
		return nil, fmt.Errorf("unsupported descriptor type %T (supported: %s, %s)", d, KindStreamable, KindStdio)
	}
}

// BuildAll builds a client for every connectable descriptor in set, in
// declaration order. Descriptors that cannot be built are returned in failed
// keyed by name; they never stop the others from being built.
func (f *Factory) BuildAll(set DescriptorSet) (clients []MCPClient, failed map[string]error) {
	failed = make(map[string]error)
	for _, d := range set.Connectable() {
		c, err := f.Build(d)
		if err != nil {
			failed[d.Name()] = err
			continue
		}
		clients = append(clients, c)
	}
	return clients, failed
}
