package mcpserver

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"sync/atomic"
)

// Kind identifies how a tool-provider is reached.
type Kind string

const (
	// KindHosted is executed by the reasoning backend's own remote runtime.
	// The bridge only declares it and never connects to it.
	KindHosted Kind = "hosted"
	// KindStreamable is a streamable-http MCP session opened by the bridge.
	KindStreamable Kind = "streamable-http"
	// KindStdio is a locally spawned MCP server spoken to over stdin/stdout.
	KindStdio Kind = "stdio"
)

// Descriptor is the immutable description of one tool-provider. Exactly one
// of HostedDescriptor, StreamableDescriptor and StdioDescriptor implements it,
// so each variant only carries the fields valid for its kind.
type Descriptor interface {
	Kind() Kind
	Name() string
	// Locator is the URL or command line the descriptor was built from.
	Locator() string

	isDescriptor()
}

// HostedDescriptor declares a provider executed remotely by the backend.
type HostedDescriptor struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// NewHostedDescriptor creates a hosted descriptor for label and url.
func NewHostedDescriptor(label, url string) HostedDescriptor {
	return HostedDescriptor{Label: label, URL: url}
}

func (d HostedDescriptor) Kind() Kind      { return KindHosted }
func (d HostedDescriptor) Name() string    { return d.Label }
func (d HostedDescriptor) Locator() string { return d.URL }
func (HostedDescriptor) isDescriptor()     {}

// StreamableDescriptor describes a streamable-http endpoint.
type StreamableDescriptor struct {
	DisplayName string `json:"name"`
	URL         string `json:"url"`
}

// NewStreamableDescriptor creates a descriptor for endpoint. The name is
// derived from the endpoint host so repeated runs against the same endpoint
// get the same name.
func NewStreamableDescriptor(endpoint string) (StreamableDescriptor, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return StreamableDescriptor{}, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return StreamableDescriptor{}, fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return StreamableDescriptor{}, fmt.Errorf("URL has no host")
	}
	return StreamableDescriptor{
		DisplayName: "http-" + u.Hostname(),
		URL:         endpoint,
	}, nil
}

func (d StreamableDescriptor) Kind() Kind      { return KindStreamable }
func (d StreamableDescriptor) Name() string    { return d.DisplayName }
func (d StreamableDescriptor) Locator() string { return d.URL }
func (StreamableDescriptor) isDescriptor()     {}

// StdioDescriptor describes a child process speaking MCP over stdio.
type StdioDescriptor struct {
	DisplayName string   `json:"name"`
	Command     string   `json:"command"`
	Args        []string `json:"args,omitempty"`
	CommandLine string   `json:"commandLine"`
}

// stdioSeq makes stdio names unique within the process, including for
// descriptors created in the same instant.
var stdioSeq atomic.Uint64

// NewStdioDescriptor splits commandLine into program and arguments and
// assigns a process-unique name.
func NewStdioDescriptor(commandLine string) (StdioDescriptor, error) {
	fields, err := splitCommandLine(commandLine)
	if err != nil {
		return StdioDescriptor{}, err
	}
	if len(fields) == 0 {
		return StdioDescriptor{}, fmt.Errorf("empty command line")
	}

	base := strings.TrimSuffix(filepath.Base(fields[0]), filepath.Ext(fields[0]))
	return StdioDescriptor{
		DisplayName: fmt.Sprintf("stdio-%s-%d", base, stdioSeq.Add(1)),
		Command:     fields[0],
		Args:        fields[1:],
		CommandLine: commandLine,
	}, nil
}

func (d StdioDescriptor) Kind() Kind      { return KindStdio }
func (d StdioDescriptor) Name() string    { return d.DisplayName }
func (d StdioDescriptor) Locator() string { return d.CommandLine }
func (StdioDescriptor) isDescriptor()     {}

// splitCommandLine splits on unquoted whitespace. Single and double quotes
// group words; a backslash escapes the next character outside single quotes.
func splitCommandLine(s string) ([]string, error) {
	var (
		fields  []string
		current strings.Builder
		inWord  bool
		quote   rune
		escaped bool
	)

	for _, r := range s {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped = true
			inWord = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inWord = true
		case r == ' ' || r == '\t' || r == '\n':
			if inWord {
				fields = append(fields, current.String())
				current.Reset()
				inWord = false
			}
		default:
			current.WriteRune(r)
			inWord = true
		}
	}

	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote", quote)
	}
	if escaped {
		return nil, fmt.Errorf("trailing backslash")
	}
	if inWord {
		fields = append(fields, current.String())
	}
	return fields, nil
}
