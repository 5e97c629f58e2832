// Package formatting renders bridge diagnostics for the command line in
// JSON, YAML, or table form.
package formatting

import (
	"fmt"
	"io"
	"strings"

	"mcpbridge/internal/aggregator"
)

// OutputFormat represents the desired output format
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"  // JSON output
	FormatYAML  OutputFormat = "yaml"  // YAML output
	FormatTable OutputFormat = "table" // Rich table output
)

// Options configures the formatter behavior
type Options struct {
	Format OutputFormat
	Color  bool // Enable colored output
}

// Report is what the tools command prints: the registry snapshot plus the
// tools exposed to the reasoning engine.
type Report struct {
	Snapshot aggregator.Snapshot `json:"snapshot"`
	Tools    []ToolRow           `json:"tools"`
}

// ToolRow is one exposed tool.
type ToolRow struct {
	Name        string `json:"name"`
	Server      string `json:"server"`
	Tool        string `json:"tool"`
	Description string `json:"description,omitempty"`
}

// NewReport builds a Report from a registry.
func NewReport(r *aggregator.Registry) Report {
	report := Report{Snapshot: r.Snapshot(), Tools: []ToolRow{}}
	for _, t := range r.Tools() {
		report.Tools = append(report.Tools, ToolRow{
			Name:        t.Name,
			Server:      t.Server,
			Tool:        t.Tool.Name,
			Description: t.Tool.Description,
		})
	}
	return report
}

// Formatter writes a Report in one output format.
type Formatter interface {
	FormatReport(w io.Writer, report Report) error
}

// ParseFormat validates a user supplied format name.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatYAML, FormatTable:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (supported: table, json, yaml)", s)
	}
}

// New creates the formatter for options.Format.
func New(options Options) Formatter {
	switch options.Format {
	case FormatJSON:
		return NewJSONFormatter(options)
	case FormatYAML:
		return NewYAMLFormatter(options)
	default:
		return NewTableFormatter(options)
	}
}
