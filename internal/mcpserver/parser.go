package mcpserver

import (
	"fmt"
	"strings"

	"mcpbridge/internal/config"
	"mcpbridge/pkg/logging"
)

// DescriptorSet is the parsed form of the three transport lists, each in
// declaration order.
type DescriptorSet struct {
	Hosted     []HostedDescriptor
	Streamable []StreamableDescriptor
	Stdio      []StdioDescriptor
}

// Connectable returns the non-hosted descriptors, streamable first, each
// group in declaration order.
func (s DescriptorSet) Connectable() []Descriptor {
	out := make([]Descriptor, 0, len(s.Streamable)+len(s.Stdio))
	for _, d := range s.Streamable {
		out = append(out, d)
	}
	for _, d := range s.Stdio {
		out = append(out, d)
	}
	return out
}

// Len returns the total number of descriptors.
func (s DescriptorSet) Len() int {
	return len(s.Hosted) + len(s.Streamable) + len(s.Stdio)
}

// ParseDescriptors turns the raw comma separated transport lists into
// descriptors. Empty entries are dropped silently. Malformed entries are
// skipped, logged, and returned in the error collection; they never prevent
// the remaining entries from being used.
func ParseDescriptors(raw config.TransportsConfig) (DescriptorSet, *config.ConfigurationErrorCollection) {
	var set DescriptorSet
	errs := config.NewConfigurationErrorCollection()
	names := make(map[string]struct{})

	reject := func(source string, index int, entry, msg string) {
		cerr := config.ConfigurationError{Source: source, Entry: entry, Index: index, Message: msg}
		logging.Warn("Parser", "Skipping configuration entry: %s", cerr.Error())
		errs.Add(cerr)
	}

	hostedSource := config.EnvVar("mcp.hosted")
	for i, entry := range SplitList(raw.Hosted) {
		label, endpoint, ok := strings.Cut(entry, "=")
		if !ok {
			reject(hostedSource, i, entry, "expected label=url")
			continue
		}
		label, endpoint = strings.TrimSpace(label), strings.TrimSpace(endpoint)
		if label == "" || endpoint == "" {
			reject(hostedSource, i, entry, "label and url must both be set")
			continue
		}
		if _, dup := names[label]; dup {
			reject(hostedSource, i, entry, fmt.Sprintf("duplicate label %q", label))
			continue
		}
		names[label] = struct{}{}
		set.Hosted = append(set.Hosted, NewHostedDescriptor(label, endpoint))
	}

	streamableSource := config.EnvVar("mcp.streamable")
	for i, entry := range SplitList(raw.Streamable) {
		d, err := NewStreamableDescriptor(entry)
		if err != nil {
			reject(streamableSource, i, entry, err.Error())
			continue
		}
		d.DisplayName = uniqueName(names, d.DisplayName)
		set.Streamable = append(set.Streamable, d)
	}

	stdioSource := config.EnvVar("mcp.stdio")
	for i, entry := range SplitList(raw.Stdio) {
		d, err := NewStdioDescriptor(entry)
		if err != nil {
			reject(stdioSource, i, entry, err.Error())
			continue
		}
		d.DisplayName = uniqueName(names, d.DisplayName)
		set.Stdio = append(set.Stdio, d)
	}

	logging.Debug("Parser", "Parsed %d hosted, %d streamable, %d stdio descriptors (%d rejected)",
		len(set.Hosted), len(set.Streamable), len(set.Stdio), errs.Count())

	return set, errs
}

// SplitList splits a comma separated list, trimming whitespace and dropping
// empty entries while preserving order.
func SplitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// uniqueName records name in seen, suffixing -2, -3, ... on collision.
func uniqueName(seen map[string]struct{}, name string) string {
	candidate := name
	for n := 2; ; n++ {
		if _, taken := seen[candidate]; !taken {
			seen[candidate] = struct{}{}
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d", name, n)
	}
}
