package config

import (
	"fmt"
	"strings"
)

// ConfigurationError describes a configuration entry that was rejected.
// Rejected entries are skipped rather than failing startup, so these errors
// are collected and reported through logs and the /tools diagnostics.
type ConfigurationError struct {
	Source  string `json:"source"`  // environment variable or config key, e.g. MCP_HOSTED_LABELS_URLS
	Entry   string `json:"entry"`   // the offending raw entry
	Index   int    `json:"index"`   // position of the entry in its list
	Message string `json:"message"` // human-readable error message
}

// Error implements the error interface
func (ce ConfigurationError) Error() string {
	return fmt.Sprintf("[%s] entry %d %q: %s", ce.Source, ce.Index, ce.Entry, ce.Message)
}

// ConfigurationErrorCollection holds multiple configuration errors
type ConfigurationErrorCollection struct {
	Errors []ConfigurationError `json:"errors"`
}

// Error implements the error interface for the collection
func (cec ConfigurationErrorCollection) Error() string {
	if len(cec.Errors) == 0 {
		return "no configuration errors"
	}

	if len(cec.Errors) == 1 {
		return cec.Errors[0].Error()
	}

	return fmt.Sprintf("%d configuration errors: %s (and %d more)",
		len(cec.Errors), cec.Errors[0].Error(), len(cec.Errors)-1)
}

// HasErrors returns true if there are any errors in the collection
func (cec *ConfigurationErrorCollection) HasErrors() bool {
	return len(cec.Errors) > 0
}

// Count returns the number of errors in the collection
func (cec *ConfigurationErrorCollection) Count() int {
	return len(cec.Errors)
}

// Add adds a new error to the collection
func (cec *ConfigurationErrorCollection) Add(err ConfigurationError) {
	cec.Errors = append(cec.Errors, err)
}

// GetErrorsBySource returns errors filtered by source
func (cec *ConfigurationErrorCollection) GetErrorsBySource(source string) []ConfigurationError {
	var filtered []ConfigurationError
	for _, err := range cec.Errors {
		if err.Source == source {
			filtered = append(filtered, err)
		}
	}
	return filtered
}

// GetSummary returns a one line per error summary
func (cec *ConfigurationErrorCollection) GetSummary() string {
	if len(cec.Errors) == 0 {
		return "No configuration errors"
	}

	parts := []string{fmt.Sprintf("Configuration Error Summary (%d total errors):", len(cec.Errors))}
	for _, err := range cec.Errors {
		parts = append(parts, "  - "+err.Error())
	}
	return strings.Join(parts, "\n")
}

// NewConfigurationErrorCollection creates a new empty error collection
func NewConfigurationErrorCollection() *ConfigurationErrorCollection {
	return &ConfigurationErrorCollection{
		Errors: make([]ConfigurationError, 0),
	}
}
