package config

import (
	"fmt"
	"strings"

	"github.com/labstack/gommon/bytes"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// ValidateOneOf checks if a value is one of the allowed values
func ValidateOneOf(field, value string, allowed []string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return ValidationError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")),
	}
}

// Normalize trims string settings and restores defaults for values that
// were explicitly set to something empty. Missing credentials are left
// empty; they are reported when a request needs them.
func (c Config) Normalize() Config {
	d := GetDefaultConfig()

	c.Agent.Name = strings.TrimSpace(c.Agent.Name)
	if c.Agent.Name == "" {
		c.Agent.Name = d.Agent.Name
	}
	if strings.TrimSpace(c.Agent.Instructions) == "" {
		c.Agent.Instructions = d.Agent.Instructions
	}
	if c.Agent.MaxTurns == 0 {
		c.Agent.MaxTurns = d.Agent.MaxTurns
	}

	c.OpenAI.APIKey = strings.TrimSpace(c.OpenAI.APIKey)
	c.OpenAI.BaseURL = strings.TrimRight(strings.TrimSpace(c.OpenAI.BaseURL), "/")
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = d.OpenAI.BaseURL
	}
	if strings.TrimSpace(c.OpenAI.Model) == "" {
		c.OpenAI.Model = d.OpenAI.Model
	}

	c.Linear.APIKey = strings.TrimSpace(c.Linear.APIKey)
	c.Linear.AuthScheme = strings.ToLower(strings.TrimSpace(c.Linear.AuthScheme))
	if c.Linear.AuthScheme == "" {
		c.Linear.AuthScheme = d.Linear.AuthScheme
	}
	if strings.TrimSpace(c.Linear.APIURL) == "" {
		c.Linear.APIURL = d.Linear.APIURL
	}

	if strings.TrimSpace(c.Server.BodyLimit) == "" {
		c.Server.BodyLimit = d.Server.BodyLimit
	}
	if c.Transports.ConnectConcurrency == 0 {
		c.Transports.ConnectConcurrency = d.Transports.ConnectConcurrency
	}

	return c
}

// Validate reports settings that cannot work. Credentials are not checked
// here: an unset credential disables the feature that needs it rather than
// preventing startup.
func (c Config) Validate() error {
	var errs ValidationErrors

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs.Add("server.port", "must be between 1 and 65535", c.Server.Port)
	}
	if _, err := bytes.Parse(c.Server.BodyLimit); err != nil {
		errs.Add("server.body_limit", "must be a size such as 4M", c.Server.BodyLimit)
	}
	if c.Transports.ConnectTimeout <= 0 {
		errs.Add("mcp.connect_timeout", "must be positive", c.Transports.ConnectTimeout)
	}
	if c.Transports.ConnectConcurrency < 0 {
		errs.Add("mcp.connect_concurrency", "cannot be negative", c.Transports.ConnectConcurrency)
	}
	if c.Agent.MaxTurns < 0 {
		errs.Add("agent.max_turns", "cannot be negative", c.Agent.MaxTurns)
	}
	if err := ValidateOneOf("linear.auth_scheme", c.Linear.AuthScheme, []string{AuthSchemeRaw, AuthSchemeBearer}); err != nil {
		errs = append(errs, err.(ValidationError))
	}
	if c.Linear.MaxRetries < 0 {
		errs.Add("linear.max_retries", "cannot be negative", c.Linear.MaxRetries)
	}
	if c.Verify.Attempts <= 0 {
		errs.Add("verify.attempts", "must be at least 1", c.Verify.Attempts)
	}
	if c.Verify.SampleSize <= 0 {
		errs.Add("verify.sample_size", "must be at least 1", c.Verify.SampleSize)
	}
	if c.Verify.AttemptTimeout <= 0 {
		errs.Add("verify.attempt_timeout", "must be positive", c.Verify.AttemptTimeout)
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}
