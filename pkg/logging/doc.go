// Package logging provides the structured logging used across mcpbridge.
//
// It is a thin layer over the standard slog package that tags every entry
// with a subsystem and accepts printf-style messages:
//
//	logging.InitForCLI(logging.LevelInfo, os.Stdout)
//
//	logging.Info("Bootstrap", "Connecting %d transports", n)
//	logging.Warn("Parser", "Skipping malformed hosted entry %q", entry)
//	logging.Error("Aggregator", err, "Failed to connect %s", name)
//
// Output is text by default; Init with FormatJSON switches to the slog JSON
// handler for log shippers.
//
// # Subsystems
//
//   - Bootstrap: application start, transport connects, rebootstrap
//   - Config: configuration loading and validation
//   - Parser: transport descriptor parsing
//   - Aggregator: tool registry and tool dispatch
//   - Agent: reasoning engine turns and tool calls
//   - Mutation, Linear: verified writes against the issue tracker
//   - HTTP: request handling
//
// # Audit Logging
//
// Writes against external systems are recorded with Audit:
//
//	logging.Audit(logging.AuditEvent{
//	    Action:  "comment_create",
//	    Outcome: "verified",
//	    Target:  issueID,
//	})
//
// Audit events are logged at INFO level with an [AUDIT] prefix.
//
// All functions are safe for concurrent use.
package logging
