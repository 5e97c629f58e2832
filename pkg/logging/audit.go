package logging

import (
	"context"
	"log/slog"
)

// AuditEvent describes a security or data relevant action taken against an
// external system on behalf of a caller.
type AuditEvent struct {
	Action  string // e.g. "comment_create"
	Outcome string // e.g. "verified", "unconfirmed", "rejected"
	Target  string // identifier of the affected parent entity
	Token   string // idempotency token, safe to log
	Details string
}

// Audit logs an audit event at INFO level with an [AUDIT] prefix for easy
// filtering by log aggregation systems.
func Audit(event AuditEvent) {
	logger := currentLogger()
	if logger == nil {
		return
	}

	attrs := []slog.Attr{
		slog.String("subsystem", "Audit"),
		slog.String("action", event.Action),
		slog.String("outcome", event.Outcome),
	}
	if event.Target != "" {
		attrs = append(attrs, slog.String("target", event.Target))
	}
	if event.Token != "" {
		attrs = append(attrs, slog.String("token", event.Token))
	}
	if event.Details != "" {
		attrs = append(attrs, slog.String("details", event.Details))
	}

	logger.LogAttrs(context.Background(), slog.LevelInfo, "[AUDIT] "+event.Action, attrs...)
}
