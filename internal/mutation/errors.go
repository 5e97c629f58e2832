package mutation

import (
	"fmt"

	"mcpbridge/internal/linear"
)

// StagedError is implemented by every error returned by the Verifier. The
// stage tells callers whether the write was attempted, refused, or accepted
// but not observed.
type StagedError interface {
	error
	Stage() Stage
}

// ValidationError reports a request that was refused before submission.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func (e *ValidationError) Stage() Stage { return StageValidationError }

// CredentialError reports that no credential is configured. No request
// was sent.
type CredentialError struct {
	Err error
}

func (e *CredentialError) Error() string { return e.Err.Error() }
func (e *CredentialError) Unwrap() error { return e.Err }
func (e *CredentialError) Stage() Stage  { return StageMissingCredential }

// TransportError reports that the write could not be delivered or its
// response could not be read. Verification was not attempted.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("transport error: %v", e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }
func (e *TransportError) Stage() Stage  { return StageTransportError }

// RejectedError reports that the provider refused the write. Verification
// was not attempted.
type RejectedError struct {
	Err error
}

func (e *RejectedError) Error() string { return fmt.Sprintf("rejected by provider: %v", e.Err) }
func (e *RejectedError) Unwrap() error { return e.Err }
func (e *RejectedError) Stage() Stage  { return StageRejected }

// UnconfirmedError reports a write that was accepted but whose comment was
// not found in any read-back window.
type UnconfirmedError struct {
	CommentID string
	Attempts  int
	Sample    []linear.Comment
	// LastErr is the last read-back failure, if the final attempt failed
	// rather than completing without a match.
	LastErr error
}

func (e *UnconfirmedError) Error() string {
	msg := fmt.Sprintf("comment %s was accepted but not observed after %d read-back attempt(s)", e.CommentID, e.Attempts)
	if e.LastErr != nil {
		msg += fmt.Sprintf(": %v", e.LastErr)
	}
	return msg
}

func (e *UnconfirmedError) Unwrap() error { return e.LastErr }
func (e *UnconfirmedError) Stage() Stage  { return StageUnconfirmed }

var (
	_ StagedError = (*ValidationError)(nil)
	_ StagedError = (*CredentialError)(nil)
	_ StagedError = (*TransportError)(nil)
	_ StagedError = (*RejectedError)(nil)
	_ StagedError = (*UnconfirmedError)(nil)
)
