package mutation

import (
	"mcpbridge/internal/linear"
)

// Stage is a point in the verified write state machine.
type Stage string

const (
	StageSubmitting Stage = "submitting"
	StageSubmitted  Stage = "submitted"
	StageVerifying  Stage = "verifying"

	// Terminal stages.
	StageVerified          Stage = "verified"
	StageUnconfirmed       Stage = "unconfirmed"
	StageTransportError    Stage = "transport_error"
	StageRejected          Stage = "rejected_by_provider"
	StageValidationError   Stage = "validation_error"
	StageMissingCredential Stage = "missing_credential"
)

// Request is one comment to create.
type Request struct {
	IssueID string
	Body    string
	// IdempotencyToken is forwarded as the comment id. When empty, a token
	// is derived from IssueID and Body.
	IdempotencyToken string
}

// Outcome is the result of a verified write.
type Outcome struct {
	Stage            Stage `json:"stage"`
	MutationAccepted bool  `json:"mutationAccepted"`
	EntityObserved   bool  `json:"entityObserved"`
	// Token is the idempotency token the write was submitted with.
	Token string `json:"idempotencyKey,omitempty"`
	// Comment is the created comment, as observed during read-back when
	// available, otherwise as acknowledged.
	Comment *linear.Comment `json:"comment,omitempty"`
	Issue   *linear.Issue   `json:"issue,omitempty"`
	// Sample is the last read-back window.
	Sample   []linear.Comment `json:"sample,omitempty"`
	Attempts int              `json:"verifyAttempts"`
}

// Success reports whether the write was both accepted and observed.
func (o *Outcome) Success() bool {
	return o != nil && o.MutationAccepted && o.EntityObserved
}
