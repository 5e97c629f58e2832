package mutation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mcpbridge/internal/config"
	"mcpbridge/internal/linear"
	"mcpbridge/internal/metrics"
	"mcpbridge/pkg/logging"

	"github.com/cenkalti/backoff/v5"
)

// Provider is the issue tracker API used by the Verifier.
// *linear.Client implements it.
type Provider interface {
	CommentCreate(ctx context.Context, input linear.CommentCreateInput) (*linear.CommentCreateResult, error)
	IssueComments(ctx context.Context, issueID string, last int) (*linear.IssueComments, error)
}

// Options bounds the read-back phase.
type Options struct {
	// Attempts is the maximum number of read-backs.
	Attempts int
	// SampleSize is how many of the most recent comments each read-back scans.
	SampleSize int
	// AttemptTimeout bounds each read-back.
	AttemptTimeout time.Duration
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Metrics        *metrics.Metrics
}

// OptionsFromConfig converts the verify configuration.
func OptionsFromConfig(cfg config.VerifyConfig, m *metrics.Metrics) Options {
	return Options{
		Attempts:       cfg.Attempts,
		SampleSize:     cfg.SampleSize,
		AttemptTimeout: cfg.AttemptTimeout,
		InitialBackoff: cfg.InitialBackoff,
		MaxBackoff:     cfg.MaxBackoff,
		Metrics:        m,
	}
}

// Verifier executes comment creation followed by bounded read-back.
type Verifier struct {
	provider Provider
	opts     Options
}

// NewVerifier creates a Verifier. Zero options take the configured defaults.
func NewVerifier(provider Provider, opts Options) *Verifier {
	if opts.Attempts <= 0 {
		opts.Attempts = config.DefaultVerifyAttempts
	}
	if opts.SampleSize <= 0 {
		opts.SampleSize = config.DefaultVerifySampleSize
	}
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = config.DefaultVerifyAttemptTimeout
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = config.DefaultVerifyInitialBackoff
	}
	if opts.MaxBackoff < opts.InitialBackoff {
		opts.MaxBackoff = max(config.DefaultVerifyMaxBackoff, opts.InitialBackoff)
	}
	return &Verifier{provider: provider, opts: opts}
}

// CreateComment creates a comment and verifies it can be read back.
//
// The returned Outcome is never nil. On failure the error is a StagedError
// and the Outcome's Stage matches it.
func (v *Verifier) CreateComment(ctx context.Context, req Request) (*Outcome, error) {
	outcome := &Outcome{Stage: StageSubmitting}

	err := v.run(ctx, req, outcome)

	v.opts.Metrics.RecordMutation(string(outcome.Stage), outcome.Attempts)
	logging.Audit(logging.AuditEvent{
		Action:  "comment_create",
		Outcome: string(outcome.Stage),
		Target:  req.IssueID,
		Token:   outcome.Token,
		Details: auditDetails(outcome, err),
	})
	return outcome, err
}

func (v *Verifier) run(ctx context.Context, req Request, outcome *Outcome) error {
	req.IssueID = strings.TrimSpace(req.IssueID)
	req.IdempotencyToken = strings.TrimSpace(req.IdempotencyToken)

	if err := validate(req); err != nil {
		outcome.Stage = err.Stage()
		return err
	}

	token, err := resolveToken(req)
	if err != nil {
		outcome.Stage = StageValidationError
		return err
	}
	outcome.Token = token

	logging.Debug("Mutation", "Submitting comment %s on %s", token, req.IssueID)
	ack, err := v.provider.CommentCreate(ctx, linear.CommentCreateInput{
		ID:      token,
		IssueID: req.IssueID,
		Body:    req.Body,
	})
	commentID := token
	if err != nil {
		staged := classifySubmitError(err)
		if staged != nil {
			outcome.Stage = staged.Stage()
			return staged
		}
		// A duplicate id means an earlier attempt with this token was
		// accepted; verify that comment.
		logging.Info("Mutation", "Comment %s already exists on %s, verifying existing comment", token, req.IssueID)
	} else {
		if !ack.Success {
			outcome.Stage = StageRejected
			return &RejectedError{Err: errors.New("provider reported success=false")}
		}
		if ack.Comment != nil {
			outcome.Comment = ack.Comment
			if ack.Comment.ID != "" {
				commentID = ack.Comment.ID
			}
		}
	}

	outcome.MutationAccepted = true
	outcome.Stage = StageSubmitted
	logging.Debug("Mutation", "Comment %s accepted, verifying", commentID)

	outcome.Stage = StageVerifying
	if err := v.verify(ctx, req.IssueID, commentID, token, outcome); err != nil {
		outcome.Stage = StageUnconfirmed
		return err
	}

	outcome.EntityObserved = true
	outcome.Stage = StageVerified
	return nil
}

func validate(req Request) *ValidationError {
	if req.IssueID == "" {
		return &ValidationError{Field: "issueId", Message: "is required"}
	}
	if strings.TrimSpace(req.Body) == "" {
		return &ValidationError{Field: "body", Message: "is required"}
	}
	return nil
}

// classifySubmitError maps a submission failure to its terminal error. It
// returns nil for a duplicate id, which means the write already landed.
// Network and authentication failures are transport errors; only errors about
// the input itself are rejections.
func classifySubmitError(err error) StagedError {
	if errors.Is(err, linear.ErrMissingCredential) {
		return &CredentialError{Err: err}
	}
	var gqlErr *linear.GraphQLErrors
	if errors.As(err, &gqlErr) {
		if gqlErr.IsAuthentication() {
			return &TransportError{Err: err}
		}
		if gqlErr.IsDuplicate() {
			return nil
		}
		return &RejectedError{Err: err}
	}
	return &TransportError{Err: err}
}

// errNotObserved marks a read-back that completed without finding the
// comment.
var errNotObserved = errors.New("comment not in read-back window")

// verify reads back the issue until the comment is observed or attempts run
// out. Each attempt is bounded by AttemptTimeout.
func (v *Verifier) verify(ctx context.Context, issueID, commentID, token string, outcome *Outcome) error {
	var lastErr error

	operation := func() (*linear.Comment, error) {
		outcome.Attempts++
		attemptCtx, cancel := context.WithTimeout(ctx, v.opts.AttemptTimeout)
		defer cancel()

		window, err := v.provider.IssueComments(attemptCtx, issueID, v.opts.SampleSize)
		if err != nil {
			lastErr = err
			if errors.Is(err, linear.ErrMissingCredential) {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		lastErr = nil

		outcome.Issue = &window.Issue
		outcome.Sample = window.Comments
		for i := range window.Comments {
			if c := window.Comments[i]; c.ID == commentID || c.ID == token {
				return &c, nil
			}
		}
		return nil, errNotObserved
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = v.opts.InitialBackoff
	b.MaxInterval = v.opts.MaxBackoff

	observed, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(v.opts.Attempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			logging.Debug("Mutation", "Read-back of %s on %s: %v, retrying in %s", commentID, issueID, err, next)
		}),
	)
	if err != nil {
		if lastErr == nil && !errors.Is(err, errNotObserved) {
			lastErr = err
		}
		return &UnconfirmedError{
			CommentID: commentID,
			Attempts:  outcome.Attempts,
			Sample:    outcome.Sample,
			LastErr:   lastErr,
		}
	}

	outcome.Comment = observed
	return nil
}

func auditDetails(o *Outcome, err error) string {
	details := fmt.Sprintf("accepted=%t observed=%t attempts=%d", o.MutationAccepted, o.EntityObserved, o.Attempts)
	if err != nil {
		details += " error=" + err.Error()
	}
	return details
}
