// Package mutation performs verified writes against the issue tracker.
//
// A verified write does not trust the provider's acknowledgment on its own.
// After the provider accepts the mutation, the parent issue is read back and
// its most recent comments are scanned for the new comment. Success is
// reported only when the write was accepted and the comment was observed.
//
// The write moves through these stages:
//
//	Submitting -> Submitted -> Verifying -> Verified
//	                                     -> Unconfirmed
//	Submitting -> TransportError         (no verification)
//	Submitting -> RejectedByProvider     (no verification)
//
// Requests are validated before submission, and a missing credential is
// detected before any network call. Every write carries an idempotency
// token that is used as the id of the created comment, so a retried write
// can never create a second comment.
package mutation
