// Package linear is a minimal Linear GraphQL client covering the operations
// used for verified writes: creating an issue comment and reading back the
// most recent comments of an issue.
//
// Requests go through go-retryablehttp, so transient transport failures and
// 5xx responses are retried. Comment creation carries a client-chosen id,
// which makes a retried create safe: a duplicate is rejected by Linear
// instead of producing a second comment.
//
// The credential is presented according to the configured auth scheme:
//
//   - raw: the API key is the Authorization header value (personal keys)
//   - bearer: the key is an OAuth access token sent as "Bearer <key>"
package linear
