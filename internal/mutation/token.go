package mutation

import (
	"fmt"

	"github.com/google/uuid"
)

// tokenNamespace scopes derived idempotency tokens to comment creation.
var tokenNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("mcpbridge:linear:commentCreate"))

// DeriveToken returns the idempotency token for a write with no caller
// token. Identical issue and body always yield the same token, so a
// repeated request is recognised as the same write. Two intentional
// comments with the same text on the same issue need distinct caller tokens.
func DeriveToken(issueID, body string) string {
	return uuid.NewSHA1(tokenNamespace, []byte(issueID+"\x00"+body)).String()
}

// resolveToken returns the caller token unchanged, or a derived one. Caller
// tokens become comment ids and therefore must be UUIDs.
func resolveToken(req Request) (string, error) {
	if req.IdempotencyToken == "" {
		return DeriveToken(req.IssueID, req.Body), nil
	}
	if _, err := uuid.Parse(req.IdempotencyToken); err != nil {
		return "", &ValidationError{Field: "idempotencyKey", Message: fmt.Sprintf("must be a UUID: %v", err)}
	}
	return req.IdempotencyToken, nil
}
