package linear

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrMissingCredential is returned before any network call when no API key
// is configured.
var ErrMissingCredential = errors.New("LINEAR_API_KEY not set")

// ErrIssueNotFound is returned when the issue does not exist or is not
// visible with the configured credential.
var ErrIssueNotFound = errors.New("issue not found")

// Comment is a comment on an issue.
type Comment struct {
	ID        string    `json:"id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// Issue identifies an issue by its UUID and human identifier (e.g. ENG-12).
type Issue struct {
	ID         string `json:"id"`
	Identifier string `json:"identifier"`
}

// IssueComments is an issue together with its most recent comments, oldest
// first.
type IssueComments struct {
	Issue    Issue     `json:"issue"`
	Comments []Comment `json:"comments"`
}

// CommentCreateInput is the input of the commentCreate mutation. ID is
// optional; when set Linear uses it as the new comment's id.
type CommentCreateInput struct {
	ID      string `json:"id,omitempty"`
	IssueID string `json:"issueId"`
	Body    string `json:"body"`
}

// CommentCreateResult is the commentCreate payload.
type CommentCreateResult struct {
	Success bool     `json:"success"`
	Comment *Comment `json:"comment"`
}

// GraphQLError is one entry of a GraphQL "errors" array.
type GraphQLError struct {
	Message    string                 `json:"message"`
	Path       []interface{}          `json:"path,omitempty"`
	Extensions map[string]interface{} `json:"extensions,omitempty"`
}

// GraphQLErrors is returned when Linear answers with GraphQL errors: the
// request reached Linear and was refused.
type GraphQLErrors struct {
	StatusCode int
	Errors     []GraphQLError
}

func (e *GraphQLErrors) Error() string {
	messages := make([]string, 0, len(e.Errors))
	for _, ge := range e.Errors {
		messages = append(messages, ge.Message)
	}
	return fmt.Sprintf("linear: %s", strings.Join(messages, "; "))
}

// IsDuplicate reports whether the errors say an entity with the requested
// id already exists.
func (e *GraphQLErrors) IsDuplicate() bool {
	for _, ge := range e.Errors {
		msg := strings.ToLower(ge.Message)
		if strings.Contains(msg, "already exists") || strings.Contains(msg, "duplicate") {
			return true
		}
		if code, ok := ge.Extensions["code"].(string); ok && strings.EqualFold(code, "CONFLICT") {
			return true
		}
	}
	return false
}

// IsAuthentication reports whether the request was refused because the
// credential is invalid or lacks access, either by status or by error code.
func (e *GraphQLErrors) IsAuthentication() bool {
	if e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden {
		return true
	}
	for _, ge := range e.Errors {
		code, _ := ge.Extensions["code"].(string)
		switch strings.ToUpper(code) {
		case "AUTHENTICATION_ERROR", "UNAUTHENTICATED", "FORBIDDEN":
			return true
		}
	}
	return false
}

// HTTPError is a non-2xx response that carried no GraphQL errors.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("linear: unexpected status %d: %s", e.StatusCode, e.Body)
}
