package linear

import (
	"context"
	"fmt"
)

const commentCreateMutation = `mutation CommentCreate($input: CommentCreateInput!) {
  commentCreate(input: $input) {
    success
    comment { id body createdAt }
  }
}`

const issueCommentsQuery = `query IssueComments($id: String!, $last: Int!) {
  issue(id: $id) {
    id
    identifier
    comments(last: $last) {
      nodes { id body createdAt }
    }
  }
}`

// CommentCreate creates a comment on an issue. The returned result reflects
// Linear's acknowledgment only; it does not prove the comment is readable.
func (c *Client) CommentCreate(ctx context.Context, input CommentCreateInput) (*CommentCreateResult, error) {
	var data struct {
		CommentCreate CommentCreateResult `json:"commentCreate"`
	}
	err := c.do(ctx, commentCreateMutation, map[string]interface{}{"input": input}, &data)
	if err != nil {
		return nil, err
	}
	return &data.CommentCreate, nil
}

// IssueComments returns the issue identified by issueID (UUID or identifier
// such as ENG-12) with its last comments.
func (c *Client) IssueComments(ctx context.Context, issueID string, last int) (*IssueComments, error) {
	if last <= 0 {
		return nil, fmt.Errorf("last must be positive, got %d", last)
	}

	var data struct {
		Issue *struct {
			Issue
			Comments struct {
				Nodes []Comment `json:"nodes"`
			} `json:"comments"`
		} `json:"issue"`
	}
	err := c.do(ctx, issueCommentsQuery, map[string]interface{}{"id": issueID, "last": last}, &data)
	if err != nil {
		return nil, err
	}
	if data.Issue == nil {
		return nil, fmt.Errorf("%s: %w", issueID, ErrIssueNotFound)
	}

	comments := data.Issue.Comments.Nodes
	if comments == nil {
		comments = []Comment{}
	}
	return &IssueComments{Issue: data.Issue.Issue, Comments: comments}, nil
}
