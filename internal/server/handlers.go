package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"mcpbridge/internal/linear"
	"mcpbridge/internal/mutation"

	"github.com/labstack/echo/v4"
)

// HeaderIdempotencyKey carries the caller's idempotency token for
// /linear/commentCreate.
const HeaderIdempotencyKey = "Idempotency-Key"

// maxCommentsLimit is the largest page Linear returns.
const maxCommentsLimit = 250

func (s *Server) healthz(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func (s *Server) identity(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"name": s.opts.AgentName,
		"ok":   true,
	})
}

func (s *Server) tools(c echo.Context) error {
	registry, release := s.opts.Manager.Acquire(c.Request().Context())
	defer release()
	return c.JSON(http.StatusOK, registry.Snapshot())
}

// ping reports whether each connected transport still answers. It never
// rebootstraps; a caller that sees failures can POST /tools/rebootstrap.
func (s *Server) ping(c echo.Context) error {
	registry, release := s.opts.Manager.Acquire(c.Request().Context())
	defer release()

	results := registry.Ping(c.Request().Context(), s.opts.PingTimeout)
	healthy := 0
	for _, res := range results {
		if res.OK {
			healthy++
		}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"results": results,
		"healthy": healthy,
		"total":   len(results),
	})
}

func (s *Server) rebootstrap(c echo.Context) error {
	registry := s.opts.Manager.Rebootstrap(c.Request().Context())
	return c.JSON(http.StatusOK, registry.Snapshot())
}

type runRequest struct {
	Prompt string `json:"prompt"`
}

func (s *Server) run(c echo.Context) error {
	var req runRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body")
	}

	ctx := c.Request().Context()
	registry, release := s.opts.Manager.Acquire(ctx)
	defer release()

	result, err := s.opts.Engine.Run(ctx, req.Prompt, registry)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error()).SetInternal(err)
	}
	return c.JSON(http.StatusOK, result)
}

type commentCreateRequest struct {
	IssueID        string `json:"issueId"`
	Body           string `json:"body"`
	IdempotencyKey string `json:"idempotencyKey"`
}

type commentCreateResponse struct {
	Success          bool             `json:"success"`
	Comment          *linear.Comment  `json:"comment,omitempty"`
	IdempotencyKey   string           `json:"idempotencyKey,omitempty"`
	VerifyAttempts   int              `json:"verifyAttempts,omitempty"`
	Error            string           `json:"error,omitempty"`
	Stage            mutation.Stage   `json:"stage,omitempty"`
	MutationAccepted *bool            `json:"mutationAccepted,omitempty"`
	EntityObserved   *bool            `json:"entityObserved,omitempty"`
	Sample           []linear.Comment `json:"sample,omitempty"`
}

// commentCreate creates a comment and reads it back before reporting success.
//
// The idempotency key comes from the Idempotency-Key header, then the
// idempotencyKey field. Without either, the key is derived from issueId and
// body alone, so identical submissions collapse into one comment: a retry
// after a timeout is safe, but posting the same text twice on purpose needs
// a fresh key per comment. X-Request-Id does not take part in the key.
func (s *Server) commentCreate(c echo.Context) error {
	var req commentCreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body")
	}
	if strings.TrimSpace(req.IssueID) == "" || strings.TrimSpace(req.Body) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "issueId and body are required")
	}

	token := strings.TrimSpace(c.Request().Header.Get(HeaderIdempotencyKey))
	if token == "" {
		token = req.IdempotencyKey
	}

	outcome, err := s.opts.Verifier.CreateComment(c.Request().Context(), mutation.Request{
		IssueID:          req.IssueID,
		Body:             req.Body,
		IdempotencyToken: token,
	})
	if err == nil {
		return c.JSON(http.StatusOK, commentCreateResponse{
			Success:        true,
			Comment:        outcome.Comment,
			IdempotencyKey: outcome.Token,
			VerifyAttempts: outcome.Attempts,
		})
	}

	var staged mutation.StagedError
	if !errors.As(err, &staged) {
		return err
	}

	switch staged.Stage() {
	case mutation.StageValidationError:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case mutation.StageMissingCredential:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	case mutation.StageTransportError:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error()).SetInternal(err)
	}

	// Rejected or unconfirmed: the provider was reached, report what is
	// known about the write.
	resp := commentCreateResponse{
		Success:          false,
		Error:            err.Error(),
		Stage:            staged.Stage(),
		IdempotencyKey:   outcome.Token,
		VerifyAttempts:   outcome.Attempts,
		MutationAccepted: &outcome.MutationAccepted,
		EntityObserved:   &outcome.EntityObserved,
	}
	var unconfirmed *mutation.UnconfirmedError
	if errors.As(err, &unconfirmed) {
		resp.Sample = unconfirmed.Sample
		if resp.Sample == nil {
			resp.Sample = []linear.Comment{}
		}
	}
	return c.JSON(http.StatusBadGateway, resp)
}

func (s *Server) comments(c echo.Context) error {
	issueID := strings.TrimSpace(c.QueryParam("issueId"))
	if issueID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "issueId is required")
	}

	limit := s.opts.CommentsLimit
	if raw := c.QueryParam("last"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxCommentsLimit {
			return echo.NewHTTPError(http.StatusBadRequest, "last must be between 1 and 250")
		}
		limit = n
	}

	result, err := s.opts.Comments.IssueComments(c.Request().Context(), issueID, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error()).SetInternal(err)
	}
	return c.JSON(http.StatusOK, result)
}
