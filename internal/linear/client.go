package linear

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"mcpbridge/internal/config"
	"mcpbridge/pkg/logging"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/oauth2"
)

// maxErrorBody bounds how much of an unexpected response is kept for errors.
const maxErrorBody = 2048

// Client talks to the Linear GraphQL API.
type Client struct {
	endpoint   string
	hasKey     bool
	httpClient *retryablehttp.Client
}

// NewClient creates a client from cfg. A client without an API key is valid;
// every call on it fails with ErrMissingCredential without touching the
// network.
func NewClient(cfg config.LinearConfig) *Client {
	endpoint := cfg.APIURL
	if endpoint == "" {
		endpoint = config.DefaultLinearAPIURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultLinearTimeout
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.MaxRetries
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = leveledLogger{}
	rc.HTTPClient = &http.Client{
		Timeout:   timeout,
		Transport: authTransport(cfg.AuthScheme, cfg.APIKey, http.DefaultTransport),
	}

	return &Client{
		endpoint:   endpoint,
		hasKey:     cfg.APIKey != "",
		httpClient: rc,
	}
}

// authTransport wraps base so every request carries the credential in the
// form required by scheme.
func authTransport(scheme, apiKey string, base http.RoundTripper) http.RoundTripper {
	if scheme == config.AuthSchemeBearer {
		return &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: apiKey, TokenType: "Bearer"}),
			Base:   base,
		}
	}
	return &rawKeyTransport{apiKey: apiKey, base: base}
}

// rawKeyTransport sends the API key as the bare Authorization value, which
// is how Linear accepts personal API keys.
type rawKeyTransport struct {
	apiKey string
	base   http.RoundTripper
}

func (t *rawKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", t.apiKey)
	return t.base.RoundTrip(req)
}

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors"`
}

// do executes one GraphQL operation and decodes its data into out.
func (c *Client) do(ctx context.Context, query string, variables map[string]interface{}, out interface{}) error {
	if !c.hasKey {
		return ErrMissingCredential
	}

	payload, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("linear request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var decoded graphQLResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		if resp.StatusCode/100 != 2 {
			return &HTTPError{StatusCode: resp.StatusCode, Body: truncateBody(body)}
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if len(decoded.Errors) > 0 {
		return &GraphQLErrors{StatusCode: resp.StatusCode, Errors: decoded.Errors}
	}
	if resp.StatusCode/100 != 2 {
		return &HTTPError{StatusCode: resp.StatusCode, Body: truncateBody(body)}
	}

	if out == nil || len(decoded.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(decoded.Data, out); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}

func truncateBody(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody])
	}
	return string(body)
}

// leveledLogger routes retryablehttp's logs to pkg/logging.
type leveledLogger struct{}

func (leveledLogger) Error(msg string, kv ...interface{}) { logging.Warn("Linear", "%s %v", msg, kv) }
func (leveledLogger) Info(msg string, kv ...interface{})  { logging.Debug("Linear", "%s %v", msg, kv) }
func (leveledLogger) Debug(msg string, kv ...interface{}) { logging.Debug("Linear", "%s %v", msg, kv) }
func (leveledLogger) Warn(msg string, kv ...interface{})  { logging.Warn("Linear", "%s %v", msg, kv) }
