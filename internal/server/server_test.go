package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"mcpbridge/internal/agent"
	"mcpbridge/internal/aggregator"
	"mcpbridge/internal/config"
	"mcpbridge/internal/linear"
	"mcpbridge/internal/mcpserver"
	"mcpbridge/internal/metrics"
	"mcpbridge/internal/mutation"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/mark3labs/mcp-go/mcp"
	mcpsrv "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEngine answers every prompt without a backend.
type fakeEngine struct {
	err      error
	gotTools atomic.Int32
}

func (f *fakeEngine) Run(ctx context.Context, prompt string, tools agent.Toolset) (*agent.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.gotTools.Store(int32(len(tools.Tools())))
	return &agent.Result{Output: "echo: " + prompt, ToolEvents: []agent.ToolEvent{}, Citations: []agent.Citation{}}, nil
}

// fakeLinear is an in-memory Linear GraphQL endpoint.
type fakeLinear struct {
	mu       sync.Mutex
	hits     atomic.Int32
	comments []linear.Comment
	// dropWrites acknowledges creates without storing them.
	dropWrites bool
	reject     bool
	// unauthenticated answers creates the way Linear does for a revoked key.
	unauthenticated bool
}

func (f *fakeLinear) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.hits.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()

	var req struct {
		Query     string                 `json:"query"`
		Variables map[string]interface{} `json:"variables"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	w.Header().Set("Content-Type", "application/json")

	if strings.Contains(req.Query, "commentCreate") {
		if f.unauthenticated {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"errors":[{"message":"Authentication required, not authenticated","extensions":{"code":"AUTHENTICATION_ERROR"}}]}`))
			return
		}
		if f.reject {
			_, _ = w.Write([]byte(`{"errors":[{"message":"Entity not found: Issue"}]}`))
			return
		}
		input := req.Variables["input"].(map[string]interface{})
		for _, existing := range f.comments {
			if existing.ID == input["id"] {
				_, _ = w.Write([]byte(`{"errors":[{"message":"Comment with this id already exists"}],"data":null}`))
				return
			}
		}
		c := linear.Comment{ID: input["id"].(string), Body: input["body"].(string), CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
		if !f.dropWrites {
			f.comments = append(f.comments, c)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{"commentCreate": map[string]interface{}{"success": true, "comment": c}},
		})
		return
	}

	last := int(req.Variables["last"].(float64))
	nodes := f.comments
	if len(nodes) > last {
		nodes = nodes[len(nodes)-last:]
	}
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"data": map[string]interface{}{"issue": map[string]interface{}{
			"id": "uuid-1", "identifier": req.Variables["id"], "comments": map[string]interface{}{"nodes": nodes},
		}},
	})
}

type testEnv struct {
	server   *Server
	engine   *fakeEngine
	linear   *fakeLinear
	manager  *aggregator.Manager
	metrics  *metrics.Metrics
	loadRuns atomic.Int32
}

func newProvider(t *testing.T) *httptest.Server {
	t.Helper()
	s := mcpsrv.NewMCPServer("provider", "1.0.0", mcpsrv.WithToolCapabilities(false))
	s.AddTool(mcp.NewTool("ping_tool"), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("pong"), nil
	})
	ts := httptest.NewServer(mcpsrv.NewStreamableHTTPServer(s))
	t.Cleanup(ts.Close)
	return ts
}

func newTestEnv(t *testing.T, linearKey string) *testEnv {
	t.Helper()

	provider := newProvider(t)
	dead := httptest.NewServer(nil)
	deadURL := dead.URL
	dead.Close()

	env := &testEnv{engine: &fakeEngine{}, linear: &fakeLinear{}, metrics: metrics.New()}

	transports := config.TransportsConfig{
		Hosted:     "linear=https://mcp.linear.app/mcp",
		Streamable: provider.URL + "/mcp, " + strings.Replace(deadURL, "127.0.0.1", "localhost", 1) + "/mcp",
	}
	bootstrapper := aggregator.NewBootstrapper(mcpserver.NewFactory(mcpserver.ClientOptions{}), aggregator.BootstrapOptions{
		ConnectTimeout: 5 * time.Second,
		Metrics:        env.metrics,
	})
	env.manager = aggregator.NewManager(func(ctx context.Context) *aggregator.Registry {
		env.loadRuns.Add(1)
		set, errs := mcpserver.ParseDescriptors(transports)
		return bootstrapper.Bootstrap(ctx, set, errs)
	})
	t.Cleanup(env.manager.Close)

	linearServer := httptest.NewServer(env.linear)
	t.Cleanup(linearServer.Close)
	client := linear.NewClient(config.LinearConfig{APIURL: linearServer.URL, APIKey: linearKey, AuthScheme: config.AuthSchemeRaw})

	env.server = New(Options{
		AgentName: config.DefaultAgentName,
		BodyLimit: "4M",
		Manager:   env.manager,
		Engine:    env.engine,
		Verifier: mutation.NewVerifier(client, mutation.Options{
			Attempts:       3,
			SampleSize:     20,
			AttemptTimeout: time.Second,
			InitialBackoff: time.Millisecond,
			MaxBackoff:     5 * time.Millisecond,
			Metrics:        env.metrics,
		}),
		Comments: client,
		Metrics:  env.metrics,
	})
	return env
}

func (env *testEnv) do(t *testing.T, method, path, body string, headers ...string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)

	var payload map[string]interface{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	}
	return rec, payload
}

func TestHealthAndIdentity(t *testing.T) {
	env := newTestEnv(t, "key")

	rec, _ := env.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec, payload := env.do(t, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Mapache MCP Bridge", payload["name"])
	assert.Equal(t, true, payload["ok"])

	assert.Equal(t, int32(0), env.loadRuns.Load(), "liveness does not bootstrap")
}

func TestTools_SnapshotWithUnreachableTransport(t *testing.T) {
	env := newTestEnv(t, "key")

	rec, payload := env.do(t, http.MethodGet, "/tools", "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, float64(2), payload["count"], "one hosted plus one connected")
	hosted := payload["hosted"].([]interface{})
	require.Len(t, hosted, 1)
	assert.Equal(t, "linear", hosted[0].(map[string]interface{})["label"])

	streamable := payload["streamable"].([]interface{})
	require.Len(t, streamable, 2)
	first := streamable[0].(map[string]interface{})
	second := streamable[1].(map[string]interface{})
	assert.Equal(t, "connected", first["status"])
	assert.Equal(t, float64(1), first["toolCount"])
	assert.Equal(t, "failed", second["status"])
	assert.NotEmpty(t, second["error"])
	assert.Equal(t, "http-localhost", second["name"])
}

func TestRun(t *testing.T) {
	env := newTestEnv(t, "key")

	rec, payload := env.do(t, http.MethodPost, "/run", `{"prompt":"hello"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "echo: hello", payload["output"])
	assert.Equal(t, []interface{}{}, payload["toolEvents"])
	assert.Equal(t, []interface{}{}, payload["citations"])
	assert.Equal(t, int32(1), env.engine.gotTools.Load(), "tools of the reachable transport are offered")
	assert.Equal(t, int32(1), env.loadRuns.Load(), "first request bootstraps lazily")

	env.engine.err = errors.New("backend unavailable")
	rec, payload = env.do(t, http.MethodPost, "/run", `{"prompt":"hello"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "backend unavailable", payload["error"])
	assert.Equal(t, int32(1), env.loadRuns.Load())
}

func TestRebootstrap(t *testing.T) {
	env := newTestEnv(t, "key")

	_, first := env.do(t, http.MethodGet, "/tools", "")
	rec, second := env.do(t, http.MethodPost, "/tools/rebootstrap", "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, int32(2), env.loadRuns.Load())
	assert.NotEqual(t, first["bootstrappedAt"], second["bootstrappedAt"])
	assert.Equal(t, first["count"], second["count"])
}

func TestToolsPing(t *testing.T) {
	env := newTestEnv(t, "key")

	rec, payload := env.do(t, http.MethodGet, "/tools/ping", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, float64(1), payload["total"], "the unreachable transport is not pinged")
	assert.Equal(t, float64(1), payload["healthy"])
	results := payload["results"].([]interface{})
	require.Len(t, results, 1)
	first := results[0].(map[string]interface{})
	assert.Equal(t, true, first["ok"])
	assert.Equal(t, "streamable-http", first["kind"])
	assert.Equal(t, int32(1), env.loadRuns.Load(), "ping reuses the current registry")
}

func TestCommentCreate_Verified(t *testing.T) {
	env := newTestEnv(t, "key")

	rec, payload := env.do(t, http.MethodPost, "/linear/commentCreate", `{"issueId":"ISS-1","body":"hi"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, true, payload["success"])
	comment := payload["comment"].(map[string]interface{})
	assert.Equal(t, "hi", comment["body"])
	assert.NotEmpty(t, comment["id"])
	assert.NotEmpty(t, comment["createdAt"])
	assert.Equal(t, comment["id"], payload["idempotencyKey"])
}

func TestCommentCreate_IdempotencyKeyHeader(t *testing.T) {
	env := newTestEnv(t, "key")
	key := uuid.NewString()

	rec, payload := env.do(t, http.MethodPost, "/linear/commentCreate", `{"issueId":"ISS-1","body":"hi"}`, HeaderIdempotencyKey, key)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, key, payload["comment"].(map[string]interface{})["id"])
}

func TestCommentCreate_IdenticalRequestsConverge(t *testing.T) {
	env := newTestEnv(t, "key")
	body := `{"issueId":"ISS-1","body":"Deployed to staging"}`

	rec, first := env.do(t, http.MethodPost, "/linear/commentCreate", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec, second := env.do(t, http.MethodPost, "/linear/commentCreate", body, echo.HeaderXRequestID, uuid.NewString())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, first["idempotencyKey"], second["idempotencyKey"], "the derived key depends only on issue and body")
	assert.Len(t, env.linear.comments, 1, "a repeated submission does not create a second comment")

	rec, third := env.do(t, http.MethodPost, "/linear/commentCreate", body, HeaderIdempotencyKey, uuid.NewString())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEqual(t, first["idempotencyKey"], third["idempotencyKey"])
	assert.Len(t, env.linear.comments, 2, "a fresh caller key creates an intentional repeat")
}

func TestCommentCreate_Failures(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		body      string
		setup     func(l *fakeLinear)
		wantCode  int
		wantError string
		wantHits  int32
		wantStage string
	}{
		{
			name:      "missing body field",
			key:       "key",
			body:      `{"issueId":"ISS-1"}`,
			wantCode:  http.StatusBadRequest,
			wantError: "issueId and body are required",
		},
		{
			name:      "missing issue field",
			key:       "key",
			body:      `{"body":"hi"}`,
			wantCode:  http.StatusBadRequest,
			wantError: "issueId and body are required",
		},
		{
			name:     "malformed json",
			key:      "key",
			body:     `{"issueId":`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "non uuid idempotency key",
			key:      "key",
			body:     `{"issueId":"ISS-1","body":"hi","idempotencyKey":"abc"}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:      "missing credential",
			key:       "",
			body:      `{"issueId":"ISS-1","body":"hi"}`,
			wantCode:  http.StatusInternalServerError,
			wantError: "LINEAR_API_KEY not set",
		},
		{
			name:      "accepted but not observed",
			key:       "key",
			body:      `{"issueId":"ISS-1","body":"hi"}`,
			setup:     func(l *fakeLinear) { l.dropWrites = true },
			wantCode:  http.StatusBadGateway,
			wantHits:  4,
			wantStage: "unconfirmed",
		},
		{
			name:      "rejected",
			key:       "key",
			body:      `{"issueId":"ISS-1","body":"hi"}`,
			setup:     func(l *fakeLinear) { l.reject = true },
			wantCode:  http.StatusBadGateway,
			wantHits:  1,
			wantStage: "rejected_by_provider",
		},
		{
			name:     "authentication failure",
			key:      "revoked",
			body:     `{"issueId":"ISS-1","body":"hi"}`,
			setup:    func(l *fakeLinear) { l.unauthenticated = true },
			wantCode: http.StatusInternalServerError,
			wantHits: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.key)
			if tt.setup != nil {
				tt.setup(env.linear)
			}

			rec, payload := env.do(t, http.MethodPost, "/linear/commentCreate", tt.body)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			assert.NotEmpty(t, payload["error"])
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, payload["error"])
			}
			assert.Equal(t, tt.wantHits, env.linear.hits.Load())
			if tt.wantStage != "" {
				assert.Equal(t, tt.wantStage, payload["stage"])
				assert.Equal(t, false, payload["success"])
			}
		})
	}
}

func TestCommentCreate_UnconfirmedReportsSample(t *testing.T) {
	env := newTestEnv(t, "key")
	for i := 0; i < 25; i++ {
		env.linear.comments = append(env.linear.comments, linear.Comment{ID: uuid.NewString(), Body: "other"})
	}
	env.linear.dropWrites = true

	rec, payload := env.do(t, http.MethodPost, "/linear/commentCreate", `{"issueId":"ISS-1","body":"hi"}`)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, true, payload["mutationAccepted"])
	assert.Equal(t, false, payload["entityObserved"])
	assert.Len(t, payload["sample"], 20)
}

func TestComments(t *testing.T) {
	env := newTestEnv(t, "key")
	env.linear.comments = []linear.Comment{{ID: "a", Body: "one"}, {ID: "b", Body: "two"}}

	rec, payload := env.do(t, http.MethodGet, "/linear/comments?issueId=ISS-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ISS-1", payload["issue"].(map[string]interface{})["identifier"])
	assert.Len(t, payload["comments"], 2)

	rec, _ = env.do(t, http.MethodGet, "/linear/comments?issueId=ISS-1&last=1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, payload = env.do(t, http.MethodGet, "/linear/comments", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "issueId is required", payload["error"])

	rec, _ = env.do(t, http.MethodGet, "/linear/comments?issueId=ISS-1&last=0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	noKey := newTestEnv(t, "")
	rec, payload = noKey.do(t, http.MethodGet, "/linear/comments?issueId=ISS-1", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "LINEAR_API_KEY not set", payload["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, "key")
	env.do(t, http.MethodGet, "/tools", "")

	rec, _ := env.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mcpbridge_transport_connect_total")
}
