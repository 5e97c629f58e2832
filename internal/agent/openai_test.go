package agent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"mcpbridge/internal/aggregator"
	"mcpbridge/internal/mcpserver"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeToolset is a registry with one local tool and one hosted server.
type fakeToolset struct {
	mu    sync.Mutex
	calls []map[string]interface{}
	fail  bool
}

func (f *fakeToolset) Hosted() []mcpserver.HostedDescriptor {
	return []mcpserver.HostedDescriptor{mcpserver.NewHostedDescriptor("linear", "https://mcp.linear.app/mcp")}
}

func (f *fakeToolset) Tools() []aggregator.ExposedTool {
	return []aggregator.ExposedTool{{
		Name:   "http-files_read_file",
		Server: "http-files",
		Tool:   mcp.NewTool("read_file", mcp.WithDescription("Read a file"), mcp.WithString("path", mcp.Required())),
	}}
}

func (f *fakeToolset) CallTool(ctx context.Context, exposedName string, args map[string]interface{}) (string, string, *mcp.CallToolResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, args)
	if exposedName != "http-files_read_file" {
		return "", "", nil, errors.New("unknown tool: " + exposedName)
	}
	if f.fail {
		return "http-files", "read_file", nil, errors.New("transport closed")
	}
	return "http-files", "read_file", mcp.NewToolResultText("contents of " + args["path"].(string)), nil
}

// fakeResponses scripts Responses API replies in order and records requests.
type fakeResponses struct {
	t        *testing.T
	mu       sync.Mutex
	replies  []string
	requests []map[string]interface{}
	auth     []string
}

func (f *fakeResponses) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	assert.Equal(f.t, "/v1/responses", r.URL.Path)
	var body map[string]interface{}
	assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))
	f.requests = append(f.requests, body)
	f.auth = append(f.auth, r.Header.Get("Authorization"))

	if len(f.replies) == 0 {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"type":"server_error","message":"no scripted reply"}}`))
		return
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(reply))
}

func newEngine(t *testing.T, fake *fakeResponses, maxTurns int) *OpenAI {
	t.Helper()
	fake.t = t
	ts := httptest.NewServer(fake)
	t.Cleanup(ts.Close)
	return NewOpenAI(OpenAIOptions{
		APIKey:       "sk-test",
		BaseURL:      ts.URL + "/v1",
		Model:        "gpt-test",
		AgentName:    "Test Bridge",
		Instructions: "Be precise.",
		MaxTurns:     maxTurns,
	})
}

func TestRun_ToolLoop(t *testing.T) {
	fake := &fakeResponses{replies: []string{
		`{"id":"resp_1","status":"completed","output":[
			{"type":"mcp_list_tools","server_label":"linear","tools":[]},
			{"type":"mcp_call","server_label":"linear","name":"list_issues","arguments":"{}","output":"[]","error":null},
			{"type":"function_call","call_id":"call_1","name":"http-files_read_file","arguments":"{\"path\":\"notes.md\"}"}
		]}`,
		`{"id":"resp_2","status":"completed","output":[
			{"type":"message","role":"assistant","content":[{"type":"output_text","text":"Done.","annotations":[
				{"type":"url_citation","url":"https://example.com","title":"Example","start_index":0,"end_index":5}
			]}]}
		]}`,
	}}
	tools := &fakeToolset{}
	engine := newEngine(t, fake, 5)

	result, err := engine.Run(context.Background(), "summarise notes", tools)
	require.NoError(t, err)

	assert.Equal(t, "Done.", result.Output)
	require.Len(t, result.ToolEvents, 2)
	assert.Equal(t, ToolEvent{Type: EventHostedCall, Server: "linear", Tool: "list_issues", Arguments: "{}", Output: "[]"}, result.ToolEvents[0])
	assert.Equal(t, EventLocalCall, result.ToolEvents[1].Type)
	assert.Equal(t, "http-files", result.ToolEvents[1].Server)
	assert.Equal(t, "read_file", result.ToolEvents[1].Tool)
	assert.Equal(t, "contents of notes.md", result.ToolEvents[1].Output)
	require.Len(t, result.Citations, 1)
	assert.Equal(t, "https://example.com", result.Citations[0].URL)

	require.Len(t, fake.requests, 2)
	first := fake.requests[0]
	assert.Equal(t, "gpt-test", first["model"])
	assert.Equal(t, "Be precise.", first["instructions"])
	assert.Equal(t, "summarise notes", first["input"])
	assert.Equal(t, "Bearer sk-test", fake.auth[0])

	declared := first["tools"].([]interface{})
	require.Len(t, declared, 2)
	hosted := declared[0].(map[string]interface{})
	assert.Equal(t, "mcp", hosted["type"])
	assert.Equal(t, "linear", hosted["server_label"])
	assert.Equal(t, "https://mcp.linear.app/mcp", hosted["server_url"])
	assert.Equal(t, "never", hosted["require_approval"])
	function := declared[1].(map[string]interface{})
	assert.Equal(t, "function", function["type"])
	assert.Equal(t, "http-files_read_file", function["name"])
	params := function["parameters"].(map[string]interface{})
	assert.Equal(t, "object", params["type"])
	assert.Contains(t, params["properties"], "path")

	second := fake.requests[1]
	assert.Equal(t, "resp_1", second["previous_response_id"])
	input := second["input"].([]interface{})
	require.Len(t, input, 1)
	output := input[0].(map[string]interface{})
	assert.Equal(t, "function_call_output", output["type"])
	assert.Equal(t, "call_1", output["call_id"])
	assert.Equal(t, "contents of notes.md", output["output"])
}

func TestRun_ToolFailureIsReportedToBackend(t *testing.T) {
	fake := &fakeResponses{replies: []string{
		`{"id":"resp_1","status":"completed","output":[{"type":"function_call","call_id":"c","name":"http-files_read_file","arguments":"{\"path\":\"x\"}"}]}`,
		`{"id":"resp_2","status":"completed","output":[{"type":"message","role":"assistant","content":[{"type":"output_text","text":"The file server is down."}]}]}`,
	}}
	engine := newEngine(t, fake, 5)

	result, err := engine.Run(context.Background(), "read x", &fakeToolset{fail: true})
	require.NoError(t, err)
	assert.Equal(t, "The file server is down.", result.Output)
	require.Len(t, result.ToolEvents, 1)
	assert.Equal(t, "transport closed", result.ToolEvents[0].Error)

	output := fake.requests[1]["input"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "error: transport closed", output["output"])
}

func TestRun_MaxTurns(t *testing.T) {
	call := `{"id":"r","status":"completed","output":[{"type":"function_call","call_id":"c","name":"http-files_read_file","arguments":"{\"path\":\"x\"}"}]}`
	fake := &fakeResponses{replies: []string{call, call, call}}
	engine := newEngine(t, fake, 2)

	_, err := engine.Run(context.Background(), "loop", &fakeToolset{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "within 2 turns")
	assert.Len(t, fake.requests, 2)
}

func TestRun_Errors(t *testing.T) {
	t.Run("missing api key", func(t *testing.T) {
		engine := NewOpenAI(OpenAIOptions{})
		_, err := engine.Run(context.Background(), "hi", nil)
		assert.ErrorIs(t, err, ErrMissingAPIKey)
	})

	t.Run("provider error", func(t *testing.T) {
		fake := &fakeResponses{}
		engine := newEngine(t, fake, 2)
		_, err := engine.Run(context.Background(), "hi", nil)

		var perr *ProviderError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, http.StatusInternalServerError, perr.StatusCode)
		assert.Equal(t, "no scripted reply", perr.Message)
	})

	t.Run("no tools", func(t *testing.T) {
		fake := &fakeResponses{replies: []string{
			`{"id":"r","status":"completed","output":[{"type":"message","role":"assistant","content":[{"type":"output_text","text":"hello"}]}]}`,
		}}
		engine := newEngine(t, fake, 2)
		result, err := engine.Run(context.Background(), "hi", nil)
		require.NoError(t, err)
		assert.Equal(t, "hello", result.Output)
		assert.NotNil(t, result.ToolEvents)
		assert.NotNil(t, result.Citations)
		_, hasTools := fake.requests[0]["tools"]
		assert.False(t, hasTools)
	})
}

func TestToolParameters(t *testing.T) {
	schemaJSON := func(tool mcp.Tool) string {
		raw, err := json.Marshal(toolParameters(tool))
		require.NoError(t, err)
		return string(raw)
	}

	raw := mcp.NewToolWithRawSchema("raw", "", json.RawMessage(`{"type":"object","properties":{"q":{"type":"string"}}}`))
	assert.JSONEq(t, `{"type":"object","properties":{"q":{"type":"string"}}}`, schemaJSON(raw))

	empty := mcp.Tool{Name: "empty"}
	assert.JSONEq(t, `{"type":"object","properties":{}}`, schemaJSON(empty))

	required := mcp.NewTool("read", mcp.WithString("path", mcp.Required()))
	assert.JSONEq(t, `{"type":"object","properties":{"path":{"type":"string"}},"required":["path"]}`, schemaJSON(required))
}
