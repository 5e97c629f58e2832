package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"mcpbridge/internal/config"
	"mcpbridge/internal/metrics"
	"mcpbridge/pkg/logging"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
)

// OpenAIOptions configures the Responses API engine.
type OpenAIOptions struct {
	APIKey       string
	BaseURL      string
	Model        string
	AgentName    string
	Instructions string
	// MaxTurns bounds the number of backend round trips per run.
	MaxTurns int
	// MaxRetries is how often the SDK retries a failed request. Zero
	// disables retries.
	MaxRetries int
	HTTPClient *http.Client
	Metrics    *metrics.Metrics
}

// OptionsFromConfig builds engine options from the configuration.
func OptionsFromConfig(cfg config.Config, m *metrics.Metrics) OpenAIOptions {
	return OpenAIOptions{
		APIKey:       cfg.OpenAI.APIKey,
		BaseURL:      cfg.OpenAI.BaseURL,
		Model:        cfg.OpenAI.Model,
		AgentName:    cfg.Agent.Name,
		Instructions: cfg.Agent.Instructions,
		MaxTurns:     cfg.Agent.MaxTurns,
		MaxRetries:   config.DefaultOpenAIMaxRetries,
		HTTPClient:   &http.Client{Timeout: cfg.OpenAI.Timeout},
		Metrics:      m,
	}
}

// OpenAI implements Engine on the OpenAI Responses API.
type OpenAI struct {
	opts   OpenAIOptions
	client openai.Client
}

var _ Engine = (*OpenAI)(nil)

// NewOpenAI creates the engine. Unset options take the configured defaults.
func NewOpenAI(opts OpenAIOptions) *OpenAI {
	if opts.BaseURL == "" {
		opts.BaseURL = config.DefaultOpenAIBaseURL
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.Model == "" {
		opts.Model = config.DefaultOpenAIModel
	}
	if opts.MaxTurns <= 0 {
		opts.MaxTurns = config.DefaultAgentMaxTurns
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: config.DefaultOpenAITimeout}
	}

	client := openai.NewClient(
		option.WithAPIKey(opts.APIKey),
		option.WithBaseURL(opts.BaseURL+"/"),
		option.WithHTTPClient(opts.HTTPClient),
		option.WithMaxRetries(opts.MaxRetries),
	)
	return &OpenAI{opts: opts, client: client}
}

// Run sends prompt to the backend and executes local tool calls until the
// backend produces a final answer.
func (e *OpenAI) Run(ctx context.Context, prompt string, tools Toolset) (result *Result, err error) {
	start := time.Now()
	defer func() {
		e.opts.Metrics.RecordRun(time.Since(start), err)
	}()

	if e.opts.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	result = &Result{ToolEvents: []ToolEvent{}, Citations: []Citation{}}
	declared := e.declareTools(tools)

	params := responses.ResponseNewParams{
		Model:    shared.ResponsesModel(e.opts.Model),
		Input:    responses.ResponseNewParamsInputUnion{OfString: openai.String(prompt)},
		Tools:    declared,
		Metadata: map[string]string{"agent": e.opts.AgentName},
	}
	if e.opts.Instructions != "" {
		params.Instructions = openai.String(e.opts.Instructions)
	}

	for turn := 1; turn <= e.opts.MaxTurns; turn++ {
		resp, err := e.create(ctx, params)
		if err != nil {
			return nil, err
		}

		var calls []responseItem
		var text strings.Builder
		for _, item := range resp.Output {
			switch item.Type {
			case "message":
				for _, c := range item.Content {
					if c.Type != "output_text" {
						continue
					}
					text.WriteString(c.Text)
					for _, a := range c.Annotations {
						if a.Type == "url_citation" {
							result.Citations = append(result.Citations, Citation{
								URL: a.URL, Title: a.Title, StartIndex: a.StartIndex, EndIndex: a.EndIndex,
							})
						}
					}
				}
			case "mcp_call":
				event := ToolEvent{
					Type:      EventHostedCall,
					Server:    item.ServerLabel,
					Tool:      item.Name,
					Arguments: item.Arguments,
					Error:     item.errorText(),
				}
				if item.Output != nil {
					event.Output = *item.Output
				}
				result.ToolEvents = append(result.ToolEvents, event)
			case "function_call":
				calls = append(calls, item)
			}
		}

		if len(calls) == 0 {
			if resp.Status == "incomplete" && text.Len() == 0 {
				reason := "unknown"
				if resp.Incomplete != nil {
					reason = resp.Incomplete.Reason
				}
				return nil, fmt.Errorf("response incomplete: %s", reason)
			}
			result.Output = text.String()
			logging.Debug("Agent", "Run finished after %d turn(s) with %d tool event(s)", turn, len(result.ToolEvents))
			return result, nil
		}

		outputs := make(responses.ResponseInputParam, 0, len(calls))
		for _, call := range calls {
			event := e.callLocal(ctx, tools, call)
			result.ToolEvents = append(result.ToolEvents, event)
			output := event.Output
			if event.Error != "" {
				output = "error: " + event.Error
			}
			outputs = append(outputs, responses.ResponseInputItemParamOfFunctionCallOutput(call.CallID, output))
		}

		params.Input = responses.ResponseNewParamsInputUnion{OfInputItemList: outputs}
		params.PreviousResponseID = openai.String(resp.ID)
	}

	return nil, fmt.Errorf("agent did not produce a final answer within %d turns", e.opts.MaxTurns)
}

// declareTools converts the toolset into backend tool declarations.
func (e *OpenAI) declareTools(tools Toolset) []responses.ToolUnionParam {
	if tools == nil {
		return nil
	}

	var declared []responses.ToolUnionParam
	for _, h := range tools.Hosted() {
		declared = append(declared, responses.ToolUnionParam{OfMcp: &responses.ToolMcpParam{
			ServerLabel: h.Label,
			ServerURL:   h.URL,
			RequireApproval: responses.ToolMcpRequireApprovalUnionParam{
				OfMcpToolApprovalSetting: openai.String("never"),
			},
		}})
	}

	for _, t := range tools.Tools() {
		function := &responses.FunctionToolParam{
			Name:       t.Name,
			Parameters: toolParameters(t.Tool),
			Strict:     openai.Bool(false),
		}
		if t.Tool.Description != "" {
			function.Description = openai.String(t.Tool.Description)
		}
		declared = append(declared, responses.ToolUnionParam{OfFunction: function})
	}
	return declared
}

// callLocal executes one function call against the registry. Failures are
// reported back to the backend rather than aborting the run.
func (e *OpenAI) callLocal(ctx context.Context, tools Toolset, call responseItem) ToolEvent {
	event := ToolEvent{Type: EventLocalCall, Tool: call.Name, Arguments: call.Arguments}

	if tools == nil {
		event.Error = "no tools available"
		return event
	}

	args := map[string]interface{}{}
	if strings.TrimSpace(call.Arguments) != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			event.Error = fmt.Sprintf("invalid arguments: %v", err)
			return event
		}
	}

	server, tool, res, err := tools.CallTool(ctx, call.Name, args)
	if server != "" {
		event.Server = server
		event.Tool = tool
	}
	e.opts.Metrics.RecordToolCall(event.Server, err)
	if err != nil {
		logging.Warn("Agent", "Tool %s failed: %v", call.Name, err)
		event.Error = err.Error()
		return event
	}

	event.Output = resultText(res)
	if res.IsError {
		event.Error = event.Output
		event.Output = ""
	}
	return event
}

// create sends one Responses API request and decodes the output items the
// engine acts on.
func (e *OpenAI) create(ctx context.Context, params responses.ResponseNewParams) (*responsesResponse, error) {
	response, err := e.client.Responses.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return nil, providerError(apiErr)
		}
		return nil, fmt.Errorf("openai: sending request: %w", err)
	}

	var resp responsesResponse
	if err := json.Unmarshal([]byte(response.RawJSON()), &resp); err != nil {
		return nil, fmt.Errorf("openai: decoding response: %w", err)
	}
	if resp.Error != nil && resp.Error.Message != "" {
		return nil, &ProviderError{StatusCode: http.StatusOK, Type: resp.Error.Code, Message: resp.Error.Message}
	}
	if resp.Status == "failed" {
		return nil, &ProviderError{StatusCode: http.StatusOK, Message: "response failed"}
	}
	return &resp, nil
}

// providerError converts an SDK error, falling back to the raw
// {"error":{"type":"...","message":"..."}} body when the SDK left the
// message empty.
func providerError(apiErr *openai.Error) error {
	perr := &ProviderError{StatusCode: apiErr.StatusCode, Type: apiErr.Type, Message: apiErr.Message}
	if perr.Message != "" {
		return perr
	}

	var wireError struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	raw := apiErr.RawJSON()
	if json.Unmarshal([]byte(raw), &wireError) == nil && wireError.Error.Message != "" {
		perr.Type = wireError.Error.Type
		perr.Message = wireError.Error.Message
		return perr
	}
	perr.Message = strings.TrimSpace(raw)
	if perr.Message == "" {
		perr.Message = http.StatusText(apiErr.StatusCode)
	}
	return perr
}

// toolParameters returns the JSON schema of tool's input as an object
// schema.
func toolParameters(tool mcp.Tool) map[string]interface{} {
	if len(tool.RawInputSchema) > 0 {
		var schema map[string]interface{}
		if err := json.Unmarshal(tool.RawInputSchema, &schema); err == nil && schema != nil {
			return schema
		}
	}

	schema := map[string]interface{}{"type": "object", "properties": map[string]interface{}{}}
	if len(tool.InputSchema.Properties) > 0 {
		schema["properties"] = tool.InputSchema.Properties
	}
	if len(tool.InputSchema.Required) > 0 {
		schema["required"] = tool.InputSchema.Required
	}
	return schema
}

// resultText flattens a tool result into the text sent to the backend.
func resultText(res *mcp.CallToolResult) string {
	if res == nil {
		return ""
	}
	parts := make([]string, 0, len(res.Content))
	for _, content := range res.Content {
		if text, ok := mcp.AsTextContent(content); ok {
			parts = append(parts, text.Text)
			continue
		}
		raw, err := json.Marshal(content)
		if err != nil {
			continue
		}
		parts = append(parts, string(raw))
	}
	return strings.Join(parts, "\n")
}
