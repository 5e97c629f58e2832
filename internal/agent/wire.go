package agent

import "encoding/json"

// Responses API output types. Requests are built with the SDK params; the
// output is decoded from the raw response body so that hosted and function
// calls are read the same way. Only the fields the engine reads are modelled.

type responsesResponse struct {
	ID         string         `json:"id"`
	Status     string         `json:"status"`
	Output     []responseItem `json:"output"`
	Error      *responseError `json:"error"`
	Incomplete *struct {
		Reason string `json:"reason"`
	} `json:"incomplete_details"`
}

type responseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// responseItem is one output item. Type selects which fields are set.
type responseItem struct {
	Type string `json:"type"`

	// type=message
	Role    string           `json:"role,omitempty"`
	Content []messageContent `json:"content,omitempty"`

	// type=function_call
	CallID string `json:"call_id,omitempty"`

	// type=function_call and type=mcp_call
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`

	// type=mcp_call
	ServerLabel string          `json:"server_label,omitempty"`
	Output      *string         `json:"output,omitempty"`
	Error       json.RawMessage `json:"error,omitempty"`
}

// errorText renders an mcp_call error, which is a string or an object.
func (item responseItem) errorText() string {
	if len(item.Error) == 0 || string(item.Error) == "null" {
		return ""
	}
	var s string
	if json.Unmarshal(item.Error, &s) == nil {
		return s
	}
	return string(item.Error)
}

type messageContent struct {
	Type        string       `json:"type"`
	Text        string       `json:"text"`
	Annotations []annotation `json:"annotations,omitempty"`
}

type annotation struct {
	Type       string `json:"type"`
	URL        string `json:"url"`
	Title      string `json:"title"`
	StartIndex int    `json:"start_index"`
	EndIndex   int    `json:"end_index"`
}
