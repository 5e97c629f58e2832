package formatting

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"mcpbridge/internal/aggregator"
	"mcpbridge/internal/mcpserver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func testReport() Report {
	return Report{
		Snapshot: aggregator.Snapshot{
			Hosted: []aggregator.HostedInfo{{Label: "linear", URL: "https://mcp.linear.app/mcp", Kind: mcpserver.KindHosted}},
			Streamable: []aggregator.ConnectionState{
				{Name: "http-files", Kind: mcpserver.KindStreamable, Locator: "https://files/mcp", Status: aggregator.StatusConnected, ToolCount: 1},
				{Name: "stdio-npx-1", Kind: mcpserver.KindStdio, Locator: "npx server", Status: aggregator.StatusFailed, Error: "exec: not found"},
			},
			Count:          2,
			Connected:      1,
			Failed:         1,
			ConfigErrors:   []string{"[MCP_HOSTED_LABELS_URLS] entry 1 \"broken\": expected label=url"},
			BootstrappedAt: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
		},
		Tools: []ToolRow{{Name: "http-files_read", Server: "http-files", Tool: "read", Description: "Read a file"}},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    OutputFormat
		wantErr bool
	}{
		{input: "", want: FormatTable},
		{input: "table", want: FormatTable},
		{input: "JSON", want: FormatJSON},
		{input: " yaml ", want: FormatYAML},
		{input: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(Options{Format: FormatJSON}).FormatReport(&buf, testReport()))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	snap := decoded["snapshot"].(map[string]interface{})
	assert.Equal(t, float64(2), snap["count"])
	assert.Len(t, decoded["tools"], 1)
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(Options{Format: FormatYAML}).FormatReport(&buf, testReport()))

	var decoded map[string]interface{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	snap := decoded["snapshot"].(map[string]interface{})
	assert.Equal(t, 2, snap["count"])
	streamable := snap["streamable"].([]interface{})
	assert.Equal(t, "failed", streamable[1].(map[string]interface{})["status"])
}

func TestTableFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(Options{Format: FormatTable}).FormatReport(&buf, testReport()))

	out := buf.String()
	assert.Contains(t, out, "linear")
	assert.Contains(t, out, "stdio-npx-1")
	assert.Contains(t, out, "exec: not found")
	assert.Contains(t, out, "http-files_read")
	assert.Contains(t, out, "skipped:")
	assert.Contains(t, out, "Available providers: 2 (1 hosted, 1 connected, 1 failed)")
}

func TestPrettyJSON(t *testing.T) {
	assert.Equal(t, "{\n  \"name\": \"test\"\n}", PrettyJSON(map[string]string{"name": "test"}))
	assert.Equal(t, "\"hello\"", PrettyJSON("hello"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ab", truncate("abcdef", 2))
}
