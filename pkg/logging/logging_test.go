package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LogLevel(999), "UNKNOWN"},
	}

	for _, test := range tests {
		result := test.level.String()
		if result != test.expected {
			t.Errorf("LogLevel(%d).String() = %s, expected %s", test.level, result, test.expected)
		}
	}
}

func TestLogLevel_SlogLevel(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected slog.Level
	}{
		{LevelDebug, slog.LevelDebug},
		{LevelInfo, slog.LevelInfo},
		{LevelWarn, slog.LevelWarn},
		{LevelError, slog.LevelError},
		{LogLevel(999), slog.LevelInfo}, // Default for unknown
	}

	for _, test := range tests {
		result := test.level.SlogLevel()
		if result != test.expected {
			t.Errorf("LogLevel(%d).SlogLevel() = %v, expected %v", test.level, result, test.expected)
		}
	}
}

func TestInitForCLI(t *testing.T) {
	var buf bytes.Buffer

	InitForCLI(LevelInfo, &buf)

	Info("test-subsystem", "test message")

	output := buf.String()
	if !strings.Contains(output, "test message") {
		t.Error("Expected log message to appear in CLI output")
	}

	if !strings.Contains(output, "test-subsystem") {
		t.Error("Expected subsystem to appear in CLI output")
	}
}

func TestCLILevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	// Initialize with INFO level
	InitForCLI(LevelInfo, &buf)

	// Debug should be filtered out
	Debug("test", "debug message")

	// Info should appear
	Info("test", "info message")

	output := buf.String()
	if strings.Contains(output, "debug message") {
		t.Error("Debug message should be filtered out at INFO level")
	}

	if !strings.Contains(output, "info message") {
		t.Error("Info message should appear at INFO level")
	}
}

func TestErrorIncludesCause(t *testing.T) {
	var buf bytes.Buffer
	InitForCLI(LevelDebug, &buf)

	Error("Bootstrap", errors.New("dial tcp: refused"), "connect failed for %s", "http-example.com")

	output := buf.String()
	if !strings.Contains(output, "connect failed for http-example.com") {
		t.Errorf("Expected formatted message in output, got %q", output)
	}
	if !strings.Contains(output, "dial tcp: refused") {
		t.Errorf("Expected error text in output, got %q", output)
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelInfo, ParseFormat("JSON"), &buf)

	Warn("Parser", "skipping entry %q", "broken")

	var record map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("Expected JSON output, got %q: %v", buf.String(), err)
	}
	if record["subsystem"] != "Parser" {
		t.Errorf("Expected subsystem Parser, got %v", record["subsystem"])
	}
	if record["level"] != "WARN" {
		t.Errorf("Expected level WARN, got %v", record["level"])
	}
}

func TestParseFormat(t *testing.T) {
	if ParseFormat("") != FormatText {
		t.Error("Expected empty string to default to text")
	}
	if ParseFormat(" json ") != FormatJSON {
		t.Error("Expected json to be recognised")
	}
	if ParseFormat("logfmt") != FormatText {
		t.Error("Expected unknown format to default to text")
	}
}

func TestAudit(t *testing.T) {
	var buf bytes.Buffer
	InitForCLI(LevelInfo, &buf)

	Audit(AuditEvent{
		Action:  "comment_create",
		Outcome: "verified",
		Target:  "ISS-1",
		Token:   "2d9c1c1e-0000-5000-8000-000000000000",
	})

	output := buf.String()
	for _, want := range []string{"[AUDIT] comment_create", "outcome=verified", "target=ISS-1"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %q in audit output, got %q", want, output)
		}
	}
}
