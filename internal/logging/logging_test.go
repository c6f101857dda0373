package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{Format: HumanFormat, Level: WarnLevel, Output: &buf})

	logger.Debug("dropped", nil)
	logger.Info("dropped", nil)
	logger.Warn("kept", nil)
	logger.Error("kept", nil)

	lines := strings.Count(buf.String(), "\n")
	if lines != 2 {
		t.Errorf("Expected 2 log lines, got %d: %q", lines, buf.String())
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{Format: JSONFormat, Level: InfoLevel, Output: &buf})

	logger.Info("refresh complete", map[string]interface{}{"pruned": 3})

	var entry struct {
		Level   string                 `json:"level"`
		Message string                 `json:"message"`
		Fields  map[string]interface{} `json:"fields"`
	}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if entry.Level != "info" || entry.Message != "refresh complete" {
		t.Errorf("Unexpected entry: %+v", entry)
	}
	if entry.Fields["pruned"] != float64(3) {
		t.Errorf("Expected pruned field, got %v", entry.Fields)
	}
}

func TestHumanFormatSortsFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{Format: HumanFormat, Level: InfoLevel, Output: &buf})

	logger.Info("msg", map[string]interface{}{"zeta": 1, "alpha": 2})

	out := buf.String()
	if strings.Index(out, "alpha=") > strings.Index(out, "zeta=") {
		t.Errorf("Expected sorted field order, got %q", out)
	}
}
