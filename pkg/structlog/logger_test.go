package structlog

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLogger_WritesJSONRecord(t *testing.T) {
	var buf bytes.Buffer
	logger := New("tester", LevelDebug, &buf)

	logger.Info("something happened", Fields{"count": 3})

	var record map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if record["message"] != "something happened" {
		t.Errorf("Expected message field, got %v", record["message"])
	}
	if record["component"] != "tester" {
		t.Errorf("Expected component field, got %v", record["component"])
	}
	if record["level"] != "INFO" {
		t.Errorf("Expected INFO level, got %v", record["level"])
	}
	if record["count"] != float64(3) {
		t.Errorf("Expected count field, got %v", record["count"])
	}
	if _, ok := record["timestamp"]; !ok {
		t.Error("Expected timestamp field")
	}
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := New("tester", LevelWarn, &buf)

	logger.Debug("too quiet", nil)
	logger.Info("still too quiet", nil)
	if buf.Len() != 0 {
		t.Fatalf("Expected no output below threshold, got %q", buf.String())
	}

	logger.Warn("loud enough", nil)
	if buf.Len() == 0 {
		t.Error("Expected warn record to be written")
	}
}

func TestLogger_WithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New("tester", LevelDebug, &buf).WithFields(Fields{"run_id": "abc"})

	logger.Info("first", nil)
	logger.Info("second", nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(lines))
	}
	for _, line := range lines {
		if !strings.Contains(line, `"run_id":"abc"`) {
			t.Errorf("Expected base field in record %s", line)
		}
	}
}

func TestNop_DropsEverything(t *testing.T) {
	logger := Nop()
	logger.Error("into the void", Fields{"x": 1})
	// Nothing to assert beyond not panicking with no writer.
}
