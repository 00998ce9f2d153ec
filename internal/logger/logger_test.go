package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	InitWithOutput("warn", "text", &buf)
	t.Cleanup(func() { defaultLogger = nil })

	Info("hidden %d", 1)
	Warn("shown %d", 2)
	Error("also shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message written at warn level: %q", out)
	}
	if !strings.Contains(out, "[WARN] shown 2") || !strings.Contains(out, "[ERROR] also shown") {
		t.Errorf("missing messages: %q", out)
	}
	if !strings.Contains(out, "logger_test.go") {
		t.Errorf("text format should include caller file: %q", out)
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	InitWithOutput("debug", "json", &buf)
	t.Cleanup(func() { defaultLogger = nil })

	Debug("evaluated %d pairs", 4)

	var line struct {
		Time  string `json:"time"`
		Level string `json:"level"`
		Msg   string `json:"msg"`
	}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("invalid JSON line %q: %v", buf.String(), err)
	}
	if line.Level != "debug" || line.Msg != "evaluated 4 pairs" || line.Time == "" {
		t.Errorf("unexpected line: %+v", line)
	}
}

func TestUninitializedIsNoop(t *testing.T) {
	defaultLogger = nil
	Info("nothing happens")
	Error("still nothing")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{"debug": DebugLevel, "INFO": InfoLevel, "warn": WarnLevel, "error": ErrorLevel, "bogus": InfoLevel}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
