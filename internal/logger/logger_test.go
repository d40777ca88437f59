package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNew_JSONWithAttributes(t *testing.T) {
	var buf bytes.Buffer

	log := New(&buf, "info", "json").With("run", "abc")
	log.Info("rendered", "rows", 3)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}

	if rec["msg"] != "rendered" || rec["run"] != "abc" || rec["rows"] != float64(3) {
		t.Errorf("record = %v", rec)
	}
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer

	log := New(&buf, "warn", "text")
	log.Debug("hidden")

	if buf.Len() != 0 {
		t.Fatalf("debug written at warn level: %q", buf.String())
	}

	log.SetLevel("debug")
	log.Debug("shown")

	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("debug not written after SetLevel: %q", buf.String())
	}
}
