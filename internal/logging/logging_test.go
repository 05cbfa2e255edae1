package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func captureLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, nil))
}

func TestSheetLoggerAttachesContext(t *testing.T) {
	var buf bytes.Buffer
	SheetLogger(captureLogger(&buf), "01_基礎講義").Info("sheet scanned")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if entry["sheet"] != "01_基礎講義" {
		t.Errorf("sheet = %v", entry["sheet"])
	}
}

func TestTaskLoggerAttachesProvenance(t *testing.T) {
	var buf bytes.Buffer
	TaskLogger(captureLogger(&buf), "sheet1", 7, "資料2").Info("downloaded")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if entry["sheet"] != "sheet1" {
		t.Errorf("sheet = %v", entry["sheet"])
	}
	if entry["row"] != float64(7) {
		t.Errorf("row = %v", entry["row"])
	}
	if entry["column"] != "資料2" {
		t.Errorf("column = %v", entry["column"])
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
