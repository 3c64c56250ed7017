package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ayusman/waveoff/internal/config"
)

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Format: "json", Stdout: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("session opened", FieldSessionID, "abc")
	logger.Debug("suppressed")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("expected one JSON line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "session opened" {
		t.Errorf("expected msg 'session opened', got %v", entry["msg"])
	}
	if entry[FieldSessionID] != "abc" {
		t.Errorf("expected session_id abc, got %v", entry[FieldSessionID])
	}
}

func TestNewAutoFormatFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Format: "auto", Stdout: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Warn("frame failed")

	if !strings.HasPrefix(buf.String(), "{") {
		t.Errorf("expected JSON output for non-terminal writer, got %q", buf.String())
	}
}

func TestNewConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "debug", Format: "console", Stdout: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Debug("window updated", "len", 16)

	if !strings.Contains(buf.String(), "msg=\"window updated\"") {
		t.Errorf("expected text handler output, got %q", buf.String())
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestNewFromConfigWritesFile(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Format = "json"
	cfg.Logging.File = filepath.Join(t.TempDir(), "logs", "waveoff.log")

	logger, err := NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Error("detector failed")

	data, err := os.ReadFile(cfg.Logging.File)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "detector failed") {
		t.Errorf("expected log line in file, got %q", data)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"bogus": slog.LevelInfo,
	}
	for input, want := range tests {
		if got := parseLevel(input); got != want {
			t.Errorf("parseLevel(%q): expected %v, got %v", input, want, got)
		}
	}
}
