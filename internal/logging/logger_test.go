package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"bsrbot/internal/config"
	"bsrbot/internal/logging"
	"bsrbot/internal/services"
)

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	return string(content)
}

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "logs")

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("bot ready", logging.String("channel", "streamer"))

	content := readLog(t, filepath.Join(cfg.Paths.LogDir, "bsrbot.log"))
	if !strings.Contains(content, "bot ready") || !strings.Contains(content, "channel=streamer") {
		t.Fatalf("unexpected log content %q", content)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")
	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without caller")
	logger.Debug("hidden debug")

	content := readLog(t, logPath)
	if strings.Contains(content, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
	if strings.Contains(content, "hidden debug") {
		t.Fatalf("expected debug line to be filtered, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-debug.log")
	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "debug",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message with caller")

	if content := readLog(t, logPath); !strings.Contains(content, ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestConsoleHeaderShowsComponentAndRequest(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	base, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithRequestID(context.Background(), "1a2b3c4d-ffff")
	ctx = services.WithStage(ctx, "download")
	logger := logging.WithContext(ctx, logging.NewComponentLogger(base, "bot"))
	logger.Info("map fetched", logging.Int("bytes", 42))

	content := readLog(t, logPath)
	for _, want := range []string{"[bot]", "Request 1a2b3c4d (download)", "map fetched", "bytes=42"} {
		if !strings.Contains(content, want) {
			t.Fatalf("expected %q in %q", want, content)
		}
	}
}

func TestNewJSONLogger(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("json message", logging.String("k", "v"))

	var record map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(readLog(t, logPath))), &record); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if record["msg"] != "json message" || record["k"] != "v" || record["level"] != "info" {
		t.Fatalf("unexpected record %v", record)
	}
	if _, ok := record["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", record)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected unsupported format error")
	}
}

func TestWithContextAddsFields(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "push")
	ctx = services.WithRequestID(ctx, "req-xyz")
	ctx = services.WithInvoker(ctx, "viewer")

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logging.WithContext(ctx, logger).Info("contextual log")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	want := map[string]string{
		logging.FieldStage:         "push",
		logging.FieldCorrelationID: "req-xyz",
		logging.FieldInvoker:       "viewer",
	}
	for key, value := range want {
		if record[key] != value {
			t.Fatalf("field %s = %v, want %q", key, record[key], value)
		}
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logging.WarnWithContext(logger, "teardown failed", "device_disconnect_failed",
		logging.String(logging.FieldImpact, "headset left in tcpip mode"),
		logging.Error(errors.New("boom")),
	)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if record[logging.FieldEventType] != "device_disconnect_failed" {
		t.Fatalf("unexpected event type %v", record[logging.FieldEventType])
	}
	if record[logging.FieldErrorHint] == nil {
		t.Fatal("expected default error hint")
	}
	if record[logging.FieldImpact] != "headset left in tcpip mode" {
		t.Fatalf("expected caller impact to win, got %v", record[logging.FieldImpact])
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("expected nop logger to be disabled")
	}
	logging.ErrorWithContext(nil, "ignored", "nil_logger")
}

func TestJSONLoggerWritesDurationsAsSeconds(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("stage finished", logging.Duration("elapsed", 1500*time.Millisecond), logging.Error(errors.New("boom")))

	var record map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(readLog(t, logPath))), &record); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if record["elapsed"] != 1.5 {
		t.Fatalf("expected elapsed 1.5 seconds, got %v", record["elapsed"])
	}
	if record["error"] != "boom" {
		t.Fatalf("expected error string, got %v", record["error"])
	}
}

func TestConsoleLoggerTruncatesLongValues(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("chat line", logging.String("text", strings.Repeat("a", 500)))

	content := readLog(t, logPath)
	if strings.Contains(content, strings.Repeat("a", 200)) {
		t.Fatalf("expected long value to be truncated, got %q", content)
	}
	if !strings.Contains(content, "text="+strings.Repeat("a", 160)+"...") {
		t.Fatalf("expected truncated value with ellipsis, got %q", content)
	}
}

func TestErrorWithContextDerivesHintFromMarker(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{services.Wrap(services.ErrExternalTool, "push", "adb push", "failed", nil), "headset"},
		{services.Wrap(services.ErrTransient, "download", "GET", "status 503", nil), "retry"},
		{services.Wrap(services.ErrValidation, "parse", "id", "bad", nil), "chat input"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))
		logging.ErrorWithContext(logger, "command failed", "command_failed", logging.Error(tt.err))

		var record map[string]any
		if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
			t.Fatalf("decode record: %v", err)
		}
		hint, _ := record[logging.FieldErrorHint].(string)
		if !strings.Contains(hint, tt.want) {
			t.Fatalf("hint for %v = %q, want it to mention %q", tt.err, hint, tt.want)
		}
		if _, ok := record[logging.FieldImpact]; ok {
			t.Fatal("error records should not carry a default impact")
		}
	}
}
