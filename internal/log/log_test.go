package log

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNew_DefaultLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	logger := New()
	if logger.log.GetLevel() != logrus.InfoLevel {
		t.Errorf("expected default level Info, got %v", logger.log.GetLevel())
	}
}

func TestNew_CustomLevels(t *testing.T) {
	tests := []struct {
		envValue string
		expected logrus.Level
	}{
		{"trace", logrus.TraceLevel},
		{"debug", logrus.DebugLevel},
		{"info", logrus.InfoLevel},
		{"warn", logrus.WarnLevel},
		{"warning", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
		{"invalid", logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.envValue, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", tt.envValue)

			logger := New()
			if logger.log.GetLevel() != tt.expected {
				t.Errorf("for LOG_LEVEL=%s, expected level %v, got %v", tt.envValue, tt.expected, logger.log.GetLevel())
			}
		})
	}
}

func TestOptionsFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_FILE", "/var/log/agent.log")
	t.Setenv("LOG_FILE_MAX_SIZE_MB", "50")
	t.Setenv("LOG_FILE_MAX_BACKUPS", "not-a-number")
	t.Setenv("LOG_FILE_MAX_AGE_DAYS", "")

	opts := OptionsFromEnv()

	if opts.Level != "warn" || opts.Format != "json" || opts.File != "/var/log/agent.log" {
		t.Errorf("unexpected options: %+v", opts)
	}
	if opts.MaxSizeMB != 50 {
		t.Errorf("MaxSizeMB = %d; want 50", opts.MaxSizeMB)
	}
	if opts.MaxBackups != 3 {
		t.Errorf("MaxBackups = %d; want default 3", opts.MaxBackups)
	}
	if opts.MaxAgeDays != 28 {
		t.Errorf("MaxAgeDays = %d; want default 28", opts.MaxAgeDays)
	}
}

func TestNewWithOptions_JSONFormat(t *testing.T) {
	logger := NewWithOptions(Options{Format: "json"})
	var buf bytes.Buffer
	logger.log.SetOutput(&buf)

	logger.InfoWithFields(logrus.Fields{"pin": 16}, "applied %d", 512)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	if entry["msg"] != "applied 512" {
		t.Errorf("msg = %v; want applied 512", entry["msg"])
	}
	if entry["pin"] != float64(16) {
		t.Errorf("pin = %v; want 16", entry["pin"])
	}
}

func TestNewWithOptions_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.log")
	logger := NewWithOptions(Options{File: path, MaxSizeMB: 1, MaxBackups: 1, MaxAgeDays: 1})

	logger.Warn("written to file")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Errorf("expected message in log file, got: %s", data)
	}
}

func TestClose_NoFile(t *testing.T) {
	logger := NewWithOptions(Options{})
	if err := logger.Close(); err != nil {
		t.Errorf("Close() = %v; want nil", err)
	}
}

func TestLevelMethods(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf)

	logger.Trace("trace message")
	logger.Debug("debug message")
	logger.DebugWithFields(logrus.Fields{"id": "123"}, "debug fields")
	logger.Info("info message")
	logger.InfoWithFields(logrus.Fields{"status": "ok"}, "info fields")
	logger.Warn("warn message")
	logger.WarnWithFields(logrus.Fields{"reason": "timeout"}, "warn fields")
	logger.Error("error message")
	logger.ErrorWithFields(logrus.Fields{"code": "500"}, "error fields")

	output := buf.String()
	for _, want := range []string{
		"trace message", "debug message", "id=123", "info message", "status=ok",
		"warn message", "reason=timeout", "error message", "code=500",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}
