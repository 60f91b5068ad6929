package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		expect    slog.Level
		expectErr bool
	}{
		{"debug", "debug", slog.LevelDebug, false},
		{"default-info", "", slog.LevelInfo, false},
		{"warn", "warn", slog.LevelWarn, false},
		{"warning-alias", "WARNING", slog.LevelWarn, false},
		{"error", "error", slog.LevelError, false},
		{"invalid", "verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, err := levelFromString(tt.input)
			if tt.expectErr {
				if err == nil {
					t.Fatalf("expected error for input %q", tt.input)
				}
				if !strings.Contains(err.Error(), "invalid log level") {
					t.Fatalf("unexpected error message: %v", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if level != tt.expect {
				t.Fatalf("expected %v, got %v", tt.expect, level)
			}
		})
	}
}

func TestInitAndL(t *testing.T) {
	prevDefault := slog.Default()
	t.Cleanup(func() {
		// reset singleton for other tests
		once = sync.Once{}
		global = nil
		slog.SetDefault(prevDefault)
	})

	var buf bytes.Buffer
	logger, err := Init(Config{Level: "debug", Environment: "dev", WithSource: true, Output: &buf})
	if err != nil {
		t.Fatalf("Init returned error: %v", err)
	}

	if logger == nil {
		t.Fatalf("Init returned nil logger")
	}

	if L() != logger {
		t.Fatalf("L did not return initialized logger")
	}

	// second init should return same instance without error
	logger2, err := Init(Config{Level: "info", Environment: "prod"})
	if err != nil {
		t.Fatalf("unexpected error on second init: %v", err)
	}
	if logger2 != logger {
		t.Fatalf("expected same logger instance on re-init")
	}
}

func TestNewProdUsesJSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Environment: "prod", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	l.Info("hello", "k", "v")
	if !strings.HasPrefix(buf.String(), "{") {
		t.Fatalf("expected JSON output, got %q", buf.String())
	}
}

func TestNewWritesRotatingFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "bot.log")
	l, err := New(Config{Level: "info", File: path, Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	l.Info("file sink check")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "file sink check") {
		t.Fatalf("log file missing entry: %q", data)
	}
	if !strings.Contains(buf.String(), "file sink check") {
		t.Fatalf("stdout writer missing entry: %q", buf.String())
	}
}

func TestLogDispatch(t *testing.T) {
	var buf bytes.Buffer
	l, _ := New(Config{Level: "debug", Output: &buf})

	LogDispatch(l, "create", "123", 12, "", nil)
	if !strings.Contains(buf.String(), "notification delivered") {
		t.Fatalf("expected success entry, got %q", buf.String())
	}

	buf.Reset()
	LogDispatch(l, "cancel", "456", 3, "permission", errors.New("missing SendMessages"))
	out := buf.String()
	if !strings.Contains(out, "notification failed") || !strings.Contains(out, "step=permission") {
		t.Fatalf("expected failure entry with step, got %q", out)
	}
}
