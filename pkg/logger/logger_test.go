package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	levels := []string{"debug", "info", "warn", "error", "unknown"}
	for _, level := range levels {
		Init(level)
		if Log == nil {
			t.Errorf("Init(%s) should set Log", level)
		}
	}
}

func TestInitWithConfig(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{
			name: "json format stdout",
			config: Config{
				Level:  "info",
				Format: "json",
				Output: "stdout",
			},
		},
		{
			name: "text format stderr",
			config: Config{
				Level:  "debug",
				Format: "text",
				Output: "stderr",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			InitWithConfig(tt.config)
			if Log == nil {
				t.Error("Log should not be nil")
			}
		})
	}
}

func TestInitWithConfig_FileOutput(t *testing.T) {
	tempDir := t.TempDir()
	logPath := filepath.Join(tempDir, "test.log")

	InitWithConfig(Config{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: logPath,
	})

	if Log == nil {
		t.Fatal("Log should not be nil")
	}

	Log.Info("test message")

	_, err := os.Stat(logPath)
	assert.NoError(t, err)
}

func TestInitWithConfig_FileOutputInvalidDir(t *testing.T) {
	// Test with invalid directory - should fall back to stdout
	InitWithConfig(Config{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: "/nonexistent/deeply/nested/dir/test.log",
	})

	if Log == nil {
		t.Error("Log should not be nil even with invalid path")
	}
}

func TestLoggingFunctions(t *testing.T) {
	Init("debug")

	// These should not panic
	Debug("debug message", "key", "value")
	Info("info message", "key", "value")
	Warn("warn message", "key", "value")
	Error("error message", "key", "value")
}

func TestWithContext(t *testing.T) {
	Init("info")

	logger := WithContext(context.Background(), "key1", "value1")
	if logger == nil {
		t.Error("WithContext should return logger")
	}
}

func TestWithRequestID(t *testing.T) {
	Init("info")

	logger := WithRequestID("req-123")
	if logger == nil {
		t.Error("WithRequestID should return logger")
	}
}

func TestWithService(t *testing.T) {
	Init("info")

	logger := WithService("test-service")
	if logger == nil {
		t.Error("WithService should return logger")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNew_DoesNotTouchGlobal(t *testing.T) {
	Init("info")
	before := Log

	l := New(Config{Level: "debug", Output: "discard"})
	require.NotNil(t, l)
	assert.Same(t, before, Log)
	assert.True(t, l.Enabled(context.Background(), slog.LevelDebug))
}

func TestContextRoundTrip(t *testing.T) {
	Init("info")

	// без логгера в контексте возвращается глобальный
	assert.Same(t, Log, FromContext(context.Background()))

	var buf bytes.Buffer
	l := slog.New(slog.NewJSONHandler(&buf, nil))
	ctx := IntoContext(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))

	WithSolve(ctx, "solve-1", 4, 5).Info("solved")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "solve-1", entry["solve_id"])
	assert.EqualValues(t, 4, entry["nodes"])
	assert.EqualValues(t, 5, entry["arcs"])
}

func TestNop(t *testing.T) {
	l := Nop()
	require.NotNil(t, l)
	l.Error("ignored")
}

func TestFatal(t *testing.T) {
	if os.Getenv("TEST_FATAL") == "1" {
		Init("info")
		Fatal("fatal message")
		return
	}

	// We can't actually test Fatal without subprocess
	// as it calls os.Exit
}
