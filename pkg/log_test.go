package pkg

import (
	"bytes"
	"log/slog"
	"os"
	"strings"
	"testing"
)

func TestSetLogLevel(t *testing.T) {
	original := GetLogLevel()
	defer SetLogLevel(original)

	tests := []struct {
		name  string
		level slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SetLogLevel(tt.level)
			if got := GetLogLevel(); got != tt.level {
				t.Errorf("GetLogLevel() = %v, want %v", got, tt.level)
			}
		})
	}
}

func TestNewJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	if logger == nil {
		t.Fatal("NewJSONLogger returned nil")
	}

	logger.Info("scan complete")
	output := buf.String()
	if !strings.Contains(output, `"msg":"scan complete"`) {
		t.Errorf("JSON log output missing message: %s", output)
	}
}

func TestComponentLogging(t *testing.T) {
	original := DefaultLogger
	defer func() { DefaultLogger = original }()

	tests := []struct {
		name      string
		log       func(Component, string, ...any)
		component Component
		msg       string
	}{
		{"debug", LogDebug, ComponentMatrix, "scan row"},
		{"info", LogInfo, ComponentLink, "peer registered"},
		{"warn", LogWarn, ComponentReport, "sink busy"},
		{"error", LogError, ComponentFirmware, "pin fault"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			SetLogger(NewLogger(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

			tt.log(tt.component, tt.msg, "cycle", 7)
			output := buf.String()
			if !strings.Contains(output, tt.msg) {
				t.Errorf("log missing message: %s", output)
			}
			if !strings.Contains(output, "component="+string(tt.component)) {
				t.Errorf("log missing component: %s", output)
			}
			if !strings.Contains(output, "cycle=7") {
				t.Errorf("log missing attribute: %s", output)
			}
		})
	}
}

func TestLogLevelFiltering(t *testing.T) {
	original := DefaultLogger
	originalLevel := GetLogLevel()
	defer func() {
		DefaultLogger = original
		SetLogLevel(originalLevel)
	}()

	var buf bytes.Buffer
	SetLogger(NewLogger(&buf, nil))
	SetLogLevel(slog.LevelWarn)

	LogDebug(ComponentWheel, "detent")
	if buf.Len() != 0 {
		t.Errorf("debug message logged at warn level: %s", buf.String())
	}

	SetLogLevel(slog.LevelDebug)
	LogDebug(ComponentWheel, "detent")
	if !strings.Contains(buf.String(), "detent") {
		t.Errorf("debug message dropped at debug level: %s", buf.String())
	}
}

func TestSetLogFormat(t *testing.T) {
	original := DefaultLogger
	defer func() {
		DefaultLogger = original
	}()

	var buf bytes.Buffer
	SetLogOutput(&buf)
	defer SetLogOutput(os.Stderr)

	SetLogFormat(LogFormatJSON)
	LogError(ComponentHID, "endpoint stalled")
	if !strings.Contains(buf.String(), `"component":"hid"`) {
		t.Errorf("JSON format not applied: %s", buf.String())
	}

	buf.Reset()
	SetLogFormat(LogFormatText)
	LogError(ComponentHID, "endpoint stalled")
	if !strings.Contains(buf.String(), "component=hid") {
		t.Errorf("text format not applied: %s", buf.String())
	}
}
