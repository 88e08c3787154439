package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/wonny/sector-rotation/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		cfg       *config.Config
		wantLevel zerolog.Level
	}{
		{
			name:      "debug level",
			cfg:       &config.Config{Env: "development", LogLevel: "debug", LogFormat: "json"},
			wantLevel: zerolog.DebugLevel,
		},
		{
			name:      "warn level",
			cfg:       &config.Config{Env: "staging", LogLevel: "warn", LogFormat: "console"},
			wantLevel: zerolog.WarnLevel,
		},
		{
			name:      "unknown falls back to info",
			cfg:       &config.Config{Env: "production", LogLevel: "verbose", LogFormat: "json"},
			wantLevel: zerolog.InfoLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if New(tt.cfg) == nil {
				t.Fatal("Expected logger to be created")
			}
			if zerolog.GlobalLevel() != tt.wantLevel {
				t.Errorf("Expected global level %v, got %v", tt.wantLevel, zerolog.GlobalLevel())
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLogLevel(tt.input); got != tt.want {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse log output: %v", err)
	}
	return entry
}

func TestWithComponentAndFields(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	var buf bytes.Buffer
	log := NewWithWriter(&buf, "test")

	log.WithComponent("krx").WithFields(map[string]interface{}{
		"date":  "20250102",
		"count": 35,
	}).Info("fetched")

	entry := decodeEntry(t, &buf)
	if entry["component"] != "krx" {
		t.Errorf("Expected component krx, got %v", entry["component"])
	}
	if entry["date"] != "20250102" {
		t.Errorf("Expected date field, got %v", entry["date"])
	}
	if entry["count"] != float64(35) {
		t.Errorf("Expected count 35, got %v", entry["count"])
	}
	if entry["env"] != "test" {
		t.Errorf("Expected env test, got %v", entry["env"])
	}
	if entry["message"] != "fetched" {
		t.Errorf("Expected message fetched, got %v", entry["message"])
	}
}

func TestWithError(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	var buf bytes.Buffer
	log := NewWithWriter(&buf, "test")

	log.WithError(errors.New("krx unavailable")).Error("operation failed")

	entry := decodeEntry(t, &buf)
	if entry["error"] != "krx unavailable" {
		t.Errorf("Expected error field, got %v", entry["error"])
	}
	if entry["level"] != "error" {
		t.Errorf("Expected level error, got %v", entry["level"])
	}
}

func TestFormattedMethods(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	var buf bytes.Buffer
	log := NewWithWriter(&buf, "test")

	tests := []struct {
		name      string
		logFunc   func()
		wantMsg   string
		wantLevel string
	}{
		{"debugf", func() { log.Debugf("sector %s", "반도체") }, "sector 반도체", "debug"},
		{"infof", func() { log.Infof("score %d/%d", 6, 8) }, "score 6/8", "info"},
		{"warnf", func() { log.Warnf("skipped %d dates", 3) }, "skipped 3 dates", "warn"},
		{"errorf", func() { log.Errorf("failed: %s", "timeout") }, "failed: timeout", "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.logFunc()

			entry := decodeEntry(t, &buf)
			if entry["level"] != tt.wantLevel {
				t.Errorf("Expected level %q, got %q", tt.wantLevel, entry["level"])
			}
			if entry["message"] != tt.wantMsg {
				t.Errorf("Expected message %q, got %q", tt.wantMsg, entry["message"])
			}
		})
	}
}

func TestNop(t *testing.T) {
	// must not panic
	Nop().WithField("a", 1).Info("discarded")
}
