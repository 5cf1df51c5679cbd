package logger

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/insiderradar/radar/pkg/config"
)

func TestParseLogLevel(t *testing.T) {
	cases := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"unknown", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tc := range cases {
		if got := parseLogLevel(tc.in); got != tc.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestNewDoesNotPanic(t *testing.T) {
	cfg := &config.Config{
		Env:       "development",
		LogLevel:  "debug",
		LogFormat: "json",
	}

	log := New(cfg)
	log.Info("test message")
	log.WithField("key", "value").Debug("with field")
	log.WithFields(map[string]interface{}{"a": 1, "b": "two"}).Warn("with fields")
}

func TestNopLoggerDiscards(t *testing.T) {
	log := NewNop()
	log.Error("should go nowhere")
	log.Infof("formatted %d", 42)
}
