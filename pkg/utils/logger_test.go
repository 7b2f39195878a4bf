package utils

import (
	"testing"

	"go.uber.org/zap"
)

func TestNewLogger(t *testing.T) {
	t.Run("debug mode returns development logger", func(t *testing.T) {
		logger, err := NewLogger(true)
		if err != nil {
			t.Fatalf("NewLogger(true) error: %v", err)
		}
		if logger == nil {
			t.Fatal("NewLogger(true) returned nil logger")
		}
		if !logger.Core().Enabled(zap.DebugLevel) {
			t.Error("debug logger should enable debug level")
		}
		_ = logger.Sync()
	})

	t.Run("production mode skips debug", func(t *testing.T) {
		logger, err := NewLogger(false)
		if err != nil {
			t.Fatalf("NewLogger(false) error: %v", err)
		}
		if logger.Core().Enabled(zap.DebugLevel) {
			t.Error("production logger should not enable debug level")
		}
		_ = logger.Sync()
	})
}

func TestLoggerOrNop(t *testing.T) {
	if LoggerOrNop(nil) == nil {
		t.Fatal("expected no-op logger for nil")
	}
	l := zap.NewExample()
	if LoggerOrNop(l) != l {
		t.Error("non-nil logger should be returned unchanged")
	}
}
