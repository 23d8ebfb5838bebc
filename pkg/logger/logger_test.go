package logger_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/screwyprof/racer/pkg/logger"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"loud", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run("it parses "+tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, logger.ParseLevel(tt.in))
		})
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("it writes JSON by default and drops records below the level", func(t *testing.T) {
		t.Parallel()

		// Arrange
		var buf bytes.Buffer
		log := logger.New(&buf, logger.Config{LogLevel: "warn"})

		// Act
		log.Info("hidden")
		log.Warn("visible", slog.Uint64("chainID", 1))

		// Assert
		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), `"msg":"visible"`)
		assert.Contains(t, buf.String(), `"chainID":1`)
	})

	t.Run("it writes text when human friendly", func(t *testing.T) {
		t.Parallel()

		// Arrange
		var buf bytes.Buffer
		log := logger.New(&buf, logger.Config{LogHumanFriendly: true})

		// Act
		log.Info("hello")

		// Assert
		assert.Contains(t, buf.String(), "msg=hello")
	})
}
