// internal/observability/logger_test.go
package observability

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/shekelcheck/internal/config"
)

// initBuffered initializes the global logger against an in-memory sink.
func initBuffered(t *testing.T, cfg config.LoggerConfig) *bytes.Buffer {
	t.Helper()
	ResetForTest()
	t.Cleanup(ResetForTest)

	var buf bytes.Buffer
	Initialize(cfg, zapcore.AddSync(&buf))
	return &buf
}

func TestInitialize(t *testing.T) {
	t.Run("should initialize console logger with colors", func(t *testing.T) {
		buf := initBuffered(t, config.LoggerConfig{
			Level:       "debug",
			Format:      "console",
			ServiceName: "TestService",
			Colors:      config.ColorConfig{Info: "green"},
		})

		GetLogger().Info("This is a test message.")
		Sync()

		output := buf.String()
		assert.Contains(t, output, "INFO")
		assert.Contains(t, output, "This is a test message.")
		assert.Contains(t, output, ansiColors["green"], "info level should be colorized green")
		assert.Contains(t, output, colorReset)
		assert.Contains(t, output, "TestService.")
	})

	t.Run("should fall back to plain level names for unknown colors", func(t *testing.T) {
		buf := initBuffered(t, config.LoggerConfig{
			Level:  "info",
			Format: "console",
			Colors: config.ColorConfig{Info: "chartreuse"},
		})

		GetLogger().Info("plain")
		Sync()

		assert.Contains(t, buf.String(), "INFO")
		assert.NotContains(t, buf.String(), colorReset)
	})

	t.Run("should initialize json logger", func(t *testing.T) {
		buf := initBuffered(t, config.LoggerConfig{
			Level:       "info",
			Format:      "json",
			ServiceName: "JSONTest",
		})

		GetLogger().Warn("This is a JSON message.", zap.String("key", "value"))
		Sync()

		var logEntry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry), "log output should be valid JSON")
		assert.Equal(t, "WARN", logEntry["level"])
		assert.Equal(t, "JSONTest", logEntry["logger"])
		assert.Equal(t, "This is a JSON message.", logEntry["msg"])
		assert.Equal(t, "value", logEntry["key"])
	})

	t.Run("should honor the configured level", func(t *testing.T) {
		buf := initBuffered(t, config.LoggerConfig{Level: "warn", Format: "json"})

		GetLogger().Info("dropped")
		Sync()
		assert.Empty(t, buf.String())
	})

	t.Run("should write to a log file if configured", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "shekelcheck.log")
		initBuffered(t, config.LoggerConfig{
			Level:   "debug",
			Format:  "console",
			LogFile: logFile,
			MaxSize: 1,
		})

		GetLogger().Error("This should go to the file.")
		Sync()

		content, err := os.ReadFile(logFile)
		require.NoError(t, err)
		assert.Contains(t, string(content), "This should go to the file.")
		assert.Contains(t, string(content), `"level":"ERROR"`, "file sink is always JSON")
	})

	t.Run("should only initialize once", func(t *testing.T) {
		buf := initBuffered(t, config.LoggerConfig{Level: "info", ServiceName: "First"})
		logger1 := GetLogger()

		Initialize(config.LoggerConfig{Level: "debug", ServiceName: "Second"}, zapcore.AddSync(&bytes.Buffer{}))
		logger2 := GetLogger()

		assert.Same(t, logger1, logger2)
		logger2.Info("test")
		Sync()
		assert.Contains(t, buf.String(), "First")
		assert.NotContains(t, buf.String(), "Second")
	})
}

func TestGetLogger(t *testing.T) {
	t.Run("should return a fallback logger if not initialized", func(t *testing.T) {
		ResetForTest()
		require.NotNil(t, GetLogger())
	})

	t.Run("should return the global logger after initialization", func(t *testing.T) {
		initBuffered(t, config.LoggerConfig{Level: "info", ServiceName: "GlobalTest"})
		assert.Same(t, globalLogger.Load(), GetLogger())
	})
}

func TestParseLevel(t *testing.T) {
	for name, want := range map[string]zapcore.Level{
		"":       zapcore.InfoLevel,
		"debug":  zapcore.DebugLevel,
		" WARN ": zapcore.WarnLevel,
		"error":  zapcore.ErrorLevel,
	} {
		got, err := ParseLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	got, err := ParseLevel("verbose")
	require.Error(t, err)
	assert.Equal(t, zapcore.InfoLevel, got)
}

func TestNew(t *testing.T) {
	t.Run("unknown level falls back to info", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New(config.LoggerConfig{Level: "chatty", Format: "json"}, zapcore.AddSync(&buf))
		require.Error(t, err)
		require.NotNil(t, logger)

		logger.Debug("hidden")
		logger.Info("shown")
		require.NoError(t, logger.Sync())
		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("does not install a global logger", func(t *testing.T) {
		ResetForTest()
		t.Cleanup(ResetForTest)
		_, err := New(config.LoggerConfig{Level: "info"}, zapcore.AddSync(&bytes.Buffer{}))
		require.NoError(t, err)
		assert.Nil(t, globalLogger.Load())
	})
}

func TestPalette(t *testing.T) {
	p := newPalette(config.ColorConfig{Info: "Green", Error: "red", Warn: "chartreuse"})
	assert.Equal(t, ansiColors["green"], p[zapcore.InfoLevel], "names are case-insensitive")
	assert.Equal(t, ansiColors["red"], p[zapcore.ErrorLevel])
	_, ok := p[zapcore.WarnLevel]
	assert.False(t, ok)
}

func TestIgnorableSyncError(t *testing.T) {
	assert.True(t, ignorableSyncError(&os.PathError{Op: "sync", Path: "/dev/stderr", Err: syscall.EINVAL}))
	assert.True(t, ignorableSyncError(fmt.Errorf("wrapped: %w", syscall.ENOTTY)))
	assert.False(t, ignorableSyncError(&os.PathError{Op: "sync", Path: "/var/log/x", Err: syscall.EIO}))
}
