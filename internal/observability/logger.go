// File: internal/observability/logger.go
package observability

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/xkilldash9x/shekelcheck/internal/config"
)

var (
	globalLogger atomic.Pointer[zap.Logger]
	once         sync.Once

	fallback = sync.OnceValue(func() *zap.Logger {
		return zap.New(zapcore.NewCore(jsonEncoder(), zapcore.Lock(os.Stderr), zap.InfoLevel)).Named("unconfigured")
	})
)

const (
	colorReset = "\x1b[0m"
	timeLayout = "2006-01-02T15:04:05.000Z07:00"
)

var ansiColors = map[string]string{
	"black":   "\x1b[30m",
	"red":     "\x1b[31m",
	"green":   "\x1b[32m",
	"yellow":  "\x1b[33m",
	"blue":    "\x1b[34m",
	"magenta": "\x1b[35m",
	"cyan":    "\x1b[36m",
	"white":   "\x1b[37m",
}

// palette resolves the configured color names once. Levels without a known
// color are printed plain.
type palette map[zapcore.Level]string

func newPalette(c config.ColorConfig) palette {
	p := palette{}
	for level, name := range map[zapcore.Level]string{
		zapcore.DebugLevel:  c.Debug,
		zapcore.InfoLevel:   c.Info,
		zapcore.WarnLevel:   c.Warn,
		zapcore.ErrorLevel:  c.Error,
		zapcore.DPanicLevel: c.Fatal,
		zapcore.PanicLevel:  c.Fatal,
		zapcore.FatalLevel:  c.Fatal,
	} {
		if code, ok := ansiColors[strings.ToLower(name)]; ok {
			p[level] = code
		}
	}
	return p
}

func (p palette) encodeLevel(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	name := level.CapitalString()
	if code, ok := p[level]; ok {
		name = code + name + colorReset
	}
	enc.AppendString(name)
}

// ParseLevel maps a configured level name to a zap level. Unknown names
// return an error together with InfoLevel.
func ParseLevel(name string) (zapcore.Level, error) {
	if strings.TrimSpace(name) == "" {
		return zapcore.InfoLevel, nil
	}
	level, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q: %w", name, err)
	}
	return level, nil
}

func baseEncoderConfig() zapcore.EncoderConfig {
	ec := zap.NewProductionEncoderConfig()
	ec.EncodeTime = zapcore.TimeEncoderOfLayout(timeLayout)
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	return ec
}

func jsonEncoder() zapcore.Encoder {
	return zapcore.NewJSONEncoder(baseEncoderConfig())
}

// consoleEncoder renders one colorized line per entry, logger name suffixed with a dot.
func consoleEncoder(colors config.ColorConfig) zapcore.Encoder {
	ec := baseEncoderConfig()
	ec.EncodeLevel = newPalette(colors).encodeLevel
	ec.EncodeName = func(name string, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(name + ".")
	}
	return zapcore.NewConsoleEncoder(ec)
}

// rotatingFile is the optional file sink. It always receives JSON.
func rotatingFile(cfg config.LoggerConfig) zapcore.WriteSyncer {
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	})
}

// New builds a logger from cfg writing human output to console. It does not
// touch the global logger. An unknown level is reported and info is used.
func New(cfg config.LoggerConfig, console zapcore.WriteSyncer) (*zap.Logger, error) {
	level, levelErr := ParseLevel(cfg.Level)

	var enc zapcore.Encoder
	if cfg.Format == "console" {
		enc = consoleEncoder(cfg.Colors)
	} else {
		enc = jsonEncoder()
	}
	cores := []zapcore.Core{zapcore.NewCore(enc, console, level)}
	if cfg.LogFile != "" {
		cores = append(cores, zapcore.NewCore(jsonEncoder(), rotatingFile(cfg), level))
	}

	opts := []zap.Option{zap.AddStacktrace(zap.ErrorLevel)}
	if cfg.AddSource {
		opts = append(opts, zap.AddCaller())
	}
	logger := zap.New(zapcore.NewTee(cores...), opts...)
	if cfg.ServiceName != "" {
		logger = logger.Named(cfg.ServiceName)
	}
	return logger, levelErr
}

// Initialize installs the global logger. Only the first call has an effect.
func Initialize(cfg config.LoggerConfig, console zapcore.WriteSyncer) {
	once.Do(func() {
		logger, err := New(cfg, console)
		if err != nil {
			logger.Warn("Falling back to info level.", zap.Error(err))
		}
		globalLogger.Store(logger)
		zap.ReplaceGlobals(logger)
	})
}

// InitializeLogger writes console output to Stderr; Stdout carries reports.
func InitializeLogger(cfg config.LoggerConfig) {
	Initialize(cfg, zapcore.Lock(os.Stderr))
}

// ResetForTest clears the global logger. Tests only.
func ResetForTest() {
	globalLogger.Store(nil)
	once = sync.Once{}
}

// GetLogger returns the global logger, or a JSON logger on Stderr when
// Initialize has not run yet.
func GetLogger() *zap.Logger {
	if logger := globalLogger.Load(); logger != nil {
		return logger
	}
	return fallback()
}

// ignorableSyncError reports errors from syncing terminals and pipes, which
// do not support fsync.
func ignorableSyncError(err error) bool {
	return errors.Is(err, syscall.EINVAL) ||
		errors.Is(err, syscall.ENOTTY) ||
		errors.Is(err, syscall.ENOTSUP) ||
		errors.Is(err, syscall.EBADF)
}

// Sync flushes the global logger before exit.
func Sync() {
	logger := globalLogger.Load()
	if logger == nil {
		return
	}
	if err := logger.Sync(); err != nil && !ignorableSyncError(err) {
		fmt.Fprintln(os.Stderr, "Error: failed to sync logger:", err)
	}
}
