package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/jaa/songmeta/internal/config"
)

// ParseLevel maps a config level name to a zap level.
func ParseLevel(raw string) (zapcore.Level, error) {
	switch raw {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info", "":
		return zapcore.InfoLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", raw)
	}
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.RFC3339TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
}

// New opens the run log described by cfg. Entries are JSON lines appended
// to cfg.File through lumberjack rotation and carry the run ID. An empty
// cfg.File yields a no-op logger. The returned closer flushes and closes
// the file.
func New(cfg config.Log, runID string) (*zap.Logger, func() error, error) {
	if cfg.File == "" {
		return zap.NewNop(), func() error { return nil }, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
	}
	logger, err := NewWithWriter(cfg.Level, rotator, runID)
	if err != nil {
		_ = rotator.Close()
		return nil, nil, err
	}
	closer := func() error {
		_ = logger.Sync()
		return rotator.Close()
	}
	return logger, closer, nil
}

// NewWithWriter builds the JSON logger over an arbitrary writer.
func NewWithWriter(level string, w io.Writer, runID string) (*zap.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), zapcore.AddSync(w), lvl)
	logger := zap.New(core)
	if runID != "" {
		logger = logger.With(zap.String("run_id", runID))
	}
	return logger, nil
}
