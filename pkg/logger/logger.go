package logger

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger so packages do not depend on zap directly.
type Logger struct {
	*zap.Logger
}

// New creates a logger with the given level and encoding ("json" or "console").
func New(level, encoding string) (*Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Encoding:         encoding,
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return &Logger{l}, nil
}

// NewNop returns a logger that discards everything. Used in tests.
func NewNop() *Logger {
	return &Logger{zap.NewNop()}
}

func (l *Logger) DebugContext(_ context.Context, msg string, fields ...zap.Field) {
	l.Debug(msg, fields...)
}

func (l *Logger) InfoContext(_ context.Context, msg string, fields ...zap.Field) {
	l.Info(msg, fields...)
}

func (l *Logger) WarnContext(_ context.Context, msg string, fields ...zap.Field) {
	l.Warn(msg, fields...)
}

func (l *Logger) ErrorContext(_ context.Context, msg string, fields ...zap.Field) {
	l.Error(msg, fields...)
}

// Field helpers keep call sites free of zap imports.

func Field(key string, value interface{}) zap.Field { return zap.Any(key, value) }

func StringField(key, value string) zap.Field { return zap.String(key, value) }

func IntField(key string, value int) zap.Field { return zap.Int(key, value) }

func Float64Field(key string, value float64) zap.Field { return zap.Float64(key, value) }

func DurationField(key string, value time.Duration) zap.Field { return zap.Duration(key, value) }

func ErrorField(err error) zap.Field { return zap.Error(err) }
