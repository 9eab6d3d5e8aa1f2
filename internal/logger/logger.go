package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// FieldComponent is the structured log field key naming the emitting service.
	FieldComponent = "component"
	// FieldModel is the structured log field key for an inference model identifier.
	FieldModel = "model"
	// FieldJobID is the structured log field key for an analysis job id.
	FieldJobID = "job_id"
)

// New builds a zap logger. format "json" selects the production encoder,
// anything else the human-readable development encoder.
func New(levelStr, format string) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	}

	var cfg zap.Config
	if format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	return cfg.Build()
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// WithComponent tags the logger with the emitting component name.
// A nil logger yields a no-op logger.
func WithComponent(l *zap.Logger, component string) *zap.Logger {
	l = OrNop(l)
	component = strings.TrimSpace(component)
	if component == "" {
		return l
	}
	return l.With(zap.String(FieldComponent, component))
}

// WithFields returns a child logger carrying fields. A nil logger yields a
// no-op logger.
func WithFields(l *zap.Logger, fields ...zap.Field) *zap.Logger {
	l = OrNop(l)
	if len(fields) == 0 {
		return l
	}
	return l.With(fields...)
}
