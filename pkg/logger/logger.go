package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds logger configuration
type Config struct {
	Level       string
	Environment string
	// File, when set, receives a copy of every entry and is rotated by size.
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// New builds a logger: a coloured console encoder in development, JSON with an
// ISO8601 "timestamp" key everywhere else.
func New(cfg Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("invalid log level %s: %w", cfg.Level, err)
		}
	}

	var encoder zapcore.Encoder
	if cfg.Environment == "development" {
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(ec)
	} else {
		ec := zap.NewProductionEncoderConfig()
		ec.TimeKey = "timestamp"
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(ec)
	}

	atomic := zap.NewAtomicLevelAt(level)
	cores := []zapcore.Core{zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), atomic)}

	if cfg.File != "" {
		maxSize := cfg.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 100
		}
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    maxSize,
			MaxBackups: cfg.MaxBackups,
			Compress:   true,
		}
		fileEncoder := zapcore.NewJSONEncoder(func() zapcore.EncoderConfig {
			ec := zap.NewProductionEncoderConfig()
			ec.TimeKey = "timestamp"
			ec.EncodeTime = zapcore.ISO8601TimeEncoder
			return ec
		}())
		cores = append(cores, zapcore.NewCore(fileEncoder, zapcore.AddSync(rotator), atomic))
	}

	return zap.New(zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	), nil
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// LogHTTPRequest logs an HTTP request with standard fields
func LogHTTPRequest(l *zap.Logger, method, path string, statusCode int, duration float64, fields ...zap.Field) {
	base := []zap.Field{
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", statusCode),
		zap.Float64("duration", duration),
	}
	base = append(base, fields...)

	switch {
	case statusCode >= 500:
		l.Error("HTTP request failed", base...)
	case statusCode >= 400:
		l.Warn("HTTP request client error", base...)
	default:
		l.Info("HTTP request", base...)
	}
}
