// Package logging builds the zap logger shared by the motorig tools.
package logging

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ParseLevel maps a level name (debug, info, warn, error) to a zap level.
func ParseLevel(s string) (zapcore.Level, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(s)))); err != nil {
		return zap.InfoLevel, fmt.Errorf("logging: unknown level %q", s)
	}
	return lvl, nil
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}

// New builds a logger writing to stderr. format is "json" or "console".
func New(level, format string) (*zap.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	encoding := strings.ToLower(format)
	if encoding == "" {
		encoding = "console"
	}
	if encoding != "json" && encoding != "console" {
		return nil, fmt.Errorf("logging: unknown format %q", format)
	}

	enc := encoderConfig()
	if encoding == "console" {
		enc.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	config := zap.Config{
		Level:             zap.NewAtomicLevelAt(lvl),
		Development:       false,
		Encoding:          encoding,
		EncoderConfig:     enc,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
		DisableCaller:     true,
		DisableStacktrace: true,
	}
	return config.Build()
}

// NewWriter builds a JSON logger writing to w, for tests and embedding.
func NewWriter(w io.Writer, level zapcore.Level) *zap.Logger {
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), zapcore.AddSync(w), level)
	return zap.New(core)
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
