// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ LoggerInterface = (*Logger)(nil)

type Logger struct {
	*zap.SugaredLogger

	security *SecurityLogger
}

func (l *Logger) Security() SecurityLoggerInterface {
	return l.security
}

// NewLogger creates a JSON logger writing to stdout, level defaults to error on bad input
func NewLogger(l string) *Logger {
	var lvl string

	switch strings.ToLower(l) {
	case "debug", "info", "warn", "error":
		lvl = strings.ToLower(l)
	default:
		lvl = "error"
	}

	level, err := zap.ParseAtomicLevel(lvl)
	if err != nil {
		panic(err.Error())
	}

	c := zap.NewProductionConfig()
	c.Level = level
	c.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	c.EncoderConfig.TimeKey = "@timestamp"

	z, err := c.Build()
	if err != nil {
		panic(err.Error())
	}

	logger := new(Logger)
	logger.SugaredLogger = z.Sugar()
	// security events are always emitted regardless of the configured level
	logger.security = newSecurityLogger(z.WithOptions(zap.IncreaseLevel(zapcore.InfoLevel)).With(zap.String("type", "security")))

	return logger
}

// NewNoopLogger discards everything, security events included
func NewNoopLogger() *Logger {
	logger := new(Logger)
	logger.SugaredLogger = zap.NewNop().Sugar()
	logger.security = newSecurityLogger(zap.NewNop())

	return logger
}
