// Package logging provides the module's structured logger: a thin,
// package-level wrapper around zap so every command and library
// package logs through the same sink and field conventions.
package logging

import (
	"sync"

	"go.uber.org/zap"
)

var (
	mu  sync.RWMutex
	log *zap.Logger = zap.NewNop()
)

// Init installs the process-wide logger. development selects zap's
// human-readable console encoder (and debug level); otherwise the
// logger emits JSON at info level, suited to log aggregation.
func Init(development bool) error {
	var (
		l   *zap.Logger
		err error
	)
	if development {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return err
	}

	mu.Lock()
	log = l
	mu.Unlock()
	return nil
}

func current() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// Info logs msg at info level with the given structured fields.
func Info(msg string, fields ...zap.Field) { current().Info(msg, fields...) }

// Warn logs msg at warn level with the given structured fields.
func Warn(msg string, fields ...zap.Field) { current().Warn(msg, fields...) }

// Error logs msg at error level with the given structured fields.
func Error(msg string, fields ...zap.Field) { current().Error(msg, fields...) }

// Fatal logs msg at fatal level and then terminates the process, as
// zap.Logger.Fatal does.
func Fatal(msg string, fields ...zap.Field) { current().Fatal(msg, fields...) }

// Sync flushes any buffered log entries. Callers should defer this in
// main after a successful Init.
func Sync() error {
	return current().Sync()
}

// With returns a child logger carrying the given fields on every
// subsequent call, for components (e.g. one presentation variant, one
// credential issuance) that want consistent per-call-site context.
func With(fields ...zap.Field) *zap.Logger {
	return current().With(fields...)
}
