package main

import (
	"go.uber.org/zap"

	"heimdall/internal/errs"
)

// logFieldsForError turns a command failure into structured log
// fields, tagging the error's Kind when one is present.
func logFieldsForError(cmd string, err error) []zap.Field {
	fields := []zap.Field{zap.String("command", cmd), zap.Error(err)}
	if kind, ok := errs.KindOf(err); ok {
		fields = append(fields, zap.String("kind", string(kind)))
	}
	return fields
}
