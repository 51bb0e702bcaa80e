// Package logutil provides slog helpers shared by the library and the CLI.
package logutil

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
)

// LevelTrace sits below slog.LevelDebug and is used for per-call pipeline
// tracing (inputs and emitted ids).
const LevelTrace slog.Level = slog.LevelDebug - 4

func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
		ReplaceAttr: func(_ []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.LevelKey:
				if attr.Value.Any().(slog.Level) == LevelTrace {
					attr.Value = slog.StringValue("TRACE")
				}
			case slog.SourceKey:
				source := attr.Value.Any().(*slog.Source)
				source.File = filepath.Base(source.File)
			}
			return attr
		},
	}))
}

func Trace(msg string, args ...any) {
	slog.Default().Log(context.TODO(), LevelTrace, msg, args...)
}
