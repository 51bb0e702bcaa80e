// Package envconfig reads the CLIPTOK_* environment variables.
package envconfig

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/substratelabs/cliptok/logutil"
)

// LogLevel maps CLIPTOK_DEBUG onto a slog level: unset or falsy is INFO,
// truthy or 1 is DEBUG, 2 and above is TRACE.
func LogLevel() slog.Level {
	s := strings.TrimSpace(os.Getenv("CLIPTOK_DEBUG"))
	if s == "" {
		return slog.LevelInfo
	}

	if i, err := strconv.Atoi(s); err == nil {
		switch {
		case i >= 2:
			return logutil.LevelTrace
		case i == 1:
			return slog.LevelDebug
		default:
			return slog.LevelInfo
		}
	}

	if b, err := strconv.ParseBool(s); err == nil && b {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
