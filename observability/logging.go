package observability

import (
	"log/slog"
	"os"
	"strings"
)

// GetLoggerFromLevel builds the process logger at the given level.
func GetLoggerFromLevel(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// GetLoggerFromString accepts the LOG_LEVEL values DEBUG, INFO, WARN and
// ERROR, falling back to INFO for anything else.
func GetLoggerFromString(level string) *slog.Logger {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return GetLoggerFromLevel(slog.LevelDebug)
	case "WARN":
		return GetLoggerFromLevel(slog.LevelWarn)
	case "ERROR":
		return GetLoggerFromLevel(slog.LevelError)
	default:
		return GetLoggerFromLevel(slog.LevelInfo)
	}
}
