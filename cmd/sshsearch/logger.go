package main

import (
	"io"
	"log/slog"

	charmlog "github.com/charmbracelet/log"
)

// setupLogger creates the process logger. Logs always go to w (stderr in
// practice) so command output on stdout stays machine readable.
func setupLogger(w io.Writer, level, format string) *slog.Logger {
	logLevel := parseLogLevel(level)

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: logLevel})
	case "pretty":
		handler = charmlog.NewWithOptions(w, charmlog.Options{
			ReportTimestamp: true,
			Level:           charmLevel(logLevel),
			Prefix:          "sshsearch",
		})
	default:
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel})
	}

	return slog.New(handler)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func charmLevel(level slog.Level) charmlog.Level {
	switch level {
	case slog.LevelDebug:
		return charmlog.DebugLevel
	case slog.LevelWarn:
		return charmlog.WarnLevel
	case slog.LevelError:
		return charmlog.ErrorLevel
	default:
		return charmlog.InfoLevel
	}
}
