package logger

import (
	"io"
	"log/slog"
	"os"
)

// SetupGlobal installs the process-wide logger. Debug lowers the level,
// showSource adds file:line to every record.
func SetupGlobal(debug bool, showSource bool) {
	SetupWriter(os.Stdout, debug, showSource)
}

// SetupWriter is SetupGlobal with an explicit destination.
func SetupWriter(w io.Writer, debug bool, showSource bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: showSource,
	}

	handler := slog.NewTextHandler(w, opts)
	logger := slog.New(handler)

	slog.SetDefault(logger)
}
