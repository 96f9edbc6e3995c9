package telemetry

import (
	"log/slog"
	"os"
)

// InitSlog installs the default logger. All logging goes to stderr so
// binaries speaking a protocol over stdout never corrupt their stream.
func InitSlog(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}
