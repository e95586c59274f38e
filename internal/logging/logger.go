package logging

import (
	"log/slog"
	"os"
)

// Setup installs a JSON slog logger on stdout. Debug records are kept
// outside production.
func Setup(production bool) *slog.JSONHandler {
	level := slog.LevelDebug
	if production {
		level = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
	return handler
}
