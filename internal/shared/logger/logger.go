package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"planets-engine/internal/shared/config"
)

// Init installs the process-wide slog handler from config.GlobalConfig.
func Init() {
	if config.GlobalConfig == nil {
		panic("config must be initialized before logger")
	}

	cfg := config.GlobalConfig.Logging
	jsonFormat := cfg.JSONFormat || strings.EqualFold(cfg.Format, "json")
	Setup(cfg.Level, jsonFormat)

	slog.Debug("Logger initialized",
		"component", "logger",
		"level", cfg.Level,
		"json_format", jsonFormat,
		"environment", config.GlobalConfig.Server.Environment)
}

// Setup installs the default handler without the process configuration.
// Command-line tools call it directly.
func Setup(level string, jsonFormat bool) {
	slog.SetDefault(slog.New(newHandler(os.Stdout, level, jsonFormat)))
}

func newHandler(w io.Writer, level string, jsonFormat bool) slog.Handler {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if jsonFormat {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// parseLevel accepts slog level names with offsets such as "warn+2".
// Anything unparseable logs everything.
func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelDebug
	}
	return l
}
