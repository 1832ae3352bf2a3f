package obs

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	slogmulti "github.com/samber/slog-multi"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger builds the process logger: coloured text for dev/local, JSON
// otherwise. When file is set, JSON lines are also written to a rotating log.
func NewLogger(env, file string) *slog.Logger {
	level := slog.LevelInfo
	dev := env == "dev" || env == "local"
	if dev {
		level = slog.LevelDebug
	}

	var console slog.Handler
	if dev {
		console = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.RFC3339,
			AddSource:  true,
		})
	} else {
		console = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level, AddSource: true})
	}
	if file == "" {
		return slog.New(console)
	}
	rotating := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    20, // megabytes
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	}
	return slog.New(slogmulti.Fanout(console, slog.NewJSONHandler(rotating, &slog.HandlerOptions{Level: level})))
}

// NewDiscardLogger is for tests and tools that must stay quiet.
func NewDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
