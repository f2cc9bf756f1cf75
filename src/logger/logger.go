package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// L is the process-wide logger. Until InitLogger runs it writes JSON at warn
// level to stderr, which is what tests and early CLI code see.
var L = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

type contextKey string

const loggerKey contextKey = "logger"

// InitLogger replaces L with a JSON logger on stdout at the given level.
// Call it once, right after config.LoadConfig.
func InitLogger(level string) {
	initWithWriter(os.Stdout, level)
	L.Info("Logger initialized", "level", strings.ToUpper(level))
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

func initWithWriter(w io.Writer, level string) {
	lvl, ok := parseLevel(level)

	L = slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if t, isTime := a.Value.Any().(time.Time); isTime && a.Key == slog.TimeKey {
				a.Value = slog.StringValue(t.Format(time.RFC3339))
			}
			return a
		},
	}))
	slog.SetDefault(L)

	if !ok {
		L.Warn("Unknown LOG_LEVEL, using INFO", "configuredLevel", level)
	}
}

// FromContext returns the logger stored in ctx, or L.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
			return l
		}
	}
	return L
}

func ToContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// With stores a child of the context logger carrying args and returns both.
func With(ctx context.Context, args ...any) (context.Context, *slog.Logger) {
	l := FromContext(ctx).With(args...)
	return ToContext(ctx, l), l
}

func InfoFromContext(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Info(msg, args...)
}

func ErrorFromContext(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Error(msg, args...)
}
