package config

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// RequestContext carries request-scoped fields for structured logging.
type RequestContext struct {
	RequestID string
	Operation string
	StartTime time.Time
}

type contextKey string

const requestContextKey contextKey = "request_context"

// NewLogger builds a structured logger per the configured level/format.
func NewLogger(cfg *Config) *slog.Logger {
	level := parseLogLevel(cfg.Logging.Level)

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.Logging.AddSource,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Value = slog.StringValue(a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}

	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}

// WithRequestContext attaches request context to ctx.
func WithRequestContext(ctx context.Context, reqCtx *RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey, reqCtx)
}

// LogWithContext logs msg at level, appending request context fields if present.
func LogWithContext(ctx context.Context, logger *slog.Logger, level slog.Level, msg string, args ...any) {
	if reqCtx, ok := ctx.Value(requestContextKey).(*RequestContext); ok {
		args = append(args,
			slog.String("request_id", reqCtx.RequestID),
			slog.String("operation", reqCtx.Operation),
			slog.Duration("duration", time.Since(reqCtx.StartTime)),
		)
	}
	logger.Log(ctx, level, msg, args...)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
