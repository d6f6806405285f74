package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/josh-kwaku/payment-orchestrator/internal/domain"
)

type ctxKey struct{}

func Init(service, level, appEnv string) *slog.Logger {
	lvl := parseLevel(level)
	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	if appEnv == "development" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler).With("service", service)
	slog.SetDefault(logger)
	return logger
}

func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// Event renders a payment event as a structured log group.
func Event(e domain.PaymentEvent) slog.Attr {
	return slog.Group("event",
		"guid", e.GUID.String(),
		"reference_id", e.ReferenceID,
		"type", string(e.PaymentType),
		"status", string(e.PaymentStatus),
		"amount", e.Amount.String(),
		"temporary_failure", e.TemporaryFailure,
	)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
