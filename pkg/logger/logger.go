// Package logger configures the process-wide slog logger and carries
// per-request attributes through a context.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/config"
)

type ctxKey struct{}

// ctxData is what a context carries: the request id and extra attributes.
type ctxData struct {
	requestID string
	attrs     []any
}

// Setup installs a stdout logger for service and returns it.
func Setup(service string, cfg config.LoggingConfig) *slog.Logger {
	return SetupWriter(os.Stdout, service, cfg)
}

// SetupWriter is Setup with an explicit destination. Every record carries
// a service attribute; format "json" selects the JSON handler and anything
// else the text handler.
func SetupWriter(w io.Writer, service string, cfg config.LoggingConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	l := slog.New(handler)
	if service != "" {
		l = l.With("service", service)
	}
	slog.SetDefault(l)
	return l
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	d := dataFrom(ctx)
	d.requestID = requestID
	return context.WithValue(ctx, ctxKey{}, d)
}

// RequestID returns the id stored by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	return dataFrom(ctx).requestID
}

// WithAttrs adds key/value pairs that FromContext attaches to the logger.
func WithAttrs(ctx context.Context, args ...any) context.Context {
	d := dataFrom(ctx)
	d.attrs = append(d.attrs[:len(d.attrs):len(d.attrs)], args...)
	return context.WithValue(ctx, ctxKey{}, d)
}

func dataFrom(ctx context.Context) ctxData {
	d, _ := ctx.Value(ctxKey{}).(ctxData)
	return d
}

// FromContext returns the default logger with the context's request id and
// attributes.
func FromContext(ctx context.Context) *slog.Logger {
	l := slog.Default()
	d := dataFrom(ctx)
	if d.requestID != "" {
		l = l.With("request_id", d.requestID)
	}
	if len(d.attrs) > 0 {
		l = l.With(d.attrs...)
	}
	return l
}

func WithComponent(component string) *slog.Logger {
	return slog.Default().With("component", component)
}

// ParseLevel maps a level name, in any case, to a slog level. Unknown
// names mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
