// Package logger implements component I: structured logging fanned out to
// stdout JSON and, when enabled, an OTel log exporter via the official
// otelslog bridge, plus a context-derived attribute logger for the search
// domain's correlation keys.
//
// Grounded on the alt-backend sibling service's utils/logger package
// (MultiHandler fan-out, TraceContextHandler trace/span enrichment,
// ContextLogger business-key attribution), re-keyed from
// article/feed/job/pipeline identifiers to the search-indexer's own
// correlation surface (query, prefecture, shard, user).
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/log/global"
)

// ServiceName identifies this service to the OTel log exporter.
const ServiceName = "search-indexer"

// MultiHandler fans every record out to each of its handlers.
type MultiHandler struct {
	handlers []slog.Handler
}

// NewMultiHandler builds a MultiHandler writing JSON (with trace
// correlation) to stdout and, via the otelslog bridge, to the configured
// OTel log exporter.
func NewMultiHandler(level slog.Level) *MultiHandler {
	jsonHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     level,
		AddSource: false,
	})

	otelHandler := otelslog.NewHandler(
		ServiceName,
		otelslog.WithLoggerProvider(global.GetLoggerProvider()),
	)

	return &MultiHandler{
		handlers: []slog.Handler{
			NewTraceContextHandler(jsonHandler),
			otelHandler,
		},
	}
}

// NewMultiHandlerStdoutOnly builds a MultiHandler with OTel export disabled,
// for environments without a configured collector endpoint.
func NewMultiHandlerStdoutOnly(level slog.Level) *MultiHandler {
	jsonHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     level,
		AddSource: false,
	})
	return &MultiHandler{handlers: []slog.Handler{NewTraceContextHandler(jsonHandler)}}
}

func (h *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, r.Level) {
			_ = handler.Handle(ctx, r)
		}
	}
	return nil
}

func (h *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newHandlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		newHandlers[i] = handler.WithAttrs(attrs)
	}
	return &MultiHandler{handlers: newHandlers}
}

func (h *MultiHandler) WithGroup(name string) slog.Handler {
	newHandlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		newHandlers[i] = handler.WithGroup(name)
	}
	return &MultiHandler{handlers: newHandlers}
}

// parseLevel maps a case-insensitive level name to an slog.Level, defaulting
// to INFO for unknown or empty input.
func parseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds the process-wide logger: JSON+OTel fan-out when otelEnabled,
// stdout-only JSON otherwise.
func New(levelName string, otelEnabled bool) *slog.Logger {
	level := parseLevel(levelName)

	var handler slog.Handler
	if otelEnabled {
		handler = NewMultiHandler(level)
	} else {
		handler = NewMultiHandlerStdoutOnly(level)
	}

	l := slog.New(handler)
	slog.SetDefault(l)
	return l
}
