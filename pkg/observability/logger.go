package observability

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

const (
	logKeyTraceID   = "trace_id"
	logKeySpanID    = "span_id"
	logKeyService   = "service"
	logKeyEnv       = "env"
	logKeyEvent     = "event"
	logKeyEventKind = "event_kind"
)

type eventKey struct{}

type eventTag struct {
	index int
	kind  string
}

// ContextWithEvent tags ctx with the script event being applied. Records logged
// through a TracingHandler with that context carry the event index and kind.
func ContextWithEvent(ctx context.Context, index int, kind string) context.Context {
	return context.WithValue(ctx, eventKey{}, eventTag{index: index, kind: kind})
}

// TracingHandler is an [slog.Handler] that adds the active span (trace_id,
// span_id) and the current script event to every record. Service metadata is
// attached once on the inner handler, so it stays top level under groups.
type TracingHandler struct {
	inner slog.Handler
}

// NewTracingHandler wraps inner. An empty env is omitted.
func NewTracingHandler(inner slog.Handler, service, env string) *TracingHandler {
	attrs := []slog.Attr{slog.String(logKeyService, service)}

	if env != "" {
		attrs = append(attrs, slog.String(logKeyEnv, env))
	}

	return &TracingHandler{inner: inner.WithAttrs(attrs)}
}

// Enabled reports whether the inner handler accepts level.
func (th *TracingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return th.inner.Enabled(ctx, level)
}

// Handle decorates record from ctx and passes it on.
func (th *TracingHandler) Handle(ctx context.Context, record slog.Record) error {
	if tag, ok := ctx.Value(eventKey{}).(eventTag); ok {
		record.AddAttrs(slog.Int(logKeyEvent, tag.index), slog.String(logKeyEventKind, tag.kind))
	}

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		record.AddAttrs(
			slog.String(logKeyTraceID, sc.TraceID().String()),
			slog.String(logKeySpanID, sc.SpanID().String()),
		)
	}

	err := th.inner.Handle(ctx, record)
	if err != nil {
		return fmt.Errorf("tracing handler: %w", err)
	}

	return nil
}

// WithAttrs implements [slog.Handler].
func (th *TracingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TracingHandler{inner: th.inner.WithAttrs(attrs)}
}

// WithGroup implements [slog.Handler].
func (th *TracingHandler) WithGroup(name string) slog.Handler {
	return &TracingHandler{inner: th.inner.WithGroup(name)}
}

// ParseLevel maps a level name (debug, info, warn, error) to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level

	err := level.UnmarshalText([]byte(name))
	if err != nil {
		return slog.LevelInfo, fmt.Errorf("parse log level %q: %w", name, err)
	}

	return level, nil
}
