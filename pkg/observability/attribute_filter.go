package observability

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// maxAttrValueLen bounds exported string values so residue strings stay local.
const maxAttrValueLen = 64

// exportedPrefixes lists the attribute namespaces sgevolve spans may export.
var exportedPrefixes = []string{"sgevolve.", "event.", "alignment.", "error."}

// redactingProcessor forwards spans to the exporter pipeline with every attribute
// outside exportedPrefixes removed and long string values truncated.
type redactingProcessor struct {
	next sdktrace.SpanProcessor
}

// NewAttributeFilter wraps next so it only sees redacted spans.
func NewAttributeFilter(next sdktrace.SpanProcessor) sdktrace.SpanProcessor {
	return redactingProcessor{next: next}
}

func (p redactingProcessor) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	p.next.OnStart(parent, s)
}

func (p redactingProcessor) OnEnd(s sdktrace.ReadOnlySpan) {
	p.next.OnEnd(redactedSpan{ReadOnlySpan: s})
}

func (p redactingProcessor) Shutdown(ctx context.Context) error {
	if err := p.next.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown span pipeline: %w", err)
	}

	return nil
}

func (p redactingProcessor) ForceFlush(ctx context.Context) error {
	if err := p.next.ForceFlush(ctx); err != nil {
		return fmt.Errorf("flush span pipeline: %w", err)
	}

	return nil
}

func isAllowed(key string) bool {
	if key == "error" {
		return true
	}

	for _, prefix := range exportedPrefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}

	return false
}

func redact(kv attribute.KeyValue) attribute.KeyValue {
	if kv.Value.Type() != attribute.STRING {
		return kv
	}

	if value := kv.Value.AsString(); len(value) > maxAttrValueLen {
		return kv.Key.String(value[:maxAttrValueLen] + "...")
	}

	return kv
}

type redactedSpan struct {
	sdktrace.ReadOnlySpan
}

func (s redactedSpan) Attributes() []attribute.KeyValue {
	var kept []attribute.KeyValue

	for _, kv := range s.ReadOnlySpan.Attributes() {
		if isAllowed(string(kv.Key)) {
			kept = append(kept, redact(kv))
		}
	}

	return kept
}
