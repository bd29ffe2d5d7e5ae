package runtime

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrPanic is recorded on spans that observed a recovered panic.
var ErrPanic = errors.New("panic")

// PanicSpanEventName is the span event name for recovered panics.
const PanicSpanEventName = "panic.recovered"

const maxSpanStackLen = 4096

// RecordPanicToSpanWithComponent adds a panic event to the span in ctx and
// marks the span as errored. It is a no-op without a recording span.
func RecordPanicToSpanWithComponent(ctx context.Context, panicValue any, stack []byte, component, name string) {
	if ctx == nil {
		return
	}

	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("panic.value", formatPanicValue(panicValue)),
		attribute.String("panic.goroutine_name", name),
	}

	if component != "" {
		attrs = append(attrs, attribute.String("panic.component", component))
	}

	if len(stack) > 0 && !IsProductionMode() {
		stackStr := string(stack)
		if len(stackStr) > maxSpanStackLen {
			stackStr = stackStr[:maxSpanStackLen] + "\n...[truncated]"
		}

		attrs = append(attrs, attribute.String("panic.stack", stackStr))
	}

	span.AddEvent(PanicSpanEventName, trace.WithAttributes(attrs...))
	span.RecordError(ErrPanic)
	span.SetStatus(codes.Error, "panic recovered in "+name)
}
