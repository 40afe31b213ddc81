package engine

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/roach88/taskflow/internal/engine"

// startSpan opens a span on the global tracer provider.
func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// endSpan records err, if any, and ends the span.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if code := CodeOf(err); code != "" {
			span.SetAttributes(attribute.String("error.code", string(code)))
		}
	}
	span.End()
}

func taskAttr(id int64) attribute.KeyValue    { return attribute.Int64("task.id", id) }
func projectAttr(id int64) attribute.KeyValue { return attribute.Int64("project.id", id) }

func attributeSuccessor(id int64) attribute.KeyValue { return attribute.Int64("successor.id", id) }
