package pregen

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"soundprint-mockup/models"
)

const tracerName = "soundprint-mockup/pregen"

// startChildSpan opens a span on the provider of the span already carried by ctx.
// Without a recording parent the span is a no-op.
func startChildSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := trace.SpanFromContext(ctx).TracerProvider().Tracer(tracerName)
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, models.ReasonFor(err))
	}
	span.End()
}
