package usecase

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

var (
	usecaseTracer   trace.Tracer = otel.Tracer("prediction-league/internal/usecase")
	usecaseNoopSpan trace.Span   = noop.Span{}
)

// startUsecaseSpan opens a child span, or a no-op span without a traced parent.
func startUsecaseSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if !trace.SpanContextFromContext(ctx).IsValid() {
		return ctx, usecaseNoopSpan
	}
	return usecaseTracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// startWorkerSpan opens a root span for background work.
func startWorkerSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return usecaseTracer.Start(ctx, name, trace.WithNewRoot(), trace.WithAttributes(attrs...))
}

// finishSpan records err with its class and ends the span.
func finishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.class", string(ClassifyError(err))))
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
