package httpapi

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const handlerSpanPrefix = "httpapi.Handler."

var (
	apiTracer trace.Tracer = otel.Tracer("prediction-league/internal/interfaces/httpapi")
	noopSpan  trace.Span   = noop.Span{}
)

// startSpan opens a child span for handler methods only. Everything else
// gets a no-op span so ending it never touches the request span.
func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if !shouldCreateHTTPAPISpan(name) || !trace.SpanContextFromContext(ctx).IsValid() {
		return ctx, noopSpan
	}
	return apiTracer.Start(ctx, name, trace.WithAttributes(requestAttributes(ctx)...))
}

func shouldCreateHTTPAPISpan(name string) bool {
	return strings.HasPrefix(name, handlerSpanPrefix)
}

func requestAttributes(ctx context.Context) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 2)
	if id := requestIDFromContext(ctx); id != "" {
		attrs = append(attrs, attribute.String("http.request_id", id))
	}
	if principal, ok := principalFromContext(ctx); ok {
		attrs = append(attrs, attribute.String("enduser.id", principal.UserID))
	}
	return attrs
}
