package tracing

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// StartPhaseSpan starts a span covering one warmup or measure run of a benchmark.
func StartPhaseSpan(ctx context.Context, tracer trace.Tracer, benchmark, phase string, loop int64, threads int) (context.Context, trace.Span) {
	spanName := "benchmark " + phase
	if benchmark != "" {
		spanName = benchmark + " " + phase
	}
	ctx, span := tracer.Start(ctx, spanName,
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	span.SetAttributes(
		attribute.String("kipbench.phase", phase),
		attribute.Int64("kipbench.loop", loop),
		attribute.Int("kipbench.threads", max(threads, 1)),
	)
	if benchmark != "" {
		span.SetAttributes(attribute.String("kipbench.benchmark", benchmark))
	}
	return ctx, span
}

// EndSpan finishes a span, recording error status if applicable.
func EndSpan(span trace.Span, err error, attrs ...attribute.KeyValue) {
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// InjectHTTPHeaders injects W3C trace context into HTTP headers.
func InjectHTTPHeaders(ctx context.Context, headers http.Header) {
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(headers))
}
