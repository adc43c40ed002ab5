package utils

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TraceOperation traces an operation with timing and attributes
func TraceOperation(ctx context.Context, operationName string, attributes map[string]interface{}) (context.Context, trace.Span, func()) {
	start := time.Now()

	otelAttrs := make([]attribute.KeyValue, 0, len(attributes))
	for k, v := range attributes {
		switch val := v.(type) {
		case string:
			otelAttrs = append(otelAttrs, attribute.String(k, val))
		case int:
			otelAttrs = append(otelAttrs, attribute.Int(k, val))
		case int64:
			otelAttrs = append(otelAttrs, attribute.Int64(k, val))
		case bool:
			otelAttrs = append(otelAttrs, attribute.Bool(k, val))
		case float64:
			otelAttrs = append(otelAttrs, attribute.Float64(k, val))
		default:
			otelAttrs = append(otelAttrs, attribute.String(k, "unknown_type"))
		}
	}

	spanCtx, span := otel.Tracer("verify-api").Start(ctx, operationName, trace.WithAttributes(otelAttrs...))

	cleanup := func() {
		duration := time.Since(start)
		span.SetAttributes(
			attribute.Int64("duration_ms", duration.Milliseconds()),
			attribute.String("duration", duration.String()),
		)
		span.End()
	}

	return spanCtx, span, cleanup
}

// TraceExternalService traces a call to an external provider
func TraceExternalService(ctx context.Context, serviceName, operation string) (context.Context, trace.Span) {
	return otel.Tracer("verify-api").Start(ctx, "external."+serviceName+"."+operation,
		trace.WithAttributes(
			attribute.String("service.name", serviceName),
			attribute.String("service.operation", operation),
		))
}

// TraceCacheGet traces a cache read
func TraceCacheGet(ctx context.Context, cacheKey string) (context.Context, trace.Span) {
	return otel.Tracer("verify-api").Start(ctx, "cache.get",
		trace.WithAttributes(attribute.String("cache.key", cacheKey)))
}

// TraceCacheSet traces a cache write
func TraceCacheSet(ctx context.Context, cacheKey string, ttl time.Duration) (context.Context, trace.Span) {
	return otel.Tracer("verify-api").Start(ctx, "cache.set",
		trace.WithAttributes(
			attribute.String("cache.key", cacheKey),
			attribute.String("cache.ttl", ttl.String()),
		))
}

// TraceStepExecution traces the execution of one verification step
func TraceStepExecution(ctx context.Context, requestID, stepName string) (context.Context, trace.Span) {
	return otel.Tracer("verify-api").Start(ctx, "verification.step",
		trace.WithAttributes(
			attribute.String("verification.request_id", requestID),
			attribute.String("verification.step", stepName),
		))
}

// RecordErrorInSpan records an error with additional context attributes
func RecordErrorInSpan(span trace.Span, err error, context map[string]interface{}) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	for k, v := range context {
		AddSpanAttribute(span, k, v)
	}
}

// AddSpanAttribute adds a single attribute to a span
func AddSpanAttribute(span trace.Span, key string, value interface{}) {
	switch val := value.(type) {
	case string:
		span.SetAttributes(attribute.String(key, val))
	case int:
		span.SetAttributes(attribute.Int(key, val))
	case int64:
		span.SetAttributes(attribute.Int64(key, val))
	case bool:
		span.SetAttributes(attribute.Bool(key, val))
	case float64:
		span.SetAttributes(attribute.Float64(key, val))
	default:
		span.SetAttributes(attribute.String(key, "unknown_type"))
	}
}
