package tracing

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// Trace context crosses process boundaries as W3C headers (traceparent,
// tracestate). Basalt sits at the receiving end: deployment tooling that
// polls the agent's diagnostics endpoints propagates its trace, and the
// probe spans land under the deploy trace instead of starting orphaned
// ones. The global propagator is installed by New; these helpers only
// apply it.

// Propagator returns the globally installed text map propagator. Before
// New has run this is the OTel default, which propagates nothing.
func Propagator() propagation.TextMapPropagator {
	return otel.GetTextMapPropagator()
}

// Extract returns a context carrying whatever trace context the request
// headers hold. Headers without trace context leave ctx unchanged.
//
//	ctx := tracing.Extract(r.Context(), r.Header)
//	ctx, span := tracer.Start(ctx, "ready_check")
//	defer span.End()
func Extract(ctx context.Context, headers http.Header) context.Context {
	return Propagator().Extract(ctx, propagation.HeaderCarrier(headers))
}

// Inject writes the trace context from ctx into outgoing request
// headers.
func Inject(ctx context.Context, headers http.Header) {
	Propagator().Inject(ctx, propagation.HeaderCarrier(headers))
}

// HTTPMiddleware extracts incoming trace context before the wrapped
// handler runs. When the request belongs to a recorded trace, the
// response carries X-Trace-ID so an operator can cross-reference a
// probe response with the trace backend.
func HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := Extract(r.Context(), r.Header)

		if span := SpanFromContext(ctx); span.SpanContext().IsValid() {
			w.Header().Set("X-Trace-ID", span.SpanContext().TraceID().String())
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
