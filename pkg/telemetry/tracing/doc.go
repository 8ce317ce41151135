// Package tracing provides OpenTelemetry distributed tracing for Caldera Basalt.
//
// # Overview
//
// The tracing package implements W3C Trace Context propagation, span creation,
// and trace export to OTLP collectors. It provides visibility into builds,
// gate waits, and maintenance runs with minimal overhead (<100µs per span).
//
// # Distributed Tracing
//
// Distributed tracing tracks operations as they flow through the system,
// creating a hierarchy of spans. Each span records:
//   - Operation name and duration
//   - Attributes (key-value pairs)
//   - Events (timestamped logs within the span)
//   - Trace context (trace ID, span ID, sampling decision)
//
// # Trace Context Propagation
//
// The package implements W3C Trace Context (https://www.w3.org/TR/trace-context/)
// for propagating trace context across HTTP boundaries:
//
//	traceparent: 00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01
//	tracestate: congo=t61rcWkgMzE
//
// # Sampling Strategies
//
// Three sampling strategies are supported:
//   - always: Sample all traces (development/debugging)
//   - never: Sample no traces (tracing disabled)
//   - ratio: Sample a percentage of traces (production)
//
// # Usage
//
//	// Initialize tracer
//	cfg := &config.TracingConfig{
//	    Enabled:     true,
//	    Sampler:     "ratio",
//	    SampleRatio: 1.0,
//	    Endpoint:    "localhost:4317",
//	    ServiceName: "caldera-basalt",
//	}
//	tracer, err := tracing.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tracer.Shutdown(context.Background())
//
//	// Create span
//	ctx, span := tracer.Start(ctx, "basalt.build")
//	defer span.End()
//
//	// Add attributes
//	span.SetAttributes(
//	    attribute.String("basalt.machine", "web01"),
//	    attribute.String("basalt.build.status", "success"),
//	    attribute.Int("basalt.build.roles", 3),
//	    attribute.Int("basalt.build.modules", 17),
//	)
//
//	// Add event
//	span.AddEvent("snapshot_pinned", trace.WithAttributes(
//	    attribute.String("module", "platform/loghost"),
//	    attribute.String("commit", "4bf92f35"),
//	))
//
// # Span Hierarchy
//
// Spans form a hierarchy representing the call tree:
//
//	basalt.build (140ms)
//	├── basalt.catalog.resolve (2ms)
//	├── basalt.channel.sync (80ms)
//	├── basalt.modules.resolve (40ms)
//	│   ├── basalt.modules.scan (25ms)
//	│   └── basalt.modules.merge (15ms)
//	└── basalt.journal.record (5ms)
//
// # HTTP Integration
//
// The agent wraps its diagnostics mux in HTTPMiddleware, so probes
// carrying a traceparent join the caller's trace. Handlers outside the
// agent extract and inject by hand:
//
//	ctx := tracing.Extract(r.Context(), r.Header)
//	ctx, span := tracer.Start(ctx, "handle_request")
//	defer span.End()
//
//	req, _ := http.NewRequestWithContext(ctx, "POST", url, body)
//	tracing.Inject(ctx, req.Header)
//
// # Performance
//
// The tracing package is designed for minimal overhead:
//   - Span creation: <100µs per span
//   - Context propagation: <10µs
//   - Sampling decision: <1µs
//   - When disabled: <1µs (noop span)
//
// # Trace Exporter
//
// Traces are exported over OTLP gRPC:
//
//	telemetry:
//	  tracing:
//	    endpoint: localhost:4317
//	    otlp:
//	      insecure: true
//	      timeout: 10s
//
// Jaeger and Zipkin both accept OTLP, so point the endpoint at their
// collectors directly.
//
// # Attribute Helpers
//
// Common attributes can be set using helper functions:
//
//	// Machine attributes
//	tracing.SetMachineAttributes(span, "web01", "production")
//
//	// Build attributes
//	tracing.SetBuildAttributes(span, buildID, "success")
//
//	// Gate attributes
//	tracing.SetGateAttributes(span, "/var/lib/caldera/certs", 3, 1)
//
//	// Error attributes
//	tracing.SetErrorAttributes(span, err, "merge_conflict")
package tracing
