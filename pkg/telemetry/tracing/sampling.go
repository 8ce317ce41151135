package tracing

import (
	"fmt"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Valid values for the telemetry.tracing.sampler config key.
const (
	// SamplerAlways records every trace.
	SamplerAlways = "always"

	// SamplerNever records no traces.
	SamplerNever = "never"

	// SamplerRatio records a trace-ID based fraction of traces.
	SamplerRatio = "ratio"
)

// createSampler builds the SDK sampler for the configured strategy.
//
// Every sampler is wrapped in ParentBased, so a span started under an
// already-sampled deploy trace is recorded regardless of the local
// strategy. The decision is made once per trace: a build is either
// fully traced or not traced at all.
//
// A single machine runs a handful of builds per hour, which is why the
// default is ratio 1.0. When hundreds of machines report to one
// collector, lower telemetry.tracing.sample_ratio until the collector
// sees a representative slice:
//
//	telemetry:
//	  tracing:
//	    enabled: true
//	    sampler: ratio
//	    sample_ratio: 0.1
func createSampler(strategy string, ratio float64) (sdktrace.Sampler, error) {
	var base sdktrace.Sampler

	switch strategy {
	case SamplerAlways:
		base = sdktrace.AlwaysSample()

	case SamplerNever:
		base = sdktrace.NeverSample()

	case SamplerRatio:
		if ratio < 0.0 || ratio > 1.0 {
			return nil, fmt.Errorf("sample ratio must be between 0.0 and 1.0, got %f", ratio)
		}
		// Hashes the trace ID, so every machine agrees on whether a
		// given trace is kept.
		base = sdktrace.TraceIDRatioBased(ratio)

	default:
		return nil, fmt.Errorf("unknown sampler strategy: %s (valid: always, never, ratio)", strategy)
	}

	return sdktrace.ParentBased(base), nil
}
