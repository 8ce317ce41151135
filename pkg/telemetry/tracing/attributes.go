package tracing

import (
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span Attribute Helpers
//
// These functions provide a convenient way to set common attributes on spans.
// They use semantic conventions where applicable and ensure consistent attribute
// naming across the codebase.
//
// # Attribute Keys
//
// Standard attribute keys follow OpenTelemetry semantic conventions:
//   - http.*: HTTP-related attributes
//   - rpc.*: RPC-related attributes
//   - db.*: Database-related attributes
//
// Custom attribute keys use the "basalt.*" namespace:
//   - basalt.machine: Machine name
//   - basalt.build.*: Configuration build attributes
//   - basalt.gate.*: Certificate gate attributes
//   - basalt.maintenance.*: Maintenance request attributes

// Common attribute keys used throughout the system
const (
	// Platform attributes
	AttrMachine     = "basalt.machine"
	AttrEnvironment = "basalt.environment"

	// Build attributes
	AttrBuildID      = "basalt.build.id"
	AttrBuildStatus  = "basalt.build.status"
	AttrBuildRoles   = "basalt.build.roles"
	AttrBuildModules = "basalt.build.modules"

	// Role and module attributes
	AttrRole   = "basalt.role"
	AttrModule = "basalt.module"

	// Option attributes
	AttrOptionPath      = "basalt.option.path"
	AttrOptionLifecycle = "basalt.option.lifecycle"

	// Channel attributes
	AttrChannelURL    = "basalt.channel.url"
	AttrChannelBranch = "basalt.channel.branch"
	AttrChannelCommit = "basalt.channel.commit"

	// Gate attributes
	AttrGateDir      = "basalt.gate.dir"
	AttrGateExpected = "basalt.gate.expected"
	AttrGateMissing  = "basalt.gate.missing"
	AttrGateOutcome  = "basalt.gate.outcome"

	// Maintenance attributes
	AttrRequestID = "basalt.maintenance.request_id"
	AttrActivity  = "basalt.maintenance.activity"
	AttrAttempt   = "basalt.maintenance.attempt"

	// Journal attributes
	AttrJournalEvent = "basalt.journal.event"

	// Error attributes
	AttrErrorType    = "basalt.error.type"
	AttrErrorMessage = "error.message"
	AttrErrorStack   = "error.stack"

	// Performance attributes
	AttrDuration   = "basalt.duration_ms"
	AttrRetryCount = "basalt.retry_count"
)

// SetMachineAttributes sets platform-related attributes on a span.
//
// Example:
//
//	SetMachineAttributes(span, "web01", "production")
func SetMachineAttributes(span trace.Span, machine, environment string) {
	attrs := []attribute.KeyValue{
		attribute.String(AttrMachine, machine),
	}

	if environment != "" {
		attrs = append(attrs, attribute.String(AttrEnvironment, environment))
	}

	span.SetAttributes(attrs...)
}

// SetBuildAttributes sets build-related attributes on a span.
//
// Example:
//
//	SetBuildAttributes(span, "b-7f3a", "success")
func SetBuildAttributes(span trace.Span, buildID, status string) {
	attrs := []attribute.KeyValue{
		attribute.String(AttrBuildID, buildID),
	}

	if status != "" {
		attrs = append(attrs, attribute.String(AttrBuildStatus, status))
	}

	span.SetAttributes(attrs...)
}

// SetBuildCounts sets role and module count attributes on a span.
//
// Example:
//
//	SetBuildCounts(span, 3, 17)
func SetBuildCounts(span trace.Span, roles, modules int) {
	span.SetAttributes(
		attribute.Int(AttrBuildRoles, roles),
		attribute.Int(AttrBuildModules, modules),
	)
}

// SetRoleAttributes sets role and module attributes on a span.
//
// Example:
//
//	SetRoleAttributes(span, "loghost", "platform/loghost")
func SetRoleAttributes(span trace.Span, role, module string) {
	attrs := []attribute.KeyValue{
		attribute.String(AttrRole, role),
	}

	if module != "" {
		attrs = append(attrs, attribute.String(AttrModule, module))
	}

	span.SetAttributes(attrs...)
}

// SetOptionAttributes sets option lifecycle attributes on a span.
//
// Example:
//
//	SetOptionAttributes(span, "basalt.roles.statshost.enable", "renamed")
func SetOptionAttributes(span trace.Span, path, lifecycle string) {
	span.SetAttributes(
		attribute.String(AttrOptionPath, path),
		attribute.String(AttrOptionLifecycle, lifecycle),
	)
}

// SetChannelAttributes sets channel sync attributes on a span.
// Credentials embedded in the repository URL are stripped before the
// URL is attached to the span.
//
// Example:
//
//	SetChannelAttributes(span, "https://git.example.org/platform.git", "production", "4bf92f35")
func SetChannelAttributes(span trace.Span, url, branch, commit string) {
	attrs := []attribute.KeyValue{
		attribute.String(AttrChannelURL, redactRepoURL(url)),
	}

	if branch != "" {
		attrs = append(attrs, attribute.String(AttrChannelBranch, branch))
	}
	if commit != "" {
		attrs = append(attrs, attribute.String(AttrChannelCommit, commit))
	}

	span.SetAttributes(attrs...)
}

// redactRepoURL strips userinfo credentials from a repository URL.
func redactRepoURL(url string) string {
	schemeEnd := strings.Index(url, "://")
	if schemeEnd < 0 {
		return url
	}
	rest := url[schemeEnd+3:]
	at := strings.Index(rest, "@")
	if at < 0 {
		return url
	}
	// Userinfo must appear before the first path separator
	if slash := strings.Index(rest, "/"); slash >= 0 && slash < at {
		return url
	}
	return url[:schemeEnd+3] + "***@" + rest[at+1:]
}

// SetGateAttributes sets certificate gate attributes on a span.
//
// Example:
//
//	SetGateAttributes(span, "/var/lib/caldera/certs", 3, 1)
func SetGateAttributes(span trace.Span, dir string, expected, missing int) {
	span.SetAttributes(
		attribute.String(AttrGateDir, dir),
		attribute.Int(AttrGateExpected, expected),
		attribute.Int(AttrGateMissing, missing),
	)
}

// SetGateOutcome sets the gate wait outcome attribute on a span.
//
// Example:
//
//	SetGateOutcome(span, "satisfied")
func SetGateOutcome(span trace.Span, outcome string) {
	span.SetAttributes(attribute.String(AttrGateOutcome, outcome))
}

// SetMaintenanceAttributes sets maintenance request attributes on a span.
//
// Example:
//
//	SetMaintenanceAttributes(span, "req-4f21", "reboot", 2)
func SetMaintenanceAttributes(span trace.Span, requestID, activity string, attempt int) {
	attrs := []attribute.KeyValue{
		attribute.String(AttrRequestID, requestID),
	}

	if activity != "" {
		attrs = append(attrs, attribute.String(AttrActivity, activity))
	}
	if attempt > 0 {
		attrs = append(attrs, attribute.Int(AttrAttempt, attempt))
	}

	span.SetAttributes(attrs...)
}

// SetJournalAttributes sets journal event attributes on a span.
//
// Example:
//
//	SetJournalAttributes(span, "build")
func SetJournalAttributes(span trace.Span, event string) {
	span.SetAttributes(attribute.String(AttrJournalEvent, event))
}

// SetErrorAttributes sets error-related attributes on a span.
// This also records the error using span.RecordError() and sets the span status.
//
// Example:
//
//	SetErrorAttributes(span, err, "merge_conflict")
func SetErrorAttributes(span trace.Span, err error, errorType string) {
	if err == nil {
		return
	}

	span.SetAttributes(
		attribute.Bool("error", true),
		attribute.String(AttrErrorType, errorType),
		attribute.String(AttrErrorMessage, err.Error()),
	)

	// Record error and set status
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetDurationAttribute sets the duration attribute on a span.
// Duration is recorded in milliseconds.
//
// Example:
//
//	start := time.Now()
//	// ... do work ...
//	SetDurationAttribute(span, time.Since(start).Milliseconds())
func SetDurationAttribute(span trace.Span, durationMs int64) {
	span.SetAttributes(attribute.Int64(AttrDuration, durationMs))
}

// SetRetryAttribute sets the retry count attribute on a span.
//
// Example:
//
//	SetRetryAttribute(span, 2)
func SetRetryAttribute(span trace.Span, retryCount int) {
	span.SetAttributes(attribute.Int(AttrRetryCount, retryCount))
}

// AddEvent adds a named event to the span with optional attributes.
// Events represent interesting points in the span's lifetime.
//
// Example:
//
//	AddEvent(span, "snapshot_pinned",
//	    attribute.String("module", "platform/loghost"),
//	    attribute.String("commit", "4bf92f35"),
//	)
func AddEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// RecordException records an exception event on the span.
// This is a convenience wrapper around AddEvent for errors.
//
// Example:
//
//	RecordException(span, err)
func RecordException(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
	}
}

// AttributeBuilder provides a fluent interface for building span attributes.
type AttributeBuilder struct {
	attrs []attribute.KeyValue
}

// NewAttributeBuilder creates a new attribute builder.
func NewAttributeBuilder() *AttributeBuilder {
	return &AttributeBuilder{
		attrs: make([]attribute.KeyValue, 0, 10),
	}
}

// WithMachine adds machine and environment attributes.
func (ab *AttributeBuilder) WithMachine(machine, environment string) *AttributeBuilder {
	ab.attrs = append(ab.attrs, attribute.String(AttrMachine, machine))
	if environment != "" {
		ab.attrs = append(ab.attrs, attribute.String(AttrEnvironment, environment))
	}
	return ab
}

// WithBuild adds build-related attributes.
func (ab *AttributeBuilder) WithBuild(buildID, status string) *AttributeBuilder {
	ab.attrs = append(ab.attrs, attribute.String(AttrBuildID, buildID))
	if status != "" {
		ab.attrs = append(ab.attrs, attribute.String(AttrBuildStatus, status))
	}
	return ab
}

// WithRole adds role and module attributes.
func (ab *AttributeBuilder) WithRole(role, module string) *AttributeBuilder {
	ab.attrs = append(ab.attrs, attribute.String(AttrRole, role))
	if module != "" {
		ab.attrs = append(ab.attrs, attribute.String(AttrModule, module))
	}
	return ab
}

// WithOption adds option lifecycle attributes.
func (ab *AttributeBuilder) WithOption(path, lifecycle string) *AttributeBuilder {
	ab.attrs = append(ab.attrs,
		attribute.String(AttrOptionPath, path),
		attribute.String(AttrOptionLifecycle, lifecycle),
	)
	return ab
}

// WithChannel adds channel attributes with credential redaction.
func (ab *AttributeBuilder) WithChannel(url, branch string) *AttributeBuilder {
	ab.attrs = append(ab.attrs,
		attribute.String(AttrChannelURL, redactRepoURL(url)),
		attribute.String(AttrChannelBranch, branch),
	)
	return ab
}

// WithGate adds certificate gate attributes.
func (ab *AttributeBuilder) WithGate(dir string, expected, missing int) *AttributeBuilder {
	ab.attrs = append(ab.attrs,
		attribute.String(AttrGateDir, dir),
		attribute.Int(AttrGateExpected, expected),
		attribute.Int(AttrGateMissing, missing),
	)
	return ab
}

// WithMaintenance adds maintenance request attributes.
func (ab *AttributeBuilder) WithMaintenance(requestID, activity string) *AttributeBuilder {
	ab.attrs = append(ab.attrs, attribute.String(AttrRequestID, requestID))
	if activity != "" {
		ab.attrs = append(ab.attrs, attribute.String(AttrActivity, activity))
	}
	return ab
}

// WithCustom adds a custom attribute.
func (ab *AttributeBuilder) WithCustom(key string, value interface{}) *AttributeBuilder {
	switch v := value.(type) {
	case string:
		ab.attrs = append(ab.attrs, attribute.String(key, v))
	case int:
		ab.attrs = append(ab.attrs, attribute.Int(key, v))
	case int64:
		ab.attrs = append(ab.attrs, attribute.Int64(key, v))
	case float64:
		ab.attrs = append(ab.attrs, attribute.Float64(key, v))
	case bool:
		ab.attrs = append(ab.attrs, attribute.Bool(key, v))
	default:
		// Fall back to string representation
		ab.attrs = append(ab.attrs, attribute.String(key, fmt.Sprintf("%v", v)))
	}
	return ab
}

// Build returns the built attributes as a trace.SpanStartOption.
func (ab *AttributeBuilder) Build() trace.SpanStartOption {
	return trace.WithAttributes(ab.attrs...)
}

// Apply applies the attributes to a span.
func (ab *AttributeBuilder) Apply(span trace.Span) {
	span.SetAttributes(ab.attrs...)
}

// Attributes returns the raw attribute slice.
func (ab *AttributeBuilder) Attributes() []attribute.KeyValue {
	return ab.attrs
}
