package logging

import (
	"context"
)

// Context keys for common log fields.
type contextKey string

const (
	// BuildIDKey is the context key for build identifiers.
	BuildIDKey contextKey = "build_id"

	// MachineKey is the context key for machine names.
	MachineKey contextKey = "machine"

	// RoleKey is the context key for role names.
	RoleKey contextKey = "role"

	// ModuleKey is the context key for module names.
	ModuleKey contextKey = "module"

	// RequestIDKey is the context key for maintenance request IDs.
	RequestIDKey contextKey = "request_id"

	// TraceIDKey is the context key for trace IDs.
	TraceIDKey contextKey = "trace_id"

	// SpanIDKey is the context key for span IDs.
	SpanIDKey contextKey = "span_id"
)

// WithBuildID adds a build identifier to the context.
func WithBuildID(ctx context.Context, buildID string) context.Context {
	return context.WithValue(ctx, BuildIDKey, buildID)
}

// GetBuildID retrieves the build identifier from the context.
func GetBuildID(ctx context.Context) string {
	if buildID, ok := ctx.Value(BuildIDKey).(string); ok {
		return buildID
	}
	return ""
}

// WithMachine adds a machine name to the context.
func WithMachine(ctx context.Context, machine string) context.Context {
	return context.WithValue(ctx, MachineKey, machine)
}

// GetMachine retrieves the machine name from the context.
func GetMachine(ctx context.Context) string {
	if machine, ok := ctx.Value(MachineKey).(string); ok {
		return machine
	}
	return ""
}

// WithRole adds a role name to the context.
func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, RoleKey, role)
}

// GetRole retrieves the role name from the context.
func GetRole(ctx context.Context) string {
	if role, ok := ctx.Value(RoleKey).(string); ok {
		return role
	}
	return ""
}

// WithModule adds a module name to the context.
func WithModule(ctx context.Context, module string) context.Context {
	return context.WithValue(ctx, ModuleKey, module)
}

// GetModule retrieves the module name from the context.
func GetModule(ctx context.Context) string {
	if module, ok := ctx.Value(ModuleKey).(string); ok {
		return module
	}
	return ""
}

// WithRequestID adds a maintenance request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the maintenance request ID from the context.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithTraceID adds a trace ID to the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID retrieves the trace ID from the context.
func GetTraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
		return traceID
	}
	return ""
}

// WithSpanID adds a span ID to the context.
func WithSpanID(ctx context.Context, spanID string) context.Context {
	return context.WithValue(ctx, SpanIDKey, spanID)
}

// GetSpanID retrieves the span ID from the context.
func GetSpanID(ctx context.Context) string {
	if spanID, ok := ctx.Value(SpanIDKey).(string); ok {
		return spanID
	}
	return ""
}

// extractContextFields extracts common fields from context for logging.
// Returns a slice of key-value pairs suitable for logger.With().
func extractContextFields(ctx context.Context) []any {
	var fields []any

	// Extract build ID
	if buildID := GetBuildID(ctx); buildID != "" {
		fields = append(fields, "build_id", buildID)
	}

	// Extract machine
	if machine := GetMachine(ctx); machine != "" {
		fields = append(fields, "machine", machine)
	}

	// Extract role
	if role := GetRole(ctx); role != "" {
		fields = append(fields, "role", role)
	}

	// Extract module
	if module := GetModule(ctx); module != "" {
		fields = append(fields, "module", module)
	}

	// Extract maintenance request ID
	if requestID := GetRequestID(ctx); requestID != "" {
		fields = append(fields, "request_id", requestID)
	}

	// Extract trace ID
	if traceID := GetTraceID(ctx); traceID != "" {
		fields = append(fields, "trace_id", traceID)
	}

	// Extract span ID
	if spanID := GetSpanID(ctx); spanID != "" {
		fields = append(fields, "span_id", spanID)
	}

	return fields
}

// ContextLogger is a logger that automatically includes context fields.
type ContextLogger struct {
	logger *Logger
	ctx    context.Context
}

// NewContextLogger creates a logger that automatically includes context fields.
func NewContextLogger(logger *Logger, ctx context.Context) *ContextLogger {
	return &ContextLogger{
		logger: logger.WithContext(ctx),
		ctx:    ctx,
	}
}

// Debug logs a debug message with context fields.
func (cl *ContextLogger) Debug(msg string, args ...any) {
	cl.logger.DebugContext(cl.ctx, msg, args...)
}

// Info logs an info message with context fields.
func (cl *ContextLogger) Info(msg string, args ...any) {
	cl.logger.InfoContext(cl.ctx, msg, args...)
}

// Warn logs a warning message with context fields.
func (cl *ContextLogger) Warn(msg string, args ...any) {
	cl.logger.WarnContext(cl.ctx, msg, args...)
}

// Error logs an error message with context fields.
func (cl *ContextLogger) Error(msg string, args ...any) {
	cl.logger.ErrorContext(cl.ctx, msg, args...)
}

// With creates a new context logger with additional fields.
func (cl *ContextLogger) With(args ...any) *ContextLogger {
	return &ContextLogger{
		logger: cl.logger.With(args...),
		ctx:    cl.ctx,
	}
}
