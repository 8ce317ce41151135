package logging

import (
	"context"
	"testing"
)

func TestContextKeys(t *testing.T) {
	ctx := context.Background()

	// Test BuildID
	ctx = WithBuildID(ctx, "b-123")
	if got := GetBuildID(ctx); got != "b-123" {
		t.Errorf("GetBuildID() = %q, want %q", got, "b-123")
	}

	// Test Machine
	ctx = WithMachine(ctx, "web01")
	if got := GetMachine(ctx); got != "web01" {
		t.Errorf("GetMachine() = %q, want %q", got, "web01")
	}

	// Test Role
	ctx = WithRole(ctx, "webgateway")
	if got := GetRole(ctx); got != "webgateway" {
		t.Errorf("GetRole() = %q, want %q", got, "webgateway")
	}

	// Test Module
	ctx = WithModule(ctx, "nginx")
	if got := GetModule(ctx); got != "nginx" {
		t.Errorf("GetModule() = %q, want %q", got, "nginx")
	}

	// Test RequestID
	ctx = WithRequestID(ctx, "req-123")
	if got := GetRequestID(ctx); got != "req-123" {
		t.Errorf("GetRequestID() = %q, want %q", got, "req-123")
	}

	// Test TraceID
	ctx = WithTraceID(ctx, "trace-abc")
	if got := GetTraceID(ctx); got != "trace-abc" {
		t.Errorf("GetTraceID() = %q, want %q", got, "trace-abc")
	}

	// Test SpanID
	ctx = WithSpanID(ctx, "span-def")
	if got := GetSpanID(ctx); got != "span-def" {
		t.Errorf("GetSpanID() = %q, want %q", got, "span-def")
	}
}

func TestContextKeys_Empty(t *testing.T) {
	ctx := context.Background()

	// Test that getters return empty strings for missing values
	tests := []struct {
		name string
		get  func(context.Context) string
	}{
		{"BuildID", GetBuildID},
		{"Machine", GetMachine},
		{"Role", GetRole},
		{"Module", GetModule},
		{"RequestID", GetRequestID},
		{"TraceID", GetTraceID},
		{"SpanID", GetSpanID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.get(ctx); got != "" {
				t.Errorf("Get%s() = %q, want empty string", tt.name, got)
			}
		})
	}
}

func TestExtractContextFields(t *testing.T) {
	tests := []struct {
		name       string
		setupCtx   func(context.Context) context.Context
		wantFields map[string]string
	}{
		{
			name: "empty context",
			setupCtx: func(ctx context.Context) context.Context {
				return ctx
			},
			wantFields: map[string]string{},
		},
		{
			name: "build ID only",
			setupCtx: func(ctx context.Context) context.Context {
				return WithBuildID(ctx, "b-123")
			},
			wantFields: map[string]string{
				"build_id": "b-123",
			},
		},
		{
			name: "multiple fields",
			setupCtx: func(ctx context.Context) context.Context {
				ctx = WithBuildID(ctx, "b-456")
				ctx = WithMachine(ctx, "web01")
				ctx = WithRole(ctx, "webgateway")
				ctx = WithModule(ctx, "nginx")
				return ctx
			},
			wantFields: map[string]string{
				"build_id": "b-456",
				"machine":  "web01",
				"role":     "webgateway",
				"module":   "nginx",
			},
		},
		{
			name: "all fields",
			setupCtx: func(ctx context.Context) context.Context {
				ctx = WithBuildID(ctx, "b-789")
				ctx = WithMachine(ctx, "loghost02")
				ctx = WithRole(ctx, "loghost")
				ctx = WithModule(ctx, "graylog")
				ctx = WithRequestID(ctx, "req-1")
				ctx = WithTraceID(ctx, "trace-1")
				ctx = WithSpanID(ctx, "span-1")
				return ctx
			},
			wantFields: map[string]string{
				"build_id":   "b-789",
				"machine":    "loghost02",
				"role":       "loghost",
				"module":     "graylog",
				"request_id": "req-1",
				"trace_id":   "trace-1",
				"span_id":    "span-1",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := tt.setupCtx(context.Background())
			fields := extractContextFields(ctx)

			// Convert []any to map for easier checking
			fieldsMap := make(map[string]string)
			for i := 0; i < len(fields); i += 2 {
				key := fields[i].(string)
				value := fields[i+1].(string)
				fieldsMap[key] = value
			}

			// Check expected fields are present
			for key, expectedValue := range tt.wantFields {
				if gotValue, ok := fieldsMap[key]; !ok {
					t.Errorf("Expected field %q not found", key)
				} else if gotValue != expectedValue {
					t.Errorf("Field %q = %q, want %q", key, gotValue, expectedValue)
				}
			}

			// Check no extra fields
			if len(fieldsMap) != len(tt.wantFields) {
				t.Errorf("Got %d fields, want %d. Fields: %v",
					len(fieldsMap), len(tt.wantFields), fieldsMap)
			}
		})
	}
}

func TestContextLogger(t *testing.T) {
	// This test verifies that ContextLogger properly wraps the logger
	// Actual logging is tested in logger_test.go

	ctx := context.Background()
	ctx = WithBuildID(ctx, "b-cl-1")
	ctx = WithMachine(ctx, "web01")

	logger, err := New(Config{
		Level:         "info",
		Format:        "json",
		RedactSecrets: false,
		BufferSize:    100,
	})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Shutdown()

	// Create context logger
	ctxLogger := NewContextLogger(logger, ctx)
	if ctxLogger == nil {
		t.Fatal("NewContextLogger returned nil")
	}

	// Test that methods don't panic
	ctxLogger.Debug("debug message")
	ctxLogger.Info("info message")
	ctxLogger.Warn("warn message")
	ctxLogger.Error("error message")

	// Test With
	childLogger := ctxLogger.With("extra", "value")
	if childLogger == nil {
		t.Fatal("ContextLogger.With returned nil")
	}

	childLogger.Info("child message")
}

func TestContextLogger_With(t *testing.T) {
	ctx := WithBuildID(context.Background(), "b-with-1")

	logger, err := New(Config{
		Level:         "info",
		Format:        "json",
		RedactSecrets: false,
		BufferSize:    100,
	})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Shutdown()

	ctxLogger := NewContextLogger(logger, ctx)

	// Create child logger with additional fields
	childLogger := ctxLogger.With("key1", "value1", "key2", 42)
	if childLogger == nil {
		t.Fatal("ContextLogger.With returned nil")
	}

	// Verify it doesn't panic
	childLogger.Info("test message")
}

func TestContextChaining(t *testing.T) {
	// Test that context values can be added incrementally
	ctx := context.Background()
	ctx = WithBuildID(ctx, "b-chain-1")
	ctx = WithMachine(ctx, "web01")
	ctx = WithRole(ctx, "webgateway")

	// Verify all values are present
	if got := GetBuildID(ctx); got != "b-chain-1" {
		t.Errorf("After chaining, GetBuildID() = %q, want %q", got, "b-chain-1")
	}
	if got := GetMachine(ctx); got != "web01" {
		t.Errorf("After chaining, GetMachine() = %q, want %q", got, "web01")
	}
	if got := GetRole(ctx); got != "webgateway" {
		t.Errorf("After chaining, GetRole() = %q, want %q", got, "webgateway")
	}

	// Add more values
	ctx = WithModule(ctx, "nginx")
	ctx = WithRequestID(ctx, "req-1")

	if got := GetModule(ctx); got != "nginx" {
		t.Errorf("After more chaining, GetModule() = %q, want %q", got, "nginx")
	}
	if got := GetRequestID(ctx); got != "req-1" {
		t.Errorf("After more chaining, GetRequestID() = %q, want %q", got, "req-1")
	}

	// Verify original values still present
	if got := GetBuildID(ctx); got != "b-chain-1" {
		t.Errorf("Original value changed: GetBuildID() = %q, want %q", got, "b-chain-1")
	}
}

func TestContextOverwrite(t *testing.T) {
	// Test that context values can be overwritten
	ctx := context.Background()
	ctx = WithBuildID(ctx, "b-old")

	if got := GetBuildID(ctx); got != "b-old" {
		t.Errorf("Initial GetBuildID() = %q, want %q", got, "b-old")
	}

	// Overwrite with new value
	ctx = WithBuildID(ctx, "b-new")

	if got := GetBuildID(ctx); got != "b-new" {
		t.Errorf("After overwrite, GetBuildID() = %q, want %q", got, "b-new")
	}
}

func BenchmarkExtractContextFields(b *testing.B) {
	ctx := context.Background()
	ctx = WithBuildID(ctx, "b-bench")
	ctx = WithMachine(ctx, "web01")
	ctx = WithRole(ctx, "webgateway")
	ctx = WithModule(ctx, "nginx")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = extractContextFields(ctx)
	}
}

func BenchmarkWithBuildID(b *testing.B) {
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = WithBuildID(ctx, "b-123")
	}
}

func BenchmarkGetBuildID(b *testing.B) {
	ctx := WithBuildID(context.Background(), "b-123")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = GetBuildID(ctx)
	}
}
