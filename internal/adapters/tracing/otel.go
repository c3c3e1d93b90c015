package tracing

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/longregen/learn-dspy/internal/prompt"
)

// InitTracer installs a global tracer provider exporting pretty-printed
// spans to w. The returned function flushes and shuts it down.
func InitTracer(w io.Writer) (func(context.Context) error, error) {
	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(w),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return nil, err
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
	)

	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}

// PromptTracer implements prompt.Tracer over an OpenTelemetry tracer
type PromptTracer struct {
	tracer oteltrace.Tracer
	attrs  []attribute.KeyValue
}

// NewPromptTracer returns a prompt.Tracer backed by the global provider.
// Extra attributes (the CLI run id, say) are stamped on every span.
func NewPromptTracer(name string, attrs ...attribute.KeyValue) *PromptTracer {
	return &PromptTracer{tracer: otel.Tracer(name), attrs: attrs}
}

// NewPromptTracerFrom wraps an explicit tracer, used by tests
func NewPromptTracerFrom(tracer oteltrace.Tracer, attrs ...attribute.KeyValue) *PromptTracer {
	return &PromptTracer{tracer: tracer, attrs: attrs}
}

func (t *PromptTracer) StartSpan(ctx context.Context, name string) (context.Context, prompt.Span) {
	ctx, span := t.tracer.Start(ctx, name, oteltrace.WithAttributes(t.attrs...))
	return ctx, &otelSpan{span: span}
}

type otelSpan struct {
	span oteltrace.Span
}

func (s *otelSpan) End() {
	s.span.End()
}

func (s *otelSpan) SetError(err error) {
	if err == nil {
		return
	}
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

func (s *otelSpan) SetAttribute(key string, value any) {
	switch v := value.(type) {
	case string:
		s.span.SetAttributes(attribute.String(key, v))
	case int:
		s.span.SetAttributes(attribute.Int(key, v))
	case int64:
		s.span.SetAttributes(attribute.Int64(key, v))
	case float64:
		s.span.SetAttributes(attribute.Float64(key, v))
	case bool:
		s.span.SetAttributes(attribute.Bool(key, v))
	case []string:
		s.span.SetAttributes(attribute.StringSlice(key, v))
	default:
		s.span.SetAttributes(attribute.String(key, fmt.Sprint(v)))
	}
}
