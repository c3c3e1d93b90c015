package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/XiaoConstantine/dspy-go/pkg/core"
	"github.com/XiaoConstantine/dspy-go/pkg/modules"
)

var (
	// ErrMissingInput is returned when a module is invoked without a declared input
	ErrMissingInput = errors.New("missing input")
	// ErrUnknownStyle is returned for a predictor style Build does not know
	ErrUnknownStyle = errors.New("unknown predictor style")
)

// Module is anything that turns named inputs into named outputs
type Module interface {
	Process(ctx context.Context, inputs map[string]any) (map[string]any, error)
}

// Tracer defines the interface for tracing module execution
type Tracer interface {
	StartSpan(ctx context.Context, name string) (context.Context, Span)
}

// Span represents a traced execution span
type Span interface {
	End()
	SetError(err error)
	SetAttribute(key string, value any)
}

// MetricsCollector defines the interface for collecting metrics
type MetricsCollector interface {
	RecordExecution(module string, elapsed time.Duration, err error)
}

// NoOpTracer is a tracer that does nothing
type NoOpTracer struct{}

func (t NoOpTracer) StartSpan(ctx context.Context, name string) (context.Context, Span) {
	return ctx, NoOpSpan{}
}

// NoOpSpan is a span that does nothing
type NoOpSpan struct{}

func (s NoOpSpan) End()                               {}
func (s NoOpSpan) SetError(err error)                 {}
func (s NoOpSpan) SetAttribute(key string, value any) {}

// NoOpMetrics is a metrics collector that does nothing
type NoOpMetrics struct{}

func (m NoOpMetrics) RecordExecution(module string, elapsed time.Duration, err error) {}

type moduleOptions struct {
	tracer  Tracer
	metrics MetricsCollector
}

// Option configures a module
type Option func(*moduleOptions)

// WithTracer sets a tracer for the module
func WithTracer(tracer Tracer) Option {
	return func(o *moduleOptions) {
		o.tracer = tracer
	}
}

// WithMetrics sets a metrics collector for the module
func WithMetrics(metrics MetricsCollector) Option {
	return func(o *moduleOptions) {
		o.metrics = metrics
	}
}

func applyOptions(opts []Option) moduleOptions {
	o := moduleOptions{tracer: NoOpTracer{}, metrics: NoOpMetrics{}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

type processFunc func(ctx context.Context, inputs map[string]any) (map[string]any, error)

// instrumented runs a dspy-go module inside a span, checks the declared
// inputs and records the outcome.
type instrumented struct {
	kind     string
	sig      Signature
	required []string
	outputs  []string
	run      processFunc
	moduleOptions
}

func newInstrumented(kind string, sig Signature, built core.Signature, run processFunc, opts []Option) *instrumented {
	outputs := make([]string, len(built.Outputs))
	for i, f := range built.Outputs {
		outputs[i] = f.Name
	}
	return &instrumented{
		kind:          kind,
		sig:           sig,
		required:      sig.InputNames(),
		outputs:       outputs,
		run:           run,
		moduleOptions: applyOptions(opts),
	}
}

// OutputFields lists the fields the underlying dspy-go module asks the model
// for, in prompt order. ChainOfThought puts "rationale" first.
func (m *instrumented) OutputFields() []string {
	return m.outputs
}

func (m *instrumented) name() string {
	return m.sig.Name + "/" + m.kind
}

func (m *instrumented) Process(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	ctx, span := m.tracer.StartSpan(ctx, m.kind)
	defer span.End()
	span.SetAttribute("signature", m.sig.Name)
	span.SetAttribute("output_fields", strings.Join(m.outputs, ","))

	start := time.Now()
	outputs, err := m.process(ctx, inputs)
	m.metrics.RecordExecution(m.name(), time.Since(start), err)

	if err != nil {
		span.SetError(err)
		return nil, err
	}
	span.SetAttribute("outputs", len(outputs))
	return outputs, nil
}

func (m *instrumented) process(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	for _, name := range m.required {
		if _, ok := inputs[name]; !ok {
			return nil, fmt.Errorf("%s: %w %q", m.name(), ErrMissingInput, name)
		}
	}

	if core.GetExecutionState(ctx) == nil {
		ctx = core.WithExecutionState(ctx)
	}

	outputs, err := m.run(ctx, inputs)
	if err != nil {
		return nil, fmt.Errorf("%s process failed: %w", m.kind, err)
	}
	return outputs, nil
}

// Predict is a single-step dspy-go predictor
type Predict struct {
	*instrumented
}

// NewPredict creates a Predict module. The default LLM must be registered
// with core.SetDefaultLLM first.
func NewPredict(sig Signature, opts ...Option) *Predict {
	p := modules.NewPredict(sig.Signature)
	return &Predict{
		instrumented: newInstrumented("predict", sig, p.GetSignature(), func(ctx context.Context, inputs map[string]any) (map[string]any, error) {
			return p.Process(ctx, inputs)
		}, opts),
	}
}

// ChainOfThought asks the model to reason step by step before answering
type ChainOfThought struct {
	*instrumented
}

// NewChainOfThought creates a ChainOfThought module. The default LLM must be
// registered with core.SetDefaultLLM first.
func NewChainOfThought(sig Signature, opts ...Option) *ChainOfThought {
	c := modules.NewChainOfThought(sig.Signature)
	return &ChainOfThought{
		instrumented: newInstrumented("chain_of_thought", sig, c.GetSignature(), func(ctx context.Context, inputs map[string]any) (map[string]any, error) {
			return c.Process(ctx, inputs)
		}, opts),
	}
}

// DocumentSeparator sits between retrieved documents in the joined context
const DocumentSeparator = "\n\n"

// JoinDocuments concatenates documents in order with a blank line between them
func JoinDocuments(docs []string) string {
	return strings.Join(docs, DocumentSeparator)
}

// Retrieval is a composed module: it folds a document list into a single
// context string and hands (context, question) to a nested module.
type Retrieval struct {
	inner Module
	moduleOptions
}

// NewRetrieval composes a retrieval step over the given module
func NewRetrieval(inner Module, opts ...Option) *Retrieval {
	return &Retrieval{inner: inner, moduleOptions: applyOptions(opts)}
}

// Process requires a string "question" and a []string "documents"
func (r *Retrieval) Process(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	ctx, span := r.tracer.StartSpan(ctx, "retrieval")
	defer span.End()

	start := time.Now()
	outputs, err := r.process(ctx, inputs, span)
	r.metrics.RecordExecution("retrieval", time.Since(start), err)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	return outputs, nil
}

func (r *Retrieval) process(ctx context.Context, inputs map[string]any, span Span) (map[string]any, error) {
	question, ok := inputs["question"].(string)
	if !ok {
		return nil, fmt.Errorf("retrieval: %w %q", ErrMissingInput, "question")
	}
	docs, ok := inputs["documents"].([]string)
	if !ok {
		return nil, fmt.Errorf("retrieval: %w %q", ErrMissingInput, "documents")
	}
	span.SetAttribute("documents", len(docs))

	return r.inner.Process(ctx, map[string]any{
		"context":  JoinDocuments(docs),
		"question": question,
	})
}

// Style selects which module Build constructs
type Style string

const (
	StylePlain             Style = "plain"
	StyleChainOfThought    Style = "chain-of-thought"
	StyleComposedRetrieval Style = "composed-retrieval"
)

// Build constructs the module for a style. Composed retrieval nests a
// chain-of-thought module over sig.
func Build(sig Signature, style Style, opts ...Option) (Module, error) {
	switch style {
	case StylePlain:
		return NewPredict(sig, opts...), nil
	case StyleChainOfThought:
		return NewChainOfThought(sig, opts...), nil
	case StyleComposedRetrieval:
		return NewRetrieval(NewChainOfThought(sig, opts...), opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStyle, style)
	}
}
