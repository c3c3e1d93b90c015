package examples

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/longregen/learn-dspy/internal/adapters/tracing"
	"github.com/longregen/learn-dspy/internal/config"
	"github.com/longregen/learn-dspy/internal/logging"
	"github.com/longregen/learn-dspy/internal/ports"
	"github.com/longregen/learn-dspy/internal/prompt"
)

type stubService struct{}

func (stubService) Chat(ctx context.Context, messages []ports.LLMMessage) (*ports.LLMResponse, error) {
	return &ports.LLMResponse{Content: "stub"}, nil
}
func (stubService) Model() string    { return "stub-model" }
func (stubService) Provider() string { return "stub" }

// scriptedModule answers by question; questions without a script fail
type scriptedModule struct {
	answers map[string]map[string]any
	calls   []map[string]any
}

func (m *scriptedModule) Process(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	m.calls = append(m.calls, inputs)
	q, _ := inputs["question"].(string)
	out, ok := m.answers[q]
	if !ok {
		return nil, errors.New("model refused " + q)
	}
	return out, nil
}

type harness struct {
	out       *bytes.Buffer
	factories int
	builds    []prompt.Style
	module    prompt.Module
	runner    *Runner
}

func newHarness(t *testing.T, apiKey string, module prompt.Module) *harness {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.LLM.APIKey = apiKey

	h := &harness{out: &bytes.Buffer{}, module: module}
	h.runner = NewRunner(cfg,
		WithOutput(h.out),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithModelFactory(func(cfg *config.Config) (ports.LLMService, error) {
			h.factories++
			assert.Equal(t, apiKey, cfg.LLM.APIKey)
			return stubService{}, nil
		}),
		WithModuleBuilder(func(sig prompt.Signature, style prompt.Style) (prompt.Module, error) {
			h.builds = append(h.builds, style)
			if style == prompt.StyleComposedRetrieval {
				return prompt.NewRetrieval(h.module), nil
			}
			return h.module, nil
		}),
	)
	return h
}

func TestWalkthroughsWithoutCredential(t *testing.T) {
	for _, run := range []func(context.Context, *Runner) error{RunQA, RunRAG} {
		module := &scriptedModule{}
		h := newHarness(t, "", module)

		require.NoError(t, run(context.Background(), h.runner))

		out := h.out.String()
		assert.Contains(t, out, "⚠️  OPENAI_API_KEY not found in environment")
		assert.Contains(t, out, "export OPENAI_API_KEY='your-api-key'")
		assert.Contains(t, out, "LEARN_DSPY_LLM_PROVIDER=ollama")
		assert.NotContains(t, out, "Question 1")
		assert.Zero(t, h.factories)
		assert.Empty(t, h.builds)
		assert.Empty(t, module.calls)
	}
}

func TestOllamaNeedsNoCredential(t *testing.T) {
	module := &scriptedModule{answers: map[string]map[string]any{}}
	h := newHarness(t, "", module)
	h.runner.cfg.LLM.Provider = config.ProviderOllama

	_, ok := h.runner.CheckCredential()
	assert.True(t, ok)
	assert.Empty(t, h.out.String())
}

func TestRunBasicWithoutCredential(t *testing.T) {
	module := &scriptedModule{}
	h := newHarness(t, "", module)

	require.NoError(t, RunBasic(context.Background(), h.runner))

	out := h.out.String()
	assert.Contains(t, out, "Signature: BasicQA")
	assert.Contains(t, out, "Output: answer (1-5 words)")
	assert.Contains(t, out, "Example usage (requires configured LLM)")
	assert.Contains(t, out, "To run this with a real LLM:")
	assert.Zero(t, h.factories)
	assert.Equal(t, []prompt.Style{prompt.StylePlain}, h.builds)
	assert.Empty(t, module.calls)
}

func TestRunBasicWithCredential(t *testing.T) {
	module := &scriptedModule{answers: map[string]map[string]any{
		"What is the capital of France?": {"answer": "Paris"},
	}}
	h := newHarness(t, "sk-test", module)

	require.NoError(t, RunBasic(context.Background(), h.runner))

	out := h.out.String()
	assert.Contains(t, out, "✓ Model configured: gpt-4o-mini (openai)")
	assert.Contains(t, out, "Question 1: What is the capital of France?")
	assert.Contains(t, out, "Answer: Paris")
	assert.Equal(t, 1, h.factories)
}

func TestRunQA(t *testing.T) {
	module := &scriptedModule{answers: map[string]map[string]any{
		QAQuestions[0]: {"answer": "Declarative Self-improving Language Programs in Python", "rationale": "The context says so."},
		QAQuestions[2]: {"answer": "Pythonic syntax"},
	}}
	h := newHarness(t, "sk-test", module)

	require.NoError(t, RunQA(context.Background(), h.runner))

	out := h.out.String()
	assert.Equal(t, []prompt.Style{prompt.StyleChainOfThought}, h.builds)
	assert.Contains(t, out, "Rationale: The context says so.")
	assert.Contains(t, out, "Error: model refused "+QAQuestions[1])
	assert.Contains(t, out, "Answer: Pythonic syntax")
	assert.Equal(t, 1, strings.Count(out, "Rationale:"))
	assert.Contains(t, out, "Example completed!")

	require.Len(t, module.calls, 3)
	for _, call := range module.calls {
		assert.Equal(t, QAContext, call["context"])
	}
}

func TestRunRAGJoinsDocuments(t *testing.T) {
	module := &scriptedModule{answers: map[string]map[string]any{
		RAGQuestions[0]: {"answer": "A framework", "rationale": "Document one."},
		RAGQuestions[1]: {"answer": "It optimizes them"},
		RAGQuestions[2]: {"answer": "ChainOfThought and ReAct"},
	}}
	h := newHarness(t, "sk-test", module)

	require.NoError(t, RunRAG(context.Background(), h.runner))

	out := h.out.String()
	assert.Equal(t, []prompt.Style{prompt.StyleComposedRetrieval}, h.builds)
	assert.Contains(t, out, "✓ Loaded 4 documents")
	assert.Contains(t, out, "Reasoning: Document one.")
	assert.Contains(t, out, "Note: In a real RAG system, you would:")

	require.Len(t, module.calls, 3)
	assert.Equal(t, strings.Join(RAGDocuments, "\n\n"), module.calls[0]["context"])
	assert.Equal(t, RAGQuestions[0], module.calls[0]["question"])
}

func TestRunExamplesContinuesAfterFailure(t *testing.T) {
	module := &scriptedModule{answers: map[string]map[string]any{
		"first": {"answer": "1"},
		"third": {"answer": "3", "reasoning": "counted"},
	}}
	h := newHarness(t, "sk-test", module)

	records := []*BasicQA{{Question: "first"}, {Question: "second"}, {Question: "third"}}
	s := RunExamples(context.Background(), h.runner, prompt.NewPredictor[*BasicQA](module), records, "Rationale")

	assert.Equal(t, Summary{Attempted: 3, Failed: 1}, s)
	assert.Equal(t, "1", records[0].Answer)
	assert.Empty(t, records[1].Answer)
	assert.Equal(t, "3", records[2].Answer)

	out := h.out.String()
	assert.Contains(t, out, "Question 2: second\n   Error: model refused second")
	assert.Contains(t, out, "Question 3: third\n   Answer: 3\n   Rationale: counted")
}

func TestRunExamplesReportsMissingAnswer(t *testing.T) {
	module := &scriptedModule{answers: map[string]map[string]any{
		"q": {"rationale": "thinking"},
	}}
	h := newHarness(t, "sk-test", module)

	s := RunExamples(context.Background(), h.runner, prompt.NewPredictor[*BasicQA](module), []*BasicQA{{Question: "q"}}, "Rationale")
	assert.Equal(t, 1, s.Failed)
	assert.Contains(t, h.out.String(), "Error: missing output: answer")
}

func TestRunExamplesStopsOnCancel(t *testing.T) {
	module := &scriptedModule{answers: map[string]map[string]any{"q": {"answer": "a"}}}
	h := newHarness(t, "sk-test", module)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := RunExamples(ctx, h.runner, prompt.NewPredictor[*BasicQA](module), []*BasicQA{{Question: "q"}}, "")
	assert.Zero(t, s.Attempted)
	assert.Empty(t, module.calls)
}

func TestConfigureModelFailure(t *testing.T) {
	h := newHarness(t, "sk-test", &scriptedModule{})
	h.runner.factory = func(cfg *config.Config) (ports.LLMService, error) {
		return nil, errors.New("unknown LLM provider")
	}

	for _, run := range []func(context.Context, *Runner) error{RunBasic, RunQA, RunRAG} {
		h.out.Reset()
		h.builds = nil

		require.NoError(t, run(context.Background(), h.runner))
		out := h.out.String()
		assert.Contains(t, out, "Error: failed to configure model: unknown LLM provider")
		assert.NotContains(t, out, "Model configured")
		assert.Empty(t, h.builds)
	}
}

func TestRunnerTracesQuestions(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	var logs bytes.Buffer
	module := &scriptedModule{answers: map[string]map[string]any{"first": {"answer": "1"}}}
	h := newHarness(t, "sk-test", module)
	WithTracer(tracing.NewPromptTracerFrom(tp.Tracer("test")))(h.runner)
	WithLogger(logging.New(&logs, slog.LevelDebug))(h.runner)

	records := []*BasicQA{{Question: "first"}, {Question: "second"}}
	s := RunExamples(context.Background(), h.runner, prompt.NewPredictor[*BasicQA](module), records, "")
	assert.Equal(t, Summary{Attempted: 2, Failed: 1}, s)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "question", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)

	lines := strings.Split(strings.TrimSpace(logs.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "question answered")
	assert.Contains(t, lines[0], "trace_id="+spans[0].SpanContext().TraceID().String())
	assert.Contains(t, lines[1], "question failed")
	assert.Contains(t, lines[1], "trace_id="+spans[1].SpanContext().TraceID().String())
}

func TestRunnerRunOpensWalkthroughSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	var logs bytes.Buffer
	module := &scriptedModule{answers: map[string]map[string]any{
		"What is the capital of France?": {"answer": "Paris"},
	}}
	h := newHarness(t, "sk-test", module)
	WithTracer(tracing.NewPromptTracerFrom(tp.Tracer("test")))(h.runner)
	WithLogger(logging.New(&logs, slog.LevelInfo))(h.runner)

	w := All()[0]
	require.NoError(t, h.runner.Run(context.Background(), w))

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	question, walkthrough := spans[0], spans[1]
	assert.Equal(t, "question", question.Name())
	assert.Equal(t, "walkthrough", walkthrough.Name())
	assert.Contains(t, walkthrough.Attributes(), attribute.String("walkthrough", "basic"))
	assert.Equal(t, walkthrough.SpanContext().SpanID(), question.Parent().SpanID())

	traceID := "trace_id=" + walkthrough.SpanContext().TraceID().String()
	for _, line := range strings.Split(strings.TrimSpace(logs.String()), "\n") {
		assert.Contains(t, line, traceID)
	}
	assert.Contains(t, logs.String(), "walkthrough finished")
}

func TestWelcome(t *testing.T) {
	h := newHarness(t, "", &scriptedModule{})
	h.runner.Welcome()

	out := h.out.String()
	assert.Contains(t, out, "Welcome to Learn DSPy!")
	assert.Contains(t, out, "1. Basic Example (No API key required)")
	assert.Contains(t, out, "2. QA System (Requires API key)")
	assert.Contains(t, out, "Command: learn-dspy rag")
}
