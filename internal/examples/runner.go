// Package examples holds the narrated walkthroughs and the runner they share.
package examples

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/XiaoConstantine/dspy-go/pkg/core"

	"github.com/longregen/learn-dspy/internal/config"
	"github.com/longregen/learn-dspy/internal/llm"
	"github.com/longregen/learn-dspy/internal/ports"
	"github.com/longregen/learn-dspy/internal/prompt"
)

// ModelFactory builds the chat service a walkthrough talks to
type ModelFactory func(cfg *config.Config) (ports.LLMService, error)

// ModuleBuilder constructs the module for a signature and style
type ModuleBuilder func(sig prompt.Signature, style prompt.Style) (prompt.Module, error)

// Summary counts the questions a walkthrough asked
type Summary struct {
	Attempted int
	Failed    int
}

// Runner carries what every walkthrough needs: configuration, the console
// and the model wiring.
type Runner struct {
	cfg     *config.Config
	out     io.Writer
	logger  *slog.Logger
	factory ModelFactory
	build   ModuleBuilder
	tracer  prompt.Tracer
}

// RunnerOption configures a Runner
type RunnerOption func(*Runner)

// WithOutput redirects the narration
func WithOutput(w io.Writer) RunnerOption {
	return func(r *Runner) {
		r.out = w
	}
}

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithTracer opens a span per walkthrough and per question. Log records
// written inside them carry the trace id.
func WithTracer(tracer prompt.Tracer) RunnerOption {
	return func(r *Runner) {
		r.tracer = tracer
	}
}

// WithModelFactory replaces the configured chat service
func WithModelFactory(f ModelFactory) RunnerOption {
	return func(r *Runner) {
		r.factory = f
	}
}

// WithModuleBuilder replaces prompt.Build
func WithModuleBuilder(b ModuleBuilder) RunnerOption {
	return func(r *Runner) {
		r.build = b
	}
}

// WithModuleOptions passes tracing and metrics hooks to every module the
// default builder creates.
func WithModuleOptions(opts ...prompt.Option) RunnerOption {
	return func(r *Runner) {
		r.build = func(sig prompt.Signature, style prompt.Style) (prompt.Module, error) {
			return prompt.Build(sig, style, opts...)
		}
	}
}

func defaultFactory(cfg *config.Config) (ports.LLMService, error) {
	return llm.NewFromConfig(cfg)
}

// NewRunner creates a runner for cfg
func NewRunner(cfg *config.Config, opts ...RunnerOption) *Runner {
	r := &Runner{
		cfg:     cfg,
		out:     os.Stdout,
		logger:  slog.Default(),
		factory: defaultFactory,
		build: func(sig prompt.Signature, style prompt.Style) (prompt.Module, error) {
			return prompt.Build(sig, style)
		},
		tracer: prompt.NoOpTracer{},
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *Runner) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

func (r *Runner) println(args ...any) {
	fmt.Fprintln(r.out, args...)
}

func (r *Runner) rule(width int) {
	r.println(strings.Repeat("=", width))
}

func (r *Runner) header(title string, width int) {
	r.rule(width)
	r.println(title)
	r.rule(width)
}

// credential reports the key to use and whether the provider can run with it
func (r *Runner) credential() (string, bool) {
	return r.cfg.LLM.APIKey, r.cfg.HasCredential()
}

// CheckCredential reads the configured credential. When the provider needs
// one and none is set it prints how to provide it and reports false.
func (r *Runner) CheckCredential() (string, bool) {
	key, ok := r.credential()
	if ok {
		return key, true
	}

	r.logger.Debug("credential missing", "env", config.CredentialEnv, "provider", r.cfg.LLM.Provider)
	r.printf("   ⚠️  %s not found in environment\n", config.CredentialEnv)
	r.println("   Please set it to run this example:")
	r.printf("   export %s='your-api-key'\n", config.CredentialEnv)
	r.println("\n   Alternatively, use a local model with Ollama:")
	r.printf("   LEARN_DSPY_LLM_PROVIDER=%s LEARN_DSPY_LLM_MODEL=%s learn-dspy <example>\n",
		config.ProviderOllama, config.DefaultModel(config.ProviderOllama))
	return "", false
}

// Run executes a walkthrough inside its own span
func (r *Runner) Run(ctx context.Context, w Walkthrough) error {
	ctx, span := r.tracer.StartSpan(ctx, "walkthrough")
	defer span.End()
	span.SetAttribute("walkthrough", w.Name)

	r.logger.DebugContext(ctx, "starting walkthrough", "walkthrough", w.Name)
	err := w.Run(ctx, r)
	span.SetError(err)
	return err
}

// ConfigureModel builds the chat service for apiKey and registers it as
// dspy-go's default LLM. Modules built afterwards use it.
func (r *Runner) ConfigureModel(ctx context.Context, apiKey string) (core.LLM, error) {
	cfg := *r.cfg
	cfg.LLM.APIKey = apiKey

	svc, err := r.factory(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to configure model: %w", err)
	}

	adapter := prompt.NewLLMServiceAdapter(svc)
	core.SetDefaultLLM(adapter)

	r.logger.InfoContext(ctx, "model configured", "provider", svc.Provider(), "model", svc.Model())
	return adapter, nil
}

// BuildPredictor constructs the module for sig in the given style
func (r *Runner) BuildPredictor(sig prompt.Signature, style prompt.Style) (prompt.Module, error) {
	m, err := r.build(sig, style)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s predictor for %s: %w", style, sig.Name, err)
	}
	return m, nil
}

// RunExamples asks each record's question in order and prints the answer,
// plus the rationale when the module produced one. A failing question is
// reported and the loop moves on.
func RunExamples[R prompt.Record](ctx context.Context, r *Runner, p *prompt.Predictor[R], records []R, rationaleLabel string) Summary {
	var s Summary
	for i, rec := range records {
		if ctx.Err() != nil {
			r.logger.WarnContext(ctx, "question loop interrupted", "remaining", len(records)-i)
			break
		}

		r.printf("\n   Question %d: %v\n", i+1, rec.Inputs()["question"])
		s.Attempted++

		if err := askOne(ctx, r, p, rec, i+1); err != nil {
			s.Failed++
			r.printf("   Error: %v\n", err)
			continue
		}

		res := rec.Result()
		r.printf("   Answer: %s\n", res.Answer)
		if res.Rationale != nil && rationaleLabel != "" {
			r.printf("   %s: %s\n", rationaleLabel, *res.Rationale)
		}
	}
	return s
}

func askOne[R prompt.Record](ctx context.Context, r *Runner, p *prompt.Predictor[R], rec R, index int) error {
	ctx, span := r.tracer.StartSpan(ctx, "question")
	defer span.End()
	span.SetAttribute("index", index)

	if err := p.Predict(ctx, rec); err != nil {
		span.SetError(err)
		r.logger.DebugContext(ctx, "question failed", "index", index, "error", err)
		return err
	}

	res := rec.Result()
	span.SetAttribute("has_rationale", res.Rationale != nil)
	r.logger.DebugContext(ctx, "question answered", "index", index, "has_rationale", res.Rationale != nil)
	return nil
}

// configureOrReport runs the credential check and model setup shared by the
// walkthroughs that need a live model. A false result means the problem was
// printed and the walkthrough should stop; the command still exits 0.
func (r *Runner) configureOrReport(ctx context.Context) bool {
	key, ok := r.CheckCredential()
	if !ok {
		return false
	}
	return r.configure(ctx, key)
}

func (r *Runner) configure(ctx context.Context, key string) bool {
	if _, err := r.ConfigureModel(ctx, key); err != nil {
		r.logger.WarnContext(ctx, "model setup failed", "provider", r.cfg.LLM.Provider, "error", err)
		r.printf("   Error: %v\n", err)
		return false
	}
	r.printf("   ✓ Model configured: %s (%s)\n", r.cfg.LLM.Model, r.cfg.LLM.Provider)
	return true
}
