package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/longregen/learn-dspy/internal/adapters/id"
	"github.com/longregen/learn-dspy/internal/adapters/metrics"
	"github.com/longregen/learn-dspy/internal/adapters/tracing"
	"github.com/longregen/learn-dspy/internal/config"
	"github.com/longregen/learn-dspy/internal/examples"
	"github.com/longregen/learn-dspy/internal/logging"
	"github.com/longregen/learn-dspy/internal/prompt"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "learn-dspy",
		Short: "Learn DSPy - narrated walkthroughs of declarative prompting",
		Long: `learn-dspy walks through DSPy-style signatures, predictors,
chain-of-thought and a small retrieval-augmented generation module.
Run without arguments for the list of walkthroughs.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return teardown(cmd.Context())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			runner.Welcome()
			return nil
		},
	}

	rootCmd.AddCommand(welcomeCmd())
	for _, w := range examples.All() {
		rootCmd.AddCommand(walkthroughCmd(w))
	}
	rootCmd.AddCommand(configCmd(), versionCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	runID = id.New().GenerateRunID()
	logger = logging.New(os.Stderr, level).With("run_id", runID)
	slog.SetDefault(logger)

	var moduleOpts []prompt.Option
	moduleOpts = append(moduleOpts, prompt.WithMetrics(metrics.NewPromptCollector()))

	runnerOpts := []examples.RunnerOption{
		examples.WithOutput(cmd.OutOrStdout()),
		examples.WithLogger(logger),
	}

	if cfg.Telemetry.Tracing {
		shutdownTracer, err = tracing.InitTracer(os.Stderr)
		if err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}
		tracer := tracing.NewPromptTracer("learn-dspy", attribute.String("run_id", runID))
		moduleOpts = append(moduleOpts, prompt.WithTracer(tracer))
		runnerOpts = append(runnerOpts, examples.WithTracer(tracer))
	}

	runner = examples.NewRunner(cfg, append(runnerOpts, examples.WithModuleOptions(moduleOpts...))...)

	logger.Debug("configuration loaded", "provider", cfg.LLM.Provider, "model", cfg.LLM.Model, "tracing", cfg.Telemetry.Tracing)
	return nil
}

func teardown(ctx context.Context) error {
	if shutdownTracer != nil {
		if err := shutdownTracer(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("failed to flush traces", "error", err)
		}
	}

	if cfg.Telemetry.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.Telemetry.MetricsFile); err != nil {
			logger.Warn("failed to write metrics", "error", err)
		} else {
			logger.Info("metrics written", "path", cfg.Telemetry.MetricsFile)
		}
	}
	return nil
}

// configCmd shows current configuration
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Current configuration:")
			fmt.Fprintln(out)

			fmt.Fprintln(out, "LLM:")
			fmt.Fprintf(out, "  Provider:    %s\n", cfg.LLM.Provider)
			fmt.Fprintf(out, "  URL:         %s\n", orDefault(cfg.LLM.URL, config.DefaultURL(cfg.LLM.Provider)))
			fmt.Fprintf(out, "  Model:       %s\n", cfg.LLM.Model)
			fmt.Fprintf(out, "  Max Tokens:  %d\n", cfg.LLM.MaxTokens)
			fmt.Fprintf(out, "  Temperature: %.2f\n", cfg.LLM.Temperature)
			fmt.Fprintf(out, "  Timeout:     %ds\n", cfg.LLM.Timeout)
			fmt.Fprintf(out, "  API Key:     %s\n", maskSecret(cfg.LLM.APIKey))
			fmt.Fprintf(out, "  Status:      %s\n", boolStatus(cfg.HasCredential()))
			fmt.Fprintln(out)

			fmt.Fprintln(out, "Logging:")
			fmt.Fprintf(out, "  Level: %s\n", cfg.Logging.Level)
			fmt.Fprintln(out)

			fmt.Fprintln(out, "Telemetry:")
			fmt.Fprintf(out, "  Tracing:      %t\n", cfg.Telemetry.Tracing)
			fmt.Fprintf(out, "  Metrics File: %s\n", orDefault(cfg.Telemetry.MetricsFile, "none"))
			fmt.Fprintln(out)

			fmt.Fprintln(out, "Environment variables:")
			fmt.Fprintf(out, "  %s, LEARN_DSPY_CONFIG\n", config.CredentialEnv)
			fmt.Fprintln(out, "  LEARN_DSPY_LLM_PROVIDER, LEARN_DSPY_LLM_URL, LEARN_DSPY_LLM_API_KEY, LEARN_DSPY_LLM_MODEL")
			fmt.Fprintln(out, "  LEARN_DSPY_LLM_MAX_TOKENS, LEARN_DSPY_LLM_TEMPERATURE, LEARN_DSPY_LLM_TIMEOUT")
			fmt.Fprintln(out, "  LEARN_DSPY_LOG_LEVEL, LEARN_DSPY_TRACING, LEARN_DSPY_METRICS_FILE")

			return nil
		},
	}
}

// versionCmd shows version information
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "learn-dspy %s\n", version)
			fmt.Fprintf(out, "  Commit:     %s\n", commit)
			fmt.Fprintf(out, "  Build Date: %s\n", buildDate)
		},
	}
}
