package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LLMRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "learn_dspy_llm_requests_total",
		Help: "Total LLM requests",
	}, []string{"model", "status"})

	LLMRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "learn_dspy_llm_request_duration_seconds",
		Help:    "LLM request duration",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"model"})

	LLMTokensTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "learn_dspy_llm_tokens_total",
		Help: "Tokens reported by the model endpoint",
	}, []string{"model", "kind"})

	PredictionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "learn_dspy_predictions_total",
		Help: "Module executions by outcome",
	}, []string{"module", "status"})

	PredictionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "learn_dspy_prediction_duration_seconds",
		Help:    "Module execution duration",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"module"})
)

// Status returns the label value for an outcome
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// WriteTextfile dumps the default registry in the text exposition format,
// the same layout node_exporter's textfile collector reads.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}

// PromptCollector records module executions for the prompt layer
type PromptCollector struct{}

func NewPromptCollector() *PromptCollector {
	return &PromptCollector{}
}

func (c *PromptCollector) RecordExecution(module string, elapsed time.Duration, err error) {
	PredictionsTotal.WithLabelValues(module, Status(err)).Inc()
	PredictionDuration.WithLabelValues(module).Observe(elapsed.Seconds())
}
