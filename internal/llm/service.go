package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/longregen/learn-dspy/internal/adapters/metrics"
	"github.com/longregen/learn-dspy/internal/adapters/retry"
	"github.com/longregen/learn-dspy/internal/config"
	"github.com/longregen/learn-dspy/internal/ports"
)

const (
	// LLMTimeout is the default maximum time to wait for LLM responses
	LLMTimeout = 2 * time.Minute
)

// ErrNoChoices is returned when the endpoint answers without a completion
var ErrNoChoices = errors.New("no choices in response")

// chatClient is satisfied by both the raw HTTP client and the go-openai client
type chatClient interface {
	Chat(ctx context.Context, messages []ChatMessage) (*ChatCompletionResponse, error)
}

// Service implements ports.LLMService on top of a chat client
type Service struct {
	client   chatClient
	breaker  *gobreaker.CircuitBreaker
	model    string
	provider string
	timeout  time.Duration
}

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithTimeout bounds every Chat call
func WithTimeout(d time.Duration) ServiceOption {
	return func(s *Service) {
		s.timeout = d
	}
}

// NewService creates a new LLM service
func NewService(client chatClient, provider, model string, opts ...ServiceOption) *Service {
	s := &Service{
		client:   client,
		model:    model,
		provider: provider,
		timeout:  LLMTimeout,
	}

	s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    provider + "/" + model,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// A cancelled walkthrough says nothing about the endpoint's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("llm circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// minAttemptTimeout keeps a slow local model from being cut off early
const minAttemptTimeout = 5 * time.Second

// attemptTimeout splits the request budget across the attempts the retry
// policy allows, so a hung attempt leaves room for the next one.
func attemptTimeout(total time.Duration, policy retry.BackoffConfig) time.Duration {
	d := total / time.Duration(max(policy.MaxRetries, 0)+1)
	if d < minAttemptTimeout {
		d = min(minAttemptTimeout, total)
	}
	return d
}

// NewFromConfig builds the service for the configured provider
func NewFromConfig(cfg *config.Config) (*Service, error) {
	timeout := time.Duration(cfg.LLM.Timeout) * time.Second

	var client chatClient
	switch cfg.LLM.Provider {
	case config.ProviderOpenAI:
		if cfg.LLM.APIKey == "" {
			return nil, fmt.Errorf("provider %s requires an API key (set %s)", cfg.LLM.Provider, config.CredentialEnv)
		}
		client = NewOpenAIClient(cfg.LLM.URL, cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.MaxTokens, cfg.LLM.Temperature)
	case config.ProviderOllama:
		policy := retry.HTTPConfig()
		client = NewClient(cfg.BaseURL(), cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.MaxTokens, cfg.LLM.Temperature,
			WithHTTPTimeout(attemptTimeout(timeout, policy)), WithRetryConfig(policy))
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLM.Provider)
	}

	return NewService(client, cfg.LLM.Provider, cfg.LLM.Model, WithTimeout(timeout)), nil
}

func (s *Service) Model() string {
	return s.model
}

func (s *Service) Provider() string {
	return s.provider
}

// Chat sends a non-streaming chat request
func (s *Service) Chat(ctx context.Context, messages []ports.LLMMessage) (*ports.LLMResponse, error) {
	start := time.Now()
	result, err := s.breaker.Execute(func() (interface{}, error) {
		return s.doChat(ctx, messages)
	})

	metrics.LLMRequestsTotal.WithLabelValues(s.model, metrics.Status(err)).Inc()
	metrics.LLMRequestDuration.WithLabelValues(s.model).Observe(time.Since(start).Seconds())

	if err != nil {
		return nil, err
	}

	resp := result.(*ports.LLMResponse)
	if resp.Usage != nil {
		metrics.LLMTokensTotal.WithLabelValues(s.model, "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.LLMTokensTotal.WithLabelValues(s.model, "completion").Add(float64(resp.Usage.CompletionTokens))
	}
	return resp, nil
}

func (s *Service) doChat(ctx context.Context, messages []ports.LLMMessage) (*ports.LLMResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	chatMessages := make([]ChatMessage, len(messages))
	for i, msg := range messages {
		chatMessages[i] = ChatMessage{Role: msg.Role, Content: msg.Content}
	}

	response, err := s.client.Chat(ctx, chatMessages)
	if err != nil {
		return nil, fmt.Errorf("chat request failed: %w", err)
	}

	if len(response.Choices) == 0 {
		return nil, ErrNoChoices
	}

	choice := response.Choices[0]
	return &ports.LLMResponse{
		Content:      choice.Message.Content,
		FinishReason: choice.FinishReason,
		Usage: &ports.LLMUsage{
			PromptTokens:     response.Usage.PromptTokens,
			CompletionTokens: response.Usage.CompletionTokens,
			TotalTokens:      response.Usage.TotalTokens,
		},
	}, nil
}
