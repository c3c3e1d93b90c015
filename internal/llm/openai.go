package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"

	"github.com/longregen/learn-dspy/internal/adapters/retry"
)

// OpenAIClient talks to the hosted OpenAI API through go-openai
type OpenAIClient struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float64
	retryConfig retry.BackoffConfig
}

// OpenAIOption configures an OpenAIClient
type OpenAIOption func(*OpenAIClient)

// WithOpenAIRetryConfig overrides the backoff policy
func WithOpenAIRetryConfig(cfg retry.BackoffConfig) OpenAIOption {
	return func(c *OpenAIClient) {
		c.retryConfig = cfg
	}
}

// NewOpenAIClient creates a new OpenAI client. An empty baseURL keeps the
// library default.
func NewOpenAIClient(baseURL, apiKey, model string, maxTokens int, temperature float64, opts ...OpenAIOption) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	if model == "" {
		model = openai.GPT4oMini
	}

	c := &OpenAIClient{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		retryConfig: retry.HTTPConfig(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Chat sends a chat completion request to OpenAI
func (c *OpenAIClient) Chat(ctx context.Context, messages []ChatMessage) (*ChatCompletionResponse, error) {
	req := c.buildChatRequest(messages)

	var resp openai.ChatCompletionResponse
	err := retry.WithBackoffHTTP(ctx, c.retryConfig, func() (int, error) {
		var err error
		resp, err = c.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return statusOf(err), err
		}
		return http.StatusOK, nil
	})
	if err != nil {
		return nil, fmt.Errorf("openai chat completion failed: %w", err)
	}

	out := &ChatCompletionResponse{
		ID:      resp.ID,
		Object:  resp.Object,
		Created: resp.Created,
		Model:   resp.Model,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}

	for _, choice := range resp.Choices {
		out.Choices = append(out.Choices, ChatChoice{
			Index:        choice.Index,
			Message:      ChatMessage{Role: choice.Message.Role, Content: choice.Message.Content},
			FinishReason: string(choice.FinishReason),
		})
	}

	return out, nil
}

func (c *OpenAIClient) buildChatRequest(messages []ChatMessage) openai.ChatCompletionRequest {
	openaiMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		openaiMessages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	return openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    openaiMessages,
		MaxTokens:   c.maxTokens,
		Temperature: float32(c.temperature),
	}
}

// statusOf extracts the HTTP status go-openai attached to an error, or 0
// when the request never got a response.
func statusOf(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
