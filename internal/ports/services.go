package ports

import (
	"context"
)

// LLMMessage represents a message in the LLM conversation context
type LLMMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// LLMUsage reports token accounting for a single completion
type LLMUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// LLMResponse represents a response from the LLM
type LLMResponse struct {
	Content      string    `json:"content,omitempty"`
	FinishReason string    `json:"finish_reason,omitempty"`
	Usage        *LLMUsage `json:"usage,omitempty"`
}

// LLMService defines the interface for LLM interactions
type LLMService interface {
	Chat(ctx context.Context, messages []LLMMessage) (*LLMResponse, error)
	// Model returns the model identifier requests are sent to.
	Model() string
	// Provider names the backend, e.g. "openai" or "ollama".
	Provider() string
}
