package prompt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/XiaoConstantine/dspy-go/pkg/core"
	"github.com/kaptinlin/jsonrepair"

	"github.com/longregen/learn-dspy/internal/ports"
)

// ErrNotSupported is returned by the core.LLM methods the walkthroughs never use
var ErrNotSupported = errors.New("not supported by the chat completion adapter")

// LLMServiceAdapter adapts an LLMService to dspy-go's LLM interface
type LLMServiceAdapter struct {
	service ports.LLMService
}

// NewLLMServiceAdapter creates a new LLM service adapter
func NewLLMServiceAdapter(service ports.LLMService) *LLMServiceAdapter {
	return &LLMServiceAdapter{service: service}
}

// Generate implements the dspy-go LLM interface
func (a *LLMServiceAdapter) Generate(ctx context.Context, prompt string, opts ...core.GenerateOption) (*core.LLMResponse, error) {
	resp, err := a.chat(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return &core.LLMResponse{
		Content: resp.Content,
	}, nil
}

// GenerateWithJSON asks for a JSON object. Replies that are almost JSON
// (code fences, trailing commas, single quotes) are repaired before decoding.
func (a *LLMServiceAdapter) GenerateWithJSON(ctx context.Context, prompt string, opts ...core.GenerateOption) (map[string]interface{}, error) {
	resp, err := a.chat(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return DecodeJSONObject(resp.Content)
}

// DecodeJSONObject parses a model reply as a JSON object
func DecodeJSONObject(content string) (map[string]interface{}, error) {
	raw := stripCodeFence(content)

	var out map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &out); err == nil {
		return out, nil
	}

	repaired, err := jsonrepair.JSONRepair(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to repair JSON response: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), &out); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}
	return out, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

func (a *LLMServiceAdapter) chat(ctx context.Context, prompt string) (*ports.LLMResponse, error) {
	messages := []ports.LLMMessage{
		{Role: "user", Content: prompt},
	}

	resp, err := a.service.Chat(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("llm service chat failed: %w", err)
	}
	return resp, nil
}

func (a *LLMServiceAdapter) GenerateWithFunctions(ctx context.Context, prompt string, functions []map[string]interface{}, opts ...core.GenerateOption) (map[string]interface{}, error) {
	return nil, fmt.Errorf("GenerateWithFunctions: %w", ErrNotSupported)
}

func (a *LLMServiceAdapter) CreateEmbedding(ctx context.Context, input string, opts ...core.EmbeddingOption) (*core.EmbeddingResult, error) {
	return nil, fmt.Errorf("CreateEmbedding: %w", ErrNotSupported)
}

func (a *LLMServiceAdapter) CreateEmbeddings(ctx context.Context, inputs []string, opts ...core.EmbeddingOption) (*core.BatchEmbeddingResult, error) {
	return nil, fmt.Errorf("CreateEmbeddings: %w", ErrNotSupported)
}

func (a *LLMServiceAdapter) StreamGenerate(ctx context.Context, prompt string, opts ...core.GenerateOption) (*core.StreamResponse, error) {
	return nil, fmt.Errorf("StreamGenerate: %w", ErrNotSupported)
}

func (a *LLMServiceAdapter) GenerateWithContent(ctx context.Context, content []core.ContentBlock, opts ...core.GenerateOption) (*core.LLMResponse, error) {
	return nil, fmt.Errorf("GenerateWithContent: %w", ErrNotSupported)
}

func (a *LLMServiceAdapter) StreamGenerateWithContent(ctx context.Context, content []core.ContentBlock, opts ...core.GenerateOption) (*core.StreamResponse, error) {
	return nil, fmt.Errorf("StreamGenerateWithContent: %w", ErrNotSupported)
}

// ProviderName returns the provider name
func (a *LLMServiceAdapter) ProviderName() string {
	return a.service.Provider()
}

// ModelID returns the model identifier
func (a *LLMServiceAdapter) ModelID() string {
	return a.service.Model()
}

// Capabilities returns the capabilities of this LLM
func (a *LLMServiceAdapter) Capabilities() []core.Capability {
	return []core.Capability{core.CapabilityChat, core.CapabilityCompletion}
}

var _ core.LLM = (*LLMServiceAdapter)(nil)
