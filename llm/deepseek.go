// DeepSeek Provider implementation using go-openai library.
//
// Information Hiding:
// - Uses OpenAI-compatible API with different base URL
// - Supports deepseek-chat and deepseek-reasoner models
// - JSON output via json_object mode plus schema instructions

package llm

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

const deepseekBaseURL = "https://api.deepseek.com/v1"

// DeepSeekProvider implements the Provider interface for DeepSeek.
type DeepSeekProvider struct {
	providerInfo
	client      *openai.Client
	maxTokens   int
	temperature float32
}

// NewDeepSeekProvider creates a DeepSeek provider over the OpenAI-compatible
// endpoint.
func NewDeepSeekProvider(apiKey, model string, maxTokens uint32, temperature float32) *DeepSeekProvider {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = deepseekBaseURL
	return &DeepSeekProvider{
		providerInfo: providerInfo{name: "deepseek", model: model},
		client:       openai.NewClientWithConfig(cfg),
		maxTokens:    int(maxTokens),
		temperature:  temperature,
	}
}

// Chat sends a chat completion request.
func (p *DeepSeekProvider) Chat(ctx context.Context, messages []ChatMessage) (LLMResponse, error) {
	return p.ChatWithFormat(ctx, messages, nil)
}

// ChatWithFormat sends a chat completion request with optional response format.
// DeepSeek has no json_schema mode, so the schema travels in the system prompt.
func (p *DeepSeekProvider) ChatWithFormat(ctx context.Context, messages []ChatMessage, format *ResponseFormat) (LLMResponse, error) {
	req := openai.ChatCompletionRequest{
		Model:               p.model,
		Messages:            convertToOpenAIMessages(withSchemaInstruction(messages, format), false),
		MaxCompletionTokens: p.maxTokens,
		Temperature:         p.temperature,
	}

	if format.wantsJSON() {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	return completeOpenAI(ctx, p.client, req)
}

var _ Provider = (*DeepSeekProvider)(nil)
