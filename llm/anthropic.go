// Anthropic Provider implementation using official anthropic-sdk-go.
//
// Information Hiding:
// - API endpoint and authentication
// - Request/response format for Anthropic Messages API
// - Image and PDF document blocks
// - JSON output by system-prompt instruction

package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicProvider implements the Provider interface for Anthropic Claude.
type AnthropicProvider struct {
	providerInfo
	client      anthropic.Client
	maxTokens   int64
	temperature float64
}

// NewAnthropicProvider creates a new Anthropic provider.
func NewAnthropicProvider(apiKey, model string, maxTokens uint32, temperature float32) *AnthropicProvider {
	return &AnthropicProvider{
		providerInfo: providerInfo{name: "anthropic", model: model},
		client:       anthropic.NewClient(option.WithAPIKey(apiKey)),
		maxTokens:    int64(maxTokens),
		temperature:  float64(temperature),
	}
}

// Chat sends a chat completion request.
func (p *AnthropicProvider) Chat(ctx context.Context, messages []ChatMessage) (LLMResponse, error) {
	return p.ChatWithFormat(ctx, messages, nil)
}

// ChatWithFormat sends a chat completion request with optional response format.
// Anthropic has no native JSON mode; the schema is added to the system prompt.
func (p *AnthropicProvider) ChatWithFormat(ctx context.Context, messages []ChatMessage, format *ResponseFormat) (LLMResponse, error) {
	anthropicMessages, systemPrompt := convertToAnthropicMessages(withSchemaInstruction(messages, format))

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(p.model),
		MaxTokens:   p.maxTokens,
		Messages:    anthropicMessages,
		Temperature: anthropic.Float(p.temperature),
	}

	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: systemPrompt},
		}
	}

	message, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return LLMResponse{}, fmt.Errorf("chat completion failed: %w", err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(tb.Text)
		}
	}
	if text.Len() == 0 {
		return LLMResponse{}, fmt.Errorf("empty response from Anthropic (stop reason %q)", message.StopReason)
	}
	return LLMResponse{Content: text.String(), Usage: anthropicUsage(message.Usage)}, nil
}

func anthropicUsage(u anthropic.Usage) *TokenUsage {
	if u.InputTokens == 0 && u.OutputTokens == 0 {
		return nil
	}
	return &TokenUsage{
		PromptTokens:     uint32(u.InputTokens),
		CompletionTokens: uint32(u.OutputTokens),
		TotalTokens:      uint32(u.InputTokens + u.OutputTokens),
	}
}

// convertToAnthropicMessages splits out the system prompt, which the
// Messages API takes as a separate field.
func convertToAnthropicMessages(messages []ChatMessage) ([]anthropic.MessageParam, string) {
	out := make([]anthropic.MessageParam, 0, len(messages))
	var system []string
	for _, msg := range messages {
		switch msg.Role {
		case "system":
			system = append(system, msg.Content)
		case "user":
			out = append(out, anthropic.NewUserMessage(convertToAnthropicBlocks(msg.AllParts())...))
		case "assistant":
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	return out, strings.Join(system, "\n\n")
}

// convertToAnthropicBlocks maps parts to text, image and PDF document blocks.
func convertToAnthropicBlocks(parts []Part) []anthropic.ContentBlockParamUnion {
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(parts))
	for _, part := range parts {
		switch {
		case part.IsImage():
			blocks = append(blocks, anthropic.NewImageBlockBase64(part.MIMEType, part.Data))
		case part.IsBinary() && part.MIMEType == "application/pdf":
			blocks = append(blocks, anthropic.NewDocumentBlock(anthropic.Base64PDFSourceParam{Data: part.Data}))
		case part.IsBinary():
			blocks = append(blocks, anthropic.NewTextBlock(omittedPlaceholder(part)))
		default:
			blocks = append(blocks, anthropic.NewTextBlock(part.Text))
		}
	}
	if len(blocks) == 0 {
		blocks = append(blocks, anthropic.NewTextBlock(""))
	}
	return blocks
}

var _ Provider = (*AnthropicProvider)(nil)
