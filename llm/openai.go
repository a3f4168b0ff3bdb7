// OpenAI Provider implementation using go-openai library.
//
// Information Hiding:
// - API endpoint and authentication
// - Request/response format for OpenAI Chat Completions API
// - Multi-part image content and json_schema response format

package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements the Provider interface for OpenAI.
type OpenAIProvider struct {
	providerInfo
	client      *openai.Client
	maxTokens   int
	temperature float32
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(apiKey, model string, maxTokens uint32, temperature float32) *OpenAIProvider {
	return &OpenAIProvider{
		providerInfo: providerInfo{name: "openai", model: model},
		client:       openai.NewClient(apiKey),
		maxTokens:    int(maxTokens),
		temperature:  temperature,
	}
}

// Chat sends a chat completion request.
func (p *OpenAIProvider) Chat(ctx context.Context, messages []ChatMessage) (LLMResponse, error) {
	return p.ChatWithFormat(ctx, messages, nil)
}

// ChatWithFormat sends a chat completion request with optional response format.
func (p *OpenAIProvider) ChatWithFormat(ctx context.Context, messages []ChatMessage, format *ResponseFormat) (LLMResponse, error) {
	req := openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    convertToOpenAIMessages(messages, true),
		MaxTokens:   p.maxTokens,
		Temperature: p.temperature,
	}

	if format.wantsJSON() {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
		if format.Type == ResponseFormatJSONSchema && format.JSONSchema != nil {
			req.ResponseFormat = &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
				JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
					Name:        format.JSONSchema.Name,
					Description: format.JSONSchema.Description,
					Schema:      format.JSONSchema.Schema,
					Strict:      format.JSONSchema.Strict,
				},
			}
		}
	}

	return completeOpenAI(ctx, p.client, req)
}

// completeOpenAI runs a request against any OpenAI-compatible endpoint.
func completeOpenAI(ctx context.Context, client *openai.Client, req openai.ChatCompletionRequest) (LLMResponse, error) {
	resp, err := client.CreateChatCompletion(ctx, req)
	if err != nil {
		return LLMResponse{}, fmt.Errorf("chat completion failed: %w", err)
	}

	content := ""
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}
	if content == "" {
		return LLMResponse{}, fmt.Errorf("empty response from %s", req.Model)
	}

	usage := &TokenUsage{
		PromptTokens:     uint32(resp.Usage.PromptTokens),
		CompletionTokens: uint32(resp.Usage.CompletionTokens),
		TotalTokens:      uint32(resp.Usage.TotalTokens),
	}

	return LLMResponse{Content: content, Usage: usage}, nil
}

// convertToOpenAIMessages converts our ChatMessage to openai.ChatCompletionMessage.
// With images enabled, image parts become image_url parts carrying a data URI.
// Other binary parts are replaced by a short placeholder.
func convertToOpenAIMessages(messages []ChatMessage, images bool) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		if len(msg.Parts) == 0 {
			result = append(result, openai.ChatCompletionMessage{
				Role:    msg.Role,
				Content: msg.Content,
			})
			continue
		}

		if !images {
			result = append(result, openai.ChatCompletionMessage{
				Role:    msg.Role,
				Content: flattenParts(msg.AllParts()),
			})
			continue
		}

		var multi []openai.ChatMessagePart
		for _, part := range msg.AllParts() {
			switch {
			case part.IsImage():
				multi = append(multi, openai.ChatMessagePart{
					Type: openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{
						URL:    "data:" + part.MIMEType + ";base64," + part.Data,
						Detail: openai.ImageURLDetailAuto,
					},
				})
			case part.IsBinary():
				multi = append(multi, openai.ChatMessagePart{
					Type: openai.ChatMessagePartTypeText,
					Text: omittedPlaceholder(part),
				})
			default:
				multi = append(multi, openai.ChatMessagePart{
					Type: openai.ChatMessagePartTypeText,
					Text: part.Text,
				})
			}
		}
		result = append(result, openai.ChatCompletionMessage{
			Role:         msg.Role,
			MultiContent: multi,
		})
	}
	return result
}

// flattenParts joins text parts and replaces binary parts with placeholders.
func flattenParts(parts []Part) string {
	var b strings.Builder
	for i, part := range parts {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if part.IsBinary() {
			b.WriteString(omittedPlaceholder(part))
			continue
		}
		b.WriteString(part.Text)
	}
	return b.String()
}

func omittedPlaceholder(part Part) string {
	return fmt.Sprintf("[attached %s document omitted: this model cannot read inline files]", part.MIMEType)
}

// Verify OpenAIProvider implements Provider
var _ Provider = (*OpenAIProvider)(nil)
