// Google Gemini Provider implementation using official google.golang.org/genai SDK.
//
// Information Hiding:
// - API authentication and client creation
// - Request/response format for Gemini API
// - System instruction handling via config
// - Inline binary parts, response schemas and Google Search grounding

package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"
)

// GeminiProvider implements the Provider interface for Google Gemini.
type GeminiProvider struct {
	providerInfo
	client      *genai.Client
	maxTokens   int32
	temperature float32
	initErr     error // reported on first use
}

// NewGeminiProvider creates a new Gemini provider.
// If client initialization fails, the error is stored and returned on first use.
func NewGeminiProvider(apiKey, model string, maxTokens uint32, temperature float32) *GeminiProvider {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return &GeminiProvider{
			providerInfo: providerInfo{name: "gemini", model: model},
			maxTokens:    int32(maxTokens),
			temperature:  temperature,
			initErr:      fmt.Errorf("failed to initialize Gemini client: %w", err),
		}
	}

	return &GeminiProvider{
		providerInfo: providerInfo{name: "gemini", model: model},
		client:       client,
		maxTokens:    int32(maxTokens),
		temperature:  temperature,
	}
}

// Chat sends a chat completion request.
func (p *GeminiProvider) Chat(ctx context.Context, messages []ChatMessage) (LLMResponse, error) {
	return p.ChatWithFormat(ctx, messages, nil)
}

// ChatWithFormat sends a chat completion request with optional response format.
func (p *GeminiProvider) ChatWithFormat(ctx context.Context, messages []ChatMessage, format *ResponseFormat) (LLMResponse, error) {
	if p.initErr != nil {
		return LLMResponse{}, p.initErr
	}
	if p.client == nil {
		return LLMResponse{}, fmt.Errorf("gemini client not initialized")
	}

	contents, systemInstruction, err := convertToGeminiMessages(messages)
	if err != nil {
		return LLMResponse{}, err
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(p.temperature),
		MaxOutputTokens: p.maxTokens,
	}
	if systemInstruction != "" {
		config.SystemInstruction = genai.NewContentFromText(systemInstruction, genai.RoleUser)
	}
	if err := applyGeminiFormat(config, format); err != nil {
		return LLMResponse{}, err
	}

	response, err := p.client.Models.GenerateContent(ctx, p.model, contents, config)
	if err != nil {
		return LLMResponse{}, fmt.Errorf("chat completion failed: %w", err)
	}

	content := response.Text()
	if content == "" {
		return LLMResponse{}, fmt.Errorf("empty response from Gemini")
	}

	var usage *TokenUsage
	if response.UsageMetadata != nil {
		usage = &TokenUsage{
			PromptTokens:     uint32(response.UsageMetadata.PromptTokenCount),
			CompletionTokens: uint32(response.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      uint32(response.UsageMetadata.TotalTokenCount),
		}
	}

	return LLMResponse{Content: content, Usage: usage}, nil
}

// applyGeminiFormat maps a ResponseFormat onto the generation config.
// Grounding and response schemas are mutually exclusive in the Gemini API.
func applyGeminiFormat(config *genai.GenerateContentConfig, format *ResponseFormat) error {
	if format == nil {
		return nil
	}
	if format.Grounded {
		config.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
		return nil
	}
	switch format.Type {
	case ResponseFormatJSONObject:
		config.ResponseMIMEType = "application/json"
	case ResponseFormatJSONSchema:
		config.ResponseMIMEType = "application/json"
		if format.JSONSchema != nil && len(format.JSONSchema.Schema) > 0 {
			var schema map[string]interface{}
			if err := json.Unmarshal(format.JSONSchema.Schema, &schema); err != nil {
				return fmt.Errorf("invalid response schema %q: %w", format.JSONSchema.Name, err)
			}
			config.ResponseSchema = convertToGeminiSchema(schema)
		}
	}
	return nil
}

// convertToGeminiMessages converts our ChatMessage to Gemini format.
// Extracts system message and returns it separately.
func convertToGeminiMessages(messages []ChatMessage) ([]*genai.Content, string, error) {
	var contents []*genai.Content
	var systemInstruction string

	for _, msg := range messages {
		switch msg.Role {
		case "system":
			systemInstruction = msg.Content
		case "user":
			parts, err := convertToGeminiParts(msg.AllParts())
			if err != nil {
				return nil, "", err
			}
			contents = append(contents, genai.NewContentFromParts(parts, genai.RoleUser))
		case "assistant":
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		}
	}

	return contents, systemInstruction, nil
}

// convertToGeminiParts turns text and base64 blobs into genai parts.
func convertToGeminiParts(parts []Part) ([]*genai.Part, error) {
	result := make([]*genai.Part, 0, len(parts))
	for _, part := range parts {
		if !part.IsBinary() {
			result = append(result, genai.NewPartFromText(part.Text))
			continue
		}
		data, err := base64.StdEncoding.DecodeString(part.Data)
		if err != nil {
			return nil, fmt.Errorf("invalid base64 payload for %s part: %w", part.MIMEType, err)
		}
		result = append(result, genai.NewPartFromBytes(data, part.MIMEType))
	}
	return result, nil
}

// convertToGeminiSchema recursively converts a JSON schema to Gemini format.
// Handles arrays by adding required 'items' field.
func convertToGeminiSchema(params map[string]interface{}) *genai.Schema {
	schema := convertPropertyToGeminiSchema(params)
	if _, ok := params["type"].(string); !ok {
		schema.Type = genai.TypeObject
	}
	return schema
}

// convertPropertyToGeminiSchema converts a single property to Gemini schema.
func convertPropertyToGeminiSchema(prop map[string]interface{}) *genai.Schema {
	schema := &genai.Schema{}

	if t, ok := prop["type"].(string); ok {
		schema.Type = mapToGeminiType(t)
	}
	if d, ok := prop["description"].(string); ok {
		schema.Description = d
	}
	if enum, ok := prop["enum"].([]interface{}); ok {
		for _, e := range enum {
			if s, ok := e.(string); ok {
				schema.Enum = append(schema.Enum, s)
			}
		}
	}
	if min, ok := prop["minimum"].(float64); ok {
		schema.Minimum = genai.Ptr(min)
	}
	if max, ok := prop["maximum"].(float64); ok {
		schema.Maximum = genai.Ptr(max)
	}

	// Gemini requires 'items' for arrays
	if schema.Type == genai.TypeArray {
		if items, ok := prop["items"].(map[string]interface{}); ok {
			schema.Items = convertPropertyToGeminiSchema(items)
		} else {
			schema.Items = &genai.Schema{Type: genai.TypeString}
		}
		if n, ok := prop["minItems"].(float64); ok {
			schema.MinItems = genai.Ptr(int64(n))
		}
	}

	if schema.Type == genai.TypeObject {
		if props, ok := prop["properties"].(map[string]interface{}); ok {
			schema.Properties = make(map[string]*genai.Schema)
			for name, p := range props {
				if pMap, ok := p.(map[string]interface{}); ok {
					schema.Properties[name] = convertPropertyToGeminiSchema(pMap)
				}
			}
		}
		if req, ok := prop["required"].([]interface{}); ok {
			for _, r := range req {
				if s, ok := r.(string); ok {
					schema.Required = append(schema.Required, s)
				}
			}
		}
	}

	return schema
}

// mapToGeminiType maps JSON schema type to Gemini type.
func mapToGeminiType(t string) genai.Type {
	switch t {
	case "string":
		return genai.TypeString
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}

// Verify GeminiProvider implements Provider
var _ Provider = (*GeminiProvider)(nil)
