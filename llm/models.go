// Package llm provides shared data models for LLM providers.
package llm

import (
	"encoding/json"
	"strings"
)

// Part is one piece of message content: either text or an inline binary
// payload with a MIME type.
type Part struct {
	Text     string `json:"text,omitempty"`
	MIMEType string `json:"mime_type,omitempty"`
	Data     string `json:"data,omitempty"` // base64
}

// TextPart creates a text part.
func TextPart(text string) Part {
	return Part{Text: text}
}

// BlobPart creates an inline binary part from base64 data.
func BlobPart(mimeType, base64Data string) Part {
	return Part{MIMEType: mimeType, Data: base64Data}
}

// IsBinary reports whether the part carries inline binary data.
func (p Part) IsBinary() bool {
	return p.Data != ""
}

// IsImage reports whether the part is an inline image.
func (p Part) IsImage() bool {
	return p.IsBinary() && strings.HasPrefix(p.MIMEType, "image/")
}

// ChatMessage represents a chat message with role and content.
// Content is sent first, followed by Parts in order.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Parts   []Part `json:"parts,omitempty"`
}

// AllParts returns Content as a leading text part followed by Parts.
func (m ChatMessage) AllParts() []Part {
	parts := make([]Part, 0, len(m.Parts)+1)
	if m.Content != "" {
		parts = append(parts, TextPart(m.Content))
	}
	return append(parts, m.Parts...)
}

// SystemMessage creates a system message.
func SystemMessage(content string) ChatMessage {
	return ChatMessage{
		Role:    "system",
		Content: content,
	}
}

// UserMessage creates a user message.
func UserMessage(content string, parts ...Part) ChatMessage {
	return ChatMessage{
		Role:    "user",
		Content: content,
		Parts:   parts,
	}
}

// AssistantMessage creates an assistant message.
func AssistantMessage(content string) ChatMessage {
	return ChatMessage{
		Role:    "assistant",
		Content: content,
	}
}

// LLMResponse represents a response from an LLM provider.
type LLMResponse struct {
	Content string
	Usage   *TokenUsage
}

// TokenUsage contains token usage statistics.
type TokenUsage struct {
	PromptTokens     uint32
	CompletionTokens uint32
	TotalTokens      uint32
}

// ResponseFormatType defines the type of response format.
type ResponseFormatType string

const (
	ResponseFormatText       ResponseFormatType = "text"
	ResponseFormatJSONObject ResponseFormatType = "json_object"
	ResponseFormatJSONSchema ResponseFormatType = "json_schema"
)

// ResponseFormat specifies how the LLM should format its response.
type ResponseFormat struct {
	Type       ResponseFormatType `json:"type"`
	JSONSchema *JSONSchemaFormat  `json:"json_schema,omitempty"`
	// Grounded enables provider-side web search grounding where available.
	// Grounding is incompatible with schema enforcement, so grounded
	// requests are always sent as text.
	Grounded bool `json:"grounded,omitempty"`
}

// JSONSchemaFormat defines a JSON schema for structured outputs.
type JSONSchemaFormat struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Schema      json.RawMessage `json:"schema"`
	Strict      bool            `json:"strict"`
}

// NewTextFormat creates a text response format.
func NewTextFormat() *ResponseFormat {
	return &ResponseFormat{Type: ResponseFormatText}
}

// NewJSONObjectFormat creates a JSON object response format.
func NewJSONObjectFormat() *ResponseFormat {
	return &ResponseFormat{Type: ResponseFormatJSONObject}
}

// NewJSONSchemaFormat creates a JSON schema response format.
// Schemas are not strict: tool schemas leave optional fields out of "required".
func NewJSONSchemaFormat(name string, schema json.RawMessage) *ResponseFormat {
	return &ResponseFormat{
		Type: ResponseFormatJSONSchema,
		JSONSchema: &JSONSchemaFormat{
			Name:   name,
			Schema: schema,
		},
	}
}

// NewGroundedFormat creates a text format with search grounding enabled.
func NewGroundedFormat() *ResponseFormat {
	return &ResponseFormat{Type: ResponseFormatText, Grounded: true}
}

// wantsJSON reports whether the format asks for JSON output.
func (f *ResponseFormat) wantsJSON() bool {
	return f != nil && !f.Grounded && (f.Type == ResponseFormatJSONObject || f.Type == ResponseFormatJSONSchema)
}

// schemaInstruction renders a prompt suffix for providers without native
// schema support.
func (f *ResponseFormat) schemaInstruction() string {
	if !f.wantsJSON() {
		return ""
	}
	if f.JSONSchema == nil || len(f.JSONSchema.Schema) == 0 {
		return "\n\nRespond with a single JSON object and nothing else."
	}
	return "\n\nRespond with a single JSON object and nothing else. It must match this JSON schema:\n" + string(f.JSONSchema.Schema)
}
