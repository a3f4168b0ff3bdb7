// Package llm is the model gateway: one Provider per hosted model API and a
// Client that sends a system instruction plus multi-part content.
//
// Information Hiding:
// - API client initialization and authentication
// - Inline binary parts mapped to each API's content blocks
// - Structured output and search grounding support, or their prompt fallback
// - Provider-specific error handling

package llm

import (
	"context"
	"strings"
)

// Provider is one hosted completion API.
type Provider interface {
	// Name returns the canonical provider name.
	Name() string

	// Model returns the configured model.
	Model() string

	// Chat sends messages and returns the generated text.
	Chat(ctx context.Context, messages []ChatMessage) (LLMResponse, error)

	// ChatWithFormat is Chat with an output format. Providers that cannot
	// honor a format instruct the model in the system prompt; callers must
	// still be prepared to parse free text.
	ChatWithFormat(ctx context.Context, messages []ChatMessage, format *ResponseFormat) (LLMResponse, error)
}

// providerInfo carries the identity every provider reports.
type providerInfo struct {
	name  string
	model string
}

func (i providerInfo) Name() string  { return i.name }
func (i providerInfo) Model() string { return i.model }

// withSchemaInstruction appends the format's schema instruction to the first
// system message, adding one if none exists.
func withSchemaInstruction(messages []ChatMessage, format *ResponseFormat) []ChatMessage {
	suffix := format.schemaInstruction()
	if suffix == "" {
		return messages
	}
	out := make([]ChatMessage, len(messages))
	copy(out, messages)
	for i := range out {
		if out[i].Role == "system" {
			out[i].Content += suffix
			return out
		}
	}
	return append([]ChatMessage{SystemMessage(strings.TrimLeft(suffix, "\n"))}, out...)
}
