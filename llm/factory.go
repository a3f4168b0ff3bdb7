// Provider factory.
//
// Each supported provider is one row in providerSpecs: canonical name,
// accepted aliases, API key variable, default model and constructor.
//
//	provider, err := llm.NewProviderByName("google", "", 8192, 0.4)
//
//	claude, err := llm.NewProviderBuilder(llm.ProviderAnthropic).
//	    Model(llm.ModelClaudeSonnet4).
//	    Temperature(0.2).
//	    FromEnv()
//
// Information Hiding:
// - Alias resolution hidden
// - Default model, token and temperature selection hidden

package llm

import (
	"fmt"
	"os"
	"strings"
)

// Default models. Gemini is the reference provider: it accepts inline PDFs
// and supports search grounding together with JSON output.
const (
	ModelGeminiFlash   = "gemini-2.5-flash"
	ModelGeminiPro     = "gemini-2.5-pro"
	ModelGPT4o         = "gpt-4o"
	ModelClaudeSonnet4 = "claude-sonnet-4-20250514"
	ModelDeepSeekChat  = "deepseek-chat"
)

const (
	defaultMaxTokens   uint32  = 8192
	defaultTemperature float32 = 0.4
)

// ProviderType identifies a supported provider.
type ProviderType int

const (
	ProviderGemini ProviderType = iota
	ProviderOpenAI
	ProviderAnthropic
	ProviderDeepSeek
)

type providerSpec struct {
	name         string
	aliases      []string
	apiKeyEnv    string
	defaultModel string
	build        func(apiKey, model string, maxTokens uint32, temperature float32) Provider
}

var providerSpecs = map[ProviderType]providerSpec{
	ProviderGemini: {
		name: "gemini", aliases: []string{"google"}, apiKeyEnv: "GEMINI_API_KEY", defaultModel: ModelGeminiFlash,
		build: func(k, m string, t uint32, temp float32) Provider { return NewGeminiProvider(k, m, t, temp) },
	},
	ProviderOpenAI: {
		name: "openai", aliases: []string{"gpt"}, apiKeyEnv: "OPENAI_API_KEY", defaultModel: ModelGPT4o,
		build: func(k, m string, t uint32, temp float32) Provider { return NewOpenAIProvider(k, m, t, temp) },
	},
	ProviderAnthropic: {
		name: "anthropic", aliases: []string{"claude"}, apiKeyEnv: "ANTHROPIC_API_KEY", defaultModel: ModelClaudeSonnet4,
		build: func(k, m string, t uint32, temp float32) Provider { return NewAnthropicProvider(k, m, t, temp) },
	},
	ProviderDeepSeek: {
		name: "deepseek", apiKeyEnv: "DEEPSEEK_API_KEY", defaultModel: ModelDeepSeekChat,
		build: func(k, m string, t uint32, temp float32) Provider { return NewDeepSeekProvider(k, m, t, temp) },
	},
}

// String returns the canonical provider name.
func (p ProviderType) String() string {
	if spec, ok := providerSpecs[p]; ok {
		return spec.name
	}
	return "unknown"
}

// EnvVar returns the environment variable holding the provider's API key.
func (p ProviderType) EnvVar() string {
	return providerSpecs[p].apiKeyEnv
}

// DefaultModel returns the model used when none is configured.
func (p ProviderType) DefaultModel() string {
	return providerSpecs[p].defaultModel
}

// ParseProviderType resolves a canonical name or alias, case-insensitively.
func ParseProviderType(s string) (ProviderType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for p, spec := range providerSpecs {
		if s == spec.name {
			return p, nil
		}
		for _, alias := range spec.aliases {
			if s == alias {
				return p, nil
			}
		}
	}
	return 0, fmt.Errorf("unknown provider: %s", s)
}

// ProviderBuilder configures a provider before construction.
type ProviderBuilder struct {
	providerType ProviderType
	model        string
	maxTokens    uint32
	temperature  *float32
}

// NewProviderBuilder creates a builder for the given provider.
func NewProviderBuilder(providerType ProviderType) *ProviderBuilder {
	return &ProviderBuilder{providerType: providerType}
}

// Model sets the model. Empty keeps the provider default.
func (b *ProviderBuilder) Model(model string) *ProviderBuilder {
	b.model = model
	return b
}

// MaxTokens bounds the response length. Zero keeps the default.
func (b *ProviderBuilder) MaxTokens(tokens uint32) *ProviderBuilder {
	b.maxTokens = tokens
	return b
}

// Temperature sets the sampling temperature.
func (b *ProviderBuilder) Temperature(temp float32) *ProviderBuilder {
	b.temperature = &temp
	return b
}

// FromEnv builds the provider with the API key from its environment variable.
func (b *ProviderBuilder) FromEnv() (Provider, error) {
	envVar := b.providerType.EnvVar()
	apiKey := os.Getenv(envVar)
	if apiKey == "" {
		return nil, fmt.Errorf("%s: %s environment variable not set", b.providerType, envVar)
	}
	return b.APIKey(apiKey)
}

// APIKey builds the provider with an explicit API key.
func (b *ProviderBuilder) APIKey(key string) (Provider, error) {
	spec, ok := providerSpecs[b.providerType]
	if !ok {
		return nil, fmt.Errorf("unknown provider type: %v", b.providerType)
	}
	model := b.model
	if model == "" {
		model = spec.defaultModel
	}
	maxTokens := b.maxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}
	temperature := defaultTemperature
	if b.temperature != nil {
		temperature = *b.temperature
	}
	return spec.build(key, model, maxTokens, temperature), nil
}

// NewProviderByName builds a provider from configuration values, reading the
// API key from the environment. An empty model selects the provider default.
func NewProviderByName(name, model string, maxTokens uint32, temperature float32) (Provider, error) {
	providerType, err := ParseProviderType(name)
	if err != nil {
		return nil, err
	}
	return NewProviderBuilder(providerType).
		Model(model).
		MaxTokens(maxTokens).
		Temperature(temperature).
		FromEnv()
}
