// Package config provides application settings loaded from environment variables.
//
// Settings are created via New() which handles:
// - Environment variable parsing with validation
// - Default value application
// - Provider-specific configuration lookup

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultProvider is used when no provider is requested explicitly.
const DefaultProvider = "gemini"

// Settings holds all application configuration.
type Settings struct {
	LLM       LLMConfig
	Agent     AgentConfig
	Discovery DiscoveryConfig
	Fetch     FetchConfig
	Cache     CacheConfig
	Log       LogConfig
	Store     StoreConfig
}

// LLMConfig holds LLM provider configuration.
type LLMConfig struct {
	Provider    string
	Model       string
	MaxTokens   uint32
	Temperature float64
}

// AgentConfig holds orchestrator configuration.
type AgentConfig struct {
	HistoryWindow    int
	MaxParallelTools int
	SelectionTimeout time.Duration
	SynthesisTimeout time.Duration
	ToolTimeout      time.Duration
	Language         string
	ShowProgress     bool // print specialist progress lines in the CLI
}

// DiscoveryConfig holds funding search configuration.
type DiscoveryConfig struct {
	MaxResults                int
	NationalSubsidiesURL      string
	NationalTendersURL        string
	InternationalSubsidiesURL string
	InternationalTendersURL   string
}

// FetchConfig holds external fetch retry configuration.
type FetchConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Timeout    time.Duration
}

// CacheConfig bounds the request memoization cache.
type CacheConfig struct {
	MaxEntries int
	TTL        time.Duration
}

// LogConfig controls log output.
type LogConfig struct {
	File  string
	Level string
}

// StoreConfig controls conversation persistence.
type StoreConfig struct {
	Path string // empty means in-memory
}

// providerInfo holds configuration for a specific LLM provider.
type providerInfo struct {
	modelEnv     string
	defaultModel string
	apiKeyEnv    string
}

// Supported providers and their configuration.
var providers = map[string]providerInfo{
	"openai":    {"OPENAI_MODEL", "gpt-4o", "OPENAI_API_KEY"},
	"anthropic": {"ANTHROPIC_MODEL", "claude-sonnet-4-20250514", "ANTHROPIC_API_KEY"},
	"deepseek":  {"DEEPSEEK_MODEL", "deepseek-chat", "DEEPSEEK_API_KEY"},
	"gemini":    {"GEMINI_MODEL", "gemini-2.5-flash", "GEMINI_API_KEY"},
}

// Provider aliases map to canonical names.
var providerAliases = map[string]string{
	"claude": "anthropic",
	"google": "gemini",
	"gpt":    "openai",
}

// New creates settings for the specified provider, loading values from environment variables.
// An empty provider falls back to LLM_PROVIDER, then DefaultProvider.
// Returns an error if the provider is unknown or environment variables contain invalid values.
func New(provider string) (Settings, error) {
	if provider == "" {
		provider = os.Getenv("LLM_PROVIDER")
	}
	if provider == "" {
		provider = DefaultProvider
	}
	provider = normalizeProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return Settings{}, err
	}

	env := &envLoader{}
	settings := Settings{
		LLM: LLMConfig{
			Provider:    provider,
			Model:       env.str(info.modelEnv, info.defaultModel),
			MaxTokens:   env.uint32("LLM_MAX_TOKENS", 8192),
			Temperature: env.float64("LLM_TEMPERATURE", 0.4),
		},
		Agent: AgentConfig{
			HistoryWindow:    env.int("AGENT_HISTORY_WINDOW", 10),
			MaxParallelTools: env.int("AGENT_MAX_PARALLEL_TOOLS", 4),
			SelectionTimeout: env.duration("AGENT_SELECTION_TIMEOUT", 90*time.Second),
			SynthesisTimeout: env.duration("AGENT_SYNTHESIS_TIMEOUT", 120*time.Second),
			ToolTimeout:      env.duration("AGENT_TOOL_TIMEOUT", 180*time.Second),
			Language:         env.str("AGENT_LANGUAGE", "en"),
			ShowProgress:     env.bool("AGENT_SHOW_PROGRESS", true),
		},
		Discovery: DiscoveryConfig{
			MaxResults:                env.int("DISCOVERY_MAX_RESULTS", 15),
			NationalSubsidiesURL:      env.str("DISCOVERY_NATIONAL_SUBSIDIES_URL", "https://www.infosubvenciones.es/bdnstrans/api"),
			NationalTendersURL:        env.str("DISCOVERY_NATIONAL_TENDERS_URL", "https://contrataciondelestado.es/api/licitaciones"),
			InternationalSubsidiesURL: env.str("DISCOVERY_INTERNATIONAL_SUBSIDIES_URL", "https://api.tech.ec.europa.eu/search-api/prod/rest/search"),
			InternationalTendersURL:   env.str("DISCOVERY_INTERNATIONAL_TENDERS_URL", "https://api.ted.europa.eu/v3/notices/search"),
		},
		Fetch: FetchConfig{
			MaxRetries: env.int("FETCH_MAX_RETRIES", 3),
			BaseDelay:  env.duration("FETCH_BASE_DELAY", 500*time.Millisecond),
			MaxDelay:   env.duration("FETCH_MAX_DELAY", 5*time.Second),
			Timeout:    env.duration("FETCH_TIMEOUT", 20*time.Second),
		},
		Cache: CacheConfig{
			MaxEntries: env.int("CACHE_MAX_ENTRIES", 256),
			TTL:        env.duration("CACHE_TTL", time.Hour),
		},
		Log: LogConfig{
			File:  env.str("LOG_FILE", ""),
			Level: env.str("LOG_LEVEL", "info"),
		},
		Store: StoreConfig{
			Path: env.str("DRWIN_DB", ""),
		},
	}
	if env.err != nil {
		return Settings{}, env.err
	}
	return settings, nil
}

// MustNew creates settings for the specified provider.
// Panics if the provider is unknown or environment variables are invalid.
// Use this only when configuration errors should be fatal.
func MustNew(provider string) Settings {
	settings, err := New(provider)
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return settings
}

// normalizeProvider converts provider aliases to canonical names.
func normalizeProvider(provider string) string {
	provider = strings.ToLower(provider)
	if canonical, ok := providerAliases[provider]; ok {
		return canonical
	}
	return provider
}

// getProviderInfo returns configuration for a provider.
func getProviderInfo(provider string) (providerInfo, error) {
	info, ok := providers[provider]
	if !ok {
		return providerInfo{}, fmt.Errorf("unknown provider: %q", provider)
	}
	return info, nil
}

// APIKeyFor returns the API key for a provider from environment variables.
func APIKeyFor(provider string) (string, error) {
	provider = normalizeProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return "", err
	}

	key := os.Getenv(info.apiKeyEnv)
	if key == "" {
		return "", fmt.Errorf("%s environment variable not set", info.apiKeyEnv)
	}
	return key, nil
}

// ModelFor returns the model for a provider, checking environment first.
func ModelFor(provider string) (string, error) {
	provider = normalizeProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return "", err
	}

	if val := os.Getenv(info.modelEnv); val != "" {
		return val, nil
	}
	return info.defaultModel, nil
}

// SupportedProviders returns the list of supported provider names.
func SupportedProviders() []string {
	result := make([]string, 0, len(providers))
	for name := range providers {
		result = append(result, name)
	}
	return result
}

// envLoader keeps the first parse error so New can read every value in one pass.
type envLoader struct {
	err error
}

func (l *envLoader) keep(err error) {
	if l.err == nil && err != nil {
		l.err = err
	}
}

func (l *envLoader) str(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func (l *envLoader) int(key string, defaultVal int) int {
	v, err := getEnvInt(key, defaultVal)
	l.keep(err)
	return v
}

func (l *envLoader) uint32(key string, defaultVal uint32) uint32 {
	v, err := getEnvUint32(key, defaultVal)
	l.keep(err)
	return v
}

func (l *envLoader) float64(key string, defaultVal float64) float64 {
	v, err := getEnvFloat64(key, defaultVal)
	l.keep(err)
	return v
}

func (l *envLoader) duration(key string, defaultVal time.Duration) time.Duration {
	v, err := getEnvDuration(key, defaultVal)
	l.keep(err)
	return v
}

func (l *envLoader) bool(key string, defaultVal bool) bool {
	v, err := getEnvBool(key, defaultVal)
	l.keep(err)
	return v
}

// Environment variable helpers with proper error handling

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return i, nil
}

func getEnvUint32(key string, defaultVal uint32) (uint32, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.ParseUint(val, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return uint32(i), nil
}

func getEnvFloat64(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return f, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return d, nil
}

func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return b, nil
}
