// Package provider implements LLM provider adapters and their factory.
package provider

import (
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/promptrace/promptrace/pkg/llm"
)

// Type identifies supported LLM providers.
type Type string

const (
	TypeAnthropic  Type = "anthropic"
	TypeOpenAI     Type = "openai"
	TypeGoogle     Type = "google"
	TypePerplexity Type = "perplexity"
	TypeSearchGPT  Type = "searchgpt"
)

// Config holds provider construction settings.
type Config struct {
	APIKey     string
	SerperKey  string
	BaseURL    string
	HTTPClient HTTPClient
}

// ConfigOption modifies provider configuration.
type ConfigOption func(*Config)

// WithAPIKey sets the API key.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) { c.APIKey = key }
}

// WithSerperKey sets the Serper search API key (searchgpt only).
func WithSerperKey(key string) ConfigOption {
	return func(c *Config) { c.SerperKey = key }
}

// WithBaseURL sets the base URL.
func WithBaseURL(url string) ConfigOption {
	return func(c *Config) { c.BaseURL = url }
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(client HTTPClient) ConfigOption {
	return func(c *Config) { c.HTTPClient = client }
}

// Factory creates LLM providers.
type Factory struct {
	mu       sync.RWMutex
	builders map[Type]Builder
}

// Builder constructs a provider from config.
type Builder func(cfg Config) llm.Provider

// NewFactory creates a factory with default builders.
func NewFactory() *Factory {
	f := &Factory{
		builders: make(map[Type]Builder),
	}
	f.RegisterDefaults()
	return f
}

// RegisterDefaults registers the built-in provider builders.
func (f *Factory) RegisterDefaults() {
	f.Register(TypeAnthropic, func(cfg Config) llm.Provider {
		return NewAnthropicWithClient(cfg.APIKey, cfg.BaseURL, cfg.HTTPClient)
	})
	f.Register(TypeOpenAI, func(cfg Config) llm.Provider {
		return NewOpenAIWithClient(cfg.APIKey, cfg.BaseURL, cfg.HTTPClient)
	})
	f.Register(TypeGoogle, func(cfg Config) llm.Provider {
		return NewGoogleWithClient(cfg.APIKey, cfg.HTTPClient)
	})
	f.Register(TypePerplexity, func(cfg Config) llm.Provider {
		return NewPerplexityWithClient(cfg.APIKey, cfg.BaseURL, cfg.HTTPClient)
	})
	f.Register(TypeSearchGPT, func(cfg Config) llm.Provider {
		return NewSearchGPTWithClient(cfg.APIKey, cfg.SerperKey, "", "", cfg.HTTPClient)
	})
}

// Register adds a provider builder. Allows extension with custom providers.
func (f *Factory) Register(pt Type, builder Builder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.builders[pt] = builder
}

// Create returns a provider instance.
func (f *Factory) Create(pt Type, opts ...ConfigOption) (llm.Provider, error) {
	cfg := Config{
		HTTPClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	// Apply environment defaults
	if cfg.APIKey == "" {
		cfg.APIKey = EnvKey(pt)
	}
	if cfg.SerperKey == "" {
		cfg.SerperKey = os.Getenv("SERPER_API_KEY")
	}

	f.mu.RLock()
	builder, ok := f.builders[pt]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown provider type: %s", pt)
	}

	return builder(cfg), nil
}

// CreateByID creates a provider from string ID.
func (f *Factory) CreateByID(id string, opts ...ConfigOption) (llm.Provider, error) {
	switch id {
	case "anthropic", "claude":
		return f.Create(TypeAnthropic, opts...)
	case "openai", "gpt":
		return f.Create(TypeOpenAI, opts...)
	case "google", "gemini":
		return f.Create(TypeGoogle, opts...)
	case "perplexity", "sonar":
		return f.Create(TypePerplexity, opts...)
	case "searchgpt":
		return f.Create(TypeSearchGPT, opts...)
	default:
		return nil, fmt.Errorf("unknown provider: %s", id)
	}
}

// EnvKey returns the configured API key for a provider from the environment.
func EnvKey(pt Type) string {
	switch pt {
	case TypeAnthropic:
		return os.Getenv("ANTHROPIC_API_KEY")
	case TypeOpenAI, TypeSearchGPT:
		return os.Getenv("OPENAI_API_KEY")
	case TypeGoogle:
		if k := os.Getenv("GOOGLE_API_KEY"); k != "" {
			return k
		}
		return os.Getenv("GEMINI_API_KEY")
	case TypePerplexity:
		return os.Getenv("PERPLEXITY_API_KEY")
	}
	return ""
}

// KeyInstructions maps each provider to help text shown when its key is missing.
var KeyInstructions = map[Type]string{
	TypeAnthropic:  "Set ANTHROPIC_API_KEY (https://console.anthropic.com)",
	TypeOpenAI:     "Set OPENAI_API_KEY (https://platform.openai.com)",
	TypeGoogle:     "Set GOOGLE_API_KEY or GEMINI_API_KEY (https://aistudio.google.com)",
	TypePerplexity: "Set PERPLEXITY_API_KEY (https://www.perplexity.ai/settings/api)",
	TypeSearchGPT:  "Set OPENAI_API_KEY and SERPER_API_KEY (https://serper.dev)",
}

// MissingKeys returns help text for every selected provider without credentials.
// Keys passed in take precedence over the environment.
func MissingKeys(selected []string, keys map[string]string) []string {
	var missing []string
	for _, id := range selected {
		pt := Type(id)
		if keys[id] != "" {
			continue
		}
		if EnvKey(pt) == "" {
			missing = append(missing, KeyInstructions[pt])
			continue
		}
		if pt == TypeSearchGPT && os.Getenv("SERPER_API_KEY") == "" {
			missing = append(missing, KeyInstructions[pt])
		}
	}
	return missing
}
