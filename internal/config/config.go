// Package config builds the single configuration object the run is wired with.
// It is constructed once in main and passed explicitly; nothing reads it
// through globals.
package config

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/promptrace/promptrace/internal/pricing"
)

// DefaultTimeout bounds one provider round trip. Passed to the HTTP client,
// not computed by the core.
const DefaultTimeout = 120 * time.Second

// Config holds tiers, pricing, prompt presets, and credentials for one run.
type Config struct {
	Tiers         map[string]pricing.Tier `yaml:"tiers"`
	Pricing       pricing.Table           `yaml:"pricing"`
	SystemPrompts map[string]string       `yaml:"system_prompts"`

	// APIKeys overrides environment credentials per provider ID.
	APIKeys map[string]string `yaml:"api_keys"`

	// BaseURLs overrides provider endpoints, mainly for proxies and tests.
	BaseURLs map[string]string `yaml:"base_urls"`

	Timeout time.Duration `yaml:"timeout"`
}

// Default returns the built-in configuration: three quality tiers over the
// comparison providers, the realtime pair, and per-million-token prices.
func Default() *Config {
	return &Config{
		Tiers: map[string]pricing.Tier{
			"economy": {
				Description: "Economy tier - cheapest models for cost-effective processing",
				Models: map[string]string{
					"anthropic":  "claude-3-5-haiku-20241022",
					"openai":     "gpt-4o-mini",
					"google":     "gemini-1.5-flash",
					"perplexity": "llama-3.1-sonar-small-128k-online",
					"searchgpt":  "gpt-4o-mini",
				},
				Synthesis:         "claude-3-5-haiku-20241022",
				SynthesisProvider: "anthropic",
			},
			"mid": {
				Description: "Mid tier - balanced cost and quality with premium synthesis",
				Models: map[string]string{
					"anthropic":  "claude-3-5-haiku-20241022",
					"openai":     "gpt-4o-mini",
					"google":     "gemini-1.5-flash",
					"perplexity": "llama-3.1-sonar-large-128k-online",
					"searchgpt":  "gpt-4o-mini",
				},
				Synthesis:         "claude-3-5-sonnet-20241022",
				SynthesisProvider: "anthropic",
			},
			"luxury": {
				Description: "Luxury tier - premium models for maximum quality",
				Models: map[string]string{
					"anthropic":  "claude-3-5-sonnet-20241022",
					"openai":     "gpt-4",
					"google":     "gemini-1.5-pro",
					"perplexity": "llama-3.1-sonar-huge-128k-online",
					"searchgpt":  "gpt-4o",
				},
				Synthesis:         "claude-3-5-sonnet-20241022",
				SynthesisProvider: "anthropic",
			},
		},
		// USD per million tokens.
		Pricing: pricing.Table{
			"claude-3-5-haiku-20241022":         {Input: 0.8, Output: 4},
			"claude-3-5-sonnet-20241022":        {Input: 3, Output: 15},
			"gpt-4o-mini":                       {Input: 0.15, Output: 0.6},
			"gpt-4o":                            {Input: 2.5, Output: 10},
			"gpt-4":                             {Input: 30, Output: 60},
			"gemini-1.5-flash":                  {Input: 0.075, Output: 0.3},
			"gemini-1.5-pro":                    {Input: 1.25, Output: 5},
			"llama-3.1-sonar-small-128k-online": {Input: 0.2, Output: 0.2},
			"llama-3.1-sonar-large-128k-online": {Input: 1, Output: 1},
			"llama-3.1-sonar-huge-128k-online":  {Input: 5, Output: 5},
		},
		SystemPrompts: map[string]string{
			"default":    "You are a helpful assistant.",
			"analyst":    "You are a precise analyst. Answer with structured reasoning and cite assumptions.",
			"summarizer": "You summarize content faithfully and concisely, preserving key facts.",
		},
		APIKeys:  make(map[string]string),
		BaseURLs: make(map[string]string),
		Timeout:  DefaultTimeout,
	}
}

// Load returns the defaults overlaid with the YAML file at path.
// File entries replace same-named defaults; unrelated defaults survive.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		cfg.applyEnv()
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var overlay Config
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	for name, tier := range overlay.Tiers {
		cfg.Tiers[name] = tier
	}
	for model, price := range overlay.Pricing {
		cfg.Pricing[model] = price
	}
	for name, prompt := range overlay.SystemPrompts {
		cfg.SystemPrompts[name] = prompt
	}
	for id, key := range overlay.APIKeys {
		cfg.APIKeys[id] = key
	}
	for id, url := range overlay.BaseURLs {
		cfg.BaseURLs[id] = url
	}
	if overlay.Timeout > 0 {
		cfg.Timeout = overlay.Timeout
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv fills credentials from the environment where the file left gaps.
func (c *Config) applyEnv() {
	for id, env := range map[string]string{
		"anthropic":  "ANTHROPIC_API_KEY",
		"openai":     "OPENAI_API_KEY",
		"perplexity": "PERPLEXITY_API_KEY",
		"searchgpt":  "OPENAI_API_KEY",
	} {
		if c.APIKeys[id] == "" {
			c.APIKeys[id] = os.Getenv(env)
		}
	}
	if c.APIKeys["google"] == "" {
		if k := os.Getenv("GOOGLE_API_KEY"); k != "" {
			c.APIKeys["google"] = k
		} else {
			c.APIKeys["google"] = os.Getenv("GEMINI_API_KEY")
		}
	}
}

// TierNames returns tier names in a stable order: the built-in three first,
// then any custom tiers alphabetically.
func (c *Config) TierNames() []string {
	builtin := []string{"economy", "mid", "luxury"}
	seen := make(map[string]bool, len(builtin))
	var names []string
	for _, n := range builtin {
		if _, ok := c.Tiers[n]; ok {
			names = append(names, n)
			seen[n] = true
		}
	}
	var custom []string
	for n := range c.Tiers {
		if !seen[n] {
			custom = append(custom, n)
		}
	}
	sort.Strings(custom)
	return append(names, custom...)
}
