package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptrace/promptrace/internal/pricing"
)

func TestDefaultHasAllTiers(t *testing.T) {
	cfg := Default()

	for _, name := range []string{"economy", "mid", "luxury"} {
		tier, ok := cfg.Tiers[name]
		require.True(t, ok, "missing tier %s", name)
		assert.NotEmpty(t, tier.Description)
		assert.NotEmpty(t, tier.Synthesis)
	}
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
}

// Every model referenced by a built-in tier must have a price entry, or
// Resolve would reject the defaults at runtime.
func TestDefaultTiersResolve(t *testing.T) {
	cfg := Default()
	providers := []string{"anthropic", "openai", "google", "perplexity", "searchgpt"}

	for name := range cfg.Tiers {
		set, err := pricing.Resolve(cfg.Tiers, cfg.Pricing, name, providers)
		require.NoError(t, err, "tier %s", name)
		assert.Len(t, set.Models, len(providers))
		assert.NotEmpty(t, set.Synthesis.Model)
	}
}

func TestDefaultSystemPrompts(t *testing.T) {
	cfg := Default()
	assert.NotEmpty(t, cfg.SystemPrompts["default"])
	assert.NotEmpty(t, cfg.SystemPrompts["analyst"])
	assert.NotEmpty(t, cfg.SystemPrompts["summarizer"])
}

func TestLoadWithoutPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Len(t, cfg.Tiers, 3)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/promptrace.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestLoadOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "promptrace.yaml")
	content := `
tiers:
  custom:
    description: Custom tier
    models:
      anthropic: claude-3-5-sonnet-20241022
      openai: gpt-4o
    synthesis: claude-3-5-sonnet-20241022
pricing:
  gpt-4o: [2.0, 8.0]
system_prompts:
  pirate: Answer like a pirate.
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	// New entries land, defaults survive.
	assert.Contains(t, cfg.Tiers, "custom")
	assert.Contains(t, cfg.Tiers, "economy")
	assert.Equal(t, "Answer like a pirate.", cfg.SystemPrompts["pirate"])
	assert.NotEmpty(t, cfg.SystemPrompts["default"])

	// Same-named pricing entries are replaced, including the [in, out] form.
	assert.Equal(t, pricing.Price{Input: 2.0, Output: 8.0}, cfg.Pricing["gpt-4o"])
	assert.Equal(t, pricing.Price{Input: 30, Output: 60}, cfg.Pricing["gpt-4"])

	set, err := pricing.Resolve(cfg.Tiers, cfg.Pricing, "custom", []string{"anthropic", "openai"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", set.Models[1].Model)
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tiers: ["), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoadAppliesEnvKeys(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "gm-test")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sk-ant-test", cfg.APIKeys["anthropic"])
	assert.Equal(t, "gm-test", cfg.APIKeys["google"])
}

func TestTierNamesOrdering(t *testing.T) {
	cfg := Default()
	cfg.Tiers["zeta"] = pricing.Tier{Description: "z"}
	cfg.Tiers["alpha"] = pricing.Tier{Description: "a"}

	assert.Equal(t, []string{"economy", "mid", "luxury", "alpha", "zeta"}, cfg.TierNames())
}

func TestDefaultTimeoutValue(t *testing.T) {
	assert.Equal(t, 120*time.Second, DefaultTimeout)
}
