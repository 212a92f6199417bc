// Package pricing maps quality tiers to concrete models and computes call costs.
package pricing

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/promptrace/promptrace/pkg/llm"
)

// Price is the USD cost per million tokens for one model.
type Price struct {
	Input  float64 `json:"input" yaml:"input"`
	Output float64 `json:"output" yaml:"output"`
}

// UnmarshalYAML accepts either a {input, output} mapping or a two-element
// [input, output] sequence, the shape the config file uses.
func (p *Price) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		var pair []float64
		if err := node.Decode(&pair); err != nil {
			return err
		}
		if len(pair) != 2 {
			return fmt.Errorf("price must be [input, output], got %d elements", len(pair))
		}
		p.Input, p.Output = pair[0], pair[1]
		return nil
	}
	type plain struct {
		Input  float64 `yaml:"input"`
		Output float64 `yaml:"output"`
	}
	var v plain
	if err := node.Decode(&v); err != nil {
		return err
	}
	p.Input, p.Output = v.Input, v.Output
	return nil
}

// Cost computes the USD cost of a call from reported usage.
func (p Price) Cost(u llm.Usage) float64 {
	return float64(u.InputTokens)/1e6*p.Input + float64(u.OutputTokens)/1e6*p.Output
}

// Table maps model identifiers to prices.
type Table map[string]Price

// Tier bundles per-provider model choices and a synthesis model.
type Tier struct {
	Description       string            `json:"description" yaml:"description"`
	Models            map[string]string `json:"models" yaml:"models"`
	Synthesis         string            `json:"synthesis" yaml:"synthesis"`
	SynthesisProvider string            `json:"synthesis_provider" yaml:"synthesis_provider"`
}

// ConfigError reports invalid tier or pricing configuration.
// It is fatal: the run aborts before any network call.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string {
	return "config error: " + e.Msg
}

// ResolvedModel pairs a provider with its model and price for one run.
type ResolvedModel struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Price    Price  `json:"price"`
}

// ModelSet is the outcome of tier resolution, in provider selection order.
type ModelSet struct {
	Tier      string          `json:"tier"`
	Models    []ResolvedModel `json:"models"`
	Synthesis ResolvedModel   `json:"synthesis"`
}

// Model returns the resolved model for a provider.
func (s *ModelSet) Model(provider string) (ResolvedModel, bool) {
	for _, m := range s.Models {
		if m.Provider == provider {
			return m, true
		}
	}
	return ResolvedModel{}, false
}

// Resolve maps a tier name to concrete models and prices for the selected
// providers. Every referenced model must have a price entry.
func Resolve(tiers map[string]Tier, table Table, tierName string, providers []string) (*ModelSet, error) {
	tier, ok := tiers[tierName]
	if !ok {
		return nil, &ConfigError{Msg: fmt.Sprintf("unknown tier %q", tierName)}
	}

	set := &ModelSet{Tier: tierName}
	for _, p := range providers {
		model, ok := tier.Models[p]
		if !ok {
			return nil, &ConfigError{Msg: fmt.Sprintf("tier %q has no model for provider %q", tierName, p)}
		}
		price, ok := table[model]
		if !ok {
			return nil, &ConfigError{Msg: fmt.Sprintf("no price entry for model %q", model)}
		}
		set.Models = append(set.Models, ResolvedModel{Provider: p, Model: model, Price: price})
	}

	if tier.Synthesis != "" {
		price, ok := table[tier.Synthesis]
		if !ok {
			return nil, &ConfigError{Msg: fmt.Sprintf("no price entry for synthesis model %q", tier.Synthesis)}
		}
		synthProvider := tier.SynthesisProvider
		if synthProvider == "" {
			synthProvider = "anthropic"
		}
		set.Synthesis = ResolvedModel{Provider: synthProvider, Model: tier.Synthesis, Price: price}
	}

	return set, nil
}
