package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/promptrace/promptrace/internal/config"
)

// Tiers formats the tier listing (promptrace tiers).
func (r *Renderer) Tiers(cfg *config.Config) string {
	var sb strings.Builder
	r.header(&sb, "QUALITY/COST TIERS")

	for _, name := range cfg.TierNames() {
		tier := cfg.Tiers[name]
		label := strings.ToUpper(name)
		if r.pretty {
			label = color.CyanString(label)
		}
		fmt.Fprintf(&sb, "\n%s\n", label)
		fmt.Fprintf(&sb, "  %s\n", tier.Description)

		providers := make([]string, 0, len(tier.Models))
		for p := range tier.Models {
			providers = append(providers, p)
		}
		sort.Strings(providers)
		for _, p := range providers {
			fmt.Fprintf(&sb, "  %-12s %s\n", p+":", tier.Models[p])
		}
		if tier.Synthesis != "" {
			fmt.Fprintf(&sb, "  %-12s %s\n", "synthesis:", tier.Synthesis)
		}
	}
	return sb.String()
}

// Models formats the known model pricing table (promptrace models).
func (r *Renderer) Models(cfg *config.Config) string {
	var sb strings.Builder
	r.header(&sb, "MODEL PRICING ($ per million tokens)")

	models := make([]string, 0, len(cfg.Pricing))
	for m := range cfg.Pricing {
		models = append(models, m)
	}
	sort.Strings(models)

	for _, m := range models {
		p := cfg.Pricing[m]
		fmt.Fprintf(&sb, "  %-38s in $%8.4f   out $%8.4f\n", m, p.Input, p.Output)
	}
	return sb.String()
}
