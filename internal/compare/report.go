package compare

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/promptrace/promptrace/internal/invoke"
)

// ProviderStat aggregates all of one provider's calls within a run.
type ProviderStat struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	// Succeeded and Failed count calls, not retries.
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	// Tokens sums reported usage across successful calls.
	Tokens int `json:"tokens"`
	// Cost sums the cost-known calls. CostKnown is false when no call
	// reported usage, in which case Cost and CostPer1K are meaningless.
	Cost      float64 `json:"cost"`
	CostKnown bool    `json:"cost_known"`
	CostPer1K float64 `json:"cost_per_1k"`
}

// Report is the full outcome of one comparison run.
type Report struct {
	RunID        string          `json:"run_id"`
	Timestamp    time.Time       `json:"timestamp"`
	Tier         string          `json:"tier"`
	SystemPrompt string          `json:"system_prompt"`
	UserPrompt   string          `json:"user_prompt"`
	NumCalls     int             `json:"num_calls"`
	Results      []invoke.Result `json:"results"`
	Stats        []ProviderStat  `json:"stats"`
	// TotalCost sums every cost-known result, synthesis included.
	TotalCost float64 `json:"total_cost"`
	// MostEfficient / LeastEfficient name providers by cost per 1000
	// tokens; empty when no provider reported tokens.
	MostEfficient  string  `json:"most_efficient,omitempty"`
	LeastEfficient string  `json:"least_efficient,omitempty"`
	EfficiencyGap  float64 `json:"efficiency_gap_pct,omitempty"`

	Synthesis     *invoke.Result `json:"synthesis,omitempty"`
	SynthesisNote string         `json:"synthesis_note,omitempty"`
}

// BuildReport derives totals, per-provider stats, and the efficiency ranking
// from the ordered results.
func BuildReport(runID, tier string, opts Options, results []invoke.Result) *Report {
	report := &Report{
		RunID:        runID,
		Timestamp:    now().UTC(),
		Tier:         tier,
		SystemPrompt: opts.SystemPrompt,
		UserPrompt:   opts.UserPrompt,
		NumCalls:     opts.NumCalls,
		Results:      results,
	}
	if report.NumCalls < 1 {
		report.NumCalls = 1
	}

	statIndex := make(map[string]int)
	for _, id := range opts.Providers {
		statIndex[id] = len(report.Stats)
		report.Stats = append(report.Stats, ProviderStat{Provider: id})
	}

	for _, res := range results {
		idx, ok := statIndex[res.Provider]
		if !ok {
			continue
		}
		stat := &report.Stats[idx]
		if stat.Model == "" {
			stat.Model = res.Model
		}
		if !res.OK() {
			stat.Failed++
			continue
		}
		stat.Succeeded++
		if res.Usage != nil {
			stat.Tokens += res.Usage.Total()
		}
		if res.Cost != nil {
			stat.Cost += *res.Cost
			stat.CostKnown = true
			report.TotalCost += *res.Cost
		}
	}

	// Efficiency ranking: cost per 1000 tokens. Providers with zero reported
	// tokens have an undefined ratio and are excluded, not treated as free.
	// Exact ties keep the first-seen provider, so the ranking is
	// deterministic for identical inputs.
	for i := range report.Stats {
		stat := &report.Stats[i]
		if !stat.CostKnown || stat.Tokens == 0 {
			continue
		}
		stat.CostPer1K = stat.Cost / float64(stat.Tokens) * 1000

		if report.MostEfficient == "" {
			report.MostEfficient = stat.Provider
			report.LeastEfficient = stat.Provider
			continue
		}
		if stat.CostPer1K < report.costPer1K(report.MostEfficient) {
			report.MostEfficient = stat.Provider
		}
		if stat.CostPer1K > report.costPer1K(report.LeastEfficient) {
			report.LeastEfficient = stat.Provider
		}
	}

	if report.MostEfficient != "" && report.LeastEfficient != "" {
		best := report.costPer1K(report.MostEfficient)
		worst := report.costPer1K(report.LeastEfficient)
		if best > 0 {
			report.EfficiencyGap = (worst - best) / best * 100
		}
	}

	return report
}

func (r *Report) costPer1K(provider string) float64 {
	for _, s := range r.Stats {
		if s.Provider == provider {
			return s.CostPer1K
		}
	}
	return 0
}

// Stat returns the aggregate for one provider.
func (r *Report) Stat(provider string) (ProviderStat, bool) {
	for _, s := range r.Stats {
		if s.Provider == provider {
			return s, true
		}
	}
	return ProviderStat{}, false
}

// SuccessfulByProvider returns each provider's first successful result, in
// provider order. Used by synthesis and single-provider rendering.
func (r *Report) SuccessfulByProvider() []invoke.Result {
	seen := make(map[string]bool)
	var out []invoke.Result
	for _, res := range r.Results {
		if res.OK() && !seen[res.Provider] {
			seen[res.Provider] = true
			out = append(out, res)
		}
	}
	return out
}

// WriteJSON writes the report document to w.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// Save writes the report document to a file.
func (r *Report) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()
	if err := r.WriteJSON(f); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
