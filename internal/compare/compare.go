// Package compare runs one prompt across providers and aggregates the results.
package compare

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/promptrace/promptrace/internal/invoke"
	"github.com/promptrace/promptrace/internal/logging"
	"github.com/promptrace/promptrace/internal/pricing"
	"github.com/promptrace/promptrace/internal/tokens"
)

// Options selects what one comparison run does.
type Options struct {
	SystemPrompt string
	UserPrompt   string
	// Providers in selection order; ordering of results and tie-breaking
	// in the efficiency ranking follow this.
	Providers   []string
	NumCalls    int
	MaxTokens   int
	Temperature float64
	Synthesize  bool
}

// Runner drives the invoker across the selected providers.
type Runner struct {
	inv *invoke.Invoker
	set *pricing.ModelSet
	log *logging.Logger
}

// NewRunner creates a Runner for one resolved model set.
func NewRunner(inv *invoke.Invoker, set *pricing.ModelSet, log *logging.Logger) *Runner {
	if log == nil {
		log = logging.New("compare")
	}
	return &Runner{inv: inv, set: set, log: log}
}

// Run invokes every selected provider NumCalls times and builds the report.
// Providers run concurrently; calls within one provider are strictly
// sequential in ascending call index. The report always comes back, even if
// every provider failed.
func (r *Runner) Run(ctx context.Context, opts Options) *Report {
	numCalls := opts.NumCalls
	if numCalls < 1 {
		numCalls = 1
	}

	runID := uuid.NewString()
	log := r.log.WithRunID(runID)
	log.Info("run_start", map[string]interface{}{
		"tier":              r.set.Tier,
		"providers":         opts.Providers,
		"num_calls":         numCalls,
		"prompt_tokens_est": tokens.EstimatePrompt(opts.SystemPrompt, opts.UserPrompt),
	})

	// One slot per (provider, call index); goroutines never share a slot,
	// so the stable ordering needs no sorting afterwards.
	results := make([][]invoke.Result, len(opts.Providers))
	var wg sync.WaitGroup
	for i, providerID := range opts.Providers {
		results[i] = make([]invoke.Result, numCalls)
		model, ok := r.set.Model(providerID)
		if !ok {
			// Resolve() guarantees an entry per selected provider; a miss
			// here means the caller bypassed it.
			for c := 0; c < numCalls; c++ {
				results[i][c] = invoke.Result{
					Provider:  providerID,
					CallIndex: c,
					Err:       "no model resolved for provider " + providerID,
				}
			}
			continue
		}

		wg.Add(1)
		go func(slot []invoke.Result, m pricing.ResolvedModel) {
			defer wg.Done()
			for c := 0; c < numCalls; c++ {
				slot[c] = r.inv.Invoke(ctx, invoke.Request{
					Provider:     m.Provider,
					Model:        m.Model,
					SystemPrompt: opts.SystemPrompt,
					UserPrompt:   opts.UserPrompt,
					MaxTokens:    opts.MaxTokens,
					Temperature:  opts.Temperature,
					CallIndex:    c,
				}, m.Price)
			}
		}(results[i], model)
	}
	wg.Wait()

	flat := make([]invoke.Result, 0, len(opts.Providers)*numCalls)
	for _, slot := range results {
		flat = append(flat, slot...)
	}

	report := BuildReport(runID, r.set.Tier, opts, flat)

	// Synthesis consumes the comparison outputs, so it runs strictly after
	// every invocation has settled.
	if opts.Synthesize {
		r.synthesize(ctx, report, opts)
	}

	log.Info("run_done", map[string]interface{}{
		"results":    len(report.Results),
		"total_cost": report.TotalCost,
	})
	return report
}

// Timestamp hook for tests.
var now = time.Now
