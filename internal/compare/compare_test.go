package compare

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptrace/promptrace/internal/invoke"
	"github.com/promptrace/promptrace/internal/logging"
	"github.com/promptrace/promptrace/internal/pricing"
	"github.com/promptrace/promptrace/internal/provider"
	"github.com/promptrace/promptrace/pkg/llm"
)

// stubProvider answers every call with a fixed completion or error and
// records the requests it served.
type stubProvider struct {
	mu       sync.Mutex
	id       string
	text     string
	usage    *llm.Usage
	err      error
	requests []llm.CompletionRequest
}

func (p *stubProvider) ID() string   { return p.id }
func (p *stubProvider) Name() string { return p.id }

func (p *stubProvider) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.Completion, error) {
	p.mu.Lock()
	p.requests = append(p.requests, *req)
	p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	var usage *llm.Usage
	if p.usage != nil {
		u := *p.usage
		usage = &u
	}
	return &llm.Completion{Text: p.text, Usage: usage}, nil
}

func (p *stubProvider) served() []llm.CompletionRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]llm.CompletionRequest, len(p.requests))
	copy(out, p.requests)
	return out
}

func newTestRunner(t *testing.T, set *pricing.ModelSet, providers ...llm.Provider) *Runner {
	t.Helper()
	registry := llm.NewRegistry()
	for _, p := range providers {
		registry.Register(p)
	}
	log := logging.NewWithWriter("compare", &bytes.Buffer{})
	inv := invoke.New(registry, invoke.WithLogger(log))
	return NewRunner(inv, set, log)
}

func twoProviderSet() *pricing.ModelSet {
	return &pricing.ModelSet{
		Tier: "economy",
		Models: []pricing.ResolvedModel{
			{Provider: "cheap", Model: "cheap-model", Price: pricing.Price{Input: 1, Output: 1}},
			{Provider: "spendy", Model: "spendy-model", Price: pricing.Price{Input: 10, Output: 10}},
		},
		Synthesis: pricing.ResolvedModel{Provider: "cheap", Model: "cheap-model", Price: pricing.Price{Input: 1, Output: 1}},
	}
}

func TestRunOrderingAndTotals(t *testing.T) {
	cheap := &stubProvider{id: "cheap", text: "a", usage: &llm.Usage{InputTokens: 100, OutputTokens: 100}}
	spendy := &stubProvider{id: "spendy", text: "b", usage: &llm.Usage{InputTokens: 100, OutputTokens: 100}}
	runner := newTestRunner(t, twoProviderSet(), cheap, spendy)

	report := runner.Run(context.Background(), Options{
		SystemPrompt: "sys",
		UserPrompt:   "question",
		Providers:    []string{"cheap", "spendy"},
		NumCalls:     3,
	})

	require.Len(t, report.Results, 6)
	for c := 0; c < 3; c++ {
		assert.Equal(t, "cheap", report.Results[c].Provider)
		assert.Equal(t, c, report.Results[c].CallIndex)
		assert.Equal(t, "spendy", report.Results[3+c].Provider)
		assert.Equal(t, c, report.Results[3+c].CallIndex)
	}

	// 200 tokens per call at $1/M and $10/M symmetric.
	assert.InDelta(t, 3*(0.0002+0.002), report.TotalCost, 1e-9)

	require.Len(t, report.Stats, 2)
	assert.Equal(t, "cheap", report.Stats[0].Provider)
	assert.Equal(t, "cheap-model", report.Stats[0].Model)
	assert.Equal(t, 3, report.Stats[0].Succeeded)
	assert.Equal(t, 600, report.Stats[0].Tokens)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, "economy", report.Tier)
	assert.Equal(t, 3, report.NumCalls)
}

func TestRunEfficiencyRanking(t *testing.T) {
	cheap := &stubProvider{id: "cheap", text: "a", usage: &llm.Usage{InputTokens: 100, OutputTokens: 100}}
	spendy := &stubProvider{id: "spendy", text: "b", usage: &llm.Usage{InputTokens: 100, OutputTokens: 100}}
	runner := newTestRunner(t, twoProviderSet(), cheap, spendy)

	report := runner.Run(context.Background(), Options{
		UserPrompt: "q",
		Providers:  []string{"cheap", "spendy"},
	})

	assert.Equal(t, "cheap", report.MostEfficient)
	assert.Equal(t, "spendy", report.LeastEfficient)
	assert.InDelta(t, 900, report.EfficiencyGap, 1e-6)

	cheapStat, _ := report.Stat("cheap")
	assert.InDelta(t, 0.001, cheapStat.CostPer1K, 1e-9)
}

func TestRunEfficiencyExcludesUnknownCost(t *testing.T) {
	// "cheap" succeeds but reports no usage: cost unavailable, excluded
	// from ranking rather than counted as free.
	cheap := &stubProvider{id: "cheap", text: "a"}
	spendy := &stubProvider{id: "spendy", text: "b", usage: &llm.Usage{InputTokens: 100, OutputTokens: 100}}
	runner := newTestRunner(t, twoProviderSet(), cheap, spendy)

	report := runner.Run(context.Background(), Options{
		UserPrompt: "q",
		Providers:  []string{"cheap", "spendy"},
	})

	assert.Equal(t, "spendy", report.MostEfficient)
	assert.Equal(t, "spendy", report.LeastEfficient)
	assert.Zero(t, report.EfficiencyGap)

	cheapStat, _ := report.Stat("cheap")
	assert.False(t, cheapStat.CostKnown)
	assert.Equal(t, 1, cheapStat.Succeeded)
	assert.InDelta(t, 0.002, report.TotalCost, 1e-9)
}

func TestRunExactTieKeepsFirstSeen(t *testing.T) {
	set := &pricing.ModelSet{
		Tier: "economy",
		Models: []pricing.ResolvedModel{
			{Provider: "first", Model: "m", Price: pricing.Price{Input: 1, Output: 1}},
			{Provider: "second", Model: "m", Price: pricing.Price{Input: 1, Output: 1}},
		},
	}
	first := &stubProvider{id: "first", text: "a", usage: &llm.Usage{InputTokens: 50, OutputTokens: 50}}
	second := &stubProvider{id: "second", text: "b", usage: &llm.Usage{InputTokens: 50, OutputTokens: 50}}
	runner := newTestRunner(t, set, first, second)

	report := runner.Run(context.Background(), Options{
		UserPrompt: "q",
		Providers:  []string{"first", "second"},
	})

	assert.Equal(t, "first", report.MostEfficient)
	assert.Equal(t, "first", report.LeastEfficient)
}

func TestRunFailedProviderStaysInReport(t *testing.T) {
	cheap := &stubProvider{id: "cheap", text: "a", usage: &llm.Usage{InputTokens: 100, OutputTokens: 100}}
	spendy := &stubProvider{id: "spendy", err: &provider.Error{
		Provider: "spendy", Status: 401, Kind: provider.KindPermanent, Msg: "bad key",
	}}
	runner := newTestRunner(t, twoProviderSet(), cheap, spendy)

	report := runner.Run(context.Background(), Options{
		UserPrompt: "q",
		Providers:  []string{"cheap", "spendy"},
		NumCalls:   2,
	})

	require.Len(t, report.Results, 4)
	assert.NotEmpty(t, report.Results[2].Err)

	spendyStat, _ := report.Stat("spendy")
	assert.Equal(t, 2, spendyStat.Failed)
	assert.Equal(t, 0, spendyStat.Succeeded)
	assert.False(t, spendyStat.CostKnown)

	// Failures never reach totals or the ranking.
	assert.InDelta(t, 2*0.0002, report.TotalCost, 1e-9)
	assert.Equal(t, "cheap", report.MostEfficient)
	assert.Equal(t, "cheap", report.LeastEfficient)
}

func TestRunDefaultsNumCallsToOne(t *testing.T) {
	cheap := &stubProvider{id: "cheap", text: "a", usage: &llm.Usage{InputTokens: 10, OutputTokens: 10}}
	set := &pricing.ModelSet{
		Tier:   "economy",
		Models: []pricing.ResolvedModel{{Provider: "cheap", Model: "cheap-model", Price: pricing.Price{Input: 1, Output: 1}}},
	}
	runner := newTestRunner(t, set, cheap)

	report := runner.Run(context.Background(), Options{UserPrompt: "q", Providers: []string{"cheap"}, NumCalls: 0})
	assert.Len(t, report.Results, 1)
	assert.Equal(t, 1, report.NumCalls)
}

func TestRunPassesPromptsThrough(t *testing.T) {
	cheap := &stubProvider{id: "cheap", text: "a"}
	set := &pricing.ModelSet{
		Tier:   "mid",
		Models: []pricing.ResolvedModel{{Provider: "cheap", Model: "cheap-model", Price: pricing.Price{}}},
	}
	runner := newTestRunner(t, set, cheap)

	runner.Run(context.Background(), Options{
		SystemPrompt: "be terse",
		UserPrompt:   "what is promptrace",
		Providers:    []string{"cheap"},
		MaxTokens:    256,
		Temperature:  0.2,
	})

	served := cheap.served()
	require.Len(t, served, 1)
	assert.Equal(t, "be terse", served[0].SystemPrompt)
	assert.Equal(t, "what is promptrace", served[0].UserPrompt)
	assert.Equal(t, 256, served[0].MaxTokens)
	assert.InDelta(t, 0.2, served[0].Temperature, 1e-9)
	assert.Equal(t, "cheap-model", served[0].Model)
}

func TestWriteJSONRoundTrip(t *testing.T) {
	cheap := &stubProvider{id: "cheap", text: "a", usage: &llm.Usage{InputTokens: 10, OutputTokens: 10}}
	set := &pricing.ModelSet{
		Tier:   "economy",
		Models: []pricing.ResolvedModel{{Provider: "cheap", Model: "cheap-model", Price: pricing.Price{Input: 1, Output: 1}}},
	}
	runner := newTestRunner(t, set, cheap)
	report := runner.Run(context.Background(), Options{UserPrompt: "q", Providers: []string{"cheap"}})

	var buf bytes.Buffer
	require.NoError(t, report.WriteJSON(&buf))
	out := buf.String()
	assert.Contains(t, out, fmt.Sprintf("%q", report.RunID))
	assert.Contains(t, out, `"total_cost"`)
	assert.Contains(t, out, `"cheap-model"`)
}
