package compare

import (
	"context"
	"fmt"
	"strings"

	"github.com/promptrace/promptrace/internal/invoke"
)

const synthSystemPrompt = "You are an expert synthesizer. Combine insights from multiple AI responses into one coherent, comprehensive answer."

// synthesize issues one extra call to the tier's synthesis model, feeding it
// every provider's successful response. Skipped with a diagnostic note when
// nothing succeeded; the synthesis model is never invoked on empty input.
func (r *Runner) synthesize(ctx context.Context, report *Report, opts Options) {
	successes := report.SuccessfulByProvider()
	if len(successes) == 0 {
		report.SynthesisNote = "synthesis skipped: no provider produced a successful response"
		r.log.WithRunID(report.RunID).Warn("synthesis_skipped", nil, nil)
		return
	}

	result := r.inv.Invoke(ctx, invoke.Request{
		Provider:     r.set.Synthesis.Provider,
		Model:        r.set.Synthesis.Model,
		SystemPrompt: synthSystemPrompt,
		UserPrompt:   buildSynthesisPrompt(opts.UserPrompt, successes),
		MaxTokens:    opts.MaxTokens,
		Temperature:  opts.Temperature,
	}, r.set.Synthesis.Price)

	report.Synthesis = &result
	if result.Cost != nil {
		report.TotalCost += *result.Cost
	}
}

// buildSynthesisPrompt embeds each provider's answer under its display name,
// mirroring the comparison the user just saw.
func buildSynthesisPrompt(question string, successes []invoke.Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Based on the following %d AI responses to the same question, create a synthesized answer that combines the best insights from all of them.\n\n", len(successes))
	fmt.Fprintf(&sb, "Original Question: %s\n\n", question)
	for _, res := range successes {
		fmt.Fprintf(&sb, "%s Response: %s\n\n", capitalize(res.Provider), res.Text)
	}
	sb.WriteString("Synthesize these into one comprehensive response that captures the best elements from all of them while maintaining coherence and eliminating redundancy.")
	return sb.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
