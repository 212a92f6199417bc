// Package render formats comparison output for the terminal.
// Separates presentation from the aggregation logic.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/promptrace/promptrace/internal/compare"
	"github.com/promptrace/promptrace/internal/invoke"
	"github.com/promptrace/promptrace/internal/tokens"
)

// Renderer handles output formatting.
type Renderer struct {
	pretty bool
}

// New creates a new renderer.
func New(pretty bool) *Renderer {
	return &Renderer{pretty: pretty}
}

// Comparison formats the full side-by-side report.
func (r *Renderer) Comparison(report *compare.Report) string {
	var sb strings.Builder

	r.header(&sb, "PROMPT COMPARISON")
	fmt.Fprintf(&sb, "System: %s\n", report.SystemPrompt)
	fmt.Fprintf(&sb, "Prompt: %s\n", report.UserPrompt)
	fmt.Fprintf(&sb, "Tier:   %s\n", report.Tier)
	if report.NumCalls > 1 {
		fmt.Fprintf(&sb, "Calls per provider: %d\n", report.NumCalls)
	}

	for _, res := range report.Results {
		r.result(&sb, res)
	}

	if report.Synthesis != nil {
		r.header(&sb, "SYNTHESIZED ANSWER")
		r.result(&sb, *report.Synthesis)
	} else if report.SynthesisNote != "" {
		sb.WriteString("\n")
		sb.WriteString(r.warn(report.SynthesisNote))
		sb.WriteString("\n")
	}

	r.costSummary(&sb, report)
	return sb.String()
}

// result formats one invocation outcome.
func (r *Renderer) result(sb *strings.Builder, res invoke.Result) {
	sb.WriteString("\n" + strings.Repeat("-", 72) + "\n")

	label := strings.ToUpper(res.Provider)
	if res.CallIndex > 0 {
		label = fmt.Sprintf("%s (call %d)", label, res.CallIndex+1)
	}
	if r.pretty {
		if res.OK() {
			sb.WriteString(color.CyanString(label))
		} else {
			sb.WriteString(color.RedString(label))
		}
	} else {
		sb.WriteString(label)
	}
	fmt.Fprintf(sb, "  [%s]\n", res.Model)

	if !res.OK() {
		sb.WriteString(r.warn(res.Err))
		sb.WriteString("\n")
		return
	}

	sb.WriteString(res.Text)
	sb.WriteString("\n")

	words := len(strings.Fields(res.Text))
	fmt.Fprintf(sb, "Length: %d words    Latency: %s", words, res.Latency.Round(time.Millisecond))
	if res.Retries > 0 {
		fmt.Fprintf(sb, "    Retries: %d", res.Retries)
	}
	sb.WriteString("\n")

	if res.Usage != nil && res.Cost != nil {
		fmt.Fprintf(sb, "Cost: $%.6f (%d tokens)\n", *res.Cost, res.Usage.Total())
	} else {
		est := tokens.Estimate(res.Text)
		fmt.Fprintf(sb, "Cost: unavailable (no token counts reported, ~%d tokens estimated)\n", est)
	}
}

// costSummary formats the per-provider cost breakdown and efficiency insights.
func (r *Renderer) costSummary(sb *strings.Builder, report *compare.Report) {
	r.header(sb, "COST BREAKDOWN")

	for _, stat := range report.Stats {
		line := fmt.Sprintf("%-12s %7d tokens   ", strings.ToUpper(stat.Provider), stat.Tokens)
		switch {
		case stat.Succeeded == 0:
			line += "failed"
		case !stat.CostKnown:
			line += "cost unavailable"
		case stat.Tokens == 0:
			line += fmt.Sprintf("$%10.6f   (no tokens reported)", stat.Cost)
		default:
			line += fmt.Sprintf("$%10.6f   $%8.4f/1K", stat.Cost, stat.CostPer1K)
		}
		sb.WriteString(line + "\n")
	}

	if report.Synthesis != nil && report.Synthesis.OK() && report.Synthesis.Cost != nil {
		total := 0
		if report.Synthesis.Usage != nil {
			total = report.Synthesis.Usage.Total()
		}
		fmt.Fprintf(sb, "%-12s %7d tokens   $%10.6f\n", "SYNTHESIS", total, *report.Synthesis.Cost)
	}

	sb.WriteString(strings.Repeat("-", 72) + "\n")
	totalLine := fmt.Sprintf("TOTAL COST: $%.6f", report.TotalCost)
	if r.pretty {
		totalLine = color.GreenString(totalLine)
	}
	sb.WriteString(totalLine + "\n")

	if report.MostEfficient != "" {
		sb.WriteString("\nEfficiency:\n")
		most, _ := report.Stat(report.MostEfficient)
		least, _ := report.Stat(report.LeastEfficient)
		fmt.Fprintf(sb, "  Most efficient:  %s ($%.4f/1K tokens)\n", strings.ToUpper(most.Provider), most.CostPer1K)
		fmt.Fprintf(sb, "  Least efficient: %s ($%.4f/1K tokens)\n", strings.ToUpper(least.Provider), least.CostPer1K)
		if report.EfficiencyGap > 0 {
			fmt.Fprintf(sb, "  Difference: %.1f%% more expensive\n", report.EfficiencyGap)
		}
	}
}

// SingleProvider formats a single-provider run: every call, then totals.
func (r *Renderer) SingleProvider(report *compare.Report) string {
	var sb strings.Builder

	provider := ""
	if len(report.Stats) > 0 {
		provider = report.Stats[0].Provider
	}
	r.header(&sb, fmt.Sprintf("SINGLE PROVIDER: %s", strings.ToUpper(provider)))
	if len(report.Stats) > 0 {
		fmt.Fprintf(&sb, "Model: %s\n", report.Stats[0].Model)
	}
	fmt.Fprintf(&sb, "Tier:  %s\n", report.Tier)

	for _, res := range report.Results {
		r.result(&sb, res)
	}

	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Total cost: $%.6f\n", report.TotalCost)
	if report.NumCalls > 1 {
		if stat, ok := report.Stat(provider); ok && stat.Tokens > 0 {
			fmt.Fprintf(&sb, "Total tokens: %d (%.1f per call)\n", stat.Tokens, float64(stat.Tokens)/float64(report.NumCalls))
		}
		fmt.Fprintf(&sb, "Average cost per call: $%.6f\n", report.TotalCost/float64(report.NumCalls))
	}
	return sb.String()
}

func (r *Renderer) header(sb *strings.Builder, title string) {
	sb.WriteString("\n")
	if r.pretty {
		sb.WriteString(color.CyanString(title) + "\n")
	} else {
		sb.WriteString(title + "\n")
	}
	sb.WriteString(strings.Repeat("=", 72) + "\n")
}

func (r *Renderer) warn(msg string) string {
	if r.pretty {
		return color.RedString("✗ " + msg)
	}
	return "ERROR: " + msg
}
