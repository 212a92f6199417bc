// Package main provides the promptrace CLI entrypoint.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/promptrace/promptrace/internal/compare"
	"github.com/promptrace/promptrace/internal/config"
	"github.com/promptrace/promptrace/internal/invoke"
	"github.com/promptrace/promptrace/internal/logging"
	"github.com/promptrace/promptrace/internal/pricing"
	"github.com/promptrace/promptrace/internal/provider"
	"github.com/promptrace/promptrace/internal/render"
	"github.com/promptrace/promptrace/internal/runtime"
	"github.com/promptrace/promptrace/pkg/llm"
)

var version = "0.1.0"

// runOptions collects every root-command flag.
type runOptions struct {
	provider     string
	compareWith  []string
	synthesize   bool
	tier         string
	realtime     bool
	numCalls     int
	maxTokens    int
	temperature  float64
	output       string
	asJSON       bool
	pretty       bool
	noColor      bool
	timeout      time.Duration
	configPath   string
	systemPreset string
}

func main() {
	// Credentials may live in a local .env; absence is not an error.
	_ = godotenv.Load()

	opts := runOptions{}

	rootCmd := &cobra.Command{
		Use:   "promptrace [system-prompt] <prompt>",
		Short: "Compare one prompt across hosted LLM providers",
		Long: `promptrace sends one prompt to multiple hosted LLM providers, collects
their responses, and prints a side-by-side comparison with per-provider
cost accounting and an efficiency ranking.

Usage modes:
  promptrace "<prompt>"                         Compare default providers
  promptrace "<system>" "<prompt>"              Explicit system prompt
  promptrace --provider claude "<prompt>"       Single provider, full detail
  promptrace --realtime "<prompt>"              Search-capable providers
  promptrace --synthesize "<prompt>"            Add a synthesized answer

Use 'promptrace tiers' to list quality/cost tiers.
Use 'promptrace models' to list known model pricing.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return run(args, opts)
		},
	}

	rootCmd.Flags().StringVarP(&opts.provider, "provider", "P", "", "Query a single provider (claude|openai|gemini|perplexity|searchgpt)")
	rootCmd.Flags().StringSliceVar(&opts.compareWith, "compare", nil, "Providers to compare (default: anthropic,openai,google)")
	rootCmd.Flags().BoolVarP(&opts.synthesize, "synthesize", "s", false, "Synthesize one answer from all responses")
	rootCmd.Flags().StringVarP(&opts.tier, "tier", "t", "economy", "Quality/cost tier (see 'promptrace tiers')")
	rootCmd.Flags().BoolVar(&opts.realtime, "realtime", false, "Use search-capable providers (perplexity, searchgpt)")
	rootCmd.Flags().IntVarP(&opts.numCalls, "num-calls", "n", 1, "Calls per provider")
	rootCmd.Flags().IntVar(&opts.maxTokens, "max-tokens", 1024, "Max response tokens per call")
	rootCmd.Flags().Float64Var(&opts.temperature, "temperature", 0.7, "Sampling temperature")
	rootCmd.Flags().StringVarP(&opts.output, "output", "o", "", "Save the full report as JSON to this file")
	rootCmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the report as JSON instead of text")
	rootCmd.PersistentFlags().BoolVar(&opts.pretty, "pretty", true, "Pretty print output")
	rootCmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	rootCmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Per-request timeout (default from config, 120s)")
	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "YAML config file overlaying the defaults")
	rootCmd.Flags().StringVar(&opts.systemPreset, "system-preset", "default", "Named system prompt preset when no system prompt is given")

	rootCmd.AddCommand(tiersCmd(&opts), modelsCmd(&opts), versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, opts runOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.timeout > 0 {
		cfg.Timeout = opts.timeout
	}

	systemPrompt, userPrompt, err := resolvePrompts(cfg, args, opts.systemPreset)
	if err != nil {
		return err
	}

	single := opts.provider != ""
	selected, err := selectProviders(opts)
	if err != nil {
		return err
	}

	// Synthesis needs no comparison to synthesize from.
	if single && opts.synthesize {
		fmt.Fprintln(os.Stderr, "Warning: --synthesize ignored in single-provider mode")
		opts.synthesize = false
	}

	set, err := pricing.Resolve(cfg.Tiers, cfg.Pricing, opts.tier, selected)
	if err != nil {
		return err
	}

	// Every provider the run touches, synthesis included, needs credentials
	// before the first network call.
	needed := selected
	if opts.synthesize && !contains(selected, set.Synthesis.Provider) {
		needed = append(append([]string{}, selected...), set.Synthesis.Provider)
	}
	if missing := provider.MissingKeys(needed, cfg.APIKeys); len(missing) > 0 {
		for _, m := range missing {
			fmt.Fprintf(os.Stderr, "  %s\n", m)
		}
		return fmt.Errorf("missing API keys for %d provider(s)", len(missing))
	}

	registry, err := buildRegistry(cfg, needed)
	if err != nil {
		return err
	}

	mgr := runtime.NewShutdownManager(runtime.DefaultShutdownTimeout)
	mgr.ListenForSignals()

	inv := invoke.New(registry)
	runner := compare.NewRunner(inv, set, logging.New("compare"))
	report := runner.Run(mgr.Context(), compare.Options{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		Providers:    selected,
		NumCalls:     opts.numCalls,
		MaxTokens:    opts.maxTokens,
		Temperature:  opts.temperature,
		Synthesize:   opts.synthesize,
	})

	if opts.output != "" {
		if err := report.Save(opts.output); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Report saved to %s\n", opts.output)
	}

	if opts.asJSON {
		return report.WriteJSON(os.Stdout)
	}

	r := render.New(usePretty(opts))
	if single {
		fmt.Print(r.SingleProvider(report))
	} else {
		fmt.Print(r.Comparison(report))
	}
	return nil
}

// resolvePrompts maps positional args to the prompt pair. Two args mean an
// explicit system prompt; one arg falls back to the named preset.
func resolvePrompts(cfg *config.Config, args []string, preset string) (string, string, error) {
	if len(args) == 2 {
		return args[0], args[1], nil
	}
	systemPrompt, ok := cfg.SystemPrompts[preset]
	if !ok {
		return "", "", fmt.Errorf("unknown system preset %q (known: %s)", preset, presetNames(cfg))
	}
	return systemPrompt, args[0], nil
}

func presetNames(cfg *config.Config) string {
	out := ""
	for name := range cfg.SystemPrompts {
		if out != "" {
			out += ", "
		}
		out += name
	}
	return out
}

// selectProviders returns canonical provider IDs in selection order.
func selectProviders(opts runOptions) ([]string, error) {
	if opts.provider != "" {
		if opts.realtime || len(opts.compareWith) > 0 {
			return nil, fmt.Errorf("--provider cannot be combined with --compare or --realtime")
		}
		id, err := canonicalID(opts.provider)
		if err != nil {
			return nil, err
		}
		return []string{id}, nil
	}
	if opts.realtime {
		if len(opts.compareWith) > 0 {
			return nil, fmt.Errorf("--realtime cannot be combined with --compare")
		}
		return []string{"perplexity", "searchgpt"}, nil
	}
	if len(opts.compareWith) > 0 {
		ids := make([]string, 0, len(opts.compareWith))
		seen := make(map[string]bool)
		for _, raw := range opts.compareWith {
			id, err := canonicalID(raw)
			if err != nil {
				return nil, err
			}
			if seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
		return ids, nil
	}
	return []string{"anthropic", "openai", "google"}, nil
}

// canonicalID folds CLI aliases onto registry provider IDs.
func canonicalID(raw string) (string, error) {
	switch raw {
	case "anthropic", "claude":
		return "anthropic", nil
	case "openai", "gpt":
		return "openai", nil
	case "google", "gemini":
		return "google", nil
	case "perplexity", "sonar":
		return "perplexity", nil
	case "searchgpt":
		return "searchgpt", nil
	default:
		return "", fmt.Errorf("unknown provider %q", raw)
	}
}

// buildRegistry constructs one provider adapter per selected ID, sharing a
// single timeout-bounded HTTP client.
func buildRegistry(cfg *config.Config, ids []string) (*llm.Registry, error) {
	factory := provider.NewFactory()
	client := &http.Client{Timeout: cfg.Timeout}

	registry := llm.NewRegistry()
	for _, id := range ids {
		p, err := factory.CreateByID(id,
			provider.WithAPIKey(cfg.APIKeys[id]),
			provider.WithBaseURL(cfg.BaseURLs[id]),
			provider.WithHTTPClient(client),
		)
		if err != nil {
			return nil, err
		}
		registry.Register(p)
	}
	return registry, nil
}

// usePretty enables color only on a real terminal, unless forced off.
func usePretty(opts runOptions) bool {
	if opts.noColor || !opts.pretty {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func tiersCmd(opts *runOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tiers",
		Short: "List quality/cost tiers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			r := render.New(usePretty(*opts))
			fmt.Print(r.Tiers(cfg))
			return nil
		},
	}
}

func modelsCmd(opts *runOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List known models and their pricing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			r := render.New(usePretty(*opts))
			fmt.Print(r.Models(cfg))
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show promptrace version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("promptrace version %s\n", version)
		},
	}
}
