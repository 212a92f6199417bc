// Package invoke wraps provider calls with retry, backoff, and cost accounting.
package invoke

import (
	"context"
	"fmt"
	"time"

	"github.com/promptrace/promptrace/internal/logging"
	"github.com/promptrace/promptrace/internal/pricing"
	"github.com/promptrace/promptrace/pkg/llm"
)

// Request describes one provider call. Immutable after construction.
type Request struct {
	Provider     string
	Model        string
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64
	// CallIndex distinguishes repeats of the same prompt (--num-calls).
	CallIndex int
}

// Result is the normalized outcome of one provider call. A failed call is
// still a Result: Err carries the user-facing message and Text is empty, so
// one provider's outage never aborts the comparison.
type Result struct {
	Provider  string        `json:"provider"`
	Model     string        `json:"model"`
	CallIndex int           `json:"call_index"`
	Text      string        `json:"text,omitempty"`
	Err       string        `json:"error,omitempty"`
	Usage     *llm.Usage    `json:"usage,omitempty"`
	// Cost is nil when the provider reported no token counts: unavailable,
	// not zero.
	Cost    *float64      `json:"cost,omitempty"`
	Latency time.Duration `json:"latency_ns"`
	Retries int           `json:"retries"`
}

// OK reports whether the call produced a response.
func (r Result) OK() bool { return r.Err == "" }

// Invoker issues single provider calls under the retry policy.
type Invoker struct {
	registry *llm.Registry
	policy   Policy
	clock    Clock
	log      *logging.Logger
}

// Option configures an Invoker.
type Option func(*Invoker)

// WithPolicy overrides the retry policy.
func WithPolicy(p Policy) Option {
	return func(inv *Invoker) { inv.policy = p }
}

// WithClock injects a clock (tests use a fake).
func WithClock(c Clock) Option {
	return func(inv *Invoker) { inv.clock = c }
}

// WithLogger sets the structured logger.
func WithLogger(l *logging.Logger) Option {
	return func(inv *Invoker) { inv.log = l }
}

// New creates an Invoker over a provider registry.
func New(registry *llm.Registry, opts ...Option) *Invoker {
	inv := &Invoker{
		registry: registry,
		policy:   DefaultPolicy(),
		clock:    SystemClock,
		log:      logging.New("invoke"),
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Invoke performs one call with retry-with-backoff and computes its cost from
// the resolved price. Always returns a Result; never panics or propagates
// provider failures.
func (inv *Invoker) Invoke(ctx context.Context, req Request, price pricing.Price) Result {
	result := Result{
		Provider:  req.Provider,
		Model:     req.Model,
		CallIndex: req.CallIndex,
	}

	p, ok := inv.registry.Get(req.Provider)
	if !ok {
		result.Err = fmt.Sprintf("unknown provider %q", req.Provider)
		return result
	}

	creq := &llm.CompletionRequest{
		Model:        req.Model,
		SystemPrompt: req.SystemPrompt,
		UserPrompt:   req.UserPrompt,
		MaxTokens:    req.MaxTokens,
		Temperature:  req.Temperature,
	}

	start := inv.clock.Now()
	state := State{Kind: StateAttempting}
	var completion *llm.Completion
	var lastErr error

	for {
		completion, lastErr = p.Complete(ctx, creq)
		state = inv.policy.Next(state, lastErr)

		if state.Kind == StateBackoff {
			inv.log.WithProvider(req.Provider).Warn("retrying", map[string]interface{}{
				"attempt":  state.Attempt,
				"delay_ms": state.Delay.Milliseconds(),
			}, lastErr)
			if err := inv.clock.Sleep(ctx, state.Delay); err != nil {
				// Cancelled mid-backoff: abandon without another attempt.
				state = State{Kind: StateFailed, Attempt: state.Attempt}
				lastErr = err
				break
			}
			state.Kind = StateAttempting
			continue
		}
		break
	}

	result.Latency = inv.clock.Now().Sub(start)
	result.Retries = state.Attempt - 1

	if state.Kind == StateFailed {
		result.Err = fmt.Sprintf("%s failed after %d attempt(s): %v", req.Provider, state.Attempt, lastErr)
		inv.log.InvocationEvent(req.Provider, req.Model, result.Latency, result.Retries, lastErr)
		return result
	}

	result.Text = completion.Text
	if completion.Usage != nil {
		usage := *completion.Usage
		result.Usage = &usage
		cost := price.Cost(usage)
		result.Cost = &cost
	}
	inv.log.InvocationEvent(req.Provider, req.Model, result.Latency, result.Retries, nil)
	return result
}
