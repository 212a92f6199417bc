// Package llm defines the capability interface every provider backend implements.
package llm

import "context"

// Provider is the interface all LLM providers must implement
type Provider interface {
	ID() string
	Name() string

	// Complete sends one prompt pair and returns the full response
	Complete(ctx context.Context, req *CompletionRequest) (*Completion, error)
}

// CompletionRequest represents one request to an LLM
type CompletionRequest struct {
	Model        string
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64
}

// Usage holds token counts as reported by the provider.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Total returns input plus output tokens.
func (u Usage) Total() int {
	return u.InputTokens + u.OutputTokens
}

// Completion is a normalized provider response.
// Usage is nil when the provider did not report token counts.
type Completion struct {
	Text  string
	Usage *Usage
}

// Registry holds all available providers, preserving registration order.
type Registry struct {
	order     []string
	providers map[string]Provider
}

func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

func (r *Registry) Register(p Provider) {
	if _, exists := r.providers[p.ID()]; !exists {
		r.order = append(r.order, p.ID())
	}
	r.providers[p.ID()] = p
}

func (r *Registry) Get(id string) (Provider, bool) {
	p, ok := r.providers[id]
	return p, ok
}

// IDs returns provider IDs in registration order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
