package provider

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/promptrace/promptrace/pkg/llm"
)

const perplexityAPIURL = "https://api.perplexity.ai/chat/completions"

// Perplexity speaks the OpenAI chat-completions wire format against
// api.perplexity.ai. Its sonar models perform online retrieval server-side.
type Perplexity struct {
	apiKey  string
	baseURL string
	client  HTTPClient
}

func NewPerplexity(apiKey string) *Perplexity {
	return NewPerplexityWithClient(apiKey, "", &http.Client{})
}

func NewPerplexityWithClient(apiKey, baseURLOverride string, client HTTPClient) *Perplexity {
	if apiKey == "" {
		apiKey = os.Getenv("PERPLEXITY_API_KEY")
	}
	baseURL := baseURLOverride
	if baseURL == "" {
		baseURL = perplexityAPIURL
	} else {
		baseURL = strings.TrimSuffix(baseURL, "/")
		if !strings.HasSuffix(baseURL, "/chat/completions") {
			baseURL = baseURL + "/chat/completions"
		}
	}
	return &Perplexity{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  client,
	}
}

func (p *Perplexity) ID() string   { return "perplexity" }
func (p *Perplexity) Name() string { return "Perplexity" }

func (p *Perplexity) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.Completion, error) {
	return completeOpenAIWire(ctx, p.client, p.baseURL, p.apiKey, p.ID(), req)
}

var _ llm.Provider = (*Perplexity)(nil)
