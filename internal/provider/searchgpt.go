package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/promptrace/promptrace/pkg/llm"
)

const serperAPIURL = "https://google.serper.dev/search"

// SearchGPT augments an OpenAI completion with fresh web results from the
// Serper search API. The search step is best-effort: if it fails, the
// completion proceeds on the plain prompt.
type SearchGPT struct {
	apiKey    string
	serperKey string
	chatURL   string
	searchURL string
	client    HTTPClient
}

func NewSearchGPT(apiKey, serperKey string) *SearchGPT {
	return NewSearchGPTWithClient(apiKey, serperKey, "", "", &http.Client{})
}

func NewSearchGPTWithClient(apiKey, serperKey, chatURLOverride, searchURLOverride string, client HTTPClient) *SearchGPT {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if serperKey == "" {
		serperKey = os.Getenv("SERPER_API_KEY")
	}
	chatURL := chatURLOverride
	if chatURL == "" {
		chatURL = openaiAPIURL
	}
	searchURL := searchURLOverride
	if searchURL == "" {
		searchURL = serperAPIURL
	}
	return &SearchGPT{
		apiKey:    apiKey,
		serperKey: serperKey,
		chatURL:   chatURL,
		searchURL: searchURL,
		client:    client,
	}
}

func (s *SearchGPT) ID() string   { return "searchgpt" }
func (s *SearchGPT) Name() string { return "SearchGPT" }

type serperRequest struct {
	Query string `json:"q"`
	Num   int    `json:"num"`
}

type serperResponse struct {
	Organic []searchResult `json:"organic"`
}

type searchResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

func (s *SearchGPT) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.Completion, error) {
	userPrompt := req.UserPrompt

	results, err := s.search(ctx, req.UserPrompt, 5)
	if err == nil && len(results) > 0 {
		userPrompt = buildSearchPrompt(req.UserPrompt, results)
	}

	augmented := *req
	augmented.UserPrompt = userPrompt
	return completeOpenAIWire(ctx, s.client, s.chatURL, s.apiKey, s.ID(), &augmented)
}

func (s *SearchGPT) search(ctx context.Context, query string, numResults int) ([]searchResult, error) {
	jsonBody, err := json.Marshal(serperRequest{Query: query, Num: numResults})
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", s.searchURL, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	httpReq.Header.Set("X-API-KEY", s.serperKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("serper API error %d: %s", resp.StatusCode, string(respBody))
	}

	var out serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	if len(out.Organic) > numResults {
		out.Organic = out.Organic[:numResults]
	}
	return out.Organic, nil
}

func buildSearchPrompt(question string, results []searchResult) string {
	var sb strings.Builder
	sb.WriteString("Recent web search results:\n\n")
	for i, r := range results {
		fmt.Fprintf(&sb, "%d. %s\n   %s\n   Source: %s\n\n", i+1, r.Title, r.Snippet, r.Link)
	}
	sb.WriteString("\nUser Question: ")
	sb.WriteString(question)
	sb.WriteString("\n\nPlease provide a comprehensive answer using the above search results and your knowledge. Include relevant sources when appropriate.")
	return sb.String()
}

var _ llm.Provider = (*SearchGPT)(nil)
