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

const googleAPIURL = "https://generativelanguage.googleapis.com/v1beta/models"

type Google struct {
	apiKey  string
	baseURL string
	client  HTTPClient
}

func NewGoogle(apiKey string) *Google {
	return NewGoogleWithClient(apiKey, &http.Client{})
}

func NewGoogleWithClient(apiKey string, client HTTPClient) *Google {
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
	}
	return &Google{
		apiKey:  apiKey,
		baseURL: googleAPIURL,
		client:  client,
	}
}

// NewGoogleCompatibleWithClient targets an alternate base URL. Used by tests.
func NewGoogleCompatibleWithClient(apiKey, baseURL string, client HTTPClient) *Google {
	return &Google{
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
	}
}

func (g *Google) ID() string   { return "google" }
func (g *Google) Name() string { return "Google" }

type googleRequest struct {
	Contents          []googleContent  `json:"contents"`
	SystemInstruction *googleContent   `json:"systemInstruction,omitempty"`
	GenerationConfig  *googleGenConfig `json:"generationConfig,omitempty"`
}

type googleContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []googlePart `json:"parts"`
}

type googlePart struct {
	Text string `json:"text"`
}

type googleGenConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float64 `json:"temperature,omitempty"`
}

type googleResponse struct {
	Candidates []struct {
		Content struct {
			Parts []googlePart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata *googleUsage `json:"usageMetadata"`
}

type googleUsage struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
}

func (g *Google) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.Completion, error) {
	body := googleRequest{
		Contents: []googleContent{
			{Role: "user", Parts: []googlePart{{Text: req.UserPrompt}}},
		},
		GenerationConfig: &googleGenConfig{
			MaxOutputTokens: req.MaxTokens,
			Temperature:     req.Temperature,
		},
	}
	if req.SystemPrompt != "" {
		body.SystemInstruction = &googleContent{
			Parts: []googlePart{{Text: req.SystemPrompt}},
		}
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", g.baseURL, req.Model, g.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, apiError(g.ID(), resp.StatusCode, respBody)
	}

	var out googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if len(out.Candidates) == 0 {
		return nil, &Error{Provider: g.ID(), Kind: KindPermanent, Msg: "response contained no candidates"}
	}

	var text strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}

	completion := &llm.Completion{Text: text.String()}
	if out.UsageMetadata != nil {
		completion.Usage = &llm.Usage{
			InputTokens:  out.UsageMetadata.PromptTokenCount,
			OutputTokens: out.UsageMetadata.CandidatesTokenCount,
		}
	}
	return completion, nil
}

var _ llm.Provider = (*Google)(nil)
