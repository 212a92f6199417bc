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

const openaiAPIURL = "https://api.openai.com/v1/chat/completions"

type OpenAI struct {
	apiKey  string
	baseURL string
	client  HTTPClient
}

func NewOpenAI(apiKey string, baseURLOverride string) *OpenAI {
	return NewOpenAIWithClient(apiKey, baseURLOverride, &http.Client{})
}

func NewOpenAIWithClient(apiKey string, baseURLOverride string, client HTTPClient) *OpenAI {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	baseURL := baseURLOverride
	if baseURL == "" {
		baseURL = os.Getenv("OPENAI_BASE_URL")
	}
	if baseURL == "" {
		baseURL = openaiAPIURL
	} else {
		baseURL = normalizeChatCompletionsURL(baseURL)
	}
	return &OpenAI{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  client,
	}
}

// NewOpenAICompatible targets an OpenAI-wire-compatible endpoint verbatim,
// without URL normalization. Used by tests and alternate backends.
func NewOpenAICompatible(apiKey, baseURL string) *OpenAI {
	return NewOpenAICompatibleWithClient(apiKey, baseURL, &http.Client{})
}

func NewOpenAICompatibleWithClient(apiKey, baseURL string, client HTTPClient) *OpenAI {
	return &OpenAI{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  client,
	}
}

// normalizeChatCompletionsURL ensures the URL ends with /v1/chat/completions.
func normalizeChatCompletionsURL(baseURL string) string {
	baseURL = strings.TrimSuffix(baseURL, "/")
	if strings.HasSuffix(baseURL, "/chat/completions") {
		return baseURL
	}
	if strings.HasSuffix(baseURL, "/v1") {
		return baseURL + "/chat/completions"
	}
	return baseURL + "/v1/chat/completions"
}

func (o *OpenAI) ID() string   { return "openai" }
func (o *OpenAI) Name() string { return "OpenAI" }

type openaiRequest struct {
	Model       string          `json:"model"`
	Messages    []openaiMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature,omitempty"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *openaiUsage `json:"usage"`
}

type openaiUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

func (o *OpenAI) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.Completion, error) {
	return completeOpenAIWire(ctx, o.client, o.baseURL, o.apiKey, o.ID(), req)
}

// completeOpenAIWire performs a chat-completions call against any endpoint
// speaking the OpenAI wire format. Shared by OpenAI, Perplexity, and SearchGPT.
func completeOpenAIWire(ctx context.Context, client HTTPClient, url, apiKey, providerID string, req *llm.CompletionRequest) (*llm.Completion, error) {
	msgs := make([]openaiMessage, 0, 2)
	if req.SystemPrompt != "" {
		msgs = append(msgs, openaiMessage{Role: "system", Content: req.SystemPrompt})
	}
	msgs = append(msgs, openaiMessage{Role: "user", Content: req.UserPrompt})

	body := openaiRequest{
		Model:       req.Model,
		Messages:    msgs,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, apiError(providerID, resp.StatusCode, respBody)
	}

	var out openaiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if len(out.Choices) == 0 {
		return nil, &Error{Provider: providerID, Kind: KindPermanent, Msg: "response contained no choices"}
	}

	completion := &llm.Completion{Text: out.Choices[0].Message.Content}
	if out.Usage != nil {
		completion.Usage = &llm.Usage{
			InputTokens:  out.Usage.PromptTokens,
			OutputTokens: out.Usage.CompletionTokens,
		}
	}
	return completion, nil
}

var _ llm.Provider = (*OpenAI)(nil)
