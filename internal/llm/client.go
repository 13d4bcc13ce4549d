// Package llm provides the chat-completion client used by the AI CEO.
// It speaks the OpenAI-compatible chat API (OpenAI, Pollinations) and the
// Anthropic Messages API.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Provider selects the wire dialect and default endpoint.
type Provider string

const (
	ProviderOpenAI       Provider = "openai"
	ProviderPollinations Provider = "pollinations"
	ProviderAnthropic    Provider = "anthropic"
	ProviderOffline      Provider = "offline"
)

const (
	openAIURL        = "https://api.openai.com/v1/chat/completions"
	pollinationsURL  = "https://gen.pollinations.ai/v1/chat/completions"
	anthropicURL     = "https://api.anthropic.com/v1/messages"
	anthropicVersion = "2023-06-01"
)

var defaultModels = map[Provider]string{
	ProviderOpenAI:       "gpt-4o-mini",
	ProviderPollinations: "openai",
	ProviderAnthropic:    "claude-haiku-4-5-20251001",
}

// ErrDisabled is returned when no credential is configured.
var ErrDisabled = errors.New("LLM client not configured")

// ErrRateLimited is returned when the per-minute call budget is spent.
var ErrRateLimited = errors.New("rate limit exceeded")

// ParseProvider maps a config value onto a Provider. Unknown values are
// reported as offline.
func ParseProvider(s string) (Provider, bool) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(s))); p {
	case ProviderOpenAI, ProviderPollinations, ProviderAnthropic, ProviderOffline:
		return p, true
	}
	return ProviderOffline, false
}

// Options configures a Client. Zero values pick provider defaults.
type Options struct {
	Provider  Provider
	APIKey    string
	Model     string
	BaseURL   string
	MaxPerMin int
	Timeout   time.Duration
}

// Client wraps one chat-completion endpoint.
type Client struct {
	provider   Provider
	apiKey     string
	model      string
	url        string
	httpClient *http.Client

	// Rate limiting: max calls per minute.
	mu        sync.Mutex
	callCount int
	resetAt   time.Time
	maxPerMin int
}

// NewClient creates a client. Returns nil if the provider is offline or the
// key is empty (decisions fall back to the offline director).
func NewClient(o Options) *Client {
	if o.Provider == "" || o.Provider == ProviderOffline {
		return nil
	}
	// Pollinations serves anonymous requests, the others need a key.
	if o.APIKey == "" && o.Provider != ProviderPollinations {
		return nil
	}

	c := &Client{
		provider:  o.Provider,
		apiKey:    o.APIKey,
		model:     o.Model,
		url:       o.BaseURL,
		maxPerMin: o.MaxPerMin,
		httpClient: &http.Client{
			Timeout: o.Timeout,
		},
	}
	if c.model == "" {
		c.model = defaultModels[o.Provider]
	}
	if c.url == "" {
		switch o.Provider {
		case ProviderAnthropic:
			c.url = anthropicURL
		case ProviderPollinations:
			c.url = pollinationsURL
		default:
			c.url = openAIURL
		}
	}
	if c.maxPerMin <= 0 {
		c.maxPerMin = 20 // Conservative rate limit
	}
	if c.httpClient.Timeout <= 0 {
		c.httpClient.Timeout = 30 * time.Second
	}
	return c
}

// Enabled returns true if the client can make calls.
func (c *Client) Enabled() bool {
	return c != nil && c.provider != ""
}

// Provider returns the configured provider.
func (c *Client) Provider() Provider {
	if c == nil {
		return ProviderOffline
	}
	return c.provider
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []Message `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Messages       []Message       `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Complete sends a system + user prompt and returns the response text.
// OpenAI-compatible providers are asked for a JSON object response.
func (c *Client) Complete(ctx context.Context, system, userPrompt string, maxTokens int) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}

	// Rate limiting.
	c.mu.Lock()
	now := time.Now()
	if now.After(c.resetAt) {
		c.callCount = 0
		c.resetAt = now.Add(time.Minute)
	}
	if c.callCount >= c.maxPerMin {
		c.mu.Unlock()
		return "", fmt.Errorf("%w (%d calls/min)", ErrRateLimited, c.maxPerMin)
	}
	c.callCount++
	c.mu.Unlock()

	var payload any
	if c.provider == ProviderAnthropic {
		payload = anthropicRequest{
			Model:     c.model,
			MaxTokens: maxTokens,
			System:    system,
			Messages:  []Message{{Role: "user", Content: userPrompt}},
		}
	} else {
		payload = chatRequest{
			Model:     c.model,
			MaxTokens: maxTokens,
			Messages: []Message{
				{Role: "system", Content: system},
				{Role: "user", Content: userPrompt},
			},
			ResponseFormat: &responseFormat{Type: "json_object"},
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.provider == ProviderAnthropic {
		httpReq.Header.Set("x-api-key", c.apiKey)
		httpReq.Header.Set("anthropic-version", anthropicVersion)
	} else if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("API call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error %d: %s", resp.StatusCode, string(respBody))
	}

	if c.provider == ProviderAnthropic {
		var apiResp anthropicResponse
		if err := json.Unmarshal(respBody, &apiResp); err != nil {
			return "", fmt.Errorf("unmarshal response: %w", err)
		}
		if len(apiResp.Content) == 0 {
			return "", fmt.Errorf("empty response")
		}
		slog.Debug("llm call",
			"provider", c.provider,
			"input_tokens", apiResp.Usage.InputTokens,
			"output_tokens", apiResp.Usage.OutputTokens,
		)
		return apiResp.Content[0].Text, nil
	}

	var apiResp chatResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(apiResp.Choices) == 0 || apiResp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("empty response")
	}
	slog.Debug("llm call",
		"provider", c.provider,
		"input_tokens", apiResp.Usage.PromptTokens,
		"output_tokens", apiResp.Usage.CompletionTokens,
	)
	return apiResp.Choices[0].Message.Content, nil
}
