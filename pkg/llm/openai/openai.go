// Package openai implements the gateway client for OpenAI-compatible
// chat-completion APIs. Setting BaseURL points it at any compatible
// service (OpenRouter, Azure, local inference servers).
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/codeprimer/codeprimer/pkg/errors"
	"github.com/codeprimer/codeprimer/pkg/httputil"
	"github.com/codeprimer/codeprimer/pkg/llm"
)

// DefaultBaseURL is the OpenAI API endpoint.
const DefaultBaseURL = "https://api.openai.com/v1"

// Config for an OpenAI-compatible client.
type Config struct {
	// APIKey is sent as a Bearer token on every request.
	APIKey string

	// BaseURL overrides the API root. Empty uses DefaultBaseURL.
	BaseURL string

	// ProviderName overrides the name the client registers under.
	// Allows the same implementation to serve as "openrouter" etc.
	ProviderName string
}

// Client calls the /chat/completions endpoint.
type Client struct {
	name       string
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// New creates an OpenAI-compatible client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "missing API key")
	}
	name := cfg.ProviderName
	if name == "" {
		name = "openai"
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		name:       name,
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}, nil
}

// Name implements llm.Client.
func (c *Client) Name() string { return c.name }

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate implements llm.Client.
func (c *Client) Generate(ctx context.Context, model, prompt string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:    model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", httputil.Retryable(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", httputil.Retryable(err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return "", httputil.Retryable(fmt.Errorf("API error (%d): %s", resp.StatusCode, excerpt(body)))
	default:
		return "", fmt.Errorf("API error (%d): %s", resp.StatusCode, excerpt(body))
	}

	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("API error: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return "", errors.New(errors.ErrCodeProvider, "%s returned no choices", c.name)
	}
	return out.Choices[0].Message.Content, nil
}

func excerpt(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 512 {
		s = s[:512]
	}
	return s
}

var _ llm.Client = (*Client)(nil)
