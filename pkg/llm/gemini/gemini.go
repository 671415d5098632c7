// Package gemini implements the gateway client for Google's Gemini API.
package gemini

import (
	"context"
	"strings"

	genai "google.golang.org/genai"

	"github.com/codeprimer/codeprimer/pkg/errors"
	"github.com/codeprimer/codeprimer/pkg/httputil"
	"github.com/codeprimer/codeprimer/pkg/llm"
)

// Client talks to the Gemini API through the official genai SDK.
type Client struct {
	cli *genai.Client
}

// New creates a Gemini client. The API key comes from apiKey, or from
// the GEMINI_API_KEY environment variable when apiKey is empty (the SDK
// reads it itself).
func New(ctx context.Context, apiKey string) (*Client, error) {
	cfg := &genai.ClientConfig{Backend: genai.BackendGeminiAPI}
	if apiKey != "" {
		cfg.APIKey = apiKey
	}
	cli, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeProvider, err, "create gemini client")
	}
	return &Client{cli: cli}, nil
}

// Name implements llm.Client.
func (c *Client) Name() string { return "gemini" }

// Generate implements llm.Client.
func (c *Client) Generate(ctx context.Context, model, prompt string) (string, error) {
	resp, err := c.cli.Models.GenerateContent(ctx, model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		nil,
	)
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil ||
		len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New(errors.ErrCodeProvider, "gemini returned an empty response")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}

// classify marks quota and server-side failures as retryable. The SDK
// surfaces HTTP status in the error text; matching on it is coarse but
// the gateway only needs a transient/permanent split.
func classify(err error) error {
	msg := err.Error()
	for _, marker := range []string{"429", "RESOURCE_EXHAUSTED", "500", "503", "UNAVAILABLE", "DEADLINE_EXCEEDED"} {
		if strings.Contains(msg, marker) {
			return httputil.Retryable(err)
		}
	}
	return err
}

var _ llm.Client = (*Client)(nil)
