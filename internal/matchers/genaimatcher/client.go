// Package genaimatcher implements a pool.Matcher backed by a generative
// language model, standing in for "a third-party grammar engine" (spec
// §1's out-of-scope external collaborator).
package genaimatcher

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/bobmcallan/rulecheck/internal/common"
)

const (
	// DefaultModel is used when no model override is configured.
	DefaultModel = "gemini-2.0-flash"
)

// Client wraps a genai.Client with the model selection and logging this
// matcher needs.
type Client struct {
	client *genai.Client
	model  string
	logger *common.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithModel overrides the default model.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithLogger overrides the default logger.
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a genai-backed Client.
func NewClient(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genaimatcher: failed to create client: %w", err)
	}

	c := &Client{
		client: genaiClient,
		model:  DefaultModel,
		logger: common.NewSilentLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// generate sends prompt to the configured model and returns its text
// response.
func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	c.logger.Debug().Str("model", c.model).Msg("generating grammar-check response")

	contents := genai.Text(prompt)
	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("genaimatcher: generate content: %w", err)
	}
	return extractText(result)
}

func extractText(result *genai.GenerateContentResponse) (string, error) {
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("genaimatcher: no content generated")
	}

	text := ""
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			text += part.Text
		}
	}
	return text, nil
}
