// Package openaiadapter implements the inference service port over an
// OpenAI-compatible chat completion API.
package openaiadapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sashabaranov/go-openai"

	"github.com/alexvidal/safewalk/internal/core/domain"
	"github.com/alexvidal/safewalk/internal/core/ports"
)

// Config configures the inference client.
type Config struct {
	APIKey  string
	BaseURL string // optional override for self-hosted gateways
	Model   string
}

// Client implements ports.InferenceService. Every structured request asks
// the model for strict JSON and validates the parsed shape before binding
// it to domain entities; responses are never trusted as-is.
type Client struct {
	api   *openai.Client
	model string
	log   *slog.Logger
}

// New creates the inference client.
func New(cfg Config, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(apiCfg),
		model: cfg.Model,
		log:   log.With("component", "inference"),
	}
}

var _ ports.InferenceService = (*Client)(nil)

// complete sends one single-turn structured request and returns the raw
// response text.
func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("inference returned no choices: %w", domain.ErrMalformedResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

// classify maps provider errors onto the domain taxonomy. HTTP 429 is the
// rate-limit signature the retry executor keys on; everything else
// propagates unchanged.
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%v: %w", err, domain.ErrRateLimited)
	}
	return err
}
