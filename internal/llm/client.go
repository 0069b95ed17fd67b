// Package llm issues single-turn extraction prompts to the Anthropic Messages API.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/bizcrawl/internal/retry"
)

// statusOverloaded is returned by the API when it is temporarily at capacity
const statusOverloaded = 529

// ErrNoAPIKey is returned when no API key is configured
var ErrNoAPIKey = errors.New("anthropic API key is not configured")

// Completer sends one instruction and returns the model's text reply
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Config configures a Client
type Config struct {
	APIKey    string
	Model     string
	MaxTokens int64
	Timeout   time.Duration
	BaseURL   string
	Retry     retry.Config
}

// Client is a Completer backed by the Messages API
type Client struct {
	api       anthropic.Client
	model     string
	maxTokens int64
	timeout   time.Duration
	retry     retry.Config
}

// New creates a Client from cfg
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model name is required")
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = retry.DefaultConfig()
		cfg.Retry.RetryableStatusCodes = append(cfg.Retry.RetryableStatusCodes, statusOverloaded)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// backoff is handled by retry.WithRetry
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Client{
		api:       anthropic.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		timeout:   cfg.Timeout,
		retry:     cfg.Retry,
	}, nil
}

// Complete sends prompt with the given system text and returns the concatenated text blocks
func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	var reply string
	start := time.Now()
	err := retry.WithRetry(ctx, c.retry, func() error {
		callCtx := ctx
		if c.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}

		msg, err := c.api.Messages.New(callCtx, params)
		if err != nil {
			return classify(err)
		}

		var sb strings.Builder
		for _, block := range msg.Content {
			if block.Type == "text" {
				sb.WriteString(block.Text)
			}
		}
		reply = sb.String()
		if reply == "" {
			return retry.Permanent(fmt.Errorf("model returned no text (stop reason %q)", msg.StopReason))
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("messages API: %w", err)
	}

	log.Debug().
		Str("model", c.model).
		Dur("elapsed", time.Since(start)).
		Int("reply_chars", len(reply)).
		Msg("Model reply received")
	return reply, nil
}

// classify maps API errors onto retry's status-aware error types
func classify(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return retry.NewHTTPError(apiErr.StatusCode, http.StatusText(apiErr.StatusCode), apiErr.Error())
	}
	return err
}
