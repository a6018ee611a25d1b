// Package completion wraps the external text-completion service.
//
// Every pipeline step that needs language understanding — metadata
// extraction, repair classification, vendor disambiguation, email drafting —
// goes through the Completer interface. The concrete client sits on
// langchaingo's OpenAI-compatible chat API behind a rate limiter with
// bounded retries.
package completion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"
)

// Defaults applied when the config leaves fields unset.
const (
	defaultModel       = "gpt-4o-mini"
	defaultMaxRetries  = 3
	defaultBaseBackoff = 1 * time.Second
	defaultRateLimit   = 50.0 / 60.0 // ~0.83 requests per second
	defaultBurst       = 5
	defaultTimeout     = 60 * time.Second
)

// Request is one completion call.
type Request struct {
	// System is the role-specific instruction.
	System string
	// Prompt is the user content.
	Prompt string
	// Temperature controls sampling. Extraction and classification calls
	// use low values for consistency; drafting calls run warmer.
	Temperature float64
}

// Completer performs a single blocking text-completion call.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Config holds client settings.
type Config struct {
	APIKey     string
	Model      string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	RateLimit  float64
	RateBurst  int
}

// Client is the production Completer.
type Client struct {
	llm        llms.Model
	limiter    *rate.Limiter
	timeout    time.Duration
	maxRetries int
}

// NewClient creates a completion client. A missing API key is a
// configuration error and fatal to the caller.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("completion API key required")
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create completion backend: %w", err)
	}

	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = defaultMaxRetries
	}
	limit := cfg.RateLimit
	if limit == 0 {
		limit = defaultRateLimit
	}
	burst := cfg.RateBurst
	if burst == 0 {
		burst = defaultBurst
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &Client{
		llm:        llm,
		limiter:    rate.NewLimiter(rate.Limit(limit), burst),
		timeout:    timeout,
		maxRetries: maxRetries,
	}, nil
}

// Complete performs one completion call, waiting on the rate limiter and
// retrying transient failures with exponential backoff.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter error: %w", err)
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, req.System),
		llms.TextParts(llms.ChatMessageTypeHuman, req.Prompt),
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := defaultBaseBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		resp, err := c.llm.GenerateContent(callCtx, messages,
			llms.WithTemperature(req.Temperature))
		cancel()
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("empty response from completion service")
			continue
		}
		return strings.TrimSpace(resp.Choices[0].Content), nil
	}

	return "", fmt.Errorf("max retries exceeded: %w", lastErr)
}

// StripFence removes a surrounding markdown code fence from a completion
// response. The service is asked for bare JSON but often wraps it anyway.
func StripFence(content string) string {
	content = strings.TrimSpace(content)
	if idx := strings.Index(content, "```json"); idx >= 0 {
		content = content[idx+len("```json"):]
		if end := strings.Index(content, "```"); end >= 0 {
			content = content[:end]
		}
	} else if idx := strings.Index(content, "```"); idx >= 0 {
		content = content[idx+len("```"):]
		if end := strings.Index(content, "```"); end >= 0 {
			content = content[:end]
		}
	}
	return strings.TrimSpace(content)
}

var _ Completer = (*Client)(nil)
