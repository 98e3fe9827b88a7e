package openrouter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/ladi-press/manuscript-eval/internal/llm"
)

const defaultEndpoint = "https://openrouter.ai/api/v1/chat/completions"

// Config for the OpenRouter client.
type Config struct {
	APIKey      string
	Model       string // e.g., "openai/gpt-4o-mini"
	Endpoint    string
	Temperature float32
	Timeout     time.Duration
}

type Client struct {
	cfg    Config
	rest   *resty.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = "openai/gpt-4o-mini"
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		rest:   resty.New().SetTimeout(cfg.Timeout),
		logger: logger,
	}
}

// Complete implements llm.Client against the OpenRouter chat API.
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("llm.complete.start",
		"req_id", rid,
		"provider", "openrouter",
		"model", c.cfg.Model,
		"prompt_len", len(req.Prompt),
	)

	temperature := req.Temperature
	if temperature <= 0 {
		temperature = c.cfg.Temperature
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1000
	}

	messages := make([]map[string]string, 0, 2)
	if req.System != "" {
		messages = append(messages, map[string]string{"role": "system", "content": req.System})
	}
	messages = append(messages, map[string]string{"role": "user", "content": req.Prompt})

	r := c.rest.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+c.cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]any{
			"model":       c.cfg.Model,
			"temperature": temperature,
			"max_tokens":  maxTokens,
			"messages":    messages,
		})

	resp, err := r.Post(c.cfg.Endpoint)
	if err != nil {
		c.logger.Error("llm.complete.transport_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return "", err
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		apiErr := &llm.APIError{
			Status:    resp.StatusCode(),
			Message:   gjson.Get(resp.String(), "error.message").String(),
			Transient: llm.TransientStatus(resp.StatusCode()),
		}
		c.logger.Error("llm.complete.api_error",
			"req_id", rid, "status", resp.StatusCode(), "transient", apiErr.Transient,
			"elapsed_ms", time.Since(start).Milliseconds())
		return "", apiErr
	}

	content := gjson.Get(resp.String(), "choices.0.message.content").String()
	if content == "" {
		return "", fmt.Errorf("openrouter response has no content")
	}

	c.logger.Info("llm.complete.ok",
		"req_id", rid,
		"content_len", len(content),
		"elapsed_ms", time.Since(start).Milliseconds())
	return content, nil
}
