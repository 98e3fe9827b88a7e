package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/ladi-press/manuscript-eval/internal/llm"
)

// Config for the Gemini client.
type Config struct {
	APIKey      string
	Model       string // e.g., "gemini-2.0-flash"
	Temperature float32
	Timeout     time.Duration
}

type Client struct {
	cfg    Config
	client *genai.Client
	logger *slog.Logger
}

// NewClient dials the Gemini API backend. The context is only used for
// client construction, not for subsequent calls.
func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Client{cfg: cfg, client: client, logger: logger}, nil
}

// Complete implements llm.Client via Models.GenerateContent.
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("llm.complete.start",
		"req_id", rid,
		"provider", "gemini",
		"model", c.cfg.Model,
		"prompt_len", len(req.Prompt),
	)

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.cfg.Timeout
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	temperature := req.Temperature
	if temperature <= 0 {
		temperature = c.cfg.Temperature
	}
	genConfig := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(temperature),
	}
	if req.System != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.MaxTokens > 0 {
		genConfig.MaxOutputTokens = int32(req.MaxTokens)
	}

	result, err := c.client.Models.GenerateContent(cctx, c.cfg.Model, genai.Text(req.Prompt), genConfig)
	if err != nil {
		mapped := classifyError(err)
		var apiErr *llm.APIError
		if errors.As(mapped, &apiErr) {
			c.logger.Error("llm.complete.api_error",
				"req_id", rid, "status", apiErr.Status, "transient", apiErr.Transient,
				"elapsed_ms", time.Since(start).Milliseconds())
		} else {
			c.logger.Error("llm.complete.transport_error",
				"req_id", rid, "error", err,
				"elapsed_ms", time.Since(start).Milliseconds())
		}
		return "", mapped
	}

	if result == nil || len(result.Candidates) == 0 {
		return "", fmt.Errorf("gemini response has no candidates")
	}
	content := result.Text()
	if content == "" {
		return "", fmt.Errorf("gemini response has no text parts")
	}

	c.logger.Info("llm.complete.ok",
		"req_id", rid,
		"content_len", len(content),
		"elapsed_ms", time.Since(start).Milliseconds())
	return content, nil
}

// classifyError maps a genai server error onto *llm.APIError so the retry
// layer sees the HTTP status. genai returns APIError by value, so the
// errors.As target is the value type. Anything else (dial, timeout) passes
// through as a transport failure.
func classifyError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &llm.APIError{
			Status:    apiErr.Code,
			Message:   apiErr.Message,
			Transient: llm.TransientStatus(apiErr.Code),
		}
	}
	return err
}
