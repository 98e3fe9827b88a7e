// Package provider selects and constructs the configured model client.
// Only binaries import it; the core packages see the llm.Client interface.
package provider

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ladi-press/manuscript-eval/internal/common"
	"github.com/ladi-press/manuscript-eval/internal/llm"
	"github.com/ladi-press/manuscript-eval/internal/llm/gemini"
	"github.com/ladi-press/manuscript-eval/internal/llm/openai"
	"github.com/ladi-press/manuscript-eval/internal/llm/openrouter"
)

// New builds the client for cfg.Provider. A nil client (empty provider or
// missing API key) switches the evaluator to its synthetic path; that is a
// supported mode, not an error, and is logged loudly here.
func New(ctx context.Context, cfg common.LLMConfig, logger *slog.Logger) (llm.Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Provider {
	case "":
		logger.Warn("llm.provider.none", "hint", "evaluations will return synthetic results")
		return nil, nil

	case common.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			logger.Warn("llm.provider.no_key", "provider", cfg.Provider,
				"hint", "evaluations will return synthetic results")
			return nil, nil
		}
		return openai.NewClient(openai.Config{
			APIKey:      cfg.OpenAIAPIKey,
			BaseURL:     cfg.OpenAIBaseURL,
			Model:       cfg.OpenAIModel,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}, logger), nil

	case common.ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			logger.Warn("llm.provider.no_key", "provider", cfg.Provider,
				"hint", "evaluations will return synthetic results")
			return nil, nil
		}
		return gemini.NewClient(ctx, gemini.Config{
			APIKey:      cfg.GeminiAPIKey,
			Model:       cfg.GeminiModel,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}, logger)

	case common.ProviderOpenRouter:
		if cfg.OpenRouterAPIKey == "" {
			logger.Warn("llm.provider.no_key", "provider", cfg.Provider,
				"hint", "evaluations will return synthetic results")
			return nil, nil
		}
		return openrouter.NewClient(openrouter.Config{
			APIKey:      cfg.OpenRouterAPIKey,
			Model:       cfg.OpenRouterModel,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}, logger), nil

	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}
