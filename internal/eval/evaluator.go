package eval

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ladi-press/manuscript-eval/constants"
	"github.com/ladi-press/manuscript-eval/internal/common"
	"github.com/ladi-press/manuscript-eval/internal/llm"
)

const (
	// maxManuscriptChars caps the manuscript as a whole before any method
	// runs; categoryExcerptChars caps the slice embedded per model call.
	// Both are fixed, not configurable per call.
	maxManuscriptChars   = 15000
	categoryExcerptChars = 5000
	truncationNotice     = "\n\n[Text truncated for analysis]"

	// minEvaluationChars is the evaluator's own floor, above the upstream
	// extraction gate.
	minEvaluationChars = 100

	maxAttempts    = 3
	baseRetryDelay = 2 * time.Second
)

// Evaluator produces one CategoryResult per (category, prompt) model call.
// It degrades rather than erroring: transient call failures retry with
// backoff and then fail the single category, malformed output falls back to
// heuristic extraction, and a nil client yields synthetic results.
type Evaluator struct {
	client llm.Client
	cfg    common.LLMConfig
	sleep  Sleeper
	logger *slog.Logger
}

func NewEvaluator(client llm.Client, cfg common.LLMConfig, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{
		client: client,
		cfg:    cfg,
		sleep:  systemSleep,
		logger: logger,
	}
}

// Synthetic reports whether evaluations will return fixed stand-in results
// because no model client is configured.
func (e *Evaluator) Synthetic() bool {
	return e.client == nil
}

// PrepareManuscript applies the whole-job length guard and cap. Returns
// ErrTextTooShort below the evaluation minimum; otherwise the (possibly
// truncated) text with the truncation notice appended when the cap applied.
func PrepareManuscript(text string) (string, error) {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < minEvaluationChars {
		return "", ErrTextTooShort
	}
	if utf8.RuneCountInString(text) > maxManuscriptChars {
		return truncateRunes(text, maxManuscriptChars) + truncationNotice, nil
	}
	return text, nil
}

// EvaluateCategory runs one category against one prompt. The method selects
// the prompt scaffold: basic wraps the category's default prompt, template
// wraps custom criteria. Never returns an error; failures degrade into the
// result's status and summary.
func (e *Evaluator) EvaluateCategory(ctx context.Context, text string, category constants.Category, prompt string, method constants.Method) CategoryResult {
	if e.client == nil {
		e.logger.Warn("eval.category.synthetic",
			"category", category, "method", method,
			"hint", "no model client configured; scores are stand-ins")
		return syntheticResult(category, method)
	}

	start := time.Now()
	req := e.buildRequest(text, category, prompt, method)

	var lastErr error
	attempts := 0
	delay := baseRetryDelay
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			e.logger.Info("eval.category.retry",
				"category", category, "attempt", attempt, "delay", delay.String())
			if err := e.sleep(ctx, delay); err != nil {
				lastErr = err
				break
			}
			delay *= 2
		}
		attempts = attempt

		content, err := e.client.Complete(ctx, req)
		if err != nil {
			lastErr = err
			transient := llm.IsTransient(err)
			e.logger.Error("eval.category.attempt_failed",
				"category", category, "attempt", attempt,
				"transient", transient, "error", err)
			if !transient {
				break
			}
			continue
		}

		res := e.interpret(content, category)
		e.logger.Info("eval.category.ok",
			"category", category, "method", method, "score", res.Score,
			"attempts", attempt, "elapsed_ms", time.Since(start).Milliseconds())
		return res
	}

	e.logger.Error("eval.category.exhausted",
		"category", category, "method", method, "attempts", attempts,
		"elapsed_ms", time.Since(start).Milliseconds(), "error", lastErr)
	return CategoryResult{
		Score:               0,
		Summary:             fmt.Sprintf("evaluation failed after %d attempt(s): %v", attempts, lastErr),
		Strengths:           []string{},
		AreasForImprovement: []string{},
		Status:              constants.CategoryFailed,
	}
}

func (e *Evaluator) buildRequest(text string, category constants.Category, prompt string, method constants.Method) llm.Request {
	excerpt := truncateRunes(text, categoryExcerptChars)

	var system, user string
	if method == constants.MethodTemplate {
		system = templateSystemPrompt
		user = buildTemplatePrompt(prompt, excerpt)
	} else {
		system = basicSystemPrompt
		title := string(category)
		if def, ok := constants.DefinitionFor(category); ok {
			title = def.Title
		}
		user = buildBasicPrompt(title, prompt, excerpt)
	}

	return llm.Request{
		System:      system,
		Prompt:      user,
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature,
		Timeout:     e.cfg.Timeout,
	}
}

// interpret turns raw model output into a CategoryResult, structured when
// possible, heuristic otherwise.
func (e *Evaluator) interpret(content string, category constants.Category) CategoryResult {
	if resp, ok := ParseResponse(content); ok {
		return CategoryResult{
			Score:               int(math.Round(resp.Score)),
			Summary:             resp.Summary,
			Strengths:           emptyIfNil(resp.Strengths),
			AreasForImprovement: emptyIfNil(resp.AreasForImprovement),
			Status:              constants.CategoryCompleted,
		}
	}

	raw := strings.TrimSpace(content)
	e.logger.Warn("eval.category.degraded_parse",
		"category", category, "content_len", len(raw))
	return CategoryResult{
		Score:               ExtractScore(raw),
		Summary:             ExtractSummary(raw),
		Strengths:           []string{},
		AreasForImprovement: []string{},
		Status:              constants.CategoryCompleted,
	}
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
