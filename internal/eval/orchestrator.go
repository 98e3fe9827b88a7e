package eval

import (
	"bytes"
	"context"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/ladi-press/manuscript-eval/constants"
	"github.com/ladi-press/manuscript-eval/internal/common"
	"github.com/ladi-press/manuscript-eval/internal/extract"
)

// TemplateSource supplies template spreadsheet bytes by id, scoped to the
// requesting user. Implementations return common.ErrNotFound-wrapped errors
// for missing, foreign, or inactive templates.
type TemplateSource interface {
	TemplateBytes(ctx context.Context, templateID, userScope string) ([]byte, error)
}

// Orchestrator drives one evaluation job: each requested method in caller
// order, each category strictly sequentially, under a single wall-clock
// deadline checked cooperatively between steps. A deadline hit discards all
// partial work; per-category and per-template failures degrade instead.
type Orchestrator struct {
	evaluator *Evaluator
	templates TemplateSource
	sheets    extract.Extractor
	cfg       common.EvalConfig
	clock     Clock
	sleep     Sleeper
	logger    *slog.Logger
}

func NewOrchestrator(evaluator *Evaluator, templates TemplateSource, cfg common.EvalConfig, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		evaluator: evaluator,
		templates: templates,
		sheets:    extract.NewSpreadsheetExtractor(logger),
		cfg:       cfg,
		clock:     systemClock,
		sleep:     systemSleep,
		logger:    logger,
	}
}

// Run executes the job against the extracted manuscript text and returns
// the combined result. The only error returns are *TimeoutError (deadline
// passed; nothing may be persisted) and the caller's context error.
func (o *Orchestrator) Run(ctx context.Context, text string, job Job) (*EvaluationResult, error) {
	jobID := uuid.New().String()
	start := o.clock()
	deadline := start.Add(o.cfg.JobTimeout)

	o.logger.Info("eval.job.start",
		"job_id", jobID,
		"user_scope", job.UserScope,
		"methods", methodsAsStrings(job.Methods),
		"templates", job.TemplateIDs,
		"text_len", utf8.RuneCountInString(text),
	)

	prepared, prepErr := PrepareManuscript(text)
	if prepErr != nil {
		o.logger.Warn("eval.job.text_too_short", "job_id", jobID, "error", prepErr)
	}

	agg := NewAggregator(o.cfg.RunningMean)
	allResults := make(map[string]MethodResult)

	for _, method := range job.Methods {
		if err := o.checkDeadline(ctx, start, deadline); err != nil {
			o.logTimeout(jobID, start, err)
			return nil, err
		}
		if prepErr != nil {
			o.logger.Warn("eval.method.skipped",
				"job_id", jobID, "method", method, "reason", prepErr.Error())
			continue
		}

		switch method {
		case constants.MethodBasic:
			mr, err := o.runBasic(ctx, jobID, prepared, start, deadline)
			if err != nil {
				o.logTimeout(jobID, start, err)
				return nil, err
			}
			allResults[string(constants.MethodBasic)] = mr
			agg.AddMethod(mr)

		case constants.MethodTemplate:
			for _, templateID := range job.TemplateIDs {
				if err := o.checkDeadline(ctx, start, deadline); err != nil {
					o.logTimeout(jobID, start, err)
					return nil, err
				}

				prompts, ok := o.resolveTemplate(ctx, jobID, templateID, job.UserScope)
				if !ok {
					continue
				}
				mr, err := o.runTemplate(ctx, jobID, templateID, prepared, prompts, start, deadline)
				if err != nil {
					o.logTimeout(jobID, start, err)
					return nil, err
				}
				allResults["template_"+templateID] = mr
				agg.AddMethod(mr)
			}

		default:
			o.logger.Warn("eval.method.unknown", "job_id", jobID, "method", method)
		}
	}

	if err := o.checkDeadline(ctx, start, deadline); err != nil {
		o.logTimeout(jobID, start, err)
		return nil, err
	}

	result := &EvaluationResult{
		Categories:     agg.Combined(),
		OverallScore:   agg.Overall(),
		EvaluationDate: o.clock(),
		MethodsUsed:    append([]constants.Method{}, job.Methods...),
		TemplatesUsed:  append([]string{}, job.TemplateIDs...),
		AllResults:     allResults,
	}

	o.logger.Info("eval.job.ok",
		"job_id", jobID,
		"overall_score", result.OverallScore,
		"categories", len(result.Categories),
		"elapsed_ms", o.clock().Sub(start).Milliseconds(),
	)
	return result, nil
}

// runBasic evaluates all six categories with their default prompts.
func (o *Orchestrator) runBasic(ctx context.Context, jobID, text string, start, deadline time.Time) (MethodResult, error) {
	synthetic := o.evaluator.Synthetic()
	o.logger.Info("eval.method.start",
		"job_id", jobID, "method", constants.MethodBasic, "synthetic", synthetic)

	categories := make(map[constants.Category]CategoryResult, len(constants.Definitions()))
	scores := make(map[constants.Category]int, len(constants.Definitions()))

	for _, def := range constants.Definitions() {
		if err := o.checkDeadline(ctx, start, deadline); err != nil {
			return MethodResult{}, err
		}

		res := o.evaluator.EvaluateCategory(ctx, text, def.ID, def.DefaultPrompt, constants.MethodBasic)
		categories[def.ID] = res
		scores[def.ID] = res.Score

		// pause spaces real model calls for provider rate limits
		if !synthetic {
			_ = o.sleep(ctx, o.cfg.CategoryPause)
		}
	}

	return MethodResult{
		Categories:     categories,
		Scores:         scores,
		OverallScore:   OverallScore(categories),
		EvaluationDate: o.clock(),
		TextLength:     utf8.RuneCountInString(text),
		Synthetic:      synthetic,
	}, nil
}

// runTemplate evaluates the categories a resolved prompt map covers.
func (o *Orchestrator) runTemplate(ctx context.Context, jobID, templateID, text string, prompts PromptMap, start, deadline time.Time) (MethodResult, error) {
	synthetic := o.evaluator.Synthetic()
	o.logger.Info("eval.method.start",
		"job_id", jobID, "method", constants.MethodTemplate,
		"template_id", templateID, "prompts", len(prompts), "synthetic", synthetic)

	categories := make(map[constants.Category]CategoryResult, len(prompts))

	for _, def := range constants.Definitions() {
		prompt, ok := prompts[def.ID]
		if !ok {
			continue
		}
		if err := o.checkDeadline(ctx, start, deadline); err != nil {
			return MethodResult{}, err
		}

		categories[def.ID] = o.evaluator.EvaluateCategory(ctx, text, def.ID, prompt, constants.MethodTemplate)
	}

	return MethodResult{
		Categories:     categories,
		OverallScore:   OverallScore(categories),
		EvaluationDate: o.clock(),
		TemplateUsed:   true,
		Synthetic:      synthetic,
	}, nil
}

// resolveTemplate loads and parses one template into its prompt map. Lookup
// and parse failures skip the template, never the job.
func (o *Orchestrator) resolveTemplate(ctx context.Context, jobID, templateID, userScope string) (PromptMap, bool) {
	raw, err := o.templates.TemplateBytes(ctx, templateID, userScope)
	if err != nil {
		o.logger.Error("eval.template.lookup_failed",
			"job_id", jobID, "template_id", templateID, "error", err)
		return nil, false
	}

	res, err := o.sheets.Extract(ctx, bytes.NewReader(raw))
	if err != nil {
		o.logger.Error("eval.template.parse_failed",
			"job_id", jobID, "template_id", templateID, "error", err)
		return nil, false
	}

	return ResolvePrompts(res.Text, o.logger), true
}

func (o *Orchestrator) checkDeadline(ctx context.Context, start, deadline time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := o.clock()
	if now.Before(deadline) {
		return nil
	}
	return &TimeoutError{Elapsed: now.Sub(start)}
}

func (o *Orchestrator) logTimeout(jobID string, start time.Time, err error) {
	o.logger.Error("eval.job.aborted",
		"job_id", jobID,
		"elapsed_ms", o.clock().Sub(start).Milliseconds(),
		"error", err,
	)
}

func methodsAsStrings(methods []constants.Method) []string {
	out := make([]string, len(methods))
	for i, m := range methods {
		out[i] = string(m)
	}
	return out
}
