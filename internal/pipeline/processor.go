package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ladi-press/manuscript-eval/constants"
	"github.com/ladi-press/manuscript-eval/internal/common"
	"github.com/ladi-press/manuscript-eval/internal/eval"
	"github.com/ladi-press/manuscript-eval/internal/extract"
	"github.com/ladi-press/manuscript-eval/internal/report"
	"github.com/ladi-press/manuscript-eval/internal/repository"
	"github.com/ladi-press/manuscript-eval/internal/storage"
)

// Processor runs one manuscript evaluation end to end: store the upload,
// extract its text, gate on extraction quality, run the evaluation job,
// persist the outcome, and generate report artifacts. Each request runs
// inline on its caller's goroutine; requests are independent of each other.
type Processor struct {
	store        storage.Store
	evaluations  repository.EvaluationRepository
	templates    repository.TemplateRepository
	orchestrator *eval.Orchestrator
	reports      *report.Service
	logger       *slog.Logger
}

func NewProcessor(
	store storage.Store,
	evaluations repository.EvaluationRepository,
	templates repository.TemplateRepository,
	orchestrator *eval.Orchestrator,
	reports *report.Service,
	logger *slog.Logger,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		store:        store,
		evaluations:  evaluations,
		templates:    templates,
		orchestrator: orchestrator,
		reports:      reports,
		logger:       logger,
	}
}

// Request is one evaluation submission.
type Request struct {
	UserID      string
	Filename    string
	Content     io.Reader
	Methods     []constants.Method
	TemplateIDs []string
}

// Process runs the full pipeline. On extraction failure or job timeout the
// evaluation row is marked FAILED with the error message and no scores are
// written; the error is returned for the transport layer to classify.
func (p *Processor) Process(ctx context.Context, req Request) (*repository.Evaluation, *eval.EvaluationResult, error) {
	start := time.Now()

	format, ok := constants.FormatForExt(filepath.Ext(req.Filename))
	if !ok {
		return nil, nil, common.NewAppError("UNSUPPORTED_FORMAT",
			"unsupported file type "+filepath.Ext(req.Filename), common.ErrInvalidInput)
	}

	content, err := io.ReadAll(req.Content)
	if err != nil {
		return nil, nil, common.WrapError(err, "read upload")
	}

	key := storage.ObjectKey(storage.PrefixManuscripts, req.Filename)
	if _, err := p.store.Save(ctx, key, bytes.NewReader(content)); err != nil {
		return nil, nil, common.WrapError(err, "store manuscript")
	}

	methods := make([]string, len(req.Methods))
	for i, m := range req.Methods {
		methods[i] = string(m)
	}
	row := &repository.Evaluation{
		UserID:         req.UserID,
		Filename:       req.Filename,
		Format:         format,
		Status:         constants.EvaluationPending,
		MethodsUsed:    repository.JoinList(methods),
		TemplatesUsed:  repository.JoinList(req.TemplateIDs),
		ManuscriptPath: key,
	}
	if err := p.evaluations.Create(ctx, row); err != nil {
		return nil, nil, err
	}

	p.logger.Info("pipeline.start",
		"evaluation_id", row.ID.String(),
		"user_id", req.UserID,
		"filename", req.Filename,
		"format", format,
		"methods", methods,
	)

	if err := p.evaluations.UpdateStatus(ctx, row.ID, constants.EvaluationProcessing); err != nil {
		return nil, nil, err
	}

	text, err := p.extractText(ctx, format, content)
	if err != nil {
		p.fail(ctx, row.ID, err)
		return nil, nil, err
	}

	result, err := p.orchestrator.Run(ctx, text, eval.Job{
		Methods:     req.Methods,
		TemplateIDs: req.TemplateIDs,
		UserScope:   req.UserID,
	})
	if err != nil {
		// timeout or cancellation: all partial work is discarded
		p.fail(ctx, row.ID, err)
		return nil, nil, err
	}

	if err := p.persistResult(ctx, row.ID, result); err != nil {
		p.fail(ctx, row.ID, err)
		return nil, nil, err
	}
	p.recordTemplateUsage(ctx, result)
	p.generateReports(ctx, row.ID, req.Filename, result)

	stored, err := p.evaluations.GetByID(ctx, row.ID, req.UserID)
	if err != nil {
		return nil, nil, err
	}

	p.logger.Info("pipeline.ok",
		"evaluation_id", row.ID.String(),
		"overall_score", result.OverallScore,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return stored, result, nil
}

// extractText runs the format's extractor and applies the length gate.
func (p *Processor) extractText(ctx context.Context, format constants.FileFormat, content []byte) (string, error) {
	extractor, err := extract.ForFormat(format, p.logger)
	if err != nil {
		return "", err
	}
	res, err := extractor.Extract(ctx, bytes.NewReader(content))
	if err != nil {
		return "", err
	}
	if err := extract.CheckSufficientText(format, res.Text); err != nil {
		return "", err
	}
	return res.Text, nil
}

func (p *Processor) persistResult(ctx context.Context, id uuid.UUID, result *eval.EvaluationResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	scores := make(map[constants.Category]int, len(result.Categories))
	for cat, res := range result.Categories {
		scores[cat] = res.Score
	}
	return p.evaluations.SaveResult(ctx, id, repository.ResultUpdate{
		OverallScore:   result.OverallScore,
		CategoryScores: scores,
		ResultJSON:     string(payload),
	})
}

// recordTemplateUsage bumps usage counters for the templates that actually
// contributed a method result.
func (p *Processor) recordTemplateUsage(ctx context.Context, result *eval.EvaluationResult) {
	for key := range result.AllResults {
		idStr, ok := strings.CutPrefix(key, "template_")
		if !ok {
			continue
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			continue
		}
		if err := p.templates.IncrementUsage(ctx, id); err != nil {
			p.logger.Warn("pipeline.template_usage_failed", "template_id", idStr, "error", err)
		}
	}
}

// generateReports is best-effort: a report failure logs and leaves the
// evaluation completed.
func (p *Processor) generateReports(ctx context.Context, id uuid.UUID, filename string, result *eval.EvaluationResult) {
	artifacts, err := p.reports.Generate(ctx, id, manuscriptTitle(filename), result)
	if err != nil {
		p.logger.Error("pipeline.report_failed", "evaluation_id", id.String(), "error", err)
		return
	}
	if err := p.evaluations.SetReportPaths(ctx, id, artifacts.ReportKey, artifacts.ScoresKey); err != nil {
		p.logger.Error("pipeline.report_paths_failed", "evaluation_id", id.String(), "error", err)
	}
}

func (p *Processor) fail(ctx context.Context, id uuid.UUID, cause error) {
	p.logger.Error("pipeline.failed", "evaluation_id", id.String(), "error", cause)
	if err := p.evaluations.MarkFailed(ctx, id, cause.Error()); err != nil {
		p.logger.Error("pipeline.mark_failed_error", "evaluation_id", id.String(), "error", err)
	}
}

// manuscriptTitle derives a display title from the uploaded filename.
func manuscriptTitle(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
