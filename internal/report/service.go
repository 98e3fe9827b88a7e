package report

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"github.com/yuin/goldmark"

	"github.com/ladi-press/manuscript-eval/constants"
	"github.com/ladi-press/manuscript-eval/internal/eval"
	"github.com/ladi-press/manuscript-eval/internal/storage"
)

// Service turns a finished EvaluationResult into stored report artifacts:
// an HTML summary and an XLSX score workbook. Report generation is
// best-effort downstream of the evaluation itself; callers log failures and
// keep the evaluation completed.
type Service struct {
	store  storage.Store
	logger *slog.Logger
}

func NewService(store storage.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// Artifacts are the storage keys of the generated documents.
type Artifacts struct {
	ReportKey string
	ScoresKey string
}

// Generate renders and stores both artifacts for one evaluation.
func (s *Service) Generate(ctx context.Context, evaluationID uuid.UUID, title string, res *eval.EvaluationResult) (Artifacts, error) {
	start := time.Now()

	html, err := s.renderHTML(title, res)
	if err != nil {
		return Artifacts{}, fmt.Errorf("render html report: %w", err)
	}
	reportKey := fmt.Sprintf("%s/%s.html", storage.PrefixReports, evaluationID)
	if _, err := s.store.Save(ctx, reportKey, bytes.NewReader(html)); err != nil {
		return Artifacts{}, fmt.Errorf("store html report: %w", err)
	}

	workbook, err := s.renderScoresXLSX(title, res)
	if err != nil {
		return Artifacts{}, fmt.Errorf("render score workbook: %w", err)
	}
	scoresKey := fmt.Sprintf("%s/%s.xlsx", storage.PrefixReports, evaluationID)
	if _, err := s.store.Save(ctx, scoresKey, bytes.NewReader(workbook)); err != nil {
		return Artifacts{}, fmt.Errorf("store score workbook: %w", err)
	}

	s.logger.Info("report.generate.ok",
		"evaluation_id", evaluationID.String(),
		"overall_score", res.OverallScore,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return Artifacts{ReportKey: reportKey, ScoresKey: scoresKey}, nil
}

// renderHTML builds the markdown summary and converts it with goldmark.
func (s *Service) renderHTML(title string, res *eval.EvaluationResult) ([]byte, error) {
	md := BuildMarkdown(title, res)

	var body bytes.Buffer
	if err := goldmark.Convert([]byte(md), &body); err != nil {
		return nil, fmt.Errorf("markdown convert: %w", err)
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&page, "<title>%s</title>\n", htmlEscape(title))
	page.WriteString("<style>body{font-family:Georgia,serif;max-width:52rem;margin:2rem auto;padding:0 1rem;line-height:1.5}</style>\n")
	page.WriteString("</head>\n<body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.Bytes(), nil
}

// BuildMarkdown renders the evaluation summary document. Categories appear
// in their fixed evaluation order; categories no method evaluated are
// omitted.
func BuildMarkdown(title string, res *eval.EvaluationResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Manuscript Evaluation: %s\n\n", title)
	fmt.Fprintf(&b, "**Overall Score:** %d/100\n\n", res.OverallScore)
	fmt.Fprintf(&b, "**Evaluated:** %s\n\n", res.EvaluationDate.Format("January 2, 2006"))

	methods := make([]string, len(res.MethodsUsed))
	for i, m := range res.MethodsUsed {
		methods[i] = string(m)
	}
	fmt.Fprintf(&b, "**Methods:** %s\n\n", strings.Join(methods, ", "))
	if len(res.TemplatesUsed) > 0 {
		fmt.Fprintf(&b, "**Templates:** %s\n\n", strings.Join(res.TemplatesUsed, ", "))
	}

	for _, def := range constants.Definitions() {
		cat, ok := res.Categories[def.ID]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "## %s — %d/100\n\n", def.Title, cat.Score)
		if cat.Status == constants.CategoryFailed {
			b.WriteString("*This category could not be evaluated.*\n\n")
		}
		if cat.Summary != "" {
			fmt.Fprintf(&b, "%s\n\n", cat.Summary)
		}
		if len(cat.Strengths) > 0 {
			b.WriteString("**Strengths**\n\n")
			for _, item := range cat.Strengths {
				fmt.Fprintf(&b, "- %s\n", item)
			}
			b.WriteString("\n")
		}
		if len(cat.AreasForImprovement) > 0 {
			b.WriteString("**Areas for Improvement**\n\n")
			for _, item := range cat.AreasForImprovement {
				fmt.Fprintf(&b, "- %s\n", item)
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}

// renderScoresXLSX writes the score workbook.
func (s *Service) renderScoresXLSX(title string, res *eval.EvaluationResult) ([]byte, error) {
	f := excelize.NewFile()
	const sheet = "Scores"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	if defaultIndex, _ := f.GetSheetIndex("Sheet1"); defaultIndex != -1 {
		_ = f.DeleteSheet("Sheet1")
	}

	headers := []string{"Category", "Score", "Status", "Summary"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	write := func(col, row int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}

	row := 2
	for _, def := range constants.Definitions() {
		cat, ok := res.Categories[def.ID]
		if !ok {
			continue
		}
		write(1, row, def.Title)
		write(2, row, cat.Score)
		write(3, row, string(cat.Status))
		write(4, row, truncate(cat.Summary, 200))
		row++
	}

	write(1, row+1, "Overall")
	write(2, row+1, res.OverallScore)
	write(1, row+2, "Manuscript")
	write(2, row+2, title)

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 26)
	_ = f.SetColWidth(sheet, "B", "C", 12)
	_ = f.SetColWidth(sheet, "D", "D", 72)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}

func htmlEscape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}
