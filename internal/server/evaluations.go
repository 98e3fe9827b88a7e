package server

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/ladi-press/manuscript-eval/constants"
	"github.com/ladi-press/manuscript-eval/internal/pipeline"
	"github.com/ladi-press/manuscript-eval/internal/repository"
)

// createEvaluation accepts a multipart manuscript upload and runs the
// evaluation pipeline synchronously. Fields: file (required), methods
// (comma list, default basic), template_ids (comma list of uuids).
func (s *Server) createEvaluation(c *fiber.Ctx) error {
	userID, err := s.userID(c)
	if err != nil {
		return err
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "file is required")
	}
	ext := constants.NormalizeExt(filepath.Ext(fh.Filename))
	if _, ok := constants.AllowedExtensions[ext]; !ok {
		return fiber.NewError(fiber.StatusBadRequest, "unsupported file type ."+ext)
	}
	if fh.Size > s.cfg.Storage.MaxUploadBytes {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "file exceeds upload limit")
	}

	methods, err := parseMethods(c.FormValue("methods"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	templateIDs, err := parseTemplateIDs(c.FormValue("template_ids"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	src, err := fh.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not read upload")
	}
	defer func() { _ = src.Close() }()

	row, result, err := s.processor.Process(c.Context(), pipeline.Request{
		UserID:      userID,
		Filename:    fh.Filename,
		Content:     src,
		Methods:     methods,
		TemplateIDs: templateIDs,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"evaluation": evaluationSummary(row),
		"result":     result,
	})
}

func (s *Server) listEvaluations(c *fiber.Ctx) error {
	userID, err := s.userID(c)
	if err != nil {
		return err
	}

	rows, err := s.evaluations.ListByUser(c.Context(), userID)
	if err != nil {
		return err
	}

	out := make([]fiber.Map, len(rows))
	for i, row := range rows {
		out[i] = evaluationSummary(row)
	}
	return c.JSON(fiber.Map{"evaluations": out})
}

func (s *Server) getEvaluation(c *fiber.Ctx) error {
	row, err := s.loadEvaluation(c)
	if err != nil {
		return err
	}

	payload := fiber.Map{"evaluation": evaluationSummary(row)}
	if row.ResultJSON != "" {
		payload["result"] = json.RawMessage(row.ResultJSON)
	}
	return c.JSON(payload)
}

func (s *Server) getEvaluationReport(c *fiber.Ctx) error {
	row, err := s.loadEvaluation(c)
	if err != nil {
		return err
	}
	if row.ReportPath == "" {
		return fiber.NewError(fiber.StatusNotFound, "no report for this evaluation")
	}

	rc, err := s.store.Open(c.Context(), row.ReportPath)
	if err != nil {
		return err
	}
	c.Type("html")
	return c.SendStream(rc)
}

func (s *Server) getEvaluationScores(c *fiber.Ctx) error {
	row, err := s.loadEvaluation(c)
	if err != nil {
		return err
	}
	if row.ScoresPath == "" {
		return fiber.NewError(fiber.StatusNotFound, "no score workbook for this evaluation")
	}

	rc, err := s.store.Open(c.Context(), row.ScoresPath)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="scores.xlsx"`)
	return c.SendStream(rc)
}

// loadEvaluation resolves the :id route param to the caller's row.
func (s *Server) loadEvaluation(c *fiber.Ctx) (*repository.Evaluation, error) {
	userID, err := s.userID(c)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid evaluation id")
	}

	row, err := s.evaluations.GetByID(c.Context(), id, userID)
	if err != nil {
		return nil, err
	}
	return row, nil
}

// evaluationSummary is the listing shape: row fields without the raw
// result payload.
func evaluationSummary(row *repository.Evaluation) fiber.Map {
	return fiber.Map{
		"id":             row.ID,
		"filename":       row.Filename,
		"format":         row.Format,
		"status":         row.Status,
		"overall_score":  row.OverallScore,
		"methods_used":   repository.SplitList(row.MethodsUsed),
		"templates_used": repository.SplitList(row.TemplatesUsed),
		"error_message":  row.ErrorMessage,
		"created_at":     row.CreatedAt,
		"updated_at":     row.UpdatedAt,
	}
}

func parseMethods(raw string) ([]constants.Method, error) {
	if strings.TrimSpace(raw) == "" {
		return []constants.Method{constants.MethodBasic}, nil
	}
	var methods []constants.Method
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		method, ok := constants.CanonicalizeMethod(part)
		if !ok {
			return nil, &unknownValueError{kind: "method", value: part}
		}
		methods = append(methods, method)
	}
	if len(methods) == 0 {
		return []constants.Method{constants.MethodBasic}, nil
	}
	return methods, nil
}

func parseTemplateIDs(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, err := uuid.Parse(part); err != nil {
			return nil, &unknownValueError{kind: "template id", value: part}
		}
		ids = append(ids, part)
	}
	return ids, nil
}

type unknownValueError struct {
	kind  string
	value string
}

func (e *unknownValueError) Error() string {
	return "invalid " + e.kind + " " + e.value
}
