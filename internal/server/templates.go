package server

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/ladi-press/manuscript-eval/constants"
	"github.com/ladi-press/manuscript-eval/internal/common"
	"github.com/ladi-press/manuscript-eval/internal/repository"
	"github.com/ladi-press/manuscript-eval/internal/storage"
)

const (
	maxTemplateNameLen        = 255
	maxTemplateDescriptionLen = 2000
)

// createTemplate accepts a multipart spreadsheet upload defining custom
// per-category prompts. Fields: file (xls/xlsx, required), name (defaults
// to the filename), description.
func (s *Server) createTemplate(c *fiber.Ctx) error {
	userID, err := s.userID(c)
	if err != nil {
		return err
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "file is required")
	}
	ext := constants.NormalizeExt(filepath.Ext(fh.Filename))
	if format, ok := constants.FormatForExt(ext); !ok || format != constants.FormatSpreadsheet {
		return fiber.NewError(fiber.StatusBadRequest, "templates must be .xls or .xlsx spreadsheets")
	}
	if fh.Size > s.cfg.Storage.MaxUploadBytes {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "file exceeds upload limit")
	}

	name := strings.TrimSpace(c.FormValue("name"))
	if name == "" {
		name = strings.TrimSuffix(fh.Filename, filepath.Ext(fh.Filename))
	}
	description := c.FormValue("description")

	v := common.NewValidator()
	v.Field("name", name, common.Required, common.MaxLen(maxTemplateNameLen))
	v.Field("description", description, common.MaxLen(maxTemplateDescriptionLen))
	if err := common.ValidateAndReturnError(v); err != nil {
		return err
	}

	src, err := fh.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not read upload")
	}
	defer func() { _ = src.Close() }()

	key := storage.ObjectKey(storage.PrefixTemplates, fh.Filename)
	if _, err := s.store.Save(c.Context(), key, src); err != nil {
		return err
	}

	tmpl := &repository.Template{
		Name:             name,
		Description:      description,
		FilePath:         key,
		OriginalFilename: fh.Filename,
		UploadedBy:       userID,
		IsActive:         true,
	}
	if err := s.templates.Create(c.Context(), tmpl); err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"template": tmpl})
}

func (s *Server) listTemplates(c *fiber.Ctx) error {
	userID, err := s.userID(c)
	if err != nil {
		return err
	}

	ts, err := s.templates.List(c.Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"templates": ts})
}

func (s *Server) getTemplate(c *fiber.Ctx) error {
	userID, id, err := s.templateParams(c)
	if err != nil {
		return err
	}

	tmpl, err := s.templates.GetByID(c.Context(), id, userID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"template": tmpl})
}

func (s *Server) updateTemplate(c *fiber.Ctx) error {
	userID, id, err := s.templateParams(c)
	if err != nil {
		return err
	}

	var body struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		IsActive    *bool   `json:"is_active"`
	}
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	v := common.NewValidator()
	if body.Name != nil {
		v.Field("name", body.Name, common.Required, common.MaxLen(maxTemplateNameLen))
	}
	if body.Description != nil {
		v.Field("description", body.Description, common.MaxLen(maxTemplateDescriptionLen))
	}
	if err := common.ValidateAndReturnError(v); err != nil {
		return err
	}

	tmpl, err := s.templates.Update(c.Context(), id, userID, repository.TemplateUpdate{
		Name:        body.Name,
		Description: body.Description,
		IsActive:    body.IsActive,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"template": tmpl})
}

func (s *Server) deleteTemplate(c *fiber.Ctx) error {
	userID, id, err := s.templateParams(c)
	if err != nil {
		return err
	}

	tmpl, err := s.templates.GetByID(c.Context(), id, userID)
	if err != nil {
		return err
	}
	if err := s.templates.Delete(c.Context(), id, userID); err != nil {
		return err
	}

	// stored file removal is best-effort; the row is already gone
	if err := s.store.Delete(c.Context(), tmpl.FilePath); err != nil && !errors.Is(err, common.ErrNotFound) {
		s.logger.Warn("http.template_file_delete_failed",
			"template_id", id.String(), "key", tmpl.FilePath, "error", err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) templateParams(c *fiber.Ctx) (string, uuid.UUID, error) {
	userID, err := s.userID(c)
	if err != nil {
		return "", uuid.Nil, err
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return "", uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid template id")
	}
	return userID, id, nil
}
