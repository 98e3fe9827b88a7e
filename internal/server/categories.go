package server

import (
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/ladi-press/manuscript-eval/constants"
)

// listCategories returns the fixed category definitions in evaluation
// order. Static metadata, so no user scope is required.
func (s *Server) listCategories(c *fiber.Ctx) error {
	defs := constants.Definitions()
	out := make([]fiber.Map, len(defs))
	for i, def := range defs {
		out[i] = categoryPayload(def)
	}
	return c.JSON(fiber.Map{
		"categories": out,
		"order":      constants.AsStringSlice(),
	})
}

// getCategory resolves free-form input (ids and common synonyms such as
// "copy editing") onto a category definition.
func (s *Server) getCategory(c *fiber.Ctx) error {
	id, err := url.PathUnescape(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid category id")
	}
	cat, ok := constants.Canonicalize(id)
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "unknown category "+id)
	}
	def, ok := constants.DefinitionFor(cat)
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "unknown category "+id)
	}
	return c.JSON(fiber.Map{"category": categoryPayload(def)})
}

func categoryPayload(def constants.Definition) fiber.Map {
	return fiber.Map{
		"id":             def.ID,
		"title":          def.Title,
		"description":    def.Description,
		"default_prompt": def.DefaultPrompt,
	}
}
