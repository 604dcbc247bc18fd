package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/truststack/scorer/internal/rubric"
)

type RubricHandler struct {
	store *rubric.Store
}

func NewRubricHandler(store *rubric.Store) *RubricHandler {
	return &RubricHandler{store: store}
}

func (h *RubricHandler) HandleGetRubric(c *fiber.Ctx) error {
	return c.JSON(h.store.Rubric())
}

// HandleReloadRubric re-reads the rubric file and returns the now-active
// version. Reload never fails; a bad file falls back to the default.
func (h *RubricHandler) HandleReloadRubric(c *fiber.Ctx) error {
	r := h.store.Reload()
	return c.JSON(fiber.Map{
		"version":    r.Version,
		"attributes": len(r.Attributes),
	})
}
