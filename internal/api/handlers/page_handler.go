package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/socialflow/internal/service"
	"github.com/maheshrc27/socialflow/internal/transfer"
)

type PageHandler struct {
	s service.PageService
}

func NewPageHandler(service service.PageService) *PageHandler {
	return &PageHandler{s: service}
}

func (h *PageHandler) ListPages(c *fiber.Ctx) error {
	pages, err := h.s.List(c.Context(), GetUserID(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(pages)
}

func (h *PageHandler) AddPage(c *fiber.Ctx) error {
	var pc transfer.PageCreation
	if err := c.BodyParser(&pc); err != nil {
		return badRequest(c, "Unable to parse request body")
	}

	page, err := h.s.Add(c.Context(), GetUserID(c), &pc)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(page)
}

func (h *PageHandler) RemovePage(c *fiber.Ctx) error {
	pageID, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid page id")
	}
	if err := h.s.Remove(c.Context(), GetUserID(c), pageID); err != nil {
		return errorResponse(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
