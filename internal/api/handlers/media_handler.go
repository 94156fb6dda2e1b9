package handlers

import (
	"io"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/socialflow/internal/service"
)

const maxUploadBytes = 100 * 1024 * 1024

type MediaHandler struct {
	s service.MediaService
}

func NewMediaHandler(service service.MediaService) *MediaHandler {
	return &MediaHandler{s: service}
}

func (h *MediaHandler) Upload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		slog.Error(err.Error())
		return badRequest(c, "No file selected")
	}
	if file.Size > maxUploadBytes {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"error": "File is too large",
		})
	}

	f, err := file.Open()
	if err != nil {
		return badRequest(c, "Unable to read file")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return badRequest(c, "Unable to read file")
	}

	media, err := h.s.UploadAsset(c.Context(), GetUserID(c), data, file.Filename)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(media)
}

func (h *MediaHandler) List(c *fiber.Ctx) error {
	media, err := h.s.List(c.Context(), GetUserID(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(media)
}

func (h *MediaHandler) Remove(c *fiber.Ctx) error {
	mediaID, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid media id")
	}
	if err := h.s.Remove(c.Context(), GetUserID(c), mediaID); err != nil {
		return errorResponse(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
