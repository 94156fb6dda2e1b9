package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/socialflow/internal/repository"
	"github.com/maheshrc27/socialflow/internal/service"
	"github.com/maheshrc27/socialflow/internal/transfer"
)

type PostHandler struct {
	s         service.PostService
	analytics service.AnalyticsService
}

func NewPostHandler(service service.PostService, analytics service.AnalyticsService) *PostHandler {
	return &PostHandler{s: service, analytics: analytics}
}

func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var pc transfer.PostCreation
	if err := c.BodyParser(&pc); err != nil {
		return badRequest(c, "Unable to parse request body")
	}

	details, err := h.s.CreatePost(c.Context(), userID, &pc)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(details)
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	posts, err := h.s.List(c.Context(), GetUserID(c), c.Query("status"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(posts)
}

func (h *PostHandler) GetPost(c *fiber.Ctx) error {
	postID, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid post id")
	}

	details, err := h.s.PostInfo(c.Context(), postID, GetUserID(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(details)
}

func (h *PostHandler) GetPostAnalytics(c *fiber.Ctx) error {
	postID, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid post id")
	}
	if _, err := h.s.PostInfo(c.Context(), postID, GetUserID(c)); err != nil {
		return errorResponse(c, err)
	}

	analytics, err := h.analytics.GetPostAnalytics(c.Context(), postID)
	if err != nil {
		return errorResponse(c, err)
	}
	if analytics == nil {
		return errorResponse(c, repository.ErrNotFound)
	}
	return c.JSON(analytics)
}

func (h *PostHandler) GetPostHistory(c *fiber.Ctx) error {
	postID, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid post id")
	}

	history, err := h.s.History(c.Context(), postID, GetUserID(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(history)
}

// ListScheduled lists delivery units, optionally filtered by page, status and a
// scheduled_at range given as RFC3339 start and end.
func (h *PostHandler) ListScheduled(c *fiber.Ctx) error {
	filter := repository.UnitFilter{
		UserID: GetUserID(c),
		PageID: int64(c.QueryInt("page_id", 0)),
		Status: c.Query("status"),
	}

	for name, dst := range map[string]**time.Time{"start": &filter.Start, "end": &filter.End} {
		v := c.Query(name)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return badRequest(c, "invalid "+name+" time")
		}
		*dst = &t
	}

	units, err := h.s.ListUnits(c.Context(), filter)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(units)
}

func (h *PostHandler) RemoveScheduled(c *fiber.Ctx) error {
	unitID, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid scheduled post id")
	}

	if err := h.s.RemoveUnit(c.Context(), GetUserID(c), unitID); err != nil {
		return errorResponse(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
