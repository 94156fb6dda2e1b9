package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/socialflow/internal/queue"
	"github.com/maheshrc27/socialflow/internal/repository"
	"github.com/maheshrc27/socialflow/internal/service"
	"github.com/maheshrc27/socialflow/internal/transfer"
)

// AdminHandler triggers token checks and analytics syncs outside their normal cadence.
type AdminHandler struct {
	client queue.Enqueuer
	posts  service.PostService
	pages  service.PageService
}

func NewAdminHandler(client queue.Enqueuer, posts service.PostService, pages service.PageService) *AdminHandler {
	return &AdminHandler{client: client, posts: posts, pages: pages}
}

func (h *AdminHandler) CheckTokens(c *fiber.Ctx) error {
	info, err := queue.EnqueueTokenCheck(h.client)
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Unable to schedule token check",
		})
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"task_id": info.ID,
	})
}

func (h *AdminHandler) SyncAnalytics(c *fiber.Ctx) error {
	var req transfer.AnalyticsSyncRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Unable to parse request body")
	}

	if req.PostID == 0 && req.PageID == 0 {
		return badRequest(c, "post_id or page_id is required")
	}

	// Only the owner may sync a post or page.
	userID := GetUserID(c)
	if req.PostID != 0 {
		if _, err := h.posts.PostInfo(c.Context(), req.PostID, userID); err != nil {
			return errorResponse(c, err)
		}
	}
	if req.PageID != 0 {
		owned, err := h.pages.Owns(c.Context(), userID, req.PageID)
		if err != nil {
			return errorResponse(c, err)
		}
		if !owned {
			return errorResponse(c, repository.ErrNotFound)
		}
	}

	var taskIDs []string
	if req.PostID != 0 {
		info, err := queue.EnqueuePostAnalytics(h.client, queue.PostAnalyticsPayload{PostID: req.PostID})
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Unable to schedule analytics sync"})
		}
		taskIDs = append(taskIDs, info.ID)
	}
	if req.PageID != 0 {
		info, err := queue.EnqueuePageAnalytics(h.client, queue.PageAnalyticsPayload{PageID: req.PageID})
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Unable to schedule analytics sync"})
		}
		taskIDs = append(taskIDs, info.ID)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"task_ids": taskIDs,
	})
}
