package handlers

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/socialflow/configs"
	"github.com/maheshrc27/socialflow/internal/service"
)

const sessionTTL = 24 * time.Hour

type AuthHandler struct {
	s   service.AuthService
	cfg config.Config
}

func NewAuthHandler(cfg config.Config, service service.AuthService) *AuthHandler {
	return &AuthHandler{s: service, cfg: cfg}
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	authURL, err := h.s.LoginURL()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "facebook login is not configured",
		})
	}
	return c.Redirect(authURL)
}

// LoginCallbackHandler finishes the Facebook login, which also connects the user's pages.
func (h *AuthHandler) LoginCallbackHandler(c *fiber.Ctx) error {
	if reason := c.Query("error_reason"); reason != "" {
		return badRequest(c, "facebook login was cancelled: "+reason)
	}

	userID, err := h.s.LoginCallback(c.Context(), c.Query("code"), c.Query("state"))
	if err != nil {
		slog.Error("facebook callback failed", "error", err)
		return badRequest(c, "something went wrong")
	}

	token, err := service.SessionToken(h.cfg, userID, sessionTTL)
	if err != nil {
		return badRequest(c, "something went wrong")
	}

	c.Cookie(&fiber.Cookie{
		Name:     h.cfg.CookieName,
		Value:    token,
		HTTPOnly: true,
		Secure:   h.cfg.AppEnv == "production",
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
		Expires:  time.Now().Add(sessionTTL),
	})

	return c.Redirect(h.cfg.FrontendURL, fiber.StatusTemporaryRedirect)
}
