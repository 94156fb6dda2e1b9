package middleware

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/socialflow/configs"
	"github.com/maheshrc27/socialflow/pkg/utils"
)

type AuthMiddleware struct {
	cfg      config.Config
	sessions *utils.TokenSigner
}

func NewAuthMiddleware(cfg config.Config) (*AuthMiddleware, error) {
	sessions, err := utils.NewTokenSigner(cfg.SecretKey, utils.AudienceSession)
	if err != nil {
		return nil, err
	}
	return &AuthMiddleware{cfg: cfg, sessions: sessions}, nil
}

// AuthMiddleware accepts the session cookie or an "Authorization: Bearer" token and
// stores the user id in c.Locals("user_id").
func (m *AuthMiddleware) AuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := c.Cookies(m.cfg.CookieName)
		fromCookie := tokenString != ""
		if !fromCookie {
			if auth := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(auth, "Bearer ") {
				tokenString = strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			}
		}

		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing session token",
			})
		}

		claims, err := m.sessions.Verify(tokenString)
		if err != nil || claims.UserID == "" {
			if fromCookie {
				c.Cookie(&fiber.Cookie{
					Name:   m.cfg.CookieName,
					Value:  "",
					Path:   "/",
					MaxAge: -1, // Delete cookie
				})
			}

			slog.Info("token validation failed", "error", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals("user_id", claims.UserID)
		return c.Next()
	}
}
