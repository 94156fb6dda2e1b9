package middleware

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/socialflow/configs"
	"github.com/maheshrc27/socialflow/pkg/utils"
)

func newApp(t *testing.T, cfg config.Config) *fiber.App {
	t.Helper()
	m, err := NewAuthMiddleware(cfg)
	if err != nil {
		t.Fatalf("middleware: %v", err)
	}
	app := fiber.New()
	app.Use(m.AuthMiddleware())
	app.Get("/whoami", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("user_id").(string))
	})
	return app
}

func TestAuthMiddleware(t *testing.T) {
	cfg := config.Config{SecretKey: "secret", CookieName: "sf"}
	app := newApp(t, cfg)

	sessions, _ := utils.NewTokenSigner(cfg.SecretKey, utils.AudienceSession)
	token, err := sessions.Issue("42", time.Hour)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	other, _ := utils.NewTokenSigner("other", utils.AudienceSession)
	forged, _ := other.Issue("42", time.Hour)
	states, _ := utils.NewTokenSigner(cfg.SecretKey, utils.AudienceOAuthState)
	state, _ := states.Issue("oauth-state", time.Hour)

	cases := []struct {
		name   string
		cookie string
		bearer string
		status int
		body   string
	}{
		{name: "cookie", cookie: token, status: 200, body: "42"},
		{name: "bearer", bearer: token, status: 200, body: "42"},
		{name: "missing", status: 401},
		{name: "forged", bearer: forged, status: 401},
		{name: "oauth state", cookie: state, status: 401},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/whoami", nil)
			if tc.cookie != "" {
				req.Header.Set("Cookie", cfg.CookieName+"="+tc.cookie)
			}
			if tc.bearer != "" {
				req.Header.Set("Authorization", "Bearer "+tc.bearer)
			}

			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			if resp.StatusCode != tc.status {
				t.Fatalf("expected %d got %d", tc.status, resp.StatusCode)
			}
			if tc.body != "" {
				body, _ := io.ReadAll(resp.Body)
				if string(body) != tc.body {
					t.Fatalf("expected %q got %q", tc.body, body)
				}
			}
		})
	}
}

func TestNewAuthMiddlewareRequiresSecret(t *testing.T) {
	if _, err := NewAuthMiddleware(config.Config{CookieName: "sf"}); err == nil {
		t.Fatal("expected error without secret key")
	}
}
