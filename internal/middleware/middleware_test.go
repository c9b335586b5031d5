package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/xin-kz910/SE-project/internal/models"
	"github.com/xin-kz910/SE-project/internal/utils"
)

const secret = "test-secret"

func newApp() *fiber.App {
	app := fiber.New()
	app.Use(LoadSession(secret))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		u := CurrentUser(c)
		if u == nil {
			return c.SendString("guest")
		}
		return c.SendString(u.Username() + ":" + string(u.Role()))
	})
	app.Get("/client", RequireRoles(models.RoleClient), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/member", RequireLogin(), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/ws", RequireUser(), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func cookieFor(t *testing.T, id uint, name, role string) *http.Cookie {
	t.Helper()
	tok, err := utils.SignJWT(secret, id, name, role, 60)
	if err != nil {
		t.Fatal(err)
	}
	return &http.Cookie{Name: utils.CookieName, Value: tok}
}

func TestSessionAndRoles(t *testing.T) {
	forged, _ := utils.SignJWT("other-secret", 1, "alice", "client", 60)

	tests := []struct {
		name     string
		path     string
		cookie   *http.Cookie
		status   int
		body     string
		location string
	}{
		{"guest whoami", "/whoami", nil, 200, "guest", ""},
		{"client whoami", "/whoami", cookieFor(t, 1, "alice", "client"), 200, "alice:client", ""},
		{"forged token is guest", "/whoami", &http.Cookie{Name: utils.CookieName, Value: forged}, 200, "guest", ""},
		{"unknown role is guest", "/whoami", cookieFor(t, 1, "alice", "admin"), 200, "guest", ""},
		{"guest to client page", "/client", nil, 302, "", "/login"},
		{"freelancer to client page", "/client", cookieFor(t, 2, "bob", "freelancer"), 302, "", "/"},
		{"client page", "/client", cookieFor(t, 1, "alice", "client"), 200, "ok", ""},
		{"guest member page", "/member", nil, 302, "", "/login"},
		{"freelancer member page", "/member", cookieFor(t, 2, "bob", "freelancer"), 200, "ok", ""},
		{"guest upgrade", "/ws", nil, 401, "", ""},
	}

	app := newApp()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.status {
				t.Fatalf("status=%d, want %d", resp.StatusCode, tt.status)
			}
			if tt.location != "" && resp.Header.Get("Location") != tt.location {
				t.Fatalf("Location=%q, want %q", resp.Header.Get("Location"), tt.location)
			}
			if tt.body != "" {
				buf := make([]byte, 64)
				n, _ := resp.Body.Read(buf)
				if got := string(buf[:n]); got != tt.body {
					t.Fatalf("body=%q, want %q", got, tt.body)
				}
			}
		})
	}
}

func TestIPRateLimiter(t *testing.T) {
	l := NewIPRateLimiter(1, 2)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	if !l.Allow("1.1.1.1") || !l.Allow("1.1.1.1") {
		t.Fatalf("burst of 2 should pass")
	}
	if l.Allow("1.1.1.1") {
		t.Fatalf("third call should be limited")
	}
	if !l.Allow("2.2.2.2") {
		t.Fatalf("other ip has its own bucket")
	}

	now = now.Add(time.Second)
	if !l.Allow("1.1.1.1") {
		t.Fatalf("one token refilled after 1s")
	}

	now = now.Add(time.Hour)
	l.Allow("3.3.3.3")
	if _, ok := l.visitors["2.2.2.2"]; ok {
		t.Fatalf("idle visitor should be dropped")
	}
}

func TestIPRateLimiter_Handler(t *testing.T) {
	app := fiber.New()
	app.Post("/login", NewIPRateLimiter(0.001, 1).Handler(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	codes := []int{}
	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
		if err != nil {
			t.Fatal(err)
		}
		codes = append(codes, resp.StatusCode)
	}
	if codes[0] != fiber.StatusNoContent || codes[1] != fiber.StatusTooManyRequests {
		t.Fatalf("codes=%v", codes)
	}
}
