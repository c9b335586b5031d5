package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/xin-kz910/SE-project/internal/middleware"
	"github.com/xin-kz910/SE-project/internal/models"
	"github.com/xin-kz910/SE-project/internal/realtime"
)

type Routes struct {
	Projects *ProjectHandler
	Files    *FileHandler
	Auth     *AuthHandler
	Google   *GoogleOAuthHandler // nil when Google sign-in is not configured
	Hub      *realtime.Hub
	Limiter  *middleware.IPRateLimiter
}

func (r *Routes) Mount(app fiber.Router, jwtSecret string) {
	app.Use(middleware.LoadSession(jwtSecret))

	limit := func(c *fiber.Ctx) error { return c.Next() }
	if r.Limiter != nil {
		limit = r.Limiter.Handler()
	}

	app.Get("/login", r.Auth.LoginForm)
	app.Post("/login", limit, r.Auth.Login)
	app.Get("/register", r.Auth.RegisterForm)
	app.Post("/register", limit, r.Auth.Register)
	app.Get("/logout", r.Auth.Logout)

	if r.Google != nil {
		app.Get("/auth/google/start", r.Google.GoogleStart)
		app.Get("/auth/google/callback", r.Google.GoogleCallback)
	}

	p := r.Projects
	client := middleware.RequireRoles(models.RoleClient)
	member := middleware.RequireLogin()

	app.Get("/", p.Index)
	app.Get("/projects/create", client, p.CreateForm)
	app.Post("/projects/create", member, p.Create)
	app.Get("/projects/:id", p.Show)
	app.Get("/projects/:id/edit", member, p.EditForm)
	app.Post("/projects/:id/edit", member, p.Edit)
	app.Post("/projects/:id/delete", member, p.Delete)
	app.Post("/projects/:id/award/:bid_id", member, p.Award)
	app.Post("/projects/:id/reopen_bids", member, p.ReopenBids)
	app.Post("/projects/:id/close", member, p.Close)
	app.Post("/projects/:id/reject", member, p.Reject)
	app.Post("/bids/:id", member, p.PlaceBid)
	app.Post("/deliveries/:id", member, p.Deliver)

	app.Get("/files/*", r.Files.Download)

	if r.Hub != nil {
		app.Get("/ws/notifications",
			middleware.RequireUser(),
			WebSocketUpgrade,
			websocket.New(realtime.ServeNotifications(r.Hub)),
		)
	}
}
