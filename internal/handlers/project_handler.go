package handlers

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/xin-kz910/SE-project/internal/middleware"
	"github.com/xin-kz910/SE-project/internal/models"
	"github.com/xin-kz910/SE-project/internal/services/catalog"
	"github.com/xin-kz910/SE-project/internal/services/lifecycle"
	"github.com/xin-kz910/SE-project/internal/session"
)

type ProjectHandler struct {
	Engine  *lifecycle.Engine
	Catalog *catalog.Service
}

func NewProjectHandler(engine *lifecycle.Engine, cat *catalog.Service) *ProjectHandler {
	return &ProjectHandler{Engine: engine, Catalog: cat}
}

var deadlineLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02 15:04", "2006-01-02"}

// projectForm reads title, description, budget and deadline. Empty budget and
// deadline mean "not set".
func projectForm(c *fiber.Ctx) (lifecycle.ProjectInput, bool) {
	in := lifecycle.ProjectInput{
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
	}

	if raw := strings.TrimSpace(c.FormValue("budget")); raw != "" {
		b, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return in, false
		}
		in.Budget = &b
	}

	if raw := strings.TrimSpace(c.FormValue("deadline")); raw != "" {
		var parsed bool
		for _, layout := range deadlineLayouts {
			if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
				in.Deadline = &t
				parsed = true
				break
			}
		}
		if !parsed {
			return in, false
		}
	}
	return in, true
}

func userView(u *session.User) fiber.Map {
	if u == nil {
		return nil
	}
	return fiber.Map{"id": u.ID(), "username": u.Username(), "role": u.Role()}
}

// Index lists the viewer's tab together with the tab counters.
func (h *ProjectHandler) Index(c *fiber.Ctx) error {
	u := middleware.CurrentUser(c)
	listing, err := h.Catalog.List(c.UserContext(), u, catalog.ParseTab(c.Query("tab")))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"user":    userView(u),
			"listing": listing,
			"flags":   c.Queries(),
		},
	})
}

func (h *ProjectHandler) CreateForm(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"action": "/projects/create",
			"fields": []string{"title", "description", "budget", "deadline"},
			"flags":  c.Queries(),
		},
	})
}

func (h *ProjectHandler) Create(c *fiber.Ctx) error {
	in, ok := projectForm(c)
	if !ok {
		return c.Redirect("/projects/create?e="+string(lifecycle.ReasonInvalid), fiber.StatusFound)
	}

	p, err := h.Engine.Create(c.UserContext(), middleware.CurrentUser(c), in)
	if err != nil {
		return afterTransition(c, err, "/projects/create")
	}
	return c.Redirect(projectURL(p.ID), fiber.StatusFound)
}

func (h *ProjectHandler) Show(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	u := middleware.CurrentUser(c)
	detail, err := h.Catalog.Detail(c.UserContext(), u, id)
	if errors.Is(err, catalog.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "project not found")
	}
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"user":   userView(u),
			"detail": detail,
			"flags":  c.Queries(),
		},
	})
}

// EditForm returns the current values. It sends the owner back to the
// project when editing is no longer possible.
func (h *ProjectHandler) EditForm(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	detail, err := h.Catalog.Detail(c.UserContext(), middleware.CurrentUser(c), id)
	if errors.Is(err, catalog.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "project not found")
	}
	if err != nil {
		return err
	}

	back := projectURL(id)
	switch {
	case !detail.Permissions.IsOwner:
		return c.Redirect(withQuery(back, lifecycle.ReasonForbidden.QueryFlag()), fiber.StatusFound)
	case detail.Project.Status != models.ProjectOpen:
		return c.Redirect(withQuery(back, lifecycle.ReasonNotOpen.QueryFlag()), fiber.StatusFound)
	case len(detail.Bids) > 0:
		return c.Redirect(withQuery(back, lifecycle.ReasonEditLocked.QueryFlag()), fiber.StatusFound)
	}

	p := detail.Project
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"action":      back + "/edit",
			"title":       p.Title,
			"description": p.Description,
			"budget":      p.Budget,
			"deadline":    p.Deadline,
			"flags":       c.Queries(),
		},
	})
}

func (h *ProjectHandler) Edit(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	in, ok := projectForm(c)
	if !ok {
		return c.Redirect(withQuery(projectURL(id)+"/edit", lifecycle.ReasonInvalid.QueryFlag()), fiber.StatusFound)
	}

	if err := h.Engine.Edit(c.UserContext(), middleware.CurrentUser(c), id, in); err != nil {
		if lifecycle.IsKind(err, lifecycle.ValidationFailed) {
			return afterTransition(c, err, projectURL(id)+"/edit")
		}
		return afterTransition(c, err, projectURL(id))
	}
	return c.Redirect(projectURL(id), fiber.StatusFound)
}

func (h *ProjectHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := h.Engine.Delete(c.UserContext(), middleware.CurrentUser(c), id); err != nil {
		return afterTransition(c, err, projectURL(id))
	}
	return c.Redirect("/", fiber.StatusFound)
}

func (h *ProjectHandler) Award(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	bidID, err := paramID(c, "bid_id")
	if err != nil {
		return err
	}

	err = h.Engine.Award(c.UserContext(), middleware.CurrentUser(c), id, bidID)
	return afterTransition(c, err, projectURL(id))
}

func (h *ProjectHandler) ReopenBids(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	_, err = h.Engine.ReopenBids(c.UserContext(), middleware.CurrentUser(c), id)
	return afterTransition(c, err, projectURL(id))
}

func (h *ProjectHandler) Close(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	err = h.Engine.Close(c.UserContext(), middleware.CurrentUser(c), id)
	return afterTransition(c, err, projectURL(id))
}

func (h *ProjectHandler) Reject(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	err = h.Engine.Reject(c.UserContext(), middleware.CurrentUser(c), id)
	return afterTransition(c, err, projectURL(id))
}
