package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/xin-kz910/SE-project/internal/middleware"
)

// Deliver handles POST /deliveries/:id (multipart "file" and "note").
func (h *ProjectHandler) Deliver(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	_, err = h.Engine.Deliver(c.UserContext(), middleware.CurrentUser(c), id, formUpload(c, "file"), c.FormValue("note"))
	return afterTransition(c, err, projectURL(id))
}
