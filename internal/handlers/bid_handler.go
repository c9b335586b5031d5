package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/xin-kz910/SE-project/internal/middleware"
	"github.com/xin-kz910/SE-project/internal/services/lifecycle"
)

// PlaceBid handles POST /bids/:id where :id is the project.
func (h *ProjectHandler) PlaceBid(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	price, err := strconv.ParseInt(strings.TrimSpace(c.FormValue("price")), 10, 64)
	if err != nil {
		return c.Redirect(withQuery(projectURL(id), lifecycle.ReasonInvalid.QueryFlag()), fiber.StatusFound)
	}

	_, err = h.Engine.PlaceBid(c.UserContext(), middleware.CurrentUser(c), id, lifecycle.BidInput{
		Price:    price,
		Message:  c.FormValue("message"),
		Proposal: formUpload(c, "proposal"),
	})
	return afterTransition(c, err, projectURL(id))
}
