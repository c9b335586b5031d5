package handlers

import (
	"errors"
	"path"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/xin-kz910/SE-project/internal/middleware"
	"github.com/xin-kz910/SE-project/internal/services/catalog"
	"github.com/xin-kz910/SE-project/internal/storage"
)

type FileHandler struct {
	Store   storage.Store
	Catalog *catalog.Service
}

// Download streams a stored delivery or proposal to someone allowed to see it.
func (h *FileHandler) Download(c *fiber.Ctx) error {
	u := middleware.CurrentUser(c)
	if u == nil {
		return c.Redirect("/login", fiber.StatusFound)
	}

	key := strings.TrimPrefix(c.Params("*"), "/")
	ok, err := h.Catalog.CanRead(c.UserContext(), u, key)
	if err != nil {
		return err
	}
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "file not found")
	}

	rc, obj, err := h.Store.Get(c.UserContext(), key)
	if errors.Is(err, storage.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "file not found")
	}
	if err != nil {
		return err
	}

	contentType := obj.ContentType
	if contentType == "" {
		contentType = fiber.MIMEOctetStream
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+downloadName(key)+`"`)
	return c.SendStream(rc, int(obj.Size))
}

// downloadName drops the uuid prefix storage.NewKey adds.
func downloadName(key string) string {
	base := path.Base(key)
	if i := strings.IndexByte(base, '_'); i >= 0 && i < len(base)-1 {
		return base[i+1:]
	}
	return base
}
