package handlers

import (
	"errors"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/xin-kz910/SE-project/internal/services/lifecycle"
	"github.com/xin-kz910/SE-project/pkg/logger"
)

// ErrorHandler writes the JSON envelope for errors that reach fiber. Server
// errors are logged with the request id and their text is not sent back.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	}

	if code >= fiber.StatusInternalServerError {
		logger.Error().
			Err(err).
			Str("request_id", logger.RequestID(c)).
			Str("path", c.Path()).
			Msg("request failed")
	}

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"message": msg,
	})
}

// afterTransition redirects to target, adding the outcome flag when err is
// set. Storage failures are logged and only a reference id is shown.
func afterTransition(c *fiber.Ctx, err error, target string) error {
	if err == nil {
		return c.Redirect(target, fiber.StatusFound)
	}

	le := lifecycle.AsError(err)
	switch {
	case le.Kind == lifecycle.AuthenticationRequired:
		return c.Redirect("/login", fiber.StatusFound)
	case le.Kind == lifecycle.StorageError:
		rid := logger.RequestID(c)
		logger.Error().
			Err(le.Err).
			Str("request_id", rid).
			Str("path", c.Path()).
			Msg("transition failed")
		return c.Redirect(withQuery(target, "e=server&ref="+url.QueryEscape(rid)), fiber.StatusFound)
	case le.Reason == lifecycle.ReasonNotFound:
		return c.Redirect(withQuery("/", le.Reason.QueryFlag()), fiber.StatusFound)
	default:
		return c.Redirect(withQuery(target, le.Reason.QueryFlag()), fiber.StatusFound)
	}
}

func withQuery(target, q string) string {
	if strings.Contains(target, "?") {
		return target + "&" + q
	}
	return target + "?" + q
}

func projectURL(id uint) string {
	return "/projects/" + strconv.FormatUint(uint64(id), 10)
}

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.ErrNotFound
	}
	return uint(id), nil
}

// formUpload returns the first file sent under field, or nil when the request
// carries none.
func formUpload(c *fiber.Ctx, field string) *lifecycle.Upload {
	form, err := c.MultipartForm()
	if err != nil {
		return nil
	}
	files := form.File[field]
	if len(files) == 0 {
		return nil
	}

	fh := files[0]
	return &lifecycle.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}
