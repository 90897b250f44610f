package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/youthcenters/internal/core/usecases"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // Error code: bad_request, not_found, internal_error, etc.
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

// errUnsupportedMedia returns a 415 error.
func errUnsupportedMedia(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusUnsupportedMediaType, "unsupported_media_type", msg)
}

// errUnauthorized returns a 401 error.
func errUnauthorized(c *fiber.Ctx, msg string) error {
	c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
	return newError(c, fiber.StatusUnauthorized, "unauthorized", msg)
}

// errInternal returns a 500 error. The cause is logged, not returned.
func errInternal(c *fiber.Ctx, err error) error {
	LoggerFromCtx(c.UserContext()).ErrorContext(c.UserContext(), "request failed",
		"path", c.Path(), "error", err)
	return newError(c, fiber.StatusInternalServerError, "internal_error", "internal server error")
}

// errFromService maps service errors to responses.
func errFromService(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, usecases.ErrInvalidLocation):
		return errBadRequest(c, err.Error())
	case errors.Is(err, usecases.ErrInvalidDataset):
		return newError(c, fiber.StatusUnprocessableEntity, "invalid_dataset", err.Error())
	}
	return errInternal(c, err)
}
