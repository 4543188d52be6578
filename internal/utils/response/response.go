// Package response centralizes the JSON response shapes and the mapping
// from domain error codes to HTTP statuses.
package response

import (
	"errors"

	apperr "pavo/internal/errors"

	"github.com/gofiber/fiber/v2"
)

func Success(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(fiber.Map{
		"message": message,
		"data":    data,
	})
}

func Created(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": message,
		"data":    data,
	})
}

func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}

func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, message)
}

func ServerError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusInternalServerError, message)
}

func Unauthorized(c *fiber.Ctx) error {
	return Error(c, fiber.StatusUnauthorized, "Unauthorized")
}

// DomainError renders a domain error with its machine-readable code, plus
// optional extra fields merged into the body (e.g. the failed payment).
func DomainError(c *fiber.Ctx, err error, extra fiber.Map) error {
	var de *apperr.DomainError
	if !errors.As(err, &de) {
		return ServerError(c, "internal error")
	}

	body := fiber.Map{
		"error": de.Message,
		"code":  de.Code,
	}
	if de.Subcode != "" {
		body["subcode"] = de.Subcode
	}
	for k, v := range extra {
		body[k] = v
	}
	return c.Status(statusFor(de.Code)).JSON(body)
}

func statusFor(code string) int {
	switch code {
	case apperr.CodeValidation:
		return fiber.StatusBadRequest
	case apperr.CodeNotFound:
		return fiber.StatusNotFound
	case apperr.CodeForbidden:
		return fiber.StatusForbidden
	case apperr.CodeInsufficientBalance:
		return fiber.StatusUnprocessableEntity
	case apperr.CodeGateway:
		return fiber.StatusBadGateway
	case apperr.CodeAlreadyDecided, apperr.CodeStatusImmutable:
		return fiber.StatusConflict
	case apperr.CodeConflict:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}
