package middleware

import (
	"errors"

	"labstock-backend/internal/pkg/apperr"
	"labstock-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler is the global error handler. Errors that escape a handler are
// mapped to the standard error format: fiber errors keep their code, apperr
// errors map through their kind, everything else becomes a 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var fiberErr *fiber.Error
	var appErr *apperr.Error
	switch {
	case errors.As(err, &fiberErr):
		code = fiberErr.Code
		message = fiberErr.Message
	case errors.As(err, &appErr):
		code = apperr.StatusCode(appErr)
		message = appErr.Message
	}

	return response.Error(c, message, code, nil)
}
