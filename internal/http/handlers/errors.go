package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "nearauction/internal/log"
)

const genericFailure = "Something went wrong. Please try again."

// ErrorHandler is the app-wide fiber error handler. Client errors raised by
// fiber keep their status and text; anything else becomes a 500 with a
// generic message so internal details never reach the page.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code, msg := fiber.StatusInternalServerError, genericFailure
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		code, msg = fe.Code, fe.Message
		applog.Info(c, "server.client_error", map[string]any{"status": code})
	} else {
		applog.Error(c, "server.error", err, nil)
	}
	if rerr := render(c.Status(code), "notfound", fiber.Map{"Message": msg}); rerr != nil {
		return c.Status(code).SendString(msg)
	}
	return nil
}
