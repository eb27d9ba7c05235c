package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"nearauction/internal/contract"
	applog "nearauction/internal/log"
	"nearauction/internal/near"
)

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if acc, ok := c.Locals("account").(string); ok && acc != "" {
		data["Account"] = acc
	}
	if admin, ok := c.Locals("is_admin").(bool); ok {
		data["IsAdmin"] = admin
	}
	// Pick up the token the CSRF middleware put into Locals
	tok, _ := c.Locals("CSRFToken").(string)
	if tok == "" {
		tok = c.Cookies("csrf_")
	}
	if tok != "" {
		data["CSRFToken"] = tok
	}
	return c.Render(tmpl, data)
}

func session(c *fiber.Ctx) *contract.Session {
	if s, ok := c.Locals("session").(*contract.Session); ok && s != nil {
		return s
	}
	return &contract.Session{}
}

// bridgeFailure maps a failed mutating call to a response.
func bridgeFailure(c *fiber.Ctx, action string, err error) error {
	switch {
	case errors.Is(err, contract.ErrNoSession):
		return c.Redirect("/login")
	case errors.Is(err, contract.ErrBusy):
		applog.Security(c, action+".busy", nil)
		return c.Status(fiber.StatusConflict).Render("notfound", fiber.Map{
			"Message": "That action is already in progress. Please wait for it to finish.",
		})
	case errors.Is(err, near.ErrInvalidAmount):
		applog.Security(c, "validation.fail", map[string]any{"field": "amount"})
		return c.Status(fiber.StatusBadRequest).Render("notfound", fiber.Map{"Message": "Please enter a valid amount."})
	}
	applog.Error(c, action+".fail", err, nil)
	return c.Status(fiber.StatusBadGateway).Render("notfound", fiber.Map{
		"Message": "The auction contract could not be reached. Please try again.",
	})
}
