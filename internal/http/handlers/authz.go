package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	applog "nearauction/internal/log"
)

const sidCookie = "sid"

func ensureSID(c *fiber.Ctx) string {
	sid := c.Cookies(sidCookie)
	if sid == "" {
		sid = uuid.NewString()
		c.Cookie(&fiber.Cookie{
			Name:     sidCookie,
			Value:    sid,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
			Secure:   false,
			Expires:  time.Now().Add(30 * 24 * time.Hour),
		})
	}
	return sid
}

// WithSession resolves the browser's wallet session into Locals "session"
// and, when signed in, "account" and "is_admin".
func WithSession(w Wallet, isAdmin func(string) bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies(sidCookie)
		if sid == "" {
			return c.Next()
		}
		s, err := w.Session(c.UserContext(), sid)
		if err != nil {
			applog.Error(c, "session.resolve.fail", err, nil)
			return c.Next()
		}
		c.Locals("session", s)
		if s.SignedIn() {
			c.Locals("account", s.AccountID)
			c.Locals("is_admin", isAdmin(s.AccountID))
		}
		return c.Next()
	}
}

// RequireAdmin lets through accounts listed as administrators.
func RequireAdmin(isAdmin func(string) bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s := session(c)
		if !s.SignedIn() {
			return c.Redirect("/login")
		}
		if !isAdmin(s.AccountID) {
			applog.Security(c, "access.denied.admin", map[string]any{"account": s.AccountID})
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Access denied"})
		}
		return c.Next()
	}
}

// RequireAccount redirects anonymous browsers to the wallet sign-in.
func RequireAccount() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !session(c).SignedIn() {
			return c.Redirect("/login")
		}
		return c.Next()
	}
}
