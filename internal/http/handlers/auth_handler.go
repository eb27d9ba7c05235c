package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	applog "nearauction/internal/log"
	"nearauction/internal/wallet"
)

type AuthHandler struct {
	Wallet Wallet
}

// GET /login sends the browser to the wallet to approve a key for the
// contract.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	sid := ensureSID(c)
	u, err := h.Wallet.LoginURL(c.UserContext(), sid)
	if err != nil {
		applog.Error(c, "auth.login.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not start wallet sign-in"})
	}
	applog.Info(c, "auth.login.redirect", nil)
	return c.Redirect(u)
}

// GET /auth/callback
func (h *AuthHandler) Callback(c *fiber.Ctx) error {
	sid := c.Cookies(sidCookie)
	account := c.Query("account_id")
	err := h.Wallet.Complete(c.UserContext(), sid, c.Query("state"), account, c.Query("public_key"))
	if errors.Is(err, wallet.ErrBadState) {
		applog.Security(c, "auth.callback.reject", map[string]any{"account": account, "reason": err.Error()})
		return c.Status(fiber.StatusBadRequest).Render("notfound", fiber.Map{"Message": "Wallet sign-in could not be verified. Please try again."})
	}
	if err != nil {
		applog.Error(c, "auth.callback.fail", err, map[string]any{"account": account})
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not finish wallet sign-in"})
	}
	applog.Audit(c, "auth.login.success", map[string]any{"account": account})
	return c.Redirect("/")
}

// POST /logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sid := ensureSID(c)
	_ = h.Wallet.Logout(sid)
	// Expire cookie
	c.Cookie(&fiber.Cookie{
		Name:     sidCookie,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   false,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
	applog.Audit(c, "auth.logout", map[string]any{"sid": sid})
	return c.Redirect("/")
}
