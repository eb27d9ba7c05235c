package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"nearauction/internal/accounts"
	"nearauction/internal/domain"
	applog "nearauction/internal/log"
)

type AccountsHandler struct {
	Wallet Wallet
}

func setKnownAccounts(c *fiber.Ctx, list []domain.KnownAccount) {
	c.Cookie(&fiber.Cookie{
		Name:     accounts.CookieName,
		Value:    accounts.Encode(list),
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(365 * 24 * time.Hour),
	})
}

// POST /accounts/switch signs the current account out and sends the browser
// to the wallet to pick another one.
func (h *AccountsHandler) Switch(c *fiber.Ctx) error {
	sid := ensureSID(c)
	list := accounts.DeactivateAll(accounts.Decode(c.Cookies(accounts.CookieName)))
	setKnownAccounts(c, list)
	if err := h.Wallet.Logout(sid); err != nil {
		applog.Error(c, "accounts.switch.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not switch account"})
	}
	applog.Audit(c, "accounts.switch", map[string]any{"known": len(list)})
	return c.Redirect("/login")
}
