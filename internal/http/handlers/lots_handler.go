package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"nearauction/internal/contract"
	applog "nearauction/internal/log"
	"nearauction/internal/validate"
)

type LotsHandler struct {
	Auction   Auction
	PublicURL string
}

// POST /lots/:hash/bid
func (h *LotsHandler) Bid(c *fiber.Ctx) error {
	hash, ok := validate.ItemHash(c.Params("hash"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "item_hash"})
		return c.Status(fiber.StatusBadRequest).Render("notfound", fiber.Map{"Message": "This lot is no longer available"})
	}
	amount, ok := validate.BidAmount(c.FormValue("amount"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "amount"})
		return c.Status(fiber.StatusBadRequest).Render("notfound", fiber.Map{"Message": "Please enter a valid amount."})
	}

	res := h.Auction.PlaceBid(c.UserContext(), session(c), hash, amount, h.PublicURL+"/bid/done")
	if res.Failed() {
		return bridgeFailure(c, "lot.bid", res.Err)
	}
	applog.Audit(c, "lot.bid.wallet", map[string]any{"item_hash": hash, "amount": amount})
	return c.Redirect(res.Value.SignURL)
}

// GET /bid/done is where the wallet returns after a bid was signed or
// rejected.
func (h *LotsHandler) Done(c *fiber.Ctx) error {
	if code := c.Query("errorCode"); code != "" {
		applog.Info(c, "lot.bid.rejected", map[string]any{"code": code, "message": c.Query("errorMessage")})
		return c.Redirect("/?open=auctions&bid=rejected")
	}
	hashes := strings.Split(c.Query("transactionHashes"), ",")
	applog.Audit(c, "lot.bid.signed", map[string]any{"tx": hashes})
	return c.Redirect("/?open=auctions&bid=sent")
}

// GET /api/v1/lots
func (h *LotsHandler) List(c *fiber.Ctx) error {
	res := h.Auction.ListLots(c.UserContext(), session(c))
	if res.Failed() {
		applog.Error(c, "api.lots.fail", res.Err, nil)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "could not load lots"})
	}
	return c.JSON(fiber.Map{"lots": lotViews(contract.BidEligible(res.Value))})
}

// GET /api/v1/auction
func (h *LotsHandler) State(c *fiber.Ctx) error {
	res := h.Auction.AuctionIsOpen(c.UserContext(), session(c))
	if res.Failed() {
		applog.Error(c, "api.auction.fail", res.Err, nil)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "could not load auction state"})
	}
	return c.JSON(fiber.Map{"open": res.Value})
}
