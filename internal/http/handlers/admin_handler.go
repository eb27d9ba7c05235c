package handlers

import (
	"github.com/gofiber/fiber/v2"

	"nearauction/internal/contract"
	applog "nearauction/internal/log"
	"nearauction/internal/validate"
)

type AdminHandler struct {
	Auction Auction
	Calls   CallLog
}

// GET /admin
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	data := fiber.Map{}
	state := h.Auction.AuctionIsOpen(c.UserContext(), session(c))
	if state.Failed() {
		data["StateErr"] = "Could not read the auction state."
	} else {
		data["Open"] = state.Value
		data["Known"] = true
	}
	calls, err := h.Calls.Latest(25)
	if err != nil {
		applog.Error(c, "admin.calls.list.fail", err, nil)
	}
	data["Calls"] = calls
	if tx := c.Query("tx"); tx != "" {
		data["Flash"] = "Submitted transaction " + tx
	}
	return render(c, "admin", data)
}

// auctionOpen reports the contract state; ok is false when it could not be
// read and a response has been written.
func (h *AdminHandler) auctionOpen(c *fiber.Ctx) (open bool, ok bool, err error) {
	state := h.Auction.AuctionIsOpen(c.UserContext(), session(c))
	if state.Failed() {
		return false, false, bridgeFailure(c, "admin.auction.state", state.Err)
	}
	return state.Value, true, nil
}

func submitted(c *fiber.Ctx, action string, res contract.Result[contract.Submission], fields map[string]any) error {
	if res.Failed() {
		return bridgeFailure(c, action, res.Err)
	}
	if fields == nil {
		fields = map[string]any{}
	}
	fields["tx"] = res.Value.TxHash
	applog.Audit(c, action, fields)
	return c.Redirect("/admin?tx=" + res.Value.TxHash)
}

// POST /admin/items
func (h *AdminHandler) AddItem(c *fiber.Ctx) error {
	form := validate.NewAddItemForm(c.FormValue("item"), c.FormValue("min_bid"))
	if err := form.Validate(); err != nil {
		applog.Security(c, "validation.fail", map[string]any{"field": "add_item", "reason": err.Error()})
		return c.Status(fiber.StatusBadRequest).SendString("invalid input")
	}
	open, ok, err := h.auctionOpen(c)
	if !ok {
		return err
	}
	if !open {
		return c.Status(fiber.StatusConflict).Render("notfound", fiber.Map{"Message": "Start an auction before adding items."})
	}
	res := h.Auction.AddItem(c.UserContext(), session(c), form.Item, form.MinBid)
	return submitted(c, "admin.items.add", res, map[string]any{"item": form.Item, "min_bid": form.MinBid})
}

// POST /admin/auction/start
func (h *AdminHandler) Start(c *fiber.Ctx) error {
	open, ok, err := h.auctionOpen(c)
	if !ok {
		return err
	}
	if open {
		return c.Status(fiber.StatusConflict).Render("notfound", fiber.Map{"Message": "An auction is already running."})
	}
	return submitted(c, "admin.auction.start", h.Auction.StartAuction(c.UserContext(), session(c)), nil)
}

// POST /admin/auction/produce
func (h *AdminHandler) Produce(c *fiber.Ctx) error {
	open, ok, err := h.auctionOpen(c)
	if !ok {
		return err
	}
	if !open {
		return c.Status(fiber.StatusConflict).Render("notfound", fiber.Map{"Message": "There is no running auction to produce."})
	}
	return submitted(c, "admin.auction.produce", h.Auction.ProduceAuction(c.UserContext(), session(c)), nil)
}
