package handlers

import (
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"nearauction/internal/accounts"
	"nearauction/internal/contract"
	"nearauction/internal/domain"
	"nearauction/internal/near"
	"nearauction/internal/validate"
)

var sections = []string{"accounts", "auctions", "items"}

type MainHandler struct {
	Auction         Auction
	RefreshInterval time.Duration
}

// lotView is a lot with its bid rendered in NEAR.
type lotView struct {
	domain.Lot
	Bid string `json:"current_bid_near"`
}

func lotViews(lots []domain.Lot) []lotView {
	out := make([]lotView, 0, len(lots))
	for _, l := range lots {
		out = append(out, lotView{Lot: l, Bid: near.FormatNearAmount(l.CurrentBid)})
	}
	return out
}

// toggleHref returns the link that flips name in the expanded set.
func toggleHref(open map[string]bool, name string) string {
	var keep []string
	for _, s := range sections {
		if (s == name) != open[s] {
			keep = append(keep, s)
		}
	}
	sort.Strings(keep)
	if len(keep) == 0 {
		return "/?open="
	}
	return "/?" + url.Values{"open": {strings.Join(keep, ",")}}.Encode()
}

var flashes = map[string]string{
	"bid:sent":     "Your bid was sent to the wallet. It shows up here once the transaction is final.",
	"bid:rejected": "The wallet did not sign the bid.",
	"login:failed": "Wallet sign-in was cancelled.",
}

// GET /
func (h *MainHandler) Home(c *fiber.Ctx) error {
	ensureSID(c)
	s := session(c)
	ctx := c.UserContext()

	open := validate.Sections([]string{c.Query("open")})
	if !c.Request().URI().QueryArgs().Has("open") {
		open["auctions"] = true
	}
	toggles := map[string]string{}
	for _, name := range sections {
		toggles[name] = toggleHref(open, name)
	}

	data := fiber.Map{
		"Open":      open,
		"Toggle":    toggles,
		"RefreshMS": h.RefreshInterval.Milliseconds(),
	}
	for _, k := range []string{"bid", "login"} {
		if msg, ok := flashes[k+":"+c.Query(k)]; ok {
			data["Flash"] = msg
		}
	}

	lots := h.Auction.ListLots(ctx, s)
	if lots.Kind == contract.Failed {
		data["LotsErr"] = "Could not load lots from the contract."
	} else {
		data["Lots"] = lotViews(contract.BidEligible(lots.Value))
	}

	if s.SignedIn() {
		items := h.Auction.ListItems(ctx, s)
		if items.Kind == contract.Failed {
			data["ItemsErr"] = "Could not load your items."
		} else {
			data["Items"] = items.Value
		}
	}

	known := accounts.Refresh(accounts.Decode(c.Cookies(accounts.CookieName)), s.AccountID)
	setKnownAccounts(c, known)
	data["Accounts"] = known

	return render(c, "home", data)
}
