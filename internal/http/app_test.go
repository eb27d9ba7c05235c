package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"nearauction/internal/config"
	"nearauction/internal/contract"
	"nearauction/internal/domain"
	"nearauction/internal/http/handlers"
)

type fakeAuction struct {
	mu        sync.Mutex
	lots      contract.Result[[]domain.Lot]
	items     contract.Result[[]string]
	open      contract.Result[bool]
	changeErr error

	added     [][2]string
	started   int
	produced  int
	bids      []string
	bidHashes []string
}

func (f *fakeAuction) ListItems(context.Context, *contract.Session) contract.Result[[]string] {
	return f.items
}

func (f *fakeAuction) ListLots(_ context.Context, s *contract.Session) contract.Result[[]domain.Lot] {
	r := f.lots
	if !r.Failed() {
		r.Value = contract.NormalizeLots(r.Value, s.AccountID)
	}
	return r
}

func (f *fakeAuction) AuctionIsOpen(context.Context, *contract.Session) contract.Result[bool] {
	return f.open
}

func (f *fakeAuction) submission() contract.Result[contract.Submission] {
	if f.changeErr != nil {
		return contract.Result[contract.Submission]{Kind: contract.Failed, Err: f.changeErr}
	}
	return contract.Result[contract.Submission]{Kind: contract.OK, Value: contract.Submission{TxHash: "tx1"}}
}

func (f *fakeAuction) AddItem(_ context.Context, _ *contract.Session, item, minBid string) contract.Result[contract.Submission] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, [2]string{item, minBid})
	return f.submission()
}

func (f *fakeAuction) StartAuction(context.Context, *contract.Session) contract.Result[contract.Submission] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started++
	return f.submission()
}

func (f *fakeAuction) ProduceAuction(context.Context, *contract.Session) contract.Result[contract.Submission] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.produced++
	return f.submission()
}

func (f *fakeAuction) PlaceBid(_ context.Context, _ *contract.Session, itemHash, amountNEAR, _ string) contract.Result[contract.Submission] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bids = append(f.bids, amountNEAR)
	f.bidHashes = append(f.bidHashes, itemHash)
	if f.changeErr != nil {
		return contract.Result[contract.Submission]{Kind: contract.Failed, Err: f.changeErr}
	}
	return contract.Result[contract.Submission]{Kind: contract.OK, Value: contract.Submission{SignURL: "https://wallet.test/sign?transactions=abc"}}
}

type fakeWallet struct {
	sessions    map[string]*contract.Session
	completeErr error
	logouts     []string
}

func (w *fakeWallet) LoginURL(_ context.Context, sid string) (string, error) {
	return "https://wallet.test/login/?sid=" + sid, nil
}

func (w *fakeWallet) Complete(context.Context, string, string, string, string) error {
	return w.completeErr
}

func (w *fakeWallet) Logout(sid string) error {
	w.logouts = append(w.logouts, sid)
	delete(w.sessions, sid)
	return nil
}

func (w *fakeWallet) Session(_ context.Context, sid string) (*contract.Session, error) {
	if s, ok := w.sessions[sid]; ok {
		return s, nil
	}
	return &contract.Session{}, nil
}

type fakeCalls struct{}

func (fakeCalls) Latest(int) ([]domain.BridgeCall, error) {
	return []domain.BridgeCall{{AccountID: "admin.testnet", Action: "start_auction", Status: "SUBMITTED", TxHash: "tx0"}}, nil
}

// Sessions every test app knows about.
const (
	sidAdmin = "sid-admin"
	sidCarol = "sid-carol"
)

func newTestApp(t *testing.T, auction *fakeAuction) (*fiber.App, *fakeWallet) {
	t.Helper()
	cfg := config.Config{
		AdminAccounts: []string{"admin.testnet"},
		PublicURL:     "http://localhost:8080",
	}
	w := &fakeWallet{sessions: map[string]*contract.Session{
		sidAdmin: {AccountID: "admin.testnet"},
		sidCarol: {AccountID: "carol.testnet"},
	}}

	engine := html.New("../../web/templates", ".html")
	app := fiber.New(fiber.Config{Views: engine, ErrorHandler: handlers.ErrorHandler})
	app.Use(requestid.New())
	app.Use(limiter.New(limiter.Config{Max: 100, Expiration: 0}))
	app.Use(handlers.WithSession(w, cfg.IsAdmin))
	app.Use(csrf.New(csrf.Config{KeyLookup: "form:csrf", CookieName: "csrf_", CookieSameSite: "Lax"}))
	app.Use(func(c *fiber.Ctx) error {
		if tok := c.Locals("csrf"); tok != nil {
			c.Locals("CSRFToken", tok.(string))
		}
		return c.Next()
	})

	deps := handlers.NewDeps(cfg, auction, w, fakeCalls{})
	app.Get("/", deps.MainHandler.Home)
	app.Post("/lots/:hash/bid", handlers.RequireAccount(), deps.LotsHandler.Bid)
	app.Get("/bid/done", deps.LotsHandler.Done)
	app.Post("/accounts/switch", deps.AccountsHandler.Switch)
	api := app.Group("/api/v1")
	api.Get("/lots", deps.LotsHandler.List)
	api.Get("/auction", deps.LotsHandler.State)
	app.Get("/login", deps.AuthHandler.Login)
	app.Get("/auth/callback", deps.AuthHandler.Callback)
	app.Post("/logout", deps.AuthHandler.Logout)

	admin := app.Group("/admin", handlers.RequireAdmin(cfg.IsAdmin))
	admin.Get("/", deps.AdminHandler.Dashboard)
	admin.Post("/items", deps.AdminHandler.AddItem)
	admin.Post("/auction/start", deps.AdminHandler.Start)
	admin.Post("/auction/produce", deps.AdminHandler.Produce)
	return app, w
}

func extractCookie(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func csrfToken(t *testing.T, app *fiber.App) string {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatal(err)
	}
	tok := extractCookie(resp, "csrf_")
	if tok == "" {
		t.Fatal("csrf token missing")
	}
	return tok
}

// postForm sends a CSRF-protected form as the browser holding sid.
func postForm(t *testing.T, app *fiber.App, path, sid, form string, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	tok := csrfToken(t, app)
	body := "csrf=" + tok
	if form != "" {
		body += "&" + form
	}
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "csrf_", Value: tok})
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func get(t *testing.T, app *fiber.App, path, sid string, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func okLots(lots ...domain.Lot) contract.Result[[]domain.Lot] {
	if len(lots) == 0 {
		return contract.Result[[]domain.Lot]{Kind: contract.Empty}
	}
	return contract.Result[[]domain.Lot]{Kind: contract.OK, Value: lots}
}

func isOpen(v bool) contract.Result[bool] {
	return contract.Result[bool]{Kind: contract.OK, Value: v}
}
