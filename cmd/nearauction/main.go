package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	cli "gopkg.in/urfave/cli.v1"

	"nearauction/internal/config"
	"nearauction/internal/contract"
	"nearauction/internal/http/handlers"
	applog "nearauction/internal/log"
	"nearauction/internal/repos"
	"nearauction/internal/wallet"
)

func main() {
	app := cli.App{
		Name:  "nearauction",
		Usage: "web front end for the NEAR auction contract",
		Flags: []cli.Flag{
			portFlag,
			dbFlag,
			logFileFlag,
			networkFlag,
			networksFileFlag,
			nodeURLFlag,
			contractFlag,
			adminsFlag,
			publicURLFlag,
		},
		Action: serve,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(ctx *cli.Context) error {
	cfg := config.Load()
	if err := applyFlags(ctx, &cfg); err != nil {
		return err
	}
	if err := applog.Init(cfg.LogFile); err != nil {
		applog.Error(nil, "log.file.fail", err, map[string]any{"file": cfg.LogFile})
	}
	logs := applog.Sugar()
	defer logs.Sync()

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	// ---------- Bridge ----------
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	calls := repos.NewBridgeCallRepo(db)

	dialCtx, cancel := context.WithTimeout(context.Background(), cfg.CallTimeout)
	bridge, client, err := contract.Dial(dialCtx, cfg.Network.NodeURL, contract.Options{
		ContractID: cfg.ContractName,
		WalletURL:  cfg.Network.WalletURL,
		Timeout:    cfg.CallTimeout,
		Logger:     logs,
		Metrics:    contract.NewMetrics(reg),
		Audit:      calls,
	})
	cancel()
	if err != nil {
		return fmt.Errorf("contract bridge: %w", err)
	}
	defer client.Close()

	walletSvc := wallet.NewService(repos.NewSessionRepo(db), repos.NewKeyStore(db, cfg.KeystoreSecret), client, wallet.Config{
		WalletURL:   cfg.Network.WalletURL,
		ContractID:  cfg.ContractName,
		PublicURL:   cfg.PublicURL,
		StateSecret: cfg.StateSecret,
	}, logs)

	// Templates & app
	engine := html.New("./web/templates", ".html")
	engine.Reload(true)

	app := fiber.New(fiber.Config{
		Views:        engine,
		ErrorHandler: handlers.ErrorHandler,
	})
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(handlers.WithSession(walletSvc, cfg.IsAdmin))
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := string(c.Request().URI().Path())
			return strings.HasPrefix(p, "/static/") || p == "/metrics" || p == "/healthz"
		},
	}))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   strings.HasPrefix(cfg.PublicURL, "https://"),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"form": c.FormValue("csrf")})
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok := c.Locals("csrf"); tok != nil {
			c.Locals("CSRFToken", tok.(string))
		}
		return c.Next()
	})

	app.Static("/static", "./web/static")

	// ---------- App handlers ----------
	deps := handlers.NewDeps(cfg, bridge, walletSvc, calls)

	app.Get("/", deps.MainHandler.Home)
	app.Post("/lots/:hash/bid", handlers.RequireAccount(), deps.LotsHandler.Bid)
	app.Get("/bid/done", deps.LotsHandler.Done)
	app.Post("/accounts/switch", deps.AccountsHandler.Switch)

	api := app.Group("/api/v1")
	api.Get("/lots", deps.LotsHandler.List)
	api.Get("/auction", deps.LotsHandler.State)

	// Wallet sign-in (throttled)
	app.Get("/login", limiter.New(limiter.Config{
		Max:        10,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).Render("notfound", fiber.Map{"Message": "Too many attempts. Please try again later."})
		},
	}), deps.AuthHandler.Login)
	app.Get("/auth/callback", deps.AuthHandler.Callback)
	app.Post("/logout", deps.AuthHandler.Logout)

	// Admin
	admin := app.Group("/admin", handlers.RequireAdmin(cfg.IsAdmin))
	admin.Get("/", deps.AdminHandler.Dashboard)
	admin.Post("/items", deps.AdminHandler.AddItem)
	admin.Post("/auction/start", deps.AdminHandler.Start)
	admin.Post("/auction/produce", deps.AdminHandler.Produce)

	// Health, metrics & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true, "contract": bridge.ContractID()}) })
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Page not found"})
	})

	sig, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	errc := make(chan error, 1)
	go func() { errc <- app.Listen(":" + cfg.Port) }()
	logs.Infow("listening", "port", cfg.Port, "network", cfg.NetworkID, "contract", cfg.ContractName)

	select {
	case err := <-errc:
		return err
	case <-sig.Done():
		logs.Infow("shutting down")
		return app.ShutdownWithTimeout(5 * time.Second)
	}
}
