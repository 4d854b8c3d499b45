package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"rentalhub/internal/config"
	"rentalhub/internal/http/handlers"
	applog "rentalhub/internal/log"
	"rentalhub/internal/repos"
	"rentalhub/internal/services"
	"rentalhub/internal/store"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	var out io.Writer = os.Stdout
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			defer f.Close()
			out = io.MultiWriter(os.Stdout, f)
			log.SetOutput(out)
		}
	}
	applog.Init(applog.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: out})

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	api := repos.NewClient(cfg.BackendURL, cfg.HTTPTimeout)
	st := store.New(repos.NewSessionRepo(db))
	deps := handlers.NewDeps(cfg, api, st, services.SocketDialer(cfg.SocketURL))

	app := fiber.New(fiber.Config{
		Views:        handlers.Views(cfg.TemplatesDir),
		ErrorHandler: handlers.ErrorHandler,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		// Room for an avatar plus its multipart envelope; everything else is
		// held to 1 MiB below.
		BodyLimit: services.MaxAvatarBytes + 1<<20,
	})

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{Output: out}))
	app.Use(recover.New())
	app.Use(helmet.New())
	app.Use(handlers.LimitBody(1<<20, handlers.AvatarPath))
	app.Use("/api", cors.New(cors.Config{
		AllowMethods: "GET,POST,PUT,PATCH,DELETE",
		AllowHeaders: "Content-Type,X-Csrf-Token",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := string(c.Request().URI().Path())
			return strings.HasPrefix(p, "/static/") || strings.HasPrefix(p, "/ws/")
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.global.hit", nil)
			return fiber.ErrTooManyRequests
		},
	}))
	app.Use(csrf.New(csrf.Config{
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   false, // set true behind HTTPS
		ContextKey:     "csrf",
		Extractor:      handlers.CSRFToken,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"err": err.Error()})
			if strings.HasPrefix(c.Path(), "/api/") {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": true, "message": "Security check failed. Please refresh and try again."})
			}
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok, ok := c.Locals("csrf").(string); ok {
			c.Locals("CSRFToken", tok)
		}
		return c.Next()
	})

	app.Static("/static", "./web/static")
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })

	// ---------- App handlers ----------
	handlers.Register(app, deps, limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).Render("login", fiber.Map{"Err": "Too many attempts. Please try again later."})
		},
	}))

	// 404
	app.Use(func(c *fiber.Ctx) error {
		if strings.HasPrefix(c.Path(), "/api/") {
			return c.Status(404).JSON(fiber.Map{"error": true, "message": "Not found"})
		}
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Page not found"})
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go st.Janitor(ctx, time.Minute, cfg.SessionIdle, cfg.SessionTTL)
	go func() {
		<-ctx.Done()
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	applog.Info(nil, "server.start", map[string]any{"port": cfg.Port, "backend": cfg.BackendURL})
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
