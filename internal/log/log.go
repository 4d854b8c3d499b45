package log

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

type Config struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output io.Writer
}

var (
	mu     sync.RWMutex
	logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
)

// Init replaces the process logger. Safe to call more than once (tests do).
func Init(cfg Config) {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339

	mu.Lock()
	logger = zerolog.New(out).Level(lvl).With().Timestamp().Logger()
	mu.Unlock()
}

// Logger exposes the underlying logger for packages that log outside a request.
func Logger() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := logger
	return &l
}

func write(ev *zerolog.Event, c *fiber.Ctx, action string, err error, fields map[string]any) {
	if c != nil {
		ev = ev.Str("ip", c.IP()).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", c.Response().StatusCode())
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			ev = ev.Str("req_id", rid)
		}
		if sid, ok := c.Locals("sid").(string); ok && sid != "" {
			ev = ev.Str("sid", sid)
		}
	}
	if err != nil {
		ev = ev.Str("err", err.Error())
	}
	if len(fields) > 0 {
		ev = ev.Interface("fields", fields)
	}
	ev.Str("action", action).Send()
}

func Debug(c *fiber.Ctx, action string, fields map[string]any) {
	write(Logger().Debug(), c, action, nil, fields)
}

func Info(c *fiber.Ctx, action string, fields map[string]any) {
	write(Logger().Info(), c, action, nil, fields)
}

func Warn(c *fiber.Ctx, action string, fields map[string]any) {
	write(Logger().Warn(), c, action, nil, fields)
}

func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	write(Logger().Info().Str("kind", "audit"), c, action, nil, fields)
}

func Security(c *fiber.Ctx, action string, fields map[string]any) {
	write(Logger().Warn().Str("kind", "security"), c, action, nil, fields)
}

func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	write(Logger().Error(), c, action, err, fields)
}
