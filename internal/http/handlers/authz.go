package handlers

import (
	"time"

	applog "rentalhub/internal/log"
	"rentalhub/internal/repos"
	"rentalhub/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/google/uuid"
)

func ensureSID(c *fiber.Ctx) string {
	sid := c.Cookies("sid")
	if sid == "" {
		sid = uuid.NewString()
		c.Cookie(&fiber.Cookie{
			Name:     "sid",
			Value:    sid,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}
	return sid
}

func expireSID(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     "sid",
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
}

// Session binds the browser session to the store. When a token is held it is
// attached to the request context for adapter calls.
func Session(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := ensureSID(c)
		c.Locals("sid", sid)
		c.Locals("store", st)
		if s := st.Snapshot(sid); s.SignedIn() {
			c.Locals("token", s.Token)
			c.Locals("user", s.Identity)
			c.SetUserContext(repos.WithToken(c.UserContext(), s.Token))
		}
		return c.Next()
	}
}

// RequireSession sends anonymous visitors to the login page; JSON routes get 401.
func RequireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tok, _ := c.Locals("token").(string); tok != "" {
			return c.Next()
		}
		applog.Security(c, "access.denied", nil)
		if isAPI(c) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": true, "message": "Please sign in first"})
		}
		return c.Redirect("/login")
	}
}

// LimitBody rejects requests whose declared body exceeds n bytes.
func LimitBody(n int, skip ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		for _, p := range skip {
			if c.Path() == p {
				return c.Next()
			}
		}
		if c.Request().Header.ContentLength() > n || len(c.Body()) > n {
			applog.Security(c, "request.too_large", map[string]any{"length": c.Request().Header.ContentLength()})
			return fiber.ErrRequestEntityTooLarge
		}
		return c.Next()
	}
}

// CSRFToken extracts the csrf token: fetch calls send it as a header, forms
// post it as a field.
func CSRFToken(c *fiber.Ctx) (string, error) {
	if tok := c.Get("X-Csrf-Token"); tok != "" {
		return tok, nil
	}
	return csrf.CsrfFromForm("csrf")(c)
}
