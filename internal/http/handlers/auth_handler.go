package handlers

import (
	"errors"

	"rentalhub/internal/log"
	"rentalhub/internal/services"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	Auth *services.AuthService
	// Per-session state held outside the store, dropped on logout.
	Chat       *services.ChatService
	Moderation *services.ModerationService
}

func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	if tok, _ := c.Locals("token").(string); tok != "" {
		return c.Redirect("/")
	}
	return render(c, "login", fiber.Map{"Err": ""})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	sid := ensureSID(c)
	email := c.FormValue("email")
	_, err := h.Auth.Login(c.UserContext(), sid, email, c.FormValue("password"))
	if errors.Is(err, services.ErrBadCreds) {
		log.Security(c, "auth.login.fail", map[string]any{"email": email})
		return c.Status(fiber.StatusUnauthorized).Render("login", fiber.Map{
			"Err": "Invalid email or password", "Email": email, "CSRFToken": c.Cookies("csrf_"),
		})
	}
	if err != nil {
		log.Error(c, "auth.login.error", err, map[string]any{"email": email})
		return c.Status(fiber.StatusBadGateway).Render("login", fiber.Map{
			"Err": unreachable, "Email": email, "CSRFToken": c.Cookies("csrf_"),
		})
	}
	log.Audit(c, "auth.login.success", map[string]any{"email": email})
	return c.Redirect("/")
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sid := ensureSID(c)
	h.Auth.Logout(sid)
	if h.Chat != nil {
		h.Chat.Close(sid)
	}
	if h.Moderation != nil {
		h.Moderation.Forget(sid)
	}
	expireSID(c)
	log.Audit(c, "auth.logout", map[string]any{"sid": sid})
	return c.Redirect("/")
}
