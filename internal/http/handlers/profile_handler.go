package handlers

import (
	"io"

	applog "rentalhub/internal/log"
	"rentalhub/internal/services"

	"github.com/gofiber/fiber/v2"
)

type ProfileHandler struct {
	Profile *services.ProfileService
}

// GET /profile
func (h *ProfileHandler) Page(c *fiber.Ctx) error {
	p, err := h.Profile.Profile(c.UserContext())
	if err != nil {
		return fail(c, "profile.view", err)
	}
	return render(c, "profile", fiber.Map{"P": p})
}

// GET /api/v1/profile
func (h *ProfileHandler) Get(c *fiber.Ctx) error {
	p, err := h.Profile.Profile(c.UserContext())
	if err != nil {
		return fail(c, "profile.view", err)
	}
	return c.JSON(p)
}

// PUT /api/v1/profile/password
func (h *ProfileHandler) ChangePassword(c *fiber.Ctx) error {
	var in services.PasswordChange
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c)
	}
	if err := h.Profile.ChangePassword(c.UserContext(), in); err != nil {
		applog.Security(c, "profile.password.fail", nil)
		return fail(c, "profile.password", err)
	}
	applog.Audit(c, "profile.password", nil)
	return c.JSON(fiber.Map{"success": true})
}

// PUT /api/v1/profile/avatar (multipart field "avatar")
func (h *ProfileHandler) Avatar(c *fiber.Ctx) error {
	fh, err := c.FormFile("avatar")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": true, "message": "Choose an image to upload"})
	}
	if fh.Size > services.MaxAvatarBytes {
		return fail(c, "profile.avatar", services.ErrAvatarTooLarge)
	}
	f, err := fh.Open()
	if err != nil {
		return fail(c, "profile.avatar", err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, services.MaxAvatarBytes+1))
	if err != nil {
		return fail(c, "profile.avatar", err)
	}
	url, err := h.Profile.UploadAvatar(c.UserContext(), fh.Filename, data)
	if err != nil {
		return fail(c, "profile.avatar", err)
	}
	applog.Audit(c, "profile.avatar", map[string]any{"bytes": len(data)})
	return c.JSON(fiber.Map{"success": true, "avatar": url})
}
