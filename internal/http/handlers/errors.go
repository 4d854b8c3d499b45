package handlers

import (
	"errors"

	applog "rentalhub/internal/log"
	"rentalhub/internal/repos"
	"rentalhub/internal/services"
	"rentalhub/internal/store"
	"rentalhub/internal/validate"

	"github.com/gofiber/fiber/v2"
)

const unreachable = "Could not reach the rental service. Please try again."

// Rule violations the user can fix; shown as they are.
var userErrors = []error{
	services.ErrCompareTooFew,
	services.ErrCompareNoCategory,
	services.ErrCompareMixedCategory,
	services.ErrReasonRequired,
	services.ErrUnknownAction,
	services.ErrEmptyMessage,
	services.ErrWrongPassword,
	services.ErrAvatarType,
}

func statusOf(err error) int {
	var (
		verrs   validate.Errors
		cascade *services.CascadeRequired
		apiErr  *repos.APIError
	)
	switch {
	case errors.Is(err, repos.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, repos.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, repos.ErrNotFound), errors.Is(err, services.ErrLineNotFound), errors.Is(err, services.ErrNoRoom):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrAvatarTooLarge):
		return fiber.StatusRequestEntityTooLarge
	case errors.As(err, &verrs):
		return fiber.StatusBadRequest
	case errors.As(err, &cascade):
		return fiber.StatusConflict
	case errors.As(err, &apiErr):
		if apiErr.Status >= 400 && apiErr.Status < 500 {
			return apiErr.Status
		}
		return fiber.StatusBadGateway
	}
	for _, e := range userErrors {
		if errors.Is(err, e) {
			return fiber.StatusUnprocessableEntity
		}
	}
	return fiber.StatusBadGateway
}

func messageOf(err error, code int) string {
	switch code {
	case fiber.StatusBadGateway:
		return unreachable
	case fiber.StatusBadRequest:
		return "Please check the highlighted fields"
	case fiber.StatusNotFound:
		return "This item is no longer available"
	}
	return err.Error()
}

// fail answers a failed operation. A rejected token ends the session; other
// errors become a JSON error body or the error page.
func fail(c *fiber.Ctx, action string, err error) error {
	code := statusOf(err)
	msg := messageOf(err, code)

	if code == fiber.StatusUnauthorized {
		applog.Security(c, "session.expired", map[string]any{"action": action})
		if st := storeOf(c); st != nil {
			st.Dispatch(sidOf(c), store.ClearSession{})
		}
		if isAPI(c) {
			return c.Status(code).JSON(fiber.Map{"error": true, "message": msg})
		}
		return c.Redirect("/login")
	}

	if code >= 500 {
		applog.Error(c, action+".fail", err, nil)
	} else {
		applog.Info(c, action+".rejected", map[string]any{"status": code, "reason": err.Error()})
	}
	if code == fiber.StatusForbidden {
		applog.Security(c, "access.denied", map[string]any{"action": action})
	}

	if isAPI(c) {
		body := fiber.Map{"error": true, "message": msg}
		var verrs validate.Errors
		if errors.As(err, &verrs) {
			body["fields"] = verrs
		}
		var cascade *services.CascadeRequired
		if errors.As(err, &cascade) {
			body["confirm"] = true
			body["descendants"] = cascade.Descendants
		}
		return c.Status(code).JSON(body)
	}
	c.Status(code)
	return render(c, "notfound", fiber.Map{"Message": msg})
}

// ErrorHandler catches what escapes the handlers. Internals are logged only.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Something went wrong. Please try again."
	var ferr *fiber.Error
	if errors.As(err, &ferr) && ferr.Code < 500 {
		code = ferr.Code
		msg = ferr.Message
		if code == fiber.StatusNotFound {
			msg = "Page not found"
		}
	} else {
		applog.Error(c, "server.error", err, nil)
	}
	if isAPI(c) {
		return c.Status(code).JSON(fiber.Map{"error": true, "message": msg})
	}
	if rerr := c.Status(code).Render("notfound", fiber.Map{"Message": msg}); rerr != nil {
		return c.Status(code).SendString(msg)
	}
	return nil
}
