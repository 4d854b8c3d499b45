package handlers

import (
	"strings"
	"time"

	applog "rentalhub/internal/log"
	"rentalhub/internal/services"
	"rentalhub/internal/store"
	"rentalhub/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type CartHandler struct {
	Cart *services.CartService
}

type lineRequest struct {
	Key         string `json:"key" form:"key"`
	ProductID   string `json:"productId" form:"productId"`
	Quantity    int    `json:"quantity" form:"quantity"`
	RentalStart string `json:"rentalStart" form:"rentalStart"`
	RentalEnd   string `json:"rentalEnd" form:"rentalEnd"`
	On          bool   `json:"on" form:"on"`
}

var whenLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

// parseWhen accepts RFC 3339 and the browser's datetime-local and date values.
// Zero means missing or unparseable.
func parseWhen(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, l := range whenLayouts {
		if t, err := time.ParseInLocation(l, s, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}

func (h *CartHandler) payload(c *fiber.Ctx, s store.State) error {
	return c.JSON(fiber.Map{
		"cart":   services.View(s),
		"toasts": h.Cart.Store.DrainToasts(sidOf(c)),
	})
}

func (h *CartHandler) parse(c *fiber.Ctx) (lineRequest, bool) {
	var in lineRequest
	if err := c.BodyParser(&in); err != nil {
		applog.Security(c, "validation.fail", map[string]any{"field": "body"})
		return in, false
	}
	return in, true
}

func badRequest(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": true, "message": "Invalid request"})
}

// GET /cart
func (h *CartHandler) View(c *fiber.Ctx) error {
	s, err := h.Cart.Ensure(c.UserContext(), sidOf(c))
	if err != nil {
		return fail(c, "cart.view", err)
	}
	return render(c, "cart", fiber.Map{"Cart": services.View(s)})
}

// GET /api/v1/cart
func (h *CartHandler) Get(c *fiber.Ctx) error {
	load := h.Cart.Ensure
	if c.QueryBool("reload") {
		load = h.Cart.Load
	}
	s, err := load(c.UserContext(), sidOf(c))
	if err != nil {
		return fail(c, "cart.view", err)
	}
	return h.payload(c, s)
}

// POST /api/v1/cart/items
func (h *CartHandler) Add(c *fiber.Ctx) error {
	in, ok := h.parse(c)
	if !ok {
		return badRequest(c)
	}
	id, ok := validate.ID(in.ProductID)
	if !ok {
		return fail(c, "cart.add", validate.Errors{"productId": "is invalid"})
	}
	s, err := h.Cart.Add(c.UserContext(), sidOf(c), id, in.Quantity, parseWhen(in.RentalStart), parseWhen(in.RentalEnd))
	if err != nil {
		return fail(c, "cart.add", err)
	}
	applog.Audit(c, "cart.add", map[string]any{"product": id, "qty": in.Quantity})
	return h.payload(c, s)
}

// PATCH /api/v1/cart/items/quantity
func (h *CartHandler) Quantity(c *fiber.Ctx) error {
	in, ok := h.parse(c)
	if !ok {
		return badRequest(c)
	}
	s, err := h.Cart.UpdateQuantity(c.UserContext(), sidOf(c), in.Key, in.Quantity)
	if err != nil {
		return fail(c, "cart.quantity", err)
	}
	return h.payload(c, s)
}

// PATCH /api/v1/cart/items/dates
func (h *CartHandler) Dates(c *fiber.Ctx) error {
	in, ok := h.parse(c)
	if !ok {
		return badRequest(c)
	}
	s, err := h.Cart.EditDates(c.UserContext(), sidOf(c), in.Key, parseWhen(in.RentalStart), parseWhen(in.RentalEnd))
	if err != nil {
		return fail(c, "cart.dates", err)
	}
	return h.payload(c, s)
}

// DELETE /api/v1/cart/items
func (h *CartHandler) Remove(c *fiber.Ctx) error {
	in, ok := h.parse(c)
	if !ok {
		return badRequest(c)
	}
	s, err := h.Cart.Remove(c.UserContext(), sidOf(c), in.Key)
	if err != nil {
		return fail(c, "cart.remove", err)
	}
	applog.Audit(c, "cart.remove", map[string]any{"key": in.Key})
	return h.payload(c, s)
}

// POST /api/v1/cart/select
func (h *CartHandler) Toggle(c *fiber.Ctx) error {
	in, ok := h.parse(c)
	if !ok {
		return badRequest(c)
	}
	return h.payload(c, h.Cart.Toggle(sidOf(c), in.Key))
}

// POST /api/v1/cart/select-all
func (h *CartHandler) SelectAll(c *fiber.Ctx) error {
	in, ok := h.parse(c)
	if !ok {
		return badRequest(c)
	}
	return h.payload(c, h.Cart.SelectAll(sidOf(c), in.On))
}
