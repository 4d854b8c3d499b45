package handlers

import (
	applog "rentalhub/internal/log"
	"rentalhub/internal/services"
	"rentalhub/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type OrderHandler struct {
	Order *services.OrderService
}

func (h *OrderHandler) load(c *fiber.Ctx) (services.OrderView, error) {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "order"})
		return services.OrderView{}, validate.Errors{"id": "is invalid"}
	}
	return h.Order.Detail(c.UserContext(), id)
}

// GET /orders/:id
func (h *OrderHandler) Detail(c *fiber.Ctx) error {
	v, err := h.load(c)
	if err != nil {
		return fail(c, "order.detail", err)
	}
	return render(c, "order", fiber.Map{"V": v, "O": v.Order})
}

// GET /api/v1/orders/:id
func (h *OrderHandler) Get(c *fiber.Ctx) error {
	v, err := h.load(c)
	if err != nil {
		return fail(c, "order.detail", err)
	}
	return c.JSON(v)
}
