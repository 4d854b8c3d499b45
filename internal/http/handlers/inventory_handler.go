package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"rentalhub/internal/services"
	"rentalhub/internal/validate"
)

// InventoryHandler answers stock questions for the product page.
type InventoryHandler struct {
	Catalog *services.CatalogService
}

// GET /api/v1/availability?productId=
func (h *InventoryHandler) Check(c *fiber.Ctx) error {
	productID := strings.TrimSpace(c.Query("productId"))
	if productID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": true, "message": "missing productId"})
	}
	id, ok := validate.ID(productID)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": true, "message": "invalid productId"})
	}
	d, err := h.Catalog.Detail(c.UserContext(), id)
	if err != nil {
		return fail(c, "inventory.check", err)
	}
	return c.JSON(d.Availability)
}
