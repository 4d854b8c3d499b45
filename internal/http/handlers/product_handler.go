package handlers

import (
	"strings"

	applog "rentalhub/internal/log"
	"rentalhub/internal/services"
	"rentalhub/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "product"})
		return c.Status(404).Render("notfound", fiber.Map{"Message": "This item is no longer available"})
	}
	d, err := h.Catalog.Detail(c.UserContext(), id)
	if err != nil {
		return fail(c, "product.detail", err)
	}
	return render(c, "product", fiber.Map{"D": d, "P": d.Product})
}

// GET /compare?ids=a,b
func (h *ProductHandler) ComparePage(c *fiber.Ctx) error {
	ids := strings.Split(c.Query("ids"), ",")
	cmp, err := h.Catalog.Compare(c.UserContext(), ids)
	if err != nil {
		if statusOf(err) == fiber.StatusUnprocessableEntity {
			c.Status(fiber.StatusUnprocessableEntity)
			return render(c, "compare", fiber.Map{"Err": err.Error()})
		}
		return fail(c, "product.compare", err)
	}
	return render(c, "compare", fiber.Map{"C": cmp})
}

// POST /api/v1/compare
func (h *ProductHandler) Compare(c *fiber.Ctx) error {
	var in struct {
		IDs []string `json:"ids"`
	}
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": true, "message": "Invalid request"})
	}
	cmp, err := h.Catalog.Compare(c.UserContext(), in.IDs)
	if err != nil {
		return fail(c, "product.compare", err)
	}
	return c.JSON(cmp)
}
