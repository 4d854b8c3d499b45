package handlers

import (
	applog "rentalhub/internal/log"
	"rentalhub/internal/repos"
	"rentalhub/internal/services"
	"rentalhub/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type CategoryHandler struct {
	Cats *services.CategoryService
}

// GET /admin/categories
func (h *CategoryHandler) Page(c *fiber.Ctx) error {
	tree, _, err := h.Cats.Tree(c.UserContext())
	if err != nil {
		return fail(c, "category.tree", err)
	}
	return render(c, "categories", fiber.Map{"Tree": tree, "Options": services.Options(tree)})
}

// GET /api/v1/categories/tree
func (h *CategoryHandler) Tree(c *fiber.Ctx) error {
	tree, cats, err := h.Cats.Tree(c.UserContext())
	if err != nil {
		return fail(c, "category.tree", err)
	}
	return c.JSON(fiber.Map{"tree": tree, "count": len(cats), "fingerprint": services.Fingerprint(cats)})
}

func categoryID(c *fiber.Ctx) (string, error) {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "category"})
		return "", validate.Errors{"id": "is invalid"}
	}
	return id, nil
}

// POST /api/v1/categories
func (h *CategoryHandler) Add(c *fiber.Ctx) error {
	var in repos.CategoryInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c)
	}
	cat, err := h.Cats.Add(c.UserContext(), in)
	if err != nil {
		return fail(c, "category.add", err)
	}
	applog.Audit(c, "category.add", map[string]any{"id": cat.ID, "name": cat.Name})
	return c.Status(fiber.StatusCreated).JSON(cat)
}

// PUT /api/v1/categories/:id
func (h *CategoryHandler) Update(c *fiber.Ctx) error {
	id, err := categoryID(c)
	if err != nil {
		return fail(c, "category.update", err)
	}
	var in repos.CategoryInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c)
	}
	cat, err := h.Cats.Update(c.UserContext(), id, in)
	if err != nil {
		return fail(c, "category.update", err)
	}
	applog.Audit(c, "category.update", map[string]any{"id": id})
	return c.JSON(cat)
}

// DELETE /api/v1/categories/:id
func (h *CategoryHandler) Delete(c *fiber.Ctx) error {
	id, err := categoryID(c)
	if err != nil {
		return fail(c, "category.delete", err)
	}
	if err := h.Cats.Delete(c.UserContext(), id); err != nil {
		return fail(c, "category.delete", err)
	}
	applog.Audit(c, "category.delete", map[string]any{"id": id})
	return c.SendStatus(fiber.StatusNoContent)
}

// POST /api/v1/categories/:id/deactivate
// A category with children answers 409 with the descendant count until the
// request carries confirm.
func (h *CategoryHandler) Deactivate(c *fiber.Ctx) error {
	id, err := categoryID(c)
	if err != nil {
		return fail(c, "category.deactivate", err)
	}
	var in struct {
		Confirm bool `json:"confirm" form:"confirm"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badRequest(c)
		}
	}
	if err := h.Cats.Deactivate(c.UserContext(), id, in.Confirm); err != nil {
		return fail(c, "category.deactivate", err)
	}
	applog.Audit(c, "category.deactivate", map[string]any{"id": id, "cascade": in.Confirm})
	return c.JSON(fiber.Map{"success": true})
}
