package handlers

import (
	"context"

	"rentalhub/internal/domain"
	applog "rentalhub/internal/log"
	"rentalhub/internal/repos"
	"rentalhub/internal/services"
	"rentalhub/internal/validate"

	"github.com/gofiber/fiber/v2"
)

// AdminHandler serves discount codes and owner upgrade requests.
type AdminHandler struct {
	Discounts *services.DiscountService
	Requests  *services.OwnerRequestService
}

type toggleRequest struct {
	On bool `json:"on" form:"on"`
}

func resourceID(c *fiber.Ctx) (string, error) {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "id"})
		return "", validate.Errors{"id": "is invalid"}
	}
	return id, nil
}

// GET /admin/discounts
func (h *AdminHandler) DiscountsPage(c *fiber.Ctx) error {
	ds, err := h.Discounts.List(c.UserContext())
	if err != nil {
		return fail(c, "discount.list", err)
	}
	return render(c, "discounts", fiber.Map{"Discounts": ds})
}

// GET /api/v1/discounts
func (h *AdminHandler) ListDiscounts(c *fiber.Ctx) error {
	ds, err := h.Discounts.List(c.UserContext())
	if err != nil {
		return fail(c, "discount.list", err)
	}
	return c.JSON(ds)
}

// POST /api/v1/discounts
func (h *AdminHandler) CreateDiscount(c *fiber.Ctx) error {
	var in repos.DiscountInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c)
	}
	d, err := h.Discounts.Create(c.UserContext(), in)
	if err != nil {
		return fail(c, "discount.create", err)
	}
	applog.Audit(c, "discount.create", map[string]any{"code": d.Code})
	return c.Status(fiber.StatusCreated).JSON(d)
}

// PUT /api/v1/discounts/:id
func (h *AdminHandler) UpdateDiscount(c *fiber.Ctx) error {
	id, err := resourceID(c)
	if err != nil {
		return fail(c, "discount.update", err)
	}
	var in repos.DiscountInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c)
	}
	d, err := h.Discounts.Update(c.UserContext(), id, in)
	if err != nil {
		return fail(c, "discount.update", err)
	}
	applog.Audit(c, "discount.update", map[string]any{"id": id})
	return c.JSON(d)
}

// PATCH /api/v1/discounts/:id/active
func (h *AdminHandler) SetActive(c *fiber.Ctx) error {
	return h.toggle(c, "discount.active", h.Discounts.SetActive)
}

// PATCH /api/v1/discounts/:id/public
func (h *AdminHandler) SetPublic(c *fiber.Ctx) error {
	return h.toggle(c, "discount.public", h.Discounts.SetPublic)
}

func (h *AdminHandler) toggle(c *fiber.Ctx, action string, set func(ctx context.Context, id string, on bool) error) error {
	id, err := resourceID(c)
	if err != nil {
		return fail(c, action, err)
	}
	var in toggleRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c)
	}
	if err := set(c.UserContext(), id, in.On); err != nil {
		return fail(c, action, err)
	}
	applog.Audit(c, action, map[string]any{"id": id, "on": in.On})
	return c.JSON(fiber.Map{"success": true, "on": in.On})
}

// POST /api/v1/discounts/:id/users
func (h *AdminHandler) Assign(c *fiber.Ctx) error {
	id, err := resourceID(c)
	if err != nil {
		return fail(c, "discount.assign", err)
	}
	var in struct {
		UserIDs string `json:"userIds" form:"userIds"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c)
	}
	sent, err := h.Discounts.Assign(c.UserContext(), id, in.UserIDs)
	if err != nil {
		return fail(c, "discount.assign", err)
	}
	applog.Audit(c, "discount.assign", map[string]any{"id": id, "users": len(sent)})
	return c.JSON(fiber.Map{"success": true, "userIds": sent})
}

// GET /admin/owner-requests
func (h *AdminHandler) RequestsPage(c *fiber.Ctx) error {
	status := domain.OwnerRequestStatus(c.Query("status"))
	page, err := h.Requests.List(c.UserContext(), status, queryFrom(c))
	if err != nil {
		return fail(c, "owner_request.list", err)
	}
	return render(c, "owner_requests", fiber.Map{
		"Page": page, "Status": string(status), "Pager": pager(c, page.Page, page.Pages),
	})
}

// GET /api/v1/owner-requests
func (h *AdminHandler) ListRequests(c *fiber.Ctx) error {
	page, err := h.Requests.List(c.UserContext(), domain.OwnerRequestStatus(c.Query("status")), queryFrom(c))
	if err != nil {
		return fail(c, "owner_request.list", err)
	}
	return c.JSON(page)
}

// POST /api/v1/owner-requests
func (h *AdminHandler) CreateRequest(c *fiber.Ctx) error {
	var in repos.OwnerRequestInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c)
	}
	r, err := h.Requests.Create(c.UserContext(), in)
	if err != nil {
		return fail(c, "owner_request.create", err)
	}
	applog.Audit(c, "owner_request.create", map[string]any{"id": r.ID})
	return c.Status(fiber.StatusCreated).JSON(r)
}

// PATCH /api/v1/owner-requests/:id/approve
func (h *AdminHandler) ApproveRequest(c *fiber.Ctx) error {
	id, err := resourceID(c)
	if err != nil {
		return fail(c, "owner_request.approve", err)
	}
	if err := h.Requests.Approve(c.UserContext(), id); err != nil {
		return fail(c, "owner_request.approve", err)
	}
	applog.Audit(c, "owner_request.approve", map[string]any{"id": id})
	return c.JSON(fiber.Map{"success": true})
}

// PATCH /api/v1/owner-requests/:id/reject
func (h *AdminHandler) RejectRequest(c *fiber.Ctx) error {
	id, err := resourceID(c)
	if err != nil {
		return fail(c, "owner_request.reject", err)
	}
	var in struct {
		Reason string `json:"reason" form:"reason"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c)
	}
	if err := h.Requests.Reject(c.UserContext(), id, in.Reason); err != nil {
		return fail(c, "owner_request.reject", err)
	}
	applog.Audit(c, "owner_request.reject", map[string]any{"id": id})
	return c.JSON(fiber.Map{"success": true})
}
