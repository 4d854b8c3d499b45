package handlers

import (
	applog "rentalhub/internal/log"
	"rentalhub/internal/services"
	"rentalhub/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type ModerationHandler struct {
	Mod *services.ModerationService
}

func queryFrom(c *fiber.Ctx) services.Query {
	return services.Query{
		Search:   validate.Q(c.Query("search")),
		Sort:     services.SortKey(c.Query("sort", string(services.SortDate))),
		Desc:     c.QueryBool("desc"),
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("pageSize", 10),
	}
}

// GET /moderation
func (h *ModerationHandler) PendingPage(c *fiber.Ctx) error {
	q := queryFrom(c)
	page, err := h.Mod.Pending(c.UserContext(), q)
	if err != nil {
		return fail(c, "moderation.pending", err)
	}
	return render(c, "moderation", fiber.Map{
		"Page": page, "Q": q, "Sizes": services.PageSizes, "Pager": pager(c, page.Page, page.Pages),
	})
}

// GET /api/v1/moderation/pending
func (h *ModerationHandler) Pending(c *fiber.Ctx) error {
	page, err := h.Mod.Pending(c.UserContext(), queryFrom(c))
	if err != nil {
		return fail(c, "moderation.pending", err)
	}
	return c.JSON(page)
}

// GET /moderation/products/:id
func (h *ModerationHandler) DetailPage(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, "moderation.detail", validate.Errors{"id": "is invalid"})
	}
	p, err := h.Mod.Detail(c.UserContext(), id)
	if err != nil {
		return fail(c, "moderation.detail", err)
	}
	return render(c, "moderation_detail", fiber.Map{"P": p})
}

type confirmRequest struct {
	Action  string `json:"action" form:"action"`
	Reason  string `json:"reason" form:"reason"`
	On      bool   `json:"on" form:"on"`
	Confirm bool   `json:"confirm" form:"confirm"`
}

// POST /api/v1/moderation/products/:id/decision
// Without confirm the answer is the prompt to show; nothing is sent.
func (h *ModerationHandler) Decide(c *fiber.Ctx) error {
	var in confirmRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c)
	}
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, "moderation.decide", validate.Errors{"id": "is invalid"})
	}
	conf, err := h.Mod.Decide(c.UserContext(), id, services.Decision(in.Action), in.Reason, in.Confirm)
	if err != nil {
		return fail(c, "moderation.decide", err)
	}
	if conf.Done {
		applog.Audit(c, "moderation."+in.Action, map[string]any{"product": id, "reason": conf.Reason})
	}
	return c.JSON(conf)
}

// GET /moderation/highlights
func (h *ModerationHandler) BoardPage(c *fiber.Ctx) error {
	q := queryFrom(c)
	page, err := h.Mod.Board(c.UserContext(), sidOf(c), q, c.QueryBool("reload"))
	if err != nil {
		return fail(c, "moderation.board", err)
	}
	return render(c, "highlights", fiber.Map{
		"Page": page, "Q": q, "Sizes": services.PageSizes, "Pager": pager(c, page.Page, page.Pages),
	})
}

// GET /api/v1/moderation/highlights
func (h *ModerationHandler) Board(c *fiber.Ctx) error {
	page, err := h.Mod.Board(c.UserContext(), sidOf(c), queryFrom(c), c.QueryBool("reload"))
	if err != nil {
		return fail(c, "moderation.board", err)
	}
	return c.JSON(page)
}

// POST /api/v1/moderation/products/:id/highlight
func (h *ModerationHandler) Highlight(c *fiber.Ctx) error {
	var in confirmRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c)
	}
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, "moderation.highlight", validate.Errors{"id": "is invalid"})
	}
	conf, err := h.Mod.ToggleHighlight(c.UserContext(), sidOf(c), id, in.On, in.Confirm)
	if err != nil {
		return fail(c, "moderation.highlight", err)
	}
	if conf.Done {
		applog.Audit(c, "moderation."+string(conf.Action), map[string]any{"product": id})
	}
	return c.JSON(conf)
}
