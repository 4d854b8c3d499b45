package handlers

import (
	"strings"

	applog "rentalhub/internal/log"
	"rentalhub/internal/money"
	"rentalhub/internal/services"
	"rentalhub/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type SearchHandler struct {
	Catalog *services.CatalogService
}

// filterFrom reads the listing sidebar from the query string.
func filterFrom(c *fiber.Ctx) (services.Filter, error) {
	f := services.Filter{
		Query:    validate.Q(c.Query("q")),
		Province: strings.TrimSpace(c.Query("province")),
	}
	errs := validate.Errors{}
	if raw := strings.TrimSpace(c.Query("category")); raw != "" {
		id, ok := validate.ID(raw)
		if !ok {
			errs.Add("category", "Invalid category")
		}
		f.CategoryID = id
	}
	if raw := strings.TrimSpace(c.Query("maxPrice")); raw != "" {
		v, err := money.Parse(raw)
		if err != nil || v < 0 {
			errs.Add("maxPrice", "Enter a valid price")
		}
		f.MaxPrice = float64(v)
	}
	for _, t := range strings.Split(c.Query("tags"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			f.Tags = append(f.Tags, t)
		}
	}
	return f, errs.Err()
}

// GET /
func (h *SearchHandler) Home(c *fiber.Ctx) error {
	f, err := filterFrom(c)
	if err != nil {
		applog.Security(c, "validation.fail", map[string]any{"field": "filter", "err": err.Error()})
		f = services.Filter{}
	}
	l, lerr := h.Catalog.Listing(c.UserContext(), f, c.QueryInt("page", 1), 0)
	if lerr != nil {
		return fail(c, "catalog.list", lerr)
	}
	data := fiber.Map{
		"L":       l,
		"Options": services.Options(services.NewCategoryService(nil).BuildTree(l.Categories)),
		"Tags":    strings.Join(f.Tags, ","),
		"Pager":   pager(c, l.Products.Page, l.Products.Pages),
	}
	if err != nil {
		data["Err"] = "Some filters were invalid and have been reset"
	}
	return render(c, "home", data)
}

// GET /api/v1/products
func (h *SearchHandler) List(c *fiber.Ctx) error {
	f, err := filterFrom(c)
	if err != nil {
		return fail(c, "catalog.list", err)
	}
	l, err := h.Catalog.Listing(c.UserContext(), f, c.QueryInt("page", 1), c.QueryInt("pageSize", 0))
	if err != nil {
		return fail(c, "catalog.list", err)
	}
	return c.JSON(fiber.Map{
		"items":     l.Products.Items,
		"page":      l.Products.Page,
		"pageSize":  l.Products.PageSize,
		"total":     l.Products.Total,
		"pages":     l.Products.Pages,
		"tags":      l.Tags,
		"provinces": l.Provinces,
	})
}
