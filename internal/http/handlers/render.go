package handlers

import (
	"html/template"
	"net/url"
	"strconv"
	"strings"
	"time"

	"rentalhub/internal/money"
	"rentalhub/internal/store"

	"github.com/gofiber/fiber/v2"
	html "github.com/gofiber/template/html/v2"
)

// Views loads the page templates with the helpers they use.
func Views(dir string) *html.Engine {
	engine := html.New(dir, ".html")
	engine.AddFunc("vnd", func(v any) string {
		switch n := v.(type) {
		case int64:
			return money.Format(n) + " ₫"
		case int:
			return money.Format(int64(n)) + " ₫"
		case float64:
			return money.FormatVND(n)
		}
		return ""
	})
	// amount prefills a currency input: grouped digits, no symbol.
	engine.AddFunc("amount", func(v float64) string {
		if v == 0 {
			return ""
		}
		return money.Format(money.Round(v))
	})
	engine.AddFunc("date", func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Local().Format("02/01/2006 15:04")
	})
	engine.AddFunc("inputTime", func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Local().Format("2006-01-02T15:04")
	})
	engine.AddFunc("join", strings.Join)
	engine.AddFunc("indent", func(depth int) string { return strings.Repeat("— ", depth) })
	return engine
}

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if u := c.Locals("user"); u != nil {
		data["User"] = u
	}
	// Pick up the token the CSRF middleware put into Locals, else the cookie.
	tok, _ := c.Locals("CSRFToken").(string)
	if tok == "" {
		tok = c.Cookies("csrf_")
	}
	if tok != "" {
		data["CSRFToken"] = tok
	}
	if st := storeOf(c); st != nil {
		data["Toasts"] = st.DrainToasts(sidOf(c))
	}
	return c.Render(tmpl, data)
}

func storeOf(c *fiber.Ctx) *store.Store {
	st, _ := c.Locals("store").(*store.Store)
	return st
}

func sidOf(c *fiber.Ctx) string {
	sid, _ := c.Locals("sid").(string)
	return sid
}

func snapshot(c *fiber.Ctx) store.State {
	if st := storeOf(c); st != nil {
		return st.Snapshot(sidOf(c))
	}
	return store.State{}
}

func isAPI(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Path(), "/api/")
}

// Pager links to the neighbouring pages, keeping the other query parameters.
type Pager struct {
	Page, Pages      int
	PrevURL, NextURL template.URL
}

func pager(c *fiber.Ctx, page, pages int) Pager {
	q, _ := url.ParseQuery(string(c.Request().URI().QueryString()))
	link := func(n int) template.URL {
		q.Set("page", strconv.Itoa(n))
		return template.URL("?" + q.Encode())
	}
	p := Pager{Page: page, Pages: pages}
	if page > 1 {
		p.PrevURL = link(page - 1)
	}
	if page < pages {
		p.NextURL = link(page + 1)
	}
	return p
}
