package handlers_test

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/stretchr/testify/require"

	"rentalhub/internal/config"
	"rentalhub/internal/domain"
	"rentalhub/internal/http/handlers"
	applog "rentalhub/internal/log"
	"rentalhub/internal/repos"
	"rentalhub/internal/services"
	"rentalhub/internal/store"
)

// harness is the app as main wires it, in front of a fake rental backend.
type harness struct {
	t     *testing.T
	app   *fiber.App
	store *store.Store
	csrf  string
	sid   string
}

func fakeBackend(t *testing.T, routes map[string]http.HandlerFunc) *repos.Client {
	t.Helper()
	mux := http.NewServeMux()
	for pattern, h := range routes {
		mux.HandleFunc(pattern, h)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return repos.NewClient(srv.URL+"/api", 2*time.Second)
}

func jsonBody(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}
}

func status(code int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
		_, _ = io.WriteString(w, body)
	}
}

func newHarness(t *testing.T, routes map[string]http.HandlerFunc, dial services.Dialer) *harness {
	t.Helper()
	api := fakeBackend(t, routes)
	st := store.New(nil)
	deps := handlers.NewDeps(config.Config{CartDebounce: 100 * time.Millisecond}, api, st, dial)

	app := fiber.New(fiber.Config{
		Views:        handlers.Views("../../web/templates"),
		ErrorHandler: handlers.ErrorHandler,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		BodyLimit:    services.MaxAvatarBytes + 1<<20,
	})
	app.Use(handlers.LimitBody(1<<20, handlers.AvatarPath))
	app.Use(csrf.New(csrf.Config{
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		ContextKey:     "csrf",
		Extractor:      handlers.CSRFToken,
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok, ok := c.Locals("csrf").(string); ok {
			c.Locals("CSRFToken", tok)
		}
		return c.Next()
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("sqlite: database disk image is malformed")
	})
	handlers.Register(app, deps, limiter.New(limiter.Config{Max: 2, Expiration: time.Minute}))

	h := &harness{t: t, app: app, store: st}
	resp := h.send(httptest.NewRequest(http.MethodGet, "/login", nil))
	for _, c := range resp.Cookies() {
		if c.Name == "csrf_" {
			h.csrf = c.Value
		}
	}
	require.NotEmpty(t, h.csrf, "csrf cookie")
	return h
}

func (h *harness) signIn() {
	h.sid = "s-" + strings.ReplaceAll(strings.ToLower(h.t.Name()), "/", "-")
	h.store.Dispatch(h.sid, store.SetSession{
		Token:    "tok-1",
		Identity: domain.Identity{ID: "u1", Email: "lan@thue.vn", FullName: "Nguyễn Lan"},
	})
}

func (h *harness) send(req *http.Request) *http.Response {
	h.t.Helper()
	if h.csrf != "" {
		req.AddCookie(&http.Cookie{Name: "csrf_", Value: h.csrf})
	}
	if h.sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: h.sid})
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(h.t, err)
	return resp
}

// call sends a JSON request the way app.js does.
func (h *harness) call(method, path, body string) (*http.Response, map[string]any) {
	h.t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Csrf-Token", h.csrf)
	resp := h.send(req)
	out := map[string]any{}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(h.t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp, out
}

// post submits a form with the csrf field, the way the templates do.
func (h *harness) post(path string, form url.Values) (*http.Response, string) {
	h.t.Helper()
	form.Set("csrf", h.csrf)
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp := h.send(req)
	raw, _ := io.ReadAll(resp.Body)
	return resp, string(raw)
}

type logLine struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	Fields map[string]any `json:"fields"`
}

// captureLogs points the process logger at a buffer for the rest of the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	applog.Init(applog.Config{Level: "debug", Output: &buf})
	t.Cleanup(func() { applog.Init(applog.Config{Level: "info", Output: io.Discard}) })
	return &buf
}

func logLines(t *testing.T, buf *bytes.Buffer) []logLine {
	t.Helper()
	var out []logLine
	sc := bufio.NewScanner(bytes.NewReader(buf.Bytes()))
	for sc.Scan() {
		var l logLine
		require.NoError(t, json.Unmarshal(sc.Bytes(), &l), sc.Text())
		out = append(out, l)
	}
	return out
}

func hasAction(lines []logLine, action string) bool {
	for _, l := range lines {
		if l.Action == action {
			return true
		}
	}
	return false
}
