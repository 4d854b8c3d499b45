package repos

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

type tokenKey struct{}

// WithToken attaches the session's bearer token to outgoing adapter calls.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func TokenFrom(ctx context.Context) string {
	tok, _ := ctx.Value(tokenKey{}).(string)
	return tok
}

// Client talks JSON to the marketplace backend.
type Client struct {
	base   string
	http   *http.Client
	assets string
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	base := strings.TrimRight(baseURL, "/")
	return &Client{
		base:   base,
		http:   &http.Client{Timeout: timeout},
		assets: assetOrigin(base),
	}
}

// AssetURL resolves a backend-relative image/avatar path.
func (c *Client) AssetURL(p string) string { return resolveAsset(c.assets, p) }

func (c *Client) get(ctx context.Context, path string, q url.Values) (gjson.Result, error) {
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body any) (gjson.Result, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return gjson.Result{}, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return gjson.Result{}, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req)
}

func (c *Client) upload(ctx context.Context, method, path, field, filename string, data []byte) (gjson.Result, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		return gjson.Result{}, err
	}
	if _, err := fw.Write(data); err != nil {
		return gjson.Result{}, err
	}
	if err := mw.Close(); err != nil {
		return gjson.Result{}, err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, &buf)
	if err != nil {
		return gjson.Result{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.send(req)
}

func (c *Client) send(req *http.Request) (gjson.Result, error) {
	req.Header.Set("Accept", "application/json")
	if tok := TokenFrom(req.Context()); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%s %s: read body: %w", req.Method, req.URL.Path, err)
	}
	res := gjson.ParseBytes(raw)
	if resp.StatusCode >= 300 {
		msg := str(res, "message", "error", "detail", "title")
		if msg == "" && !res.IsObject() {
			msg = strings.TrimSpace(string(raw))
		}
		return res, &APIError{Status: resp.StatusCode, Message: msg}
	}
	// Some endpoints report failure inside a 200 envelope.
	if s := field(res, "success"); s.Exists() && s.Type == gjson.False {
		return res, &APIError{Status: http.StatusUnprocessableEntity, Message: str(res, "message", "error")}
	}
	return payload(res), nil
}

func assetOrigin(base string) string {
	u, err := url.Parse(base)
	if err != nil || u.Host == "" {
		return base
	}
	return u.Scheme + "://" + u.Host
}

func resolveAsset(origin, p string) string {
	p = strings.TrimSpace(p)
	switch {
	case p == "":
		return ""
	case strings.HasPrefix(p, "http://"), strings.HasPrefix(p, "https://"),
		strings.HasPrefix(p, "//"), strings.HasPrefix(p, "data:"):
		return p
	}
	return strings.TrimRight(origin, "/") + "/" + strings.TrimLeft(p, "/")
}
