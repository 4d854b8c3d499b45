package handlers_test

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentalhub/internal/http/handlers"
	"rentalhub/internal/services"
)

func avatarRequest(t *testing.T, size int) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("avatar", "me.png")
	require.NoError(t, err)
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, size-8)...)
	_, err = fw.Write(png)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPut, handlers.AvatarPath, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestOversizedBodiesAreRejected(t *testing.T) {
	buf := captureLogs(t)
	h := newHarness(t, nil, nil)
	h.signIn()

	big := `{"productId":"p1","note":"` + strings.Repeat("x", 1<<20) + `"}`
	resp, _ := h.call(http.MethodPost, "/api/v1/cart/items", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.True(t, hasAction(logLines(t, buf), "request.too_large"))
}

func TestAvatarMayExceedTheGeneralLimit(t *testing.T) {
	var got int
	h := newHarness(t, map[string]http.HandlerFunc{
		"PUT /api/users/me/avatar": func(w http.ResponseWriter, r *http.Request) {
			f, _, err := r.FormFile("avatar")
			if err == nil {
				raw, _ := io.ReadAll(f)
				got = len(raw)
			}
			jsonBody(`{"data":{"user":{"avatar":"https://cdn.thue.vn/a/u1.png"}}}`)(w, r)
		},
	}, nil)
	h.signIn()

	req := avatarRequest(t, 2<<20)
	req.Header.Set("X-Csrf-Token", h.csrf)
	resp := h.send(req)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2<<20, got)

	req = avatarRequest(t, services.MaxAvatarBytes+1)
	req.Header.Set("X-Csrf-Token", h.csrf)
	resp = h.send(req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}
