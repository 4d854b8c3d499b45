package handlers_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cartJSON = `{"data":{"cart":{"items":[{
	"productId":"p1","quantity":2,
	"rentalStartDate":"2026-05-01T00:00:00Z","rentalEndDate":"2026-05-04T00:00:00Z",
	"product":{"_id":"p1","title":"Máy ảnh Canon","price":100000,"priceUnit":"day","deposit":50000,"availableQuantity":4}
}]}}}`

func TestCartQuantityShowsAtOnceAndSyncsOnce(t *testing.T) {
	var puts, lastQty atomic.Int32
	h := newHarness(t, map[string]http.HandlerFunc{
		"GET /api/cart": jsonBody(cartJSON),
		"PUT /api/cart/items": func(w http.ResponseWriter, r *http.Request) {
			var in struct {
				Quantity int32 `json:"quantity"`
			}
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, &in)
			puts.Add(1)
			lastQty.Store(in.Quantity)
			jsonBody(`{"success":true}`)(w, r)
		},
	}, nil)
	h.signIn()

	resp, body := h.call(http.MethodGet, "/api/v1/cart", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cart := body["cart"].(map[string]any)
	lines := cart["lines"].([]any)
	require.Len(t, lines, 1)
	key := lines[0].(map[string]any)["key"].(string)

	for _, q := range []int{3, 4} {
		raw, _ := json.Marshal(map[string]any{"key": key, "quantity": q})
		resp, body = h.call(http.MethodPatch, "/api/v1/cart/items/quantity", string(raw))
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	line := body["cart"].(map[string]any)["lines"].([]any)[0].(map[string]any)
	assert.EqualValues(t, 4, line["item"].(map[string]any)["quantity"])
	// 3 days at 100,000 for 4 units.
	assert.EqualValues(t, 1200000, line["amount"])

	assert.Eventually(t, func() bool { return lastQty.Load() == 4 }, time.Second, 10*time.Millisecond)
	assert.EqualValues(t, 1, puts.Load(), "one backend update per burst")

	resp, body = h.call(http.MethodPatch, "/api/v1/cart/items/quantity", `{"key":"`+key+`","quantity":9}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["fields"], "quantity")

	resp, _ = h.call(http.MethodPatch, "/api/v1/cart/items/quantity", `{"key":"nope","quantity":1}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCartSelectionDrivesTotals(t *testing.T) {
	h := newHarness(t, map[string]http.HandlerFunc{"GET /api/cart": jsonBody(cartJSON)}, nil)
	h.signIn()

	resp, _ := h.call(http.MethodGet, "/api/v1/cart", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := h.call(http.MethodPost, "/api/v1/cart/select-all", `{"on":false}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 0, body["cart"].(map[string]any)["totals"].(map[string]any)["total"])

	resp, body = h.call(http.MethodPost, "/api/v1/cart/select-all", `{"on":true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	totals := body["cart"].(map[string]any)["totals"].(map[string]any)
	// 600,000 rent, 3% tax, 100,000 deposit.
	assert.EqualValues(t, 718000, totals["total"])

	page := h.send(httptest.NewRequest(http.MethodGet, "/cart", nil))
	raw, _ := io.ReadAll(page.Body)
	assert.Equal(t, http.StatusOK, page.StatusCode)
	assert.Contains(t, string(raw), "Máy ảnh Canon")
}
