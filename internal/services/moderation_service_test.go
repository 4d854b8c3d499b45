package services_test

import (
	"context"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentalhub/internal/domain"
	"rentalhub/internal/repos"
	"rentalhub/internal/services"
)

func TestArrangeSortsSearchesAndPages(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2026, 4, d, 0, 0, 0, 0, time.UTC) }
	ps := []domain.Product{
		{ID: "1", Title: "Drone DJI", BasePrice: 300000, CreatedAt: day(3)},
		{ID: "2", Title: "balo leo núi", BasePrice: 50000, CreatedAt: day(1)},
		{ID: "3", Title: "Camera hành trình", BasePrice: 120000, CreatedAt: day(2)},
	}
	assert.Equal(t, []string{"2", "3", "1"}, ids(services.Arrange(ps, services.Query{Sort: services.SortTitle}).Items))
	assert.Equal(t, []string{"1", "3", "2"}, ids(services.Arrange(ps, services.Query{Sort: services.SortPrice, Desc: true}).Items))
	assert.Equal(t, []string{"2", "3", "1"}, ids(services.Arrange(ps, services.Query{Sort: services.SortDate}).Items))
	assert.Equal(t, []string{"1"}, ids(services.Arrange(ps, services.Query{Search: "dji"}).Items))

	page := services.Arrange(ps, services.Query{Sort: services.SortPrice, PageSize: 5, Page: 1})
	assert.Equal(t, 5, page.PageSize)
	// Sizes outside the offered set fall back to the default.
	assert.Equal(t, 10, services.Arrange(ps, services.Query{PageSize: 7}).PageSize)
}

func TestDecisionNeedsConfirmation(t *testing.T) {
	var approvals atomic.Int32
	var reason string
	api := fakeBackend(t, map[string]http.HandlerFunc{
		"GET /api/products/p1": jsonBody(`{"data":{"product":{"_id":"p1","title":"Máy chiếu","status":"pending"}}}`),
		"PATCH /api/products/p1/approve": func(w http.ResponseWriter, r *http.Request) {
			approvals.Add(1)
			jsonBody(`{}`)(w, r)
		},
		"PATCH /api/products/p1/reject": func(w http.ResponseWriter, r *http.Request) {
			var in map[string]string
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, &in)
			reason = in["reason"]
			jsonBody(`{}`)(w, r)
		},
	})
	svc := services.NewModerationService(repos.NewProductRepo(api))
	ctx := context.Background()

	c, err := svc.Decide(ctx, "p1", services.Approve, "", false)
	require.NoError(t, err)
	assert.False(t, c.Done)
	assert.Contains(t, c.Prompt, "Máy chiếu")
	assert.Zero(t, approvals.Load())

	c, err = svc.Decide(ctx, "p1", services.Approve, "", true)
	require.NoError(t, err)
	assert.True(t, c.Done)
	assert.EqualValues(t, 1, approvals.Load())

	_, err = svc.Decide(ctx, "p1", services.Reject, "  ", true)
	assert.ErrorIs(t, err, services.ErrReasonRequired)

	_, err = svc.Decide(ctx, "p1", services.Reject, "Ảnh mờ", true)
	require.NoError(t, err)
	assert.Equal(t, "Ảnh mờ", reason)

	_, err = svc.Decide(ctx, "p1", "publish", "", true)
	assert.ErrorIs(t, err, services.ErrUnknownAction)
}

func TestHighlightUpdatesHeldBoardWithoutRefetch(t *testing.T) {
	var lists atomic.Int32
	api := fakeBackend(t, map[string]http.HandlerFunc{
		"GET /api/products": func(w http.ResponseWriter, r *http.Request) {
			lists.Add(1)
			jsonBody(`[{"id":"a","title":"A","status":"approved"},{"id":"b","title":"B","status":"approved","isHighlighted":true},{"id":"c","status":"pending"}]`)(w, r)
		},
		"PATCH /api/products/a/highlight": jsonBody(`{"data":{"isHighlighted":true}}`),
		"PATCH /api/products/b/highlight": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
	})
	svc := services.NewModerationService(repos.NewProductRepo(api))
	ctx := context.Background()
	q := services.Query{Sort: services.SortTitle}

	board, err := svc.Board(ctx, "s", q, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(board.Items))

	c, err := svc.ToggleHighlight(ctx, "s", "a", true, false)
	require.NoError(t, err)
	assert.False(t, c.Done)
	assert.Contains(t, c.Prompt, "\"A\"")

	_, err = svc.ToggleHighlight(ctx, "s", "a", true, true)
	require.NoError(t, err)
	_, err = svc.ToggleHighlight(ctx, "s", "b", false, true)
	require.Error(t, err)

	board, err = svc.Board(ctx, "s", q, false)
	require.NoError(t, err)
	assert.True(t, board.Items[0].IsHighlighted)
	assert.True(t, board.Items[1].IsHighlighted, "failed toggle leaves the entry untouched")
	assert.EqualValues(t, 1, lists.Load())
}

func TestBoardReadsDuringToggles(t *testing.T) {
	api := fakeBackend(t, map[string]http.HandlerFunc{
		"GET /api/products":               jsonBody(`[{"id":"a","title":"A","status":"approved"},{"id":"b","title":"B","status":"approved"}]`),
		"PATCH /api/products/a/highlight": jsonBody(`{"data":{"isHighlighted":true}}`),
	})
	svc := services.NewModerationService(repos.NewProductRepo(api))
	ctx := context.Background()
	q := services.Query{Sort: services.SortTitle, Desc: true}
	_, err := svc.Board(ctx, "s", q, false)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = svc.Board(ctx, "s", q, false)
		}()
		go func() {
			defer wg.Done()
			_, _ = svc.ToggleHighlight(ctx, "s", "a", true, true)
		}()
	}
	wg.Wait()

	board, err := svc.Board(ctx, "s", services.Query{Sort: services.SortTitle}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(board.Items), "sorting a read leaves the held order alone")
	assert.True(t, board.Items[0].IsHighlighted)
}
