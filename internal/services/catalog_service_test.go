package services_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentalhub/internal/domain"
	"rentalhub/internal/repos"
	"rentalhub/internal/services"
)

// root -> child -> grandchild, plus an unrelated root.
var treeCats = []domain.Category{
	{ID: "grand", Name: "Máy ảnh cơ", ParentID: "child"},
	{ID: "root", Name: "Điện tử"},
	{ID: "child", Name: "Máy ảnh", ParentID: "root"},
	{ID: "other", Name: "Cắm trại"},
}

func productsAt(ids ...string) []domain.Product {
	var out []domain.Product
	for _, id := range ids {
		out = append(out, domain.Product{ID: "p-" + id, CategoryID: id, Title: "item " + id})
	}
	return out
}

func ids(ps []domain.Product) []string {
	var out []string
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

func TestCategorySubtreeFilter(t *testing.T) {
	ps := productsAt("root", "child", "grand", "other", "ghost")

	got := services.FilterProducts(ps, treeCats, services.Filter{CategoryID: "root"})
	assert.ElementsMatch(t, []string{"p-root", "p-child", "p-grand"}, ids(got))

	got = services.FilterProducts(ps, treeCats, services.Filter{CategoryID: "child"})
	assert.ElementsMatch(t, []string{"p-child", "p-grand"}, ids(got))

	got = services.FilterProducts(ps, treeCats, services.Filter{CategoryID: "grand"})
	assert.Equal(t, []string{"p-grand"}, ids(got))

	assert.Len(t, services.FilterProducts(ps, treeCats, services.Filter{}), 5)
}

func TestFilterCombinesCriteria(t *testing.T) {
	ps := []domain.Product{
		{ID: "a", Title: "Lều 4 người", BasePrice: 80000, Tags: []string{"camping", "outdoor"}, Location: domain.Location{Province: "Lâm Đồng"}},
		{ID: "b", Title: "Lều 2 người", BasePrice: 150000, Tags: []string{"camping"}, Location: domain.Location{City: "Đà Lạt"}},
		{ID: "c", Title: "Bếp gas mini", BasePrice: 50000, Tags: []string{"outdoor"}, Location: domain.Location{Province: "lâm đồng"}},
	}
	f := services.Filter{Query: "LỀU", MaxPrice: 100000, Province: "Lâm Đồng", Tags: []string{"Camping"}}
	assert.Equal(t, []string{"a"}, ids(services.FilterProducts(ps, nil, f)))

	assert.Equal(t, []string{"a", "c"}, ids(services.FilterProducts(ps, nil, services.Filter{Province: "LÂM ĐỒNG"})))
	assert.Equal(t, []string{"b"}, ids(services.FilterProducts(ps, nil, services.Filter{Province: "Đà Lạt"})))
	assert.Equal(t, []string{"camping", "outdoor"}, services.Tags(ps))
}

func TestCheckAvailability(t *testing.T) {
	cases := map[int]string{0: "UNAVAILABLE", 1: "LOW", 4: "LOW", 5: "AVAILABLE", 12: "AVAILABLE"}
	for qty, want := range cases {
		a := services.CheckAvailability(domain.Product{AvailableQuantity: qty})
		assert.Equal(t, want, a.Status, "qty %d", qty)
		assert.Equal(t, qty, a.Qty)
	}
}

func TestListingShowsApprovedOnly(t *testing.T) {
	api := fakeBackend(t, map[string]http.HandlerFunc{
		"GET /api/categories": jsonBody(`[{"_id":"root","name":"Điện tử"},{"_id":"child","name":"Máy ảnh","parent":{"_id":"root"}}]`),
		"GET /api/products": jsonBody(`{"data":[
			{"id":"p1","title":"Canon","categoryId":"child","status":"approved","price":1},
			{"id":"p2","title":"Sony","categoryId":"child","status":"pending","price":1},
			{"id":"p3","title":"Nikon","categoryId":"root","status":"approved","price":1}
		]}`),
	})
	svc := services.NewCatalogService(repos.NewCategoryRepo(api), repos.NewProductRepo(api))
	l, err := svc.Listing(context.Background(), services.Filter{CategoryID: "root"}, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p3"}, ids(l.Products.Items))
	assert.Equal(t, 12, l.Products.PageSize)
	assert.Len(t, l.Categories, 2)
}

func TestCompareNeedsOneCategory(t *testing.T) {
	compared := false
	api := fakeBackend(t, map[string]http.HandlerFunc{
		"GET /api/products/a": jsonBody(`{"id":"a","categoryId":"cam"}`),
		"GET /api/products/b": jsonBody(`{"id":"b","categoryId":"cam"}`),
		"GET /api/products/c": jsonBody(`{"id":"c","categoryId":"tent"}`),
		"GET /api/products/d": jsonBody(`{"id":"d"}`),
		"POST /api/products/compare": func(w http.ResponseWriter, r *http.Request) {
			compared = true
			jsonBody(`{"data":{"categoryId":"cam","products":[{"id":"a"},{"id":"b"}],"fields":["basePrice"]}}`)(w, r)
		},
	})
	svc := services.NewCatalogService(repos.NewCategoryRepo(api), repos.NewProductRepo(api))
	ctx := context.Background()

	_, err := svc.Compare(ctx, []string{"a"})
	assert.ErrorIs(t, err, services.ErrCompareTooFew)
	_, err = svc.Compare(ctx, []string{"a", "c"})
	assert.ErrorIs(t, err, services.ErrCompareMixedCategory)
	_, err = svc.Compare(ctx, []string{"a", "d"})
	assert.ErrorIs(t, err, services.ErrCompareNoCategory)
	_, err = svc.Compare(ctx, []string{"a", "zzz"})
	assert.ErrorIs(t, err, repos.ErrNotFound)
	assert.False(t, compared)

	cmp, err := svc.Compare(ctx, []string{"a", "b", "a"})
	require.NoError(t, err)
	assert.Equal(t, "cam", cmp.CategoryID)
	assert.Len(t, cmp.Products, 2)
	assert.Equal(t, []string{"basePrice"}, cmp.Fields)
}

func TestPaginateClamps(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}
	p := services.Paginate(items, 9, 3)
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, []int{7}, p.Items)
	assert.True(t, p.HasPrev())
	assert.False(t, p.HasNext())

	empty := services.Paginate([]int(nil), 0, 5)
	assert.Equal(t, 1, empty.Pages)
	assert.Empty(t, empty.Items)
}
