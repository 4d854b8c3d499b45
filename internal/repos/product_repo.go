package repos

import (
	"context"
	"net/url"

	"github.com/tidwall/gjson"

	"rentalhub/internal/domain"
)

type ProductRepo struct{ api *Client }

func NewProductRepo(api *Client) *ProductRepo { return &ProductRepo{api: api} }

// ProductInput is what owners submit; the backend assigns everything else.
type ProductInput struct {
	Title            string           `json:"title" validate:"required,max=200"`
	ShortDescription string           `json:"shortDescription,omitempty" validate:"max=500"`
	Description      string           `json:"description,omitempty"`
	BasePrice        float64          `json:"basePrice" validate:"gt=0"`
	DepositAmount    float64          `json:"depositAmount" validate:"gte=0"`
	PriceUnit        domain.PriceUnit `json:"priceUnit" validate:"oneof=hour day week month"`
	Quantity         int              `json:"quantity" validate:"min=1"`
	Condition        string           `json:"condition,omitempty"`
	CategoryID       string           `json:"categoryId" validate:"required"`
	Tags             []string         `json:"tags,omitempty"`
	Location         domain.Location  `json:"location"`
}

func (r *ProductRepo) decodeList(res gjson.Result) []domain.Product {
	rows := list(res)
	out := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		out = append(out, r.api.product(row))
	}
	return out
}

// List returns every product the backend exposes publicly.
func (r *ProductRepo) List(ctx context.Context) ([]domain.Product, error) {
	res, err := r.api.get(ctx, "/products", url.Values{"limit": {"1000"}})
	if err != nil {
		return nil, err
	}
	return r.decodeList(res), nil
}

func (r *ProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	res, err := r.api.get(ctx, "/products/"+url.PathEscape(id), nil)
	if err != nil {
		return domain.Product{}, err
	}
	if p := field(res, "product", "item"); p.IsObject() {
		res = p
	}
	p := r.api.product(res)
	if p.ID == "" {
		return domain.Product{}, ErrNotFound
	}
	return p, nil
}

func (r *ProductRepo) Create(ctx context.Context, in ProductInput) (domain.Product, error) {
	res, err := r.api.do(ctx, "POST", "/products", in)
	if err != nil {
		return domain.Product{}, err
	}
	return r.api.product(res), nil
}

func (r *ProductRepo) Update(ctx context.Context, id string, in ProductInput) (domain.Product, error) {
	res, err := r.api.do(ctx, "PUT", "/products/"+url.PathEscape(id), in)
	if err != nil {
		return domain.Product{}, err
	}
	return r.api.product(res), nil
}

func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	_, err := r.api.do(ctx, "DELETE", "/products/"+url.PathEscape(id), nil)
	return err
}

// Pending lists products waiting for moderation.
func (r *ProductRepo) Pending(ctx context.Context) ([]domain.Product, error) {
	res, err := r.api.get(ctx, "/products/pending", nil)
	if err != nil {
		return nil, err
	}
	return r.decodeList(res), nil
}

func (r *ProductRepo) Approve(ctx context.Context, id string) error {
	_, err := r.api.do(ctx, "PATCH", "/products/"+url.PathEscape(id)+"/approve", nil)
	return err
}

func (r *ProductRepo) Reject(ctx context.Context, id, reason string) error {
	_, err := r.api.do(ctx, "PATCH", "/products/"+url.PathEscape(id)+"/reject", map[string]string{"reason": reason})
	return err
}

// SetHighlight flips the featured flag and reports the backend's resulting value.
func (r *ProductRepo) SetHighlight(ctx context.Context, id string, on bool) (bool, error) {
	res, err := r.api.do(ctx, "PATCH", "/products/"+url.PathEscape(id)+"/highlight", map[string]bool{"isHighlighted": on})
	if err != nil {
		return false, err
	}
	if v := field(res, "isHighlighted", "isHighlight", "highlighted"); v.Exists() {
		return boolean(res, "isHighlighted", "isHighlight", "highlighted"), nil
	}
	return on, nil
}

// Comparison is the backend's side-by-side view of products in one category.
type Comparison struct {
	CategoryID string           `json:"categoryId"`
	Products   []domain.Product `json:"products"`
	Fields     []string         `json:"fields,omitempty"`
}

func (r *ProductRepo) Compare(ctx context.Context, ids []string) (Comparison, error) {
	res, err := r.api.do(ctx, "POST", "/products/compare", map[string][]string{"productIds": ids})
	if err != nil {
		return Comparison{}, err
	}
	cmp := Comparison{CategoryID: ref(res, []string{"categoryId"}, "category")}
	for _, p := range field(res, "products", "items").Array() {
		cmp.Products = append(cmp.Products, r.api.product(p))
	}
	for _, f := range field(res, "fields", "attributes").Array() {
		cmp.Fields = append(cmp.Fields, f.String())
	}
	return cmp, nil
}
