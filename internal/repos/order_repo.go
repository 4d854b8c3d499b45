package repos

import (
	"context"
	"net/url"

	"rentalhub/internal/domain"
)

type OrderRepo struct{ api *Client }

func NewOrderRepo(api *Client) *OrderRepo { return &OrderRepo{api: api} }

func (r *OrderRepo) Get(ctx context.Context, id string) (domain.Order, error) {
	res, err := r.api.get(ctx, "/orders/"+url.PathEscape(id), nil)
	if err != nil {
		return domain.Order{}, err
	}
	if o := field(res, "order"); o.IsObject() {
		res = o
	}
	o := r.api.order(res)
	if o.ID == "" {
		return domain.Order{}, ErrNotFound
	}
	return o, nil
}

// TaxRate returns the service fee rate as a fraction (0.03 for 3%).
func (r *OrderRepo) TaxRate(ctx context.Context) (float64, error) {
	res, err := r.api.get(ctx, "/orders/tax-rate", nil)
	if err != nil {
		return 0, err
	}
	rate := res.Float()
	if res.IsObject() {
		rate = num(res, "taxRate", "rate", "value")
	}
	// some deployments answer in percent
	if rate > 1 {
		rate /= 100
	}
	return rate, nil
}
