package repos

import (
	"context"
	"time"

	"rentalhub/internal/domain"
)

type CartRepo struct{ api *Client }

func NewCartRepo(api *Client) *CartRepo { return &CartRepo{api: api} }

// CartLine addresses one line on the backend. Old* identify the line when
// its rental window is being changed.
type CartLine struct {
	ProductID   string     `json:"productId"`
	Quantity    int        `json:"quantity,omitempty"`
	RentalStart time.Time  `json:"rentalStartDate"`
	RentalEnd   time.Time  `json:"rentalEndDate"`
	OldStart    *time.Time `json:"oldRentalStartDate,omitempty"`
	OldEnd      *time.Time `json:"oldRentalEndDate,omitempty"`
}

func (r *CartRepo) Get(ctx context.Context) ([]domain.CartItem, error) {
	res, err := r.api.get(ctx, "/cart", nil)
	if err != nil {
		return nil, err
	}
	if cart := field(res, "cart"); cart.IsObject() {
		res = cart
	}
	rows := list(res)
	out := make([]domain.CartItem, 0, len(rows))
	for _, row := range rows {
		if it := r.api.cartItem(row); it.ProductID != "" {
			out = append(out, it)
		}
	}
	return out, nil
}

func (r *CartRepo) Add(ctx context.Context, line CartLine) error {
	_, err := r.api.do(ctx, "POST", "/cart/items", line)
	return err
}

// Update changes quantity and/or rental window of an existing line.
func (r *CartRepo) Update(ctx context.Context, line CartLine) error {
	_, err := r.api.do(ctx, "PUT", "/cart/items", line)
	return err
}

func (r *CartRepo) Remove(ctx context.Context, productID string, start, end time.Time) error {
	_, err := r.api.do(ctx, "DELETE", "/cart/items", CartLine{ProductID: productID, RentalStart: start, RentalEnd: end})
	return err
}
