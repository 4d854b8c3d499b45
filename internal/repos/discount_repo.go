package repos

import (
	"context"
	"net/url"
	"time"

	"rentalhub/internal/domain"
	"rentalhub/internal/money"
)

type DiscountRepo struct{ api *Client }

func NewDiscountRepo(api *Client) *DiscountRepo { return &DiscountRepo{api: api} }

type DiscountInput struct {
	Code          string              `json:"code" validate:"required,code"`
	Type          domain.DiscountType `json:"type" validate:"oneof=percent fixed"`
	Value         money.Amount        `json:"value" validate:"gt=0"`
	MaxDiscount   money.Amount        `json:"maxDiscount" validate:"gte=0"`
	MinOrderValue money.Amount        `json:"minOrderValue" validate:"gte=0"`
	UsageLimit    int                 `json:"usageLimit" validate:"gte=0"`
	StartsAt      time.Time           `json:"startsAt" validate:"required"`
	EndsAt        time.Time           `json:"endsAt" validate:"required,gtfield=StartsAt"`
	IsPublic      bool                `json:"isPublic"`
}

func (r *DiscountRepo) List(ctx context.Context) ([]domain.Discount, error) {
	res, err := r.api.get(ctx, "/discounts", nil)
	if err != nil {
		return nil, err
	}
	rows := list(res)
	out := make([]domain.Discount, 0, len(rows))
	for _, row := range rows {
		out = append(out, discount(row))
	}
	return out, nil
}

func (r *DiscountRepo) Create(ctx context.Context, in DiscountInput) (domain.Discount, error) {
	res, err := r.api.do(ctx, "POST", "/discounts", in)
	if err != nil {
		return domain.Discount{}, err
	}
	return discount(res), nil
}

func (r *DiscountRepo) Update(ctx context.Context, id string, in DiscountInput) (domain.Discount, error) {
	res, err := r.api.do(ctx, "PUT", "/discounts/"+url.PathEscape(id), in)
	if err != nil {
		return domain.Discount{}, err
	}
	return discount(res), nil
}

func (r *DiscountRepo) SetActive(ctx context.Context, id string, active bool) error {
	action := "/deactivate"
	if active {
		action = "/activate"
	}
	_, err := r.api.do(ctx, "PATCH", "/discounts/"+url.PathEscape(id)+action, nil)
	return err
}

func (r *DiscountRepo) AssignUsers(ctx context.Context, id string, userIDs []string) error {
	_, err := r.api.do(ctx, "POST", "/discounts/"+url.PathEscape(id)+"/users", map[string][]string{"userIds": userIDs})
	return err
}

func (r *DiscountRepo) SetPublic(ctx context.Context, id string, public bool) error {
	_, err := r.api.do(ctx, "PATCH", "/discounts/"+url.PathEscape(id)+"/public", map[string]bool{"isPublic": public})
	return err
}
