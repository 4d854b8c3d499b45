package repos

import (
	"context"
	"net/url"

	"rentalhub/internal/domain"
)

type OwnerRequestRepo struct{ api *Client }

func NewOwnerRequestRepo(api *Client) *OwnerRequestRepo { return &OwnerRequestRepo{api: api} }

type OwnerRequestInput struct {
	ShopName string `json:"shopName" validate:"required,max=120"`
	Reason   string `json:"reason" validate:"required,max=1000"`
}

func (r *OwnerRequestRepo) Create(ctx context.Context, in OwnerRequestInput) (domain.OwnerRequest, error) {
	res, err := r.api.do(ctx, "POST", "/owner-requests", in)
	if err != nil {
		return domain.OwnerRequest{}, err
	}
	return ownerRequest(res), nil
}

// List returns requests, optionally narrowed to one status.
func (r *OwnerRequestRepo) List(ctx context.Context, status domain.OwnerRequestStatus) ([]domain.OwnerRequest, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", string(status))
	}
	res, err := r.api.get(ctx, "/owner-requests", q)
	if err != nil {
		return nil, err
	}
	rows := list(res)
	out := make([]domain.OwnerRequest, 0, len(rows))
	for _, row := range rows {
		out = append(out, ownerRequest(row))
	}
	return out, nil
}

func (r *OwnerRequestRepo) Approve(ctx context.Context, id string) error {
	_, err := r.api.do(ctx, "PATCH", "/owner-requests/"+url.PathEscape(id)+"/approve", nil)
	return err
}

func (r *OwnerRequestRepo) Reject(ctx context.Context, id, reason string) error {
	_, err := r.api.do(ctx, "PATCH", "/owner-requests/"+url.PathEscape(id)+"/reject", map[string]string{"reason": reason})
	return err
}
