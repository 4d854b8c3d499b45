package repos

import (
	"context"
	"net/url"

	"rentalhub/internal/domain"
)

type CategoryRepo struct{ api *Client }

func NewCategoryRepo(api *Client) *CategoryRepo { return &CategoryRepo{api: api} }

type CategoryInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Slug     string `json:"slug,omitempty" validate:"max=120"`
	ParentID string `json:"parentId,omitempty"`
	Active   *bool  `json:"isActive,omitempty"`
}

// List returns the flat category collection, inactive ones included.
func (r *CategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	res, err := r.api.get(ctx, "/categories", nil)
	if err != nil {
		return nil, err
	}
	rows := list(res)
	out := make([]domain.Category, 0, len(rows))
	for _, row := range rows {
		out = append(out, r.api.category(row))
	}
	return out, nil
}

func (r *CategoryRepo) Add(ctx context.Context, in CategoryInput) (domain.Category, error) {
	res, err := r.api.do(ctx, "POST", "/categories", in)
	if err != nil {
		return domain.Category{}, err
	}
	return r.api.category(res), nil
}

func (r *CategoryRepo) Update(ctx context.Context, id string, in CategoryInput) (domain.Category, error) {
	res, err := r.api.do(ctx, "PUT", "/categories/"+url.PathEscape(id), in)
	if err != nil {
		return domain.Category{}, err
	}
	return r.api.category(res), nil
}

func (r *CategoryRepo) Delete(ctx context.Context, id string) error {
	_, err := r.api.do(ctx, "DELETE", "/categories/"+url.PathEscape(id), nil)
	return err
}

// DeactivateCascade deactivates the category and all its descendants server-side.
func (r *CategoryRepo) DeactivateCascade(ctx context.Context, id string) error {
	_, err := r.api.do(ctx, "PATCH", "/categories/"+url.PathEscape(id)+"/deactivate-cascade", nil)
	return err
}
