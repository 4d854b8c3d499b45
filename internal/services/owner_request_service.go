package services

import (
	"context"
	"strings"

	"rentalhub/internal/domain"
	"rentalhub/internal/repos"
	"rentalhub/internal/validate"
)

type OwnerRequestService struct {
	Requests *repos.OwnerRequestRepo
}

func NewOwnerRequestService(r *repos.OwnerRequestRepo) *OwnerRequestService {
	return &OwnerRequestService{Requests: r}
}

func (s *OwnerRequestService) Create(ctx context.Context, in repos.OwnerRequestInput) (domain.OwnerRequest, error) {
	in.ShopName = strings.TrimSpace(in.ShopName)
	in.Reason = strings.TrimSpace(in.Reason)
	if err := validate.Struct(in); err != nil {
		return domain.OwnerRequest{}, err
	}
	return s.Requests.Create(ctx, in)
}

func (s *OwnerRequestService) List(ctx context.Context, status domain.OwnerRequestStatus, q Query) (Page[domain.OwnerRequest], error) {
	rs, err := s.Requests.List(ctx, status)
	if err != nil {
		return Page[domain.OwnerRequest]{}, err
	}
	return Paginate(rs, q.Page, pageSize(q.PageSize)), nil
}

func (s *OwnerRequestService) Approve(ctx context.Context, id string) error {
	return s.Requests.Approve(ctx, id)
}

func (s *OwnerRequestService) Reject(ctx context.Context, id, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrReasonRequired
	}
	return s.Requests.Reject(ctx, id, reason)
}
