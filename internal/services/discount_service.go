package services

import (
	"context"
	"strings"
	"unicode"

	"rentalhub/internal/domain"
	"rentalhub/internal/repos"
	"rentalhub/internal/validate"
)

type DiscountService struct {
	Discounts *repos.DiscountRepo
}

func NewDiscountService(d *repos.DiscountRepo) *DiscountService {
	return &DiscountService{Discounts: d}
}

// ParseUserIDs splits free text on commas, semicolons and whitespace,
// dropping empties and repeats while keeping first-seen order.
func ParseUserIDs(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || unicode.IsSpace(r)
	})
	seen := make(map[string]bool, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// ValidateDiscount normalizes the code and checks the input before it is sent.
func ValidateDiscount(in *repos.DiscountInput) error {
	in.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	errs := validate.Errors{}
	if err := validate.Struct(in); err != nil {
		verrs, ok := err.(validate.Errors)
		if !ok {
			return err
		}
		errs = verrs
	}
	if in.Type == domain.DiscountPercent && in.Value > 100 {
		errs.Add("value", "a percentage cannot exceed 100")
	}
	return errs.Err()
}

func (s *DiscountService) List(ctx context.Context) ([]domain.Discount, error) {
	return s.Discounts.List(ctx)
}

func (s *DiscountService) Create(ctx context.Context, in repos.DiscountInput) (domain.Discount, error) {
	if err := ValidateDiscount(&in); err != nil {
		return domain.Discount{}, err
	}
	return s.Discounts.Create(ctx, in)
}

func (s *DiscountService) Update(ctx context.Context, id string, in repos.DiscountInput) (domain.Discount, error) {
	if err := ValidateDiscount(&in); err != nil {
		return domain.Discount{}, err
	}
	return s.Discounts.Update(ctx, id, in)
}

func (s *DiscountService) SetActive(ctx context.Context, id string, on bool) error {
	return s.Discounts.SetActive(ctx, id, on)
}

func (s *DiscountService) SetPublic(ctx context.Context, id string, on bool) error {
	return s.Discounts.SetPublic(ctx, id, on)
}

// Assign parses raw and assigns the listed users to the discount. It returns
// the ids that were sent.
func (s *DiscountService) Assign(ctx context.Context, id, raw string) ([]string, error) {
	ids := ParseUserIDs(raw)
	if len(ids) == 0 {
		return nil, validate.Errors{"userIds": "enter at least one user id"}
	}
	return ids, s.Discounts.AssignUsers(ctx, id, ids)
}
