package services

import (
	"context"
	"errors"
	"sort"
	"strings"

	"rentalhub/internal/domain"
	"rentalhub/internal/repos"
)

var (
	ErrCompareTooFew        = errors.New("choose at least two products to compare")
	ErrCompareNoCategory    = errors.New("product has no category and cannot be compared")
	ErrCompareMixedCategory = errors.New("only products from the same category can be compared")
)

type CatalogService struct {
	Cats  *repos.CategoryRepo
	Prods *repos.ProductRepo
}

func NewCatalogService(cats *repos.CategoryRepo, prods *repos.ProductRepo) *CatalogService {
	return &CatalogService{Cats: cats, Prods: prods}
}

// Filter is the listing sidebar state. Zero values disable a criterion.
type Filter struct {
	CategoryID string
	MaxPrice   float64
	Query      string
	Province   string
	Tags       []string
}

// DescendantIDs returns root and every transitive child of root.
func DescendantIDs(cats []domain.Category, root string) map[string]bool {
	children := make(map[string][]string, len(cats))
	for _, c := range cats {
		if c.ParentID != "" {
			children[c.ParentID] = append(children[c.ParentID], c.ID)
		}
	}
	out := map[string]bool{}
	var walk func(id string)
	walk = func(id string) {
		if out[id] {
			return
		}
		out[id] = true
		for _, ch := range children[id] {
			walk(ch)
		}
	}
	walk(root)
	return out
}

// FilterProducts is a pure reduction over an already fetched product set.
func FilterProducts(products []domain.Product, cats []domain.Category, f Filter) []domain.Product {
	var inCategory map[string]bool
	if f.CategoryID != "" {
		inCategory = DescendantIDs(cats, f.CategoryID)
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	province := strings.TrimSpace(f.Province)

	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if inCategory != nil && !inCategory[p.CategoryID] {
			continue
		}
		if f.MaxPrice > 0 && p.BasePrice > f.MaxPrice {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(p.Title), q) {
			continue
		}
		if province != "" && !strings.EqualFold(p.Province(), province) {
			continue
		}
		if !hasTags(p.Tags, f.Tags) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func hasTags(have, want []string) bool {
	for _, w := range want {
		found := false
		for _, h := range have {
			if strings.EqualFold(h, w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Tags lists the distinct tags carried by products, sorted.
func Tags(products []domain.Product) []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range products {
		for _, t := range p.Tags {
			k := strings.ToLower(strings.TrimSpace(t))
			if k == "" || seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Provinces lists the distinct provinces of products, sorted.
func Provinces(products []domain.Product) []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range products {
		if v := p.Province(); v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

type Listing struct {
	Products   Page[domain.Product]
	Categories []domain.Category
	Tags       []string
	Provinces  []string
	Filter     Filter
}

// Listing fetches products and categories once and applies f in memory.
// Only approved products are shown.
func (s *CatalogService) Listing(ctx context.Context, f Filter, page, pageSize int) (Listing, error) {
	cats, err := s.Cats.List(ctx)
	if err != nil {
		return Listing{}, err
	}
	all, err := s.Prods.List(ctx)
	if err != nil {
		return Listing{}, err
	}
	approved := all[:0:0]
	for _, p := range all {
		if p.Status == domain.StatusApproved {
			approved = append(approved, p)
		}
	}
	if pageSize <= 0 {
		pageSize = 12
	}
	return Listing{
		Products:   Paginate(FilterProducts(approved, cats, f), page, pageSize),
		Categories: cats,
		Tags:       Tags(approved),
		Provinces:  Provinces(approved),
		Filter:     f,
	}, nil
}

// CheckAvailability converts available quantity to AVAILABLE / LOW / UNAVAILABLE.
func CheckAvailability(p domain.Product) domain.Availability {
	qty := p.AvailableQuantity
	status := "UNAVAILABLE"
	switch {
	case qty >= 5:
		status = "AVAILABLE"
	case qty > 0:
		status = "LOW"
	}
	return domain.Availability{Status: status, Qty: qty}
}

type Detail struct {
	Product      domain.Product
	Availability domain.Availability
	Category     domain.Category
}

func (s *CatalogService) Detail(ctx context.Context, id string) (Detail, error) {
	p, err := s.Prods.Get(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	d := Detail{Product: p, Availability: CheckAvailability(p)}
	if p.CategoryID != "" {
		// Category name is decoration; a failed lookup does not fail the page.
		if cats, err := s.Cats.List(ctx); err == nil {
			for _, c := range cats {
				if c.ID == p.CategoryID {
					d.Category = c
				}
			}
		}
	}
	return d, nil
}

// Compare checks that all products share one category before asking the
// backend for the side-by-side view.
func (s *CatalogService) Compare(ctx context.Context, ids []string) (repos.Comparison, error) {
	ids = uniqueNonEmpty(ids)
	if len(ids) < 2 {
		return repos.Comparison{}, ErrCompareTooFew
	}
	category := ""
	for _, id := range ids {
		p, err := s.Prods.Get(ctx, id)
		if err != nil {
			return repos.Comparison{}, err
		}
		switch {
		case p.CategoryID == "":
			return repos.Comparison{}, ErrCompareNoCategory
		case category == "":
			category = p.CategoryID
		case category != p.CategoryID:
			return repos.Comparison{}, ErrCompareMixedCategory
		}
	}
	return s.Prods.Compare(ctx, ids)
}

func uniqueNonEmpty(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
