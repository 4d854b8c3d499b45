package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"

	"rentalhub/internal/domain"
	"rentalhub/internal/repos"
	"rentalhub/internal/validate"
)

// CascadeRequired asks the admin to confirm deactivating a whole subtree.
type CascadeRequired struct {
	CategoryID  string
	Name        string
	Descendants int
}

func (e *CascadeRequired) Error() string {
	return fmt.Sprintf("%q has %d sub-categories that will also be deactivated", e.Name, e.Descendants)
}

type Node struct {
	Category domain.Category `json:"category"`
	Children []*Node         `json:"children,omitempty"`
}

// Fingerprint identifies a category list by content so the tree index can be
// reused while the list is unchanged.
func Fingerprint(cats []domain.Category) string {
	h := sha256.New()
	for _, c := range cats {
		fmt.Fprintf(h, "%s\x00%s\x00%s\x00%s\x00%t\x01", c.ID, c.Name, c.Slug, c.ParentID, c.Active)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// treeIndex is parent id -> children, sorted; "" holds the roots.
type treeIndex map[string][]domain.Category

func buildIndex(cats []domain.Category) treeIndex {
	known := make(map[string]bool, len(cats))
	for _, c := range cats {
		known[c.ID] = true
	}
	idx := treeIndex{}
	for _, c := range cats {
		parent := c.ParentID
		// Unknown parents and self references make the entry a root.
		if !known[parent] || parent == c.ID {
			parent = ""
		}
		idx[parent] = append(idx[parent], c)
	}
	for _, kids := range idx {
		sort.SliceStable(kids, func(i, j int) bool {
			if kids[i].Name != kids[j].Name {
				return kids[i].Name < kids[j].Name
			}
			return kids[i].ID < kids[j].ID
		})
	}
	return idx
}

func (idx treeIndex) nodes(parent string, seen map[string]bool) []*Node {
	var out []*Node
	for _, c := range idx[parent] {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		out = append(out, &Node{Category: c, Children: idx.nodes(c.ID, seen)})
	}
	return out
}

func (idx treeIndex) count(id string, seen map[string]bool) int {
	n := 0
	for _, c := range idx[id] {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		n += 1 + idx.count(c.ID, seen)
	}
	return n
}

type CategoryService struct {
	Cats *repos.CategoryRepo

	mu     sync.Mutex
	fp     string
	index  treeIndex
	builds int
}

func NewCategoryService(cats *repos.CategoryRepo) *CategoryService {
	return &CategoryService{Cats: cats}
}

// indexFor returns the memoized index for cats, rebuilding only when the
// list changed.
func (s *CategoryService) indexFor(cats []domain.Category) treeIndex {
	fp := Fingerprint(cats)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index == nil || s.fp != fp {
		s.index = buildIndex(cats)
		s.fp = fp
		s.builds++
	}
	return s.index
}

// BuildTree turns the flat list into roots with nested children. Building
// twice from the same list yields the same tree.
func (s *CategoryService) BuildTree(cats []domain.Category) []*Node {
	return s.indexFor(cats).nodes("", map[string]bool{})
}

func (s *CategoryService) Tree(ctx context.Context) ([]*Node, []domain.Category, error) {
	cats, err := s.Cats.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	return s.BuildTree(cats), cats, nil
}

func checkCategory(id string, in *repos.CategoryInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Slug = strings.TrimSpace(in.Slug)
	in.ParentID = strings.TrimSpace(in.ParentID)
	if err := validate.Struct(in); err != nil {
		return err
	}
	if id != "" && in.ParentID == id {
		return validate.Errors{"parentId": "a category cannot be its own parent"}
	}
	return nil
}

func (s *CategoryService) Add(ctx context.Context, in repos.CategoryInput) (domain.Category, error) {
	if err := checkCategory("", &in); err != nil {
		return domain.Category{}, err
	}
	return s.Cats.Add(ctx, in)
}

func (s *CategoryService) Update(ctx context.Context, id string, in repos.CategoryInput) (domain.Category, error) {
	if err := checkCategory(id, &in); err != nil {
		return domain.Category{}, err
	}
	return s.Cats.Update(ctx, id, in)
}

func (s *CategoryService) Delete(ctx context.Context, id string) error {
	return s.Cats.Delete(ctx, id)
}

// Deactivate turns a category off. A category with children needs confirm;
// without it a *CascadeRequired is returned. The cascade itself is one
// backend call.
func (s *CategoryService) Deactivate(ctx context.Context, id string, confirm bool) error {
	cats, err := s.Cats.List(ctx)
	if err != nil {
		return err
	}
	var target *domain.Category
	for i := range cats {
		if cats[i].ID == id {
			target = &cats[i]
		}
	}
	if target == nil {
		return repos.ErrNotFound
	}
	n := s.indexFor(cats).count(id, map[string]bool{id: true})
	if n == 0 {
		off := false
		_, err := s.Cats.Update(ctx, id, repos.CategoryInput{Name: target.Name, Slug: target.Slug, ParentID: target.ParentID, Active: &off})
		return err
	}
	if !confirm {
		return &CascadeRequired{CategoryID: id, Name: target.Name, Descendants: n}
	}
	return s.Cats.DeactivateCascade(ctx, id)
}

// Options flattens the tree for a parent picker, indenting by depth.
func Options(nodes []*Node) []Option {
	var out []Option
	var walk func(ns []*Node, depth int)
	walk = func(ns []*Node, depth int) {
		for _, n := range ns {
			out = append(out, Option{ID: n.Category.ID, Label: n.Category.Name, Depth: depth})
			walk(n.Children, depth+1)
		}
	}
	walk(nodes, 0)
	return out
}

type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Depth int    `json:"depth"`
}
