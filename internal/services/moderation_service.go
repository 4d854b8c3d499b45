package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"rentalhub/internal/domain"
	"rentalhub/internal/repos"
)

var (
	ErrReasonRequired = errors.New("a reason is required to reject")
	ErrUnknownAction  = errors.New("unknown action")
)

// PageSizes are the choices offered by the moderator tables.
var PageSizes = []int{5, 10, 20, 50}

type SortKey string

const (
	SortTitle SortKey = "title"
	SortDate  SortKey = "date"
	SortPrice SortKey = "price"
)

// Query is the table state of a moderator list.
type Query struct {
	Search   string
	Sort     SortKey
	Desc     bool
	Page     int
	PageSize int
}

func pageSize(n int) int {
	for _, s := range PageSizes {
		if s == n {
			return n
		}
	}
	return PageSizes[1]
}

// Arrange searches, sorts and paginates products in memory.
func Arrange(products []domain.Product, q Query) Page[domain.Product] {
	needle := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if needle == "" || strings.Contains(strings.ToLower(p.Title), needle) {
			out = append(out, p)
		}
	}
	less := func(a, b domain.Product) bool {
		switch q.Sort {
		case SortTitle:
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		case SortPrice:
			return a.BasePrice < b.BasePrice
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if q.Desc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return Paginate(out, q.Page, pageSize(q.PageSize))
}

type Decision string

const (
	Approve Decision = "approve"
	Reject  Decision = "reject"
)

// Confirmation is what the moderator must acknowledge before a decision is sent.
type Confirmation struct {
	ProductID string   `json:"productId"`
	Title     string   `json:"title"`
	Action    Decision `json:"action"`
	Reason    string   `json:"reason,omitempty"`
	Prompt    string   `json:"prompt"`
	Done      bool     `json:"done"`
}

type ModerationService struct {
	Prods *repos.ProductRepo

	mu     sync.Mutex
	boards map[string][]domain.Product
}

func NewModerationService(prods *repos.ProductRepo) *ModerationService {
	return &ModerationService{Prods: prods, boards: map[string][]domain.Product{}}
}

func (s *ModerationService) Pending(ctx context.Context, q Query) (Page[domain.Product], error) {
	ps, err := s.Prods.Pending(ctx)
	if err != nil {
		return Page[domain.Product]{}, err
	}
	return Arrange(ps, q), nil
}

func (s *ModerationService) Detail(ctx context.Context, id string) (domain.Product, error) {
	return s.Prods.Get(ctx, id)
}

// Decide approves or rejects a pending product. Without confirm it only
// returns the prompt to show; with confirm it submits.
func (s *ModerationService) Decide(ctx context.Context, id string, action Decision, reason string, confirm bool) (Confirmation, error) {
	reason = strings.TrimSpace(reason)
	switch action {
	case Approve, Reject:
	default:
		return Confirmation{}, ErrUnknownAction
	}
	if action == Reject && reason == "" {
		return Confirmation{}, ErrReasonRequired
	}
	p, err := s.Prods.Get(ctx, id)
	if err != nil {
		return Confirmation{}, err
	}
	c := Confirmation{ProductID: p.ID, Title: p.Title, Action: action, Reason: reason}
	if action == Approve {
		c.Prompt = "Approve \"" + p.Title + "\" and publish it?"
	} else {
		c.Prompt = "Reject \"" + p.Title + "\"? The owner will see: " + reason
	}
	if !confirm {
		return c, nil
	}
	if action == Approve {
		err = s.Prods.Approve(ctx, id)
	} else {
		err = s.Prods.Reject(ctx, id, reason)
	}
	if err != nil {
		return c, err
	}
	c.Done = true
	return c, nil
}

// Board loads the highlight board for a session from the backend. Later
// toggles edit this copy instead of reloading it.
func (s *ModerationService) Board(ctx context.Context, sid string, q Query, reload bool) (Page[domain.Product], error) {
	// ToggleHighlight edits the held board in place, so read a copy.
	s.mu.Lock()
	held, ok := s.boards[sid]
	ps := append([]domain.Product(nil), held...)
	s.mu.Unlock()
	if !ok || reload {
		all, err := s.Prods.List(ctx)
		if err != nil {
			return Page[domain.Product]{}, err
		}
		ps = ps[:0]
		for _, p := range all {
			if p.Status == domain.StatusApproved {
				ps = append(ps, p)
			}
		}
		s.mu.Lock()
		s.boards[sid] = append([]domain.Product(nil), ps...)
		s.mu.Unlock()
	}
	return Arrange(ps, q), nil
}

// ToggleHighlight asks the backend to flip the featured flag and, once it
// acknowledges, updates the held board entry in place.
func (s *ModerationService) ToggleHighlight(ctx context.Context, sid, id string, on, confirm bool) (Confirmation, error) {
	c := Confirmation{ProductID: id, Action: "highlight"}
	if !on {
		c.Action = "unhighlight"
	}
	s.mu.Lock()
	for _, p := range s.boards[sid] {
		if p.ID == id {
			c.Title = p.Title
		}
	}
	s.mu.Unlock()
	if on {
		c.Prompt = "Feature \"" + c.Title + "\" on the home page?"
	} else {
		c.Prompt = "Remove \"" + c.Title + "\" from featured products?"
	}
	if !confirm {
		return c, nil
	}
	got, err := s.Prods.SetHighlight(ctx, id, on)
	if err != nil {
		return c, err
	}
	s.mu.Lock()
	board := s.boards[sid]
	for i := range board {
		if board[i].ID == id {
			board[i].IsHighlighted = got
		}
	}
	s.mu.Unlock()
	c.Done = true
	return c, nil
}

// Forget drops the session's board.
func (s *ModerationService) Forget(sid string) {
	s.mu.Lock()
	delete(s.boards, sid)
	s.mu.Unlock()
}
