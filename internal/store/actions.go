package store

import "rentalhub/internal/domain"

// Action is an intent sent to Dispatch. Each action knows how to apply itself
// to a session state; nothing else writes to State.
type Action interface {
	apply(s *State)
}

type SetSession struct {
	Token    string
	Identity domain.Identity
}

func (a SetSession) apply(s *State) {
	s.Token = a.Token
	s.Identity = a.Identity
}

// ClearSession drops token, identity, cart and selection.
type ClearSession struct{}

func (ClearSession) apply(s *State) {
	s.Token = ""
	s.Identity = domain.Identity{}
	s.Cart = nil
	s.CartLoaded = false
	s.Selected = map[string]bool{}
}

// ReplaceCart installs the backend's view of the cart and prunes selections
// for lines that no longer exist.
type ReplaceCart struct{ Items []domain.CartItem }

func (a ReplaceCart) apply(s *State) {
	s.Cart = append([]domain.CartItem(nil), a.Items...)
	s.CartLoaded = true
	live := make(map[string]bool, len(a.Items))
	for _, it := range a.Items {
		live[it.Key()] = true
	}
	for k := range s.Selected {
		if !live[k] {
			delete(s.Selected, k)
		}
	}
}

type SetQuantity struct {
	Key      string
	Quantity int
}

func (a SetQuantity) apply(s *State) {
	for i := range s.Cart {
		if s.Cart[i].Key() == a.Key {
			s.Cart[i].Quantity = a.Quantity
			return
		}
	}
}

type RemoveItem struct{ Key string }

func (a RemoveItem) apply(s *State) {
	out := s.Cart[:0]
	for _, it := range s.Cart {
		if it.Key() != a.Key {
			out = append(out, it)
		}
	}
	s.Cart = out
	delete(s.Selected, a.Key)
}

type ToggleSelect struct{ Key string }

func (a ToggleSelect) apply(s *State) {
	if _, ok := s.Item(a.Key); !ok {
		return
	}
	if s.Selected[a.Key] {
		delete(s.Selected, a.Key)
	} else {
		s.Selected[a.Key] = true
	}
}

// SelectAll selects every current line, or clears the selection.
type SelectAll struct{ On bool }

func (a SelectAll) apply(s *State) {
	s.Selected = map[string]bool{}
	if !a.On {
		return
	}
	for _, it := range s.Cart {
		s.Selected[it.Key()] = true
	}
}

type PushToast struct{ Toast Toast }

func (a PushToast) apply(s *State) {
	s.Toasts = append(s.Toasts, a.Toast)
}
