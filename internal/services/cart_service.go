package services

import (
	"context"
	"errors"
	"strconv"
	"time"

	"rentalhub/internal/debounce"
	"rentalhub/internal/domain"
	applog "rentalhub/internal/log"
	"rentalhub/internal/money"
	"rentalhub/internal/repos"
	"rentalhub/internal/store"
	"rentalhub/internal/validate"
)

const (
	TaxRate       = 0.03
	MaxRentalSpan = 365 * 24 * time.Hour
)

var ErrLineNotFound = errors.New("cart line not found")

type CartService struct {
	Carts    *repos.CartRepo
	Products *repos.ProductRepo // stock lookup when adding; nil skips it
	Store    *store.Store
	Debounce *debounce.Debouncer
}

func NewCartService(carts *repos.CartRepo, st *store.Store, wait time.Duration) *CartService {
	return &CartService{Carts: carts, Store: st, Debounce: debounce.New(wait)}
}

// RentalDuration is the rental window measured in price units. It is exact
// (no rounding) so the same window in a finer unit never yields less.
func RentalDuration(start, end time.Time, unit domain.PriceUnit) float64 {
	if !end.After(start) {
		return 0
	}
	return end.Sub(start).Minutes() / float64(unit.Minutes())
}

type Totals struct {
	Subtotal int64 `json:"subtotal"`
	Tax      int64 `json:"tax"`
	Deposit  int64 `json:"deposit"`
	Total    int64 `json:"total"`
}

// ComputeTotals prices items:
// subtotal = Σ price × qty × duration, tax = 3% of subtotal, deposit = Σ deposit × qty.
func ComputeTotals(items []domain.CartItem) Totals {
	var sub, dep float64
	for _, it := range items {
		q := float64(it.Quantity)
		sub += it.Product.BasePrice * q * RentalDuration(it.RentalStart, it.RentalEnd, it.Product.PriceUnit)
		dep += it.Product.DepositAmount * q
	}
	t := Totals{
		Subtotal: money.Round(sub),
		Tax:      money.Round(sub * TaxRate),
		Deposit:  money.Round(dep),
	}
	t.Total = t.Subtotal + t.Tax + t.Deposit
	return t
}

type CartLineView struct {
	Key      string          `json:"key"`
	Item     domain.CartItem `json:"item"`
	Duration float64         `json:"duration"`
	Amount   int64           `json:"amount"`
	Selected bool            `json:"selected"`
}

type CartView struct {
	Lines       []CartLineView `json:"lines"`
	Totals      Totals         `json:"totals"`
	Selected    int            `json:"selected"`
	AllSelected bool           `json:"allSelected"`
}

// View derives the cart screen from the store. Totals cover selected lines only.
func View(s store.State) CartView {
	v := CartView{Lines: make([]CartLineView, 0, len(s.Cart))}
	for _, it := range s.Cart {
		d := RentalDuration(it.RentalStart, it.RentalEnd, it.Product.PriceUnit)
		v.Lines = append(v.Lines, CartLineView{
			Key:      it.Key(),
			Item:     it,
			Duration: d,
			Amount:   money.Round(it.Product.BasePrice * float64(it.Quantity) * d),
			Selected: s.Selected[it.Key()],
		})
	}
	sel := s.SelectedItems()
	v.Selected = len(sel)
	v.AllSelected = len(sel) > 0 && len(sel) == len(s.Cart)
	v.Totals = ComputeTotals(sel)
	return v
}

// Load fetches the cart from the backend into the store.
func (s *CartService) Load(ctx context.Context, sid string) (store.State, error) {
	items, err := s.Carts.Get(ctx)
	if err != nil {
		return store.State{}, err
	}
	return s.Store.Dispatch(sid, store.ReplaceCart{Items: items}), nil
}

// Ensure loads the cart unless this session already holds it.
func (s *CartService) Ensure(ctx context.Context, sid string) (store.State, error) {
	if st := s.Store.Snapshot(sid); st.CartLoaded {
		return st, nil
	}
	return s.Load(ctx, sid)
}

// checkQuantity holds qty within 1..available. A sold-out product accepts nothing.
func checkQuantity(qty, available int) error {
	errs := validate.Errors{}
	switch {
	case qty < 1:
		errs.Add("quantity", "must be at least 1")
	case available <= 0:
		errs.Add("quantity", "is sold out")
	case qty > available:
		errs.Add("quantity", "only "+strconv.Itoa(available)+" available")
	}
	return errs.Err()
}

// UpdateQuantity applies qty to the store at once and schedules one backend
// update per burst. A failed update reloads the cart from the backend.
func (s *CartService) UpdateQuantity(ctx context.Context, sid, key string, qty int) (store.State, error) {
	st := s.Store.Snapshot(sid)
	it, ok := st.Item(key)
	if !ok {
		return st, ErrLineNotFound
	}
	if err := checkQuantity(qty, it.Product.AvailableQuantity); err != nil {
		return st, err
	}

	st = s.Store.Dispatch(sid, store.SetQuantity{Key: key, Quantity: qty})

	// The request ends before the timer fires; keep its values (token) only.
	bg := context.WithoutCancel(ctx)
	s.Debounce.Trigger(sid+"#"+key, func() {
		cur, ok := s.Store.Snapshot(sid).Item(key)
		if !ok {
			return
		}
		err := s.Carts.Update(bg, repos.CartLine{
			ProductID:   cur.ProductID,
			Quantity:    cur.Quantity,
			RentalStart: cur.RentalStart,
			RentalEnd:   cur.RentalEnd,
		})
		if err == nil {
			return
		}
		applog.Error(nil, "cart.quantity.fail", err, map[string]any{"sid": sid, "key": key})
		s.rollback(bg, sid, "Could not update quantity: "+err.Error())
	})
	return st, nil
}

func (s *CartService) rollback(ctx context.Context, sid, msg string) {
	if _, err := s.Load(ctx, sid); err != nil {
		applog.Error(nil, "cart.reload.fail", err, map[string]any{"sid": sid})
	}
	s.Store.Dispatch(sid, store.PushToast{Toast: store.Toast{Level: "error", Message: msg}})
}

// ValidateDates checks an edited rental window.
func ValidateDates(start, end time.Time) error {
	errs := validate.Errors{}
	if start.IsZero() {
		errs.Add("rentalStart", "is required")
	}
	if end.IsZero() {
		errs.Add("rentalEnd", "is required")
	}
	if errs.Err() != nil {
		return errs
	}
	switch {
	case end.Before(start):
		errs.Add("rentalEnd", "must not be before the start")
	case end.Sub(start) > MaxRentalSpan:
		errs.Add("rentalEnd", "rental cannot exceed 365 days")
	}
	return errs.Err()
}

// EditDates moves a line to a new rental window and reloads the cart.
func (s *CartService) EditDates(ctx context.Context, sid, key string, start, end time.Time) (store.State, error) {
	st := s.Store.Snapshot(sid)
	it, ok := st.Item(key)
	if !ok {
		return st, ErrLineNotFound
	}
	if err := ValidateDates(start, end); err != nil {
		return st, err
	}
	oldStart, oldEnd := it.RentalStart, it.RentalEnd
	if err := s.Carts.Update(ctx, repos.CartLine{
		ProductID:   it.ProductID,
		Quantity:    it.Quantity,
		RentalStart: start,
		RentalEnd:   end,
		OldStart:    &oldStart,
		OldEnd:      &oldEnd,
	}); err != nil {
		return st, err
	}
	return s.Load(ctx, sid)
}

func (s *CartService) Remove(ctx context.Context, sid, key string) (store.State, error) {
	st := s.Store.Snapshot(sid)
	it, ok := st.Item(key)
	if !ok {
		return st, ErrLineNotFound
	}
	if err := s.Carts.Remove(ctx, it.ProductID, it.RentalStart, it.RentalEnd); err != nil {
		return st, err
	}
	return s.Store.Dispatch(sid, store.RemoveItem{Key: key}), nil
}

// Add puts a product in the cart for a rental window.
func (s *CartService) Add(ctx context.Context, sid, productID string, qty int, start, end time.Time) (store.State, error) {
	if err := ValidateDates(start, end); err != nil {
		return s.Store.Snapshot(sid), err
	}
	if qty < 1 {
		qty = 1
	}
	if s.Products != nil {
		p, err := s.Products.Get(ctx, productID)
		if err != nil {
			return s.Store.Snapshot(sid), err
		}
		if err := checkQuantity(qty, p.AvailableQuantity); err != nil {
			return s.Store.Snapshot(sid), err
		}
	}
	if err := s.Carts.Add(ctx, repos.CartLine{ProductID: productID, Quantity: qty, RentalStart: start, RentalEnd: end}); err != nil {
		return s.Store.Snapshot(sid), err
	}
	return s.Load(ctx, sid)
}

func (s *CartService) Toggle(sid, key string) store.State {
	return s.Store.Dispatch(sid, store.ToggleSelect{Key: key})
}

func (s *CartService) SelectAll(sid string, on bool) store.State {
	return s.Store.Dispatch(sid, store.SelectAll{On: on})
}
