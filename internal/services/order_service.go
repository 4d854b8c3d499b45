package services

import (
	"context"

	"rentalhub/internal/domain"
	"rentalhub/internal/repos"
)

type OrderService struct {
	Orders *repos.OrderRepo
}

func NewOrderService(orders *repos.OrderRepo) *OrderService {
	return &OrderService{Orders: orders}
}

// OrderView is an order with the backend's current tax rate for display.
type OrderView struct {
	Order   domain.Order
	TaxRate float64
	Steps   []Step
}

// Step is one stage of the order timeline.
type Step struct {
	Status domain.OrderStatus
	Done   bool
	Active bool
}

var orderFlow = []domain.OrderStatus{
	domain.OrderPending,
	domain.OrderConfirmed,
	domain.OrderInProgress,
	domain.OrderReturned,
	domain.OrderCompleted,
}

// Timeline marks the happy-path stages reached by status. Cancelled and
// disputed orders stop the timeline where they are.
func Timeline(status domain.OrderStatus) []Step {
	at := -1
	for i, s := range orderFlow {
		if s == status {
			at = i
		}
	}
	steps := make([]Step, len(orderFlow))
	for i, s := range orderFlow {
		steps[i] = Step{Status: s, Done: at >= 0 && i < at, Active: i == at}
	}
	return steps
}

func (s *OrderService) Detail(ctx context.Context, id string) (OrderView, error) {
	o, err := s.Orders.Get(ctx, id)
	if err != nil {
		return OrderView{}, err
	}
	rate, err := s.Orders.TaxRate(ctx)
	if err != nil {
		rate = TaxRate
	}
	return OrderView{Order: o, TaxRate: rate, Steps: Timeline(o.Status)}, nil
}
