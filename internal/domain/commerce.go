package domain

import "time"

// CartItem is one rental line. The same product with a different rental
// window is a different line.
type CartItem struct {
	ProductID   string    `json:"productId"`
	Product     Product   `json:"product"`
	Quantity    int       `json:"quantity"`
	RentalStart time.Time `json:"rentalStart"`
	RentalEnd   time.Time `json:"rentalEnd"`
}

// Key identifies the line for selection and debouncing.
func (it CartItem) Key() string {
	return ItemKey(it.ProductID, it.RentalStart, it.RentalEnd)
}

func ItemKey(productID string, start, end time.Time) string {
	return productID + "|" + start.UTC().Format(time.RFC3339) + "|" + end.UTC().Format(time.RFC3339)
}

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderInProgress OrderStatus = "in_progress"
	OrderReturned   OrderStatus = "returned"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
	OrderDisputed   OrderStatus = "disputed"
)

type Party struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

type Order struct {
	ID              string      `json:"id"`
	Item            CartItem    `json:"item"`
	Renter          Party       `json:"renter"`
	Owner           Party       `json:"owner"`
	ShippingAddress string      `json:"shippingAddress"`
	PaymentMethod   string      `json:"paymentMethod"`
	PaymentStatus   string      `json:"paymentStatus"`
	Status          OrderStatus `json:"status"`
	RentalTotal     float64     `json:"rentalTotal"`
	ServiceFee      float64     `json:"serviceFee"`
	Deposit         float64     `json:"deposit"`
	GrandTotal      float64     `json:"grandTotal"`
	CreatedAt       time.Time   `json:"createdAt"`
}

type Participant struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Avatar   string `json:"avatar,omitempty"`
}

type Conversation struct {
	ID           string        `json:"id"`
	Participants []Participant `json:"participants"`
	LastMessage  string        `json:"lastMessage,omitempty"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

type DiscountType string

const (
	DiscountPercent DiscountType = "percent"
	DiscountFixed   DiscountType = "fixed"
)

type DiscountAssignment struct {
	UserID    string `json:"userId"`
	UsedCount int    `json:"usedCount"`
}

type Discount struct {
	ID            string               `json:"id"`
	Code          string               `json:"code"`
	Type          DiscountType         `json:"type"`
	Value         float64              `json:"value"`
	MaxDiscount   float64              `json:"maxDiscount,omitempty"`
	MinOrderValue float64              `json:"minOrderValue,omitempty"`
	UsageLimit    int                  `json:"usageLimit"`
	UsedCount     int                  `json:"usedCount"`
	StartsAt      time.Time            `json:"startsAt"`
	EndsAt        time.Time            `json:"endsAt"`
	IsPublic      bool                 `json:"isPublic"`
	IsActive      bool                 `json:"isActive"`
	Assignments   []DiscountAssignment `json:"assignments,omitempty"`
}
