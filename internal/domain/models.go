package domain

import "time"

type PriceUnit string

const (
	PerHour  PriceUnit = "hour"
	PerDay   PriceUnit = "day"
	PerWeek  PriceUnit = "week"
	PerMonth PriceUnit = "month"
)

// Minutes is the length of one unit. Unknown units count as days.
func (u PriceUnit) Minutes() int64 {
	switch u {
	case PerHour:
		return 60
	case PerWeek:
		return 7 * 24 * 60
	case PerMonth:
		return 30 * 24 * 60
	default:
		return 24 * 60
	}
}

type ModerationStatus string

const (
	StatusPending  ModerationStatus = "pending"
	StatusApproved ModerationStatus = "approved"
	StatusRejected ModerationStatus = "rejected"
)

type Category struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	ParentID string `json:"parentId,omitempty"` // empty for roots
	Active   bool   `json:"isActive"`
}

type Image struct {
	URL       string `json:"url"`
	IsPrimary bool   `json:"isPrimary"`
	Order     int    `json:"order"`
}

type Location struct {
	Address  string `json:"address,omitempty"`
	City     string `json:"city,omitempty"`
	District string `json:"district,omitempty"`
	Province string `json:"province,omitempty"`
}

type Product struct {
	ID                string           `json:"id"`
	OwnerID           string           `json:"ownerId"`
	Title             string           `json:"title"`
	ShortDescription  string           `json:"shortDescription,omitempty"`
	Description       string           `json:"description,omitempty"`
	BasePrice         float64          `json:"basePrice"`
	DepositAmount     float64          `json:"depositAmount"`
	Currency          string           `json:"currency"`
	PriceUnit         PriceUnit        `json:"priceUnit"`
	Quantity          int              `json:"quantity"`
	AvailableQuantity int              `json:"availableQuantity"`
	Condition         string           `json:"condition,omitempty"`
	CategoryID        string           `json:"categoryId,omitempty"`
	Tags              []string         `json:"tags,omitempty"`
	Images            []Image          `json:"images,omitempty"`
	Location          Location         `json:"location"`
	ViewCount         int              `json:"viewCount"`
	FavoriteCount     int              `json:"favoriteCount"`
	RentCount         int              `json:"rentCount"`
	IsHighlighted     bool             `json:"isHighlighted"`
	IsTrending        bool             `json:"isTrending"`
	Status            ModerationStatus `json:"status"`
	RejectReason      string           `json:"rejectReason,omitempty"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
}

// PrimaryImage returns the flagged image, else the lowest ordinal.
func (p Product) PrimaryImage() string {
	best := -1
	for i, img := range p.Images {
		if img.IsPrimary {
			return img.URL
		}
		if best < 0 || img.Order < p.Images[best].Order {
			best = i
		}
	}
	if best < 0 {
		return ""
	}
	return p.Images[best].URL
}

// Province used by the catalog filter; listings without one fall back to city.
func (p Product) Province() string {
	if p.Location.Province != "" {
		return p.Location.Province
	}
	return p.Location.City
}

type Availability struct {
	Status string `json:"status"` // AVAILABLE | LOW | UNAVAILABLE
	Qty    int    `json:"qty"`
}
