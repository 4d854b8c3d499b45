package domain

import "time"

// Identity is what the storefront shows about the signed-in user. It is
// decoded from the bearer token and must not drive authorization.
type Identity struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Avatar   string `json:"avatar,omitempty"`
}

type Profile struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Phone    string `json:"phone,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
	Role     string `json:"role,omitempty"`
}

type OwnerRequestStatus string

const (
	OwnerRequestPending  OwnerRequestStatus = "pending"
	OwnerRequestApproved OwnerRequestStatus = "approved"
	OwnerRequestRejected OwnerRequestStatus = "rejected"
)

type OwnerRequest struct {
	ID           string             `json:"id"`
	UserID       string             `json:"userId"`
	ShopName     string             `json:"shopName"`
	Reason       string             `json:"reason"`
	Status       OwnerRequestStatus `json:"status"`
	RejectReason string             `json:"rejectReason,omitempty"`
	CreatedAt    time.Time          `json:"createdAt"`
}
