package models

import (
	"time"
)

// Order statuses. Admins may assign any of these; the store does not
// enforce a forward-only sequence.
const (
	OrderStatusPending   = "Pending"
	OrderStatusConfirmed = "Confirmed"
	OrderStatusShipped   = "Shipped"
	OrderStatusDelivered = "Delivered"
	OrderStatusCancelled = "Cancelled"
)

// Shipping methods
const (
	ShippingDelivery = "delivery"
	ShippingPickup   = "pickup"
)

// ValidOrderStatus reports whether s is one of the known order statuses.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Order is the model for the 'orders' table.
// TrackingTokenHash holds the SHA-256 of the bearer token; the plaintext
// token is never stored and is returned to the purchaser exactly once.
type Order struct {
	ID             int64   `json:"id" db:"id"`
	OwnerUserID    *int64  `json:"-" db:"owner_user_id"` // nil = guest order
	Status         string  `json:"status" db:"status"`
	ShippingMethod string  `json:"shippingMethod" db:"shipping_method"`
	Total          float64 `json:"total" db:"total"`

	TrackingTokenHash string  `json:"-" db:"tracking_token_hash"`
	TrackingNumber    string  `json:"trackingNumber" db:"tracking_number"` // display-only, not a lookup secret
	IdempotencyKey    *string `json:"-" db:"idempotency_key"`

	CustomerName    string  `json:"customerName" db:"customer_name"`
	CustomerPhone   string  `json:"customerPhone" db:"customer_phone"`
	CustomerEmail   *string `json:"customerEmail,omitempty" db:"customer_email"`
	ShippingAddress *string `json:"shippingAddress,omitempty" db:"shipping_address"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// OrderItem is the model for the 'order_items' table
type OrderItem struct {
	ID        int64     `json:"id" db:"id"`
	OrderID   int64     `json:"orderId" db:"order_id"`
	ProductID int64     `json:"productId" db:"product_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	UnitPrice float64   `json:"unitPrice" db:"unit_price"` // Price at the time of purchase
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// GuestOrderView is the minimal projection returned by the anonymous
// token-based lookup. Nothing else from the order row may cross this
// boundary: no address, phone, email, total, items, or owner.
type GuestOrderView struct {
	Status         string    `json:"status"`
	ShippingMethod string    `json:"shippingMethod"`
	CreatedAt      time.Time `json:"createdAt"`
}

// LookupAttempt is the model for the 'lookup_attempts' table, the
// rate-limiting/forensics ledger for anonymous tracking lookups.
// TokenFingerprint is a short hash prefix, never enough to reconstruct
// the attempted token.
type LookupAttempt struct {
	ID               int64     `json:"id" db:"id"`
	SourceAddress    string    `json:"sourceAddress" db:"source_address"`
	TokenFingerprint string    `json:"tokenFingerprint" db:"token_fingerprint"`
	AttemptedAt      time.Time `json:"attemptedAt" db:"attempted_at"`
}
