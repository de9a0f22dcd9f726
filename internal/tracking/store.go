package tracking

import (
	"context"
	"errors"

	"github.com/drxlabs/drx-store-golang/internal/models"
)

var (
	// ErrOrderNotFound covers both "no such token" and "token belongs
	// to an authenticated-owner order": the anonymous path must not
	// distinguish the two.
	ErrOrderNotFound = errors.New("order not found")

	// ErrDuplicateSubmission signals an idempotency-key collision on
	// order creation.
	ErrDuplicateSubmission = errors.New("duplicate checkout submission")

	ErrUnknownProduct = errors.New("unknown or unpublished product")
	ErrOutOfStock     = errors.New("not enough stock")
	ErrEmptyOrder     = errors.New("order has no items")
)

// CheckoutItem is one requested line item; unit price is resolved from
// the catalog inside the order-creation transaction, never trusted from
// the client.
type CheckoutItem struct {
	ProductID int64
	Quantity  int
}

// OrderStore is the persistence port for orders and the lookup-attempts
// ledger. CreateWithItems must write the order header and its items
// atomically: a half-written order must never become visible.
type OrderStore interface {
	// CreateWithItems persists the order and its line items in one
	// transaction, resolving prices and decrementing stock. On success
	// it fills in the order's ID, Total and CreatedAt.
	CreateWithItems(ctx context.Context, order *models.Order, items []CheckoutItem) error

	// FindByIdempotencyKey returns the order previously created with
	// the given key, or ErrOrderNotFound.
	FindByIdempotencyKey(ctx context.Context, key string) (*models.Order, error)

	// FindGuestByTokenHash returns the guest order whose stored token
	// hash equals hash. Orders with an owner are excluded at the query
	// level and surface as ErrOrderNotFound.
	FindGuestByTokenHash(ctx context.Context, hash string) (*models.Order, error)

	// RecordLookupAttempt appends one row to the lookup_attempts
	// ledger.
	RecordLookupAttempt(ctx context.Context, attempt models.LookupAttempt) error
}
