package tracking

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drxlabs/drx-store-golang/internal/models"
	"github.com/drxlabs/drx-store-golang/internal/token"
)

// memOrderStore mimics the MySQL store's semantics in memory: guest
// filtering in FindGuestByTokenHash, idempotency-key uniqueness, and
// atomic header+items creation.
type memOrderStore struct {
	mu       sync.Mutex
	nextID   int64
	orders   []*models.Order
	items    map[int64][]models.OrderItem
	attempts []models.LookupAttempt
	prices   map[int64]float64
	stock    map[int64]int
}

func newMemOrderStore() *memOrderStore {
	return &memOrderStore{
		nextID: 1,
		items:  make(map[int64][]models.OrderItem),
		prices: map[int64]float64{1: 950, 2: 420},
		stock:  map[int64]int{1: 10, 2: 5},
	}
}

func (s *memOrderStore) CreateWithItems(_ context.Context, order *models.Order, items []CheckoutItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(items) == 0 {
		return ErrEmptyOrder
	}
	if order.IdempotencyKey != nil {
		for _, o := range s.orders {
			if o.IdempotencyKey != nil && *o.IdempotencyKey == *order.IdempotencyKey {
				return ErrDuplicateSubmission
			}
		}
	}

	var total float64
	for _, item := range items {
		price, ok := s.prices[item.ProductID]
		if !ok {
			return ErrUnknownProduct
		}
		if s.stock[item.ProductID] < item.Quantity {
			return ErrOutOfStock
		}
		total += price * float64(item.Quantity)
	}

	order.ID = s.nextID
	s.nextID++
	order.Total = total
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt

	for _, item := range items {
		s.stock[item.ProductID] -= item.Quantity
		s.items[order.ID] = append(s.items[order.ID], models.OrderItem{
			OrderID:   order.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: s.prices[item.ProductID],
		})
	}

	cp := *order
	s.orders = append(s.orders, &cp)
	return nil
}

func (s *memOrderStore) FindByIdempotencyKey(_ context.Context, key string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.IdempotencyKey != nil && *o.IdempotencyKey == key {
			cp := *o
			return &cp, nil
		}
	}
	return nil, ErrOrderNotFound
}

func (s *memOrderStore) FindGuestByTokenHash(_ context.Context, hash string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.TrackingTokenHash == hash && o.OwnerUserID == nil {
			cp := *o
			return &cp, nil
		}
	}
	return nil, ErrOrderNotFound
}

func (s *memOrderStore) RecordLookupAttempt(_ context.Context, attempt models.LookupAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts = append(s.attempts, attempt)
	return nil
}

// stubLimiter allows everything until tripped.
type stubLimiter struct {
	mu      sync.Mutex
	count   int
	ceiling int
}

func (l *stubLimiter) RecordAndCheck(_ context.Context, _ string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.count++
	return l.ceiling == 0 || l.count <= l.ceiling, nil
}

func newService(store *memOrderStore, ceiling int) *Service {
	return NewService(store, &stubLimiter{ceiling: ceiling})
}

func guestDraft(key string) OrderDraft {
	addr := "14 Tahrir Sq, Cairo"
	return OrderDraft{
		ShippingMethod:  models.ShippingDelivery,
		CustomerName:    "Omar Hassan",
		CustomerPhone:   "+20 100 555 0199",
		ShippingAddress: &addr,
		IdempotencyKey:  key,
	}
}

func TestIssueToken_GuestOrder(t *testing.T) {
	store := newMemOrderStore()
	svc := newService(store, 0)

	result, err := svc.IssueToken(context.Background(), guestDraft(""), []CheckoutItem{{ProductID: 1, Quantity: 2}})
	require.NoError(t, err)
	require.False(t, result.Replayed)

	assert.Len(t, result.PlaintextToken, 64)
	assert.True(t, strings.HasPrefix(result.TrackingNumber, token.DisplayPrefix))
	assert.Equal(t, models.OrderStatusPending, result.Order.Status)
	assert.Equal(t, 1900.0, result.Order.Total)
	assert.Nil(t, result.Order.OwnerUserID)

	// The store holds the hash, never the plaintext.
	assert.Equal(t, token.Hash(result.PlaintextToken), result.Order.TrackingTokenHash)
	assert.NotContains(t, result.Order.TrackingTokenHash, result.PlaintextToken)
}

func TestIssueToken_IdempotentReplay(t *testing.T) {
	store := newMemOrderStore()
	svc := newService(store, 0)
	ctx := context.Background()

	first, err := svc.IssueToken(ctx, guestDraft("f81d4fae-7dec-11d0-a765-00a0c91e6bf6"), []CheckoutItem{{ProductID: 2, Quantity: 1}})
	require.NoError(t, err)
	require.NotEmpty(t, first.PlaintextToken)

	second, err := svc.IssueToken(ctx, guestDraft("f81d4fae-7dec-11d0-a765-00a0c91e6bf6"), []CheckoutItem{{ProductID: 2, Quantity: 1}})
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.Order.ID, second.Order.ID)
	assert.Equal(t, first.TrackingNumber, second.TrackingNumber)

	// The plaintext cannot be re-issued on replay.
	assert.Empty(t, second.PlaintextToken)
	assert.Len(t, store.orders, 1)
}

func TestIssueToken_StockAndProductErrors(t *testing.T) {
	store := newMemOrderStore()
	svc := newService(store, 0)
	ctx := context.Background()

	_, err := svc.IssueToken(ctx, guestDraft(""), []CheckoutItem{{ProductID: 99, Quantity: 1}})
	assert.ErrorIs(t, err, ErrUnknownProduct)

	_, err = svc.IssueToken(ctx, guestDraft(""), []CheckoutItem{{ProductID: 2, Quantity: 50}})
	assert.ErrorIs(t, err, ErrOutOfStock)

	_, err = svc.IssueToken(ctx, guestDraft(""), nil)
	assert.ErrorIs(t, err, ErrEmptyOrder)
}

func TestLookup_HappyPath(t *testing.T) {
	store := newMemOrderStore()
	svc := newService(store, 0)
	ctx := context.Background()

	issued, err := svc.IssueToken(ctx, guestDraft(""), []CheckoutItem{{ProductID: 1, Quantity: 1}})
	require.NoError(t, err)

	view, err := svc.Lookup(ctx, "203.0.113.5", issued.PlaintextToken)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, view.Status)
	assert.Equal(t, models.ShippingDelivery, view.ShippingMethod)
	assert.WithinDuration(t, issued.Order.CreatedAt, view.CreatedAt, time.Second)
}

func TestLookup_TokenUnlinkability(t *testing.T) {
	store := newMemOrderStore()
	svc := newService(store, 0)
	ctx := context.Background()

	issued, err := svc.IssueToken(ctx, guestDraft(""), []CheckoutItem{{ProductID: 1, Quantity: 1}})
	require.NoError(t, err)

	// Flip one character of the valid token.
	altered := []byte(issued.PlaintextToken)
	if altered[0] == 'a' {
		altered[0] = 'b'
	} else {
		altered[0] = 'a'
	}

	_, err = svc.Lookup(ctx, "203.0.113.5", string(altered))
	assert.ErrorIs(t, err, ErrOrderNotFound)

	// The display tracking number is not a lookup secret either.
	_, err = svc.Lookup(ctx, "203.0.113.5", issued.TrackingNumber)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestLookup_GuestOwnerIsolation(t *testing.T) {
	store := newMemOrderStore()
	svc := newService(store, 0)
	ctx := context.Background()

	ownerID := int64(42)
	draft := guestDraft("")
	draft.OwnerUserID = &ownerID

	issued, err := svc.IssueToken(ctx, draft, []CheckoutItem{{ProductID: 1, Quantity: 1}})
	require.NoError(t, err)

	// Even the correct token must not reach an owned order anonymously.
	_, err = svc.Lookup(ctx, "203.0.113.5", issued.PlaintextToken)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestLookup_InvalidLengthStillRecorded(t *testing.T) {
	store := newMemOrderStore()
	svc := newService(store, 0)
	ctx := context.Background()

	_, err := svc.Lookup(ctx, "203.0.113.5", "short")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Lookup(ctx, "203.0.113.5", strings.Repeat("a", 200))
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Both attempts hit the ledger with a fingerprint, never the token.
	require.Len(t, store.attempts, 2)
	for _, a := range store.attempts {
		assert.Equal(t, "203.0.113.5", a.SourceAddress)
		assert.Len(t, a.TokenFingerprint, 12)
		assert.False(t, a.AttemptedAt.IsZero())
	}
}

func TestLookup_RateLimited(t *testing.T) {
	store := newMemOrderStore()
	svc := newService(store, 3)
	ctx := context.Background()

	issued, err := svc.IssueToken(ctx, guestDraft(""), []CheckoutItem{{ProductID: 1, Quantity: 1}})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := svc.Lookup(ctx, "198.51.100.2", issued.PlaintextToken)
		require.NoError(t, err)
	}

	// Past the ceiling, even the correct token is throttled, and the
	// attempt is still appended to the ledger.
	_, err = svc.Lookup(ctx, "198.51.100.2", issued.PlaintextToken)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Len(t, store.attempts, 4)
}
