// Package tracking implements token issuance at checkout and the
// rate-limited anonymous order lookup.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/drxlabs/drx-store-golang/internal/models"
	"github.com/drxlabs/drx-store-golang/internal/ratelimit"
	"github.com/drxlabs/drx-store-golang/internal/token"
)

var (
	// ErrRateLimited means the caller exhausted its lookup window.
	ErrRateLimited = errors.New("too many attempts")

	// ErrInvalidToken means the supplied token is outside the sane
	// length bounds for a real token.
	ErrInvalidToken = errors.New("invalid tracking token")
)

// Tokens are 64 hex chars; anything far off that is noise, but the
// bounds are loose on purpose so format probing reveals little.
const (
	minTokenLen = 20
	maxTokenLen = 120
)

// Persistence calls are bounded; a hung store surfaces as a retryable
// server error, never a silent success.
const storageTimeout = 5 * time.Second

// OrderDraft carries the checkout fields needed to create an order.
// OwnerUserID is nil for guest checkouts.
type OrderDraft struct {
	OwnerUserID     *int64
	ShippingMethod  string
	CustomerName    string
	CustomerPhone   string
	CustomerEmail   *string
	ShippingAddress *string
	IdempotencyKey  string
}

// IssueResult is what checkout hands back to the purchaser. The
// plaintext token appears here exactly once and nowhere else; on an
// idempotent replay it is empty because it cannot be recovered.
type IssueResult struct {
	Order          *models.Order
	PlaintextToken string
	TrackingNumber string
	Replayed       bool
}

// Service orchestrates token issuance and token-based lookup.
type Service struct {
	store   OrderStore
	limiter ratelimit.Limiter
}

func NewService(store OrderStore, limiter ratelimit.Limiter) *Service {
	return &Service{store: store, limiter: limiter}
}

// IssueToken mints a fresh tracking token, persists the order (header
// and items atomically) with the token's hash, and returns the plaintext
// to the caller for the only time.
func (s *Service) IssueToken(ctx context.Context, draft OrderDraft, items []CheckoutItem) (*IssueResult, error) {
	ctx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()

	// 1. --- Idempotent Replay Check ---
	if draft.IdempotencyKey != "" {
		existing, err := s.store.FindByIdempotencyKey(ctx, draft.IdempotencyKey)
		if err == nil {
			return &IssueResult{Order: existing, TrackingNumber: existing.TrackingNumber, Replayed: true}, nil
		}
		if !errors.Is(err, ErrOrderNotFound) {
			return nil, fmt.Errorf("idempotency lookup: %w", err)
		}
	}

	// 2. --- Mint the Token ---
	plaintext, displayNumber, err := token.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate tracking token: %w", err)
	}

	order := &models.Order{
		OwnerUserID:       draft.OwnerUserID,
		Status:            models.OrderStatusPending,
		ShippingMethod:    draft.ShippingMethod,
		TrackingTokenHash: token.Hash(plaintext),
		TrackingNumber:    displayNumber,
		CustomerName:      draft.CustomerName,
		CustomerPhone:     draft.CustomerPhone,
		CustomerEmail:     draft.CustomerEmail,
		ShippingAddress:   draft.ShippingAddress,
	}
	if draft.IdempotencyKey != "" {
		key := draft.IdempotencyKey
		order.IdempotencyKey = &key
	}

	// 3. --- Persist Header + Items Atomically ---
	if err := s.store.CreateWithItems(ctx, order, items); err != nil {
		if errors.Is(err, ErrDuplicateSubmission) {
			// Lost the race against a concurrent identical submission.
			existing, findErr := s.store.FindByIdempotencyKey(ctx, draft.IdempotencyKey)
			if findErr != nil {
				return nil, fmt.Errorf("duplicate submission, replay lookup failed: %w", findErr)
			}
			return &IssueResult{Order: existing, TrackingNumber: existing.TrackingNumber, Replayed: true}, nil
		}
		return nil, err
	}

	return &IssueResult{
		Order:          order,
		PlaintextToken: plaintext,
		TrackingNumber: displayNumber,
	}, nil
}

// Lookup resolves a raw bearer token to the guest-safe order projection.
// Every attempt is appended to the ledger before any result is computed,
// then gated by the per-address sliding window. Failure modes surface as
// ErrRateLimited, ErrInvalidToken or ErrOrderNotFound.
func (s *Service) Lookup(ctx context.Context, callerAddress, rawToken string) (*models.GuestOrderView, error) {
	ctx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()

	hash := token.Hash(rawToken)

	// 1. --- Record the Attempt (unconditional) ---
	attempt := models.LookupAttempt{
		SourceAddress:    callerAddress,
		TokenFingerprint: token.Fingerprint(hash),
		AttemptedAt:      time.Now().UTC(),
	}
	if err := s.store.RecordLookupAttempt(ctx, attempt); err != nil {
		return nil, err
	}

	// 2. --- Rate-Limit Gate ---
	allowed, err := s.limiter.RecordAndCheck(ctx, callerAddress)
	if err != nil {
		return nil, fmt.Errorf("rate limit check: %w", err)
	}
	if !allowed {
		return nil, ErrRateLimited
	}

	// 3. --- Length Sanity Bound ---
	if len(rawToken) < minTokenLen || len(rawToken) > maxTokenLen {
		return nil, ErrInvalidToken
	}

	// 4. --- Hash Compare (guest orders only) ---
	order, err := s.store.FindGuestByTokenHash(ctx, hash)
	if err != nil {
		return nil, err
	}

	// 5. --- Minimal Guest Projection ---
	return &models.GuestOrderView{
		Status:         order.Status,
		ShippingMethod: order.ShippingMethod,
		CreatedAt:      order.CreatedAt,
	}, nil
}
