// Package verification implements the product-authenticity code
// subsystem: normalization, format validation and at-most-once
// redemption of codes printed on physical DRX products.
package verification

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// CodePrefix is the canonical prefix for DRX authenticity codes.
const CodePrefix = "DRX-EGY-"

// Redemption outcome reasons returned to the client.
const (
	ReasonInvalidFormat = "invalid_format"
	ReasonNotFound      = "not_found"
	ReasonAlreadyUsed   = "already_used"
)

var codePattern = regexp.MustCompile(`^DRX-EGY-\d{3}$`)
var bareNumberPattern = regexp.MustCompile(`^\d{1,3}$`)

const storageTimeout = 5 * time.Second

// Result is the outcome of a redemption attempt. Reason is set only when
// Valid is false; UsedAt only for already_used.
type Result struct {
	Valid  bool
	Code   string
	Reason string
	UsedAt *time.Time
}

// Service orchestrates code redemption over a CodeStore.
type Service struct {
	store CodeStore
}

func NewService(store CodeStore) *Service {
	return &Service{store: store}
}

// Normalize brings user input into canonical DRX-EGY-### form. Bare
// numeric inputs like "7" or "007" are bridged to the prefixed form;
// anything else is returned upper-cased and trimmed for validation to
// reject.
func Normalize(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if codePattern.MatchString(s) {
		return s
	}

	// For inputs like "DRX-EGY-7" only the number part is malformed.
	numberPart := strings.TrimPrefix(s, CodePrefix)

	// Bridge bare numeric inputs ("7", "007") by zero-padding into the
	// canonical form. Anything with extra noise fails validation.
	if !bareNumberPattern.MatchString(numberPart) {
		return s
	}
	n, err := strconv.Atoi(numberPart)
	if err != nil {
		return s
	}
	return fmt.Sprintf("%s%03d", CodePrefix, n)
}

// Redeem validates and redeems a raw code input. It returns an error only
// for storage failures; every expected outcome (bad format, unknown code,
// already used, success) is a Result.
//
// The success path is a single conditional write, so N concurrent calls
// for the same fresh code yield exactly one Valid result.
func (s *Service) Redeem(ctx context.Context, rawInput string) (Result, error) {
	// 1. --- Normalize & Validate ---
	code := Normalize(rawInput)
	if !codePattern.MatchString(code) {
		return Result{Valid: false, Reason: ReasonInvalidFormat}, nil
	}

	// Bound the storage round trips; a hung store becomes a retryable
	// server error, never a silent success.
	ctx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()

	// 2. --- Atomic Check-and-Set ---
	now := time.Now().UTC()
	redeemed, err := s.store.Redeem(ctx, code, now)
	if err != nil {
		return Result{}, fmt.Errorf("redeem %s: %w", code, err)
	}
	if redeemed {
		return Result{Valid: true, Code: code}, nil
	}

	// 3. --- Diagnose the Miss ---
	vc, err := s.store.Find(ctx, code)
	if err != nil {
		if err == ErrCodeNotFound {
			return Result{Valid: false, Reason: ReasonNotFound}, nil
		}
		return Result{}, fmt.Errorf("find %s: %w", code, err)
	}

	if !vc.Used {
		// The conditional write failed but the row is unused: the store
		// broke its atomicity contract.
		return Result{}, fmt.Errorf("code %s in inconsistent state: redeem failed but code is unused", code)
	}

	return Result{Valid: false, Reason: ReasonAlreadyUsed, UsedAt: vc.UsedAt}, nil
}

// Provision creates a numbered range of codes, e.g. DRX-EGY-001 through
// DRX-EGY-150, skipping any that already exist.
func (s *Service) Provision(ctx context.Context, from, to int) (int, []string, error) {
	if from < 0 || to > 999 || from > to {
		return 0, nil, fmt.Errorf("invalid code range %d-%d", from, to)
	}

	codes := make([]string, 0, to-from+1)
	for n := from; n <= to; n++ {
		codes = append(codes, fmt.Sprintf("%s%03d", CodePrefix, n))
	}

	inserted, err := s.store.CreateBatch(ctx, codes)
	if err != nil {
		return 0, nil, fmt.Errorf("provision codes: %w", err)
	}
	return inserted, codes, nil
}
