package verification

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drxlabs/drx-store-golang/internal/models"
)

// memCodeStore is an in-memory CodeStore whose Redeem performs the same
// compare-and-swap the MySQL store does with its conditional UPDATE.
type memCodeStore struct {
	mu    sync.Mutex
	codes map[string]*models.VerificationCode
}

func newMemCodeStore(codes ...string) *memCodeStore {
	s := &memCodeStore{codes: make(map[string]*models.VerificationCode)}
	for _, c := range codes {
		s.codes[c] = &models.VerificationCode{Code: c, CreatedAt: time.Now()}
	}
	return s
}

func (s *memCodeStore) Find(_ context.Context, code string) (*models.VerificationCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vc, ok := s.codes[code]
	if !ok {
		return nil, ErrCodeNotFound
	}
	cp := *vc
	return &cp, nil
}

func (s *memCodeStore) Redeem(_ context.Context, code string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vc, ok := s.codes[code]
	if !ok || vc.Used {
		return false, nil
	}
	vc.Used = true
	vc.UsedAt = &at
	return true, nil
}

func (s *memCodeStore) CreateBatch(_ context.Context, codes []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inserted := 0
	for _, c := range codes {
		if _, ok := s.codes[c]; ok {
			continue
		}
		s.codes[c] = &models.VerificationCode{Code: c, CreatedAt: time.Now()}
		inserted++
	}
	return inserted, nil
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"DRX-EGY-007", "DRX-EGY-007"},
		{"drx-egy-007", "DRX-EGY-007"},
		{"  DRX-EGY-007  ", "DRX-EGY-007"},
		{"007", "DRX-EGY-007"},
		{"7", "DRX-EGY-007"},
		{"drx-egy-7", "DRX-EGY-007"},
		{"42", "DRX-EGY-042"},
		{"999", "DRX-EGY-999"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.input), "input %q", tt.input)
	}
}

func TestRedeem_InvalidFormat(t *testing.T) {
	svc := NewService(newMemCodeStore())
	ctx := context.Background()

	for _, input := range []string{"", "hello", "DRX-EGY-", "DRX-EGY-12345", "1234", "FAKE-007"} {
		result, err := svc.Redeem(ctx, input)
		require.NoError(t, err, "input %q", input)
		assert.False(t, result.Valid)
		assert.Equal(t, ReasonInvalidFormat, result.Reason, "input %q", input)
	}
}

func TestRedeem_NotFound(t *testing.T) {
	svc := NewService(newMemCodeStore("DRX-EGY-001"))

	result, err := svc.Redeem(context.Background(), "DRX-EGY-002")
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, ReasonNotFound, result.Reason)
}

func TestRedeem_SuccessThenAlreadyUsed(t *testing.T) {
	store := newMemCodeStore("DRX-EGY-007")
	svc := NewService(store)
	ctx := context.Background()

	result, err := svc.Redeem(ctx, "DRX-EGY-007")
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, "DRX-EGY-007", result.Code)

	result, err = svc.Redeem(ctx, "DRX-EGY-007")
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, ReasonAlreadyUsed, result.Reason)
	require.NotNil(t, result.UsedAt)

	vc, err := store.Find(ctx, "DRX-EGY-007")
	require.NoError(t, err)
	assert.True(t, vc.Used)
}

func TestRedeem_NormalizedVariantsHitSameCode(t *testing.T) {
	store := newMemCodeStore("DRX-EGY-007")
	svc := NewService(store)
	ctx := context.Background()

	result, err := svc.Redeem(ctx, "7")
	require.NoError(t, err)
	require.True(t, result.Valid)
	assert.Equal(t, "DRX-EGY-007", result.Code)

	// Every other spelling of the same code now reports already_used.
	for _, input := range []string{"007", "drx-egy-007", "DRX-EGY-007"} {
		result, err := svc.Redeem(ctx, input)
		require.NoError(t, err)
		assert.False(t, result.Valid, "input %q", input)
		assert.Equal(t, ReasonAlreadyUsed, result.Reason, "input %q", input)
	}
}

func TestRedeem_AtMostOnceUnderConcurrency(t *testing.T) {
	store := newMemCodeStore("DRX-EGY-100")
	svc := NewService(store)
	ctx := context.Background()

	const attempts = 50
	results := make([]Result, attempts)
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Redeem(ctx, "DRX-EGY-100")
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "attempt %d", i)
	}

	successes := 0
	alreadyUsed := 0
	for _, r := range results {
		if r.Valid {
			successes++
		} else if r.Reason == ReasonAlreadyUsed {
			alreadyUsed++
		}
	}

	assert.Equal(t, 1, successes, "exactly one redemption may succeed")
	assert.Equal(t, attempts-1, alreadyUsed)

	vc, err := store.Find(ctx, "DRX-EGY-100")
	require.NoError(t, err)
	assert.True(t, vc.Used)
	assert.NotNil(t, vc.UsedAt)
}

func TestProvision(t *testing.T) {
	store := newMemCodeStore("DRX-EGY-002")
	svc := NewService(store)

	inserted, codes, err := svc.Provision(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.Equal(t, 4, inserted, "existing code is skipped")
	assert.Equal(t, []string{"DRX-EGY-001", "DRX-EGY-002", "DRX-EGY-003", "DRX-EGY-004", "DRX-EGY-005"}, codes)

	_, _, err = svc.Provision(context.Background(), 10, 5)
	assert.Error(t, err)
}
