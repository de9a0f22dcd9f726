package verification

import (
	"context"
	"errors"
	"time"

	"github.com/drxlabs/drx-store-golang/internal/models"
)

// ErrCodeNotFound is returned by CodeStore.Find when no row exists for
// the canonical code.
var ErrCodeNotFound = errors.New("verification code not found")

// CodeStore is the persistence port for verification codes. Redeem must
// be atomic per code at the storage layer: of N concurrent calls for the
// same unredeemed code, exactly one may return true.
type CodeStore interface {
	Find(ctx context.Context, code string) (*models.VerificationCode, error)

	// Redeem flips the code from unused to used with the given
	// timestamp. It returns false (without error) when the code does
	// not exist or was already used.
	Redeem(ctx context.Context, code string, at time.Time) (bool, error)

	// CreateBatch provisions codes, skipping ones that already exist.
	// It returns the number of codes actually inserted.
	CreateBatch(ctx context.Context, codes []string) (int, error)
}
