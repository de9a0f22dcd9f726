package verification

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/drxlabs/drx-store-golang/internal/models"
)

// MySQLCodeStore implements CodeStore on the 'verification_codes' table.
type MySQLCodeStore struct {
	DB *sql.DB
}

func NewMySQLCodeStore(db *sql.DB) *MySQLCodeStore {
	return &MySQLCodeStore{DB: db}
}

func (s *MySQLCodeStore) Find(ctx context.Context, code string) (*models.VerificationCode, error) {
	query := `
		SELECT code, used, used_at, created_at
		FROM verification_codes
		WHERE code = ?`

	var vc models.VerificationCode
	var usedAt sql.NullTime

	err := s.DB.QueryRowContext(ctx, query, code).Scan(&vc.Code, &vc.Used, &usedAt, &vc.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCodeNotFound
		}
		return nil, err
	}

	if usedAt.Valid {
		vc.UsedAt = &usedAt.Time
	}
	return &vc, nil
}

// Redeem is the storage-layer compare-and-swap: the WHERE clause only
// matches an unused row, so two racing redemptions can never both see
// RowsAffected == 1.
func (s *MySQLCodeStore) Redeem(ctx context.Context, code string, at time.Time) (bool, error) {
	query := `
		UPDATE verification_codes
		SET used = 1, used_at = ?
		WHERE code = ? AND used = 0`

	result, err := s.DB.ExecContext(ctx, query, at, code)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected == 1, nil
}

func (s *MySQLCodeStore) CreateBatch(ctx context.Context, codes []string) (int, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback() // Safety net

	query := `
		INSERT IGNORE INTO verification_codes (code, used, created_at)
		VALUES (?, 0, ?)`

	now := time.Now()
	inserted := 0
	for _, code := range codes {
		result, err := tx.ExecContext(ctx, query, code, now)
		if err != nil {
			return 0, err
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return 0, err
		}
		inserted += int(rowsAffected)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}
