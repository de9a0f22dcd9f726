package models

import "time"

// VerificationCode is the model for the 'verification_codes' table.
// Each code is printed on one physical product and is redeemable at most
// once: Used never transitions back to false, and UsedAt is set exactly
// when Used flips true.
type VerificationCode struct {
	Code      string     `json:"code" db:"code"` // canonical form, e.g. DRX-EGY-007
	Used      bool       `json:"used" db:"used"`
	UsedAt    *time.Time `json:"usedAt,omitempty" db:"used_at"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
}
