// Package token generates and hashes order-tracking bearer tokens.
//
// The full 64-character hex token is the only secret accepted by the
// tracking lookup. The short DRX-TRK-XXXXXXXXXXXX display number shown to
// customers is cosmetic: it carries ~48 bits of entropy and must never be
// used as a lookup key.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// DisplayPrefix is the human-readable label on customer-facing
	// tracking numbers.
	DisplayPrefix = "DRX-TRK-"

	tokenBytes      = 32
	displayHexChars = 12
	fingerprintLen  = 12
)

// Generate produces a new tracking token. It returns the plaintext token
// (the lookup secret, 64 hex chars) and the display tracking number shown
// to the customer.
func Generate() (plaintext string, displayNumber string, err error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	plaintext = hex.EncodeToString(buf)
	displayNumber = DisplayPrefix + strings.ToUpper(plaintext[:displayHexChars])
	return plaintext, displayNumber, nil
}

// Hash returns the hex-encoded SHA-256 of the plaintext token. The hash is
// deterministic (required for equality lookup) and unsalted: the token
// itself carries full entropy and is never reused across orders.
func Hash(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// Fingerprint truncates a token hash to a short prefix safe for logs and
// the lookup-attempts ledger. It cannot be used to reconstruct the hash
// or the token.
func Fingerprint(hashHex string) string {
	if len(hashHex) <= fingerprintLen {
		return hashHex
	}
	return hashHex[:fingerprintLen]
}
