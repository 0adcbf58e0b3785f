// Package vault provides ephemeral token storage for redacted values with
// TTL-based expiry and idempotent purging.
package vault

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
)

// Token text format: "[REDACTED_<16 lowercase hex chars>]". The 16 hex
// characters carry 64 bits of entropy from crypto/rand, wide enough that
// collisions are negligible; Mint still verifies absence before inserting.
const (
	tokenIDBytes = 8
	tokenPrefix  = "[REDACTED_"
	tokenSuffix  = "]"
)

var tokenPattern = regexp.MustCompile(`\[REDACTED_[0-9a-f]{16}\]`)

// NewToken generates a fresh token string in the fixed wire format.
func NewToken() (string, error) {
	buf := make([]byte, tokenIDBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("vault: generate token id: %w", err)
	}
	return tokenPrefix + hex.EncodeToString(buf) + tokenSuffix, nil
}

// ExtractTokens returns every token-shaped substring in text, in order of
// appearance, duplicates included.
func ExtractTokens(text string) []string {
	return tokenPattern.FindAllString(text, -1)
}

// IsToken reports whether s is exactly one well-formed token.
func IsToken(s string) bool {
	match := tokenPattern.FindString(s)
	return match == s && s != ""
}
